package transcriber

import (
	"context"
	"sync"
)

// FakeModel returns canned segments and records the artifacts it saw.
type FakeModel struct {
	Segments []string
	Err      error
	// Panic, when set, is raised from Transcribe.
	Panic any

	mu     sync.Mutex
	calls  []string
	closed bool
}

func NewFake(segments []string, err error) *FakeModel {
	return &FakeModel{Segments: segments, Err: err}
}

func (f *FakeModel) Transcribe(_ context.Context, wavPath string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, wavPath)
	f.mu.Unlock()
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.Segments...), nil
}

func (f *FakeModel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FakeModel) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeModel) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Loader returns a LoadFunc that always yields f.
func (f *FakeModel) Loader() LoadFunc {
	return func(string) (Model, error) { return f, nil }
}
