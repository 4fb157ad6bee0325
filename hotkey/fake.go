package hotkey

import "sync"

// FakeSource is a scriptable listener for tests and the -test mode.
type FakeSource struct {
	StartErr error

	mu     sync.Mutex
	ch     chan KeyEvent
	closed bool
}

func (f *FakeSource) Start() (<-chan KeyEvent, error) {
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = make(chan KeyEvent, 16)
	f.closed = false
	return f.ch, nil
}

func (f *FakeSource) Stop() { f.close() }

// Kill simulates the OS tearing down the listener.
func (f *FakeSource) Kill() { f.close() }

func (f *FakeSource) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch != nil && !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// Alive reports whether the source is started and not yet stopped.
func (f *FakeSource) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ch != nil && !f.closed
}

// Send delivers ev and reports whether the listener was alive to take it.
func (f *FakeSource) Send(ev KeyEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil || f.closed {
		return false
	}
	f.ch <- ev
	return true
}

func (f *FakeSource) SimPress(b Binding) bool {
	return f.Send(KeyEvent{Kind: Press, Keycode: b.Keycodes[0]})
}

func (f *FakeSource) SimRelease(b Binding) bool {
	return f.Send(KeyEvent{Kind: Release, Keycode: b.Keycodes[0]})
}

// FakeFactory hands out a fresh FakeSource per listener start.
type FakeFactory struct {
	mu      sync.Mutex
	sources []*FakeSource
	err     error
}

func (f *FakeFactory) New() Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &FakeSource{StartErr: f.err}
	f.sources = append(f.sources, s)
	return s
}

// FailStarts makes subsequent sources fail to start until cleared with nil.
func (f *FakeFactory) FailStarts(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeFactory) Latest() *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sources) == 0 {
		return nil
	}
	return f.sources[len(f.sources)-1]
}

func (f *FakeFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sources)
}
