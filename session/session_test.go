package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"dictator/audio"
	"dictator/recorder"
	"dictator/transcriber"
)

type statusLog struct {
	NopObserver
	mu     sync.Mutex
	states []State
	levels []float64
	texts  []string
	errs   []error
}

func (s *statusLog) Status(st State) {
	s.mu.Lock()
	s.states = append(s.states, st)
	s.mu.Unlock()
}

func (s *statusLog) Level(l float64) {
	s.mu.Lock()
	s.levels = append(s.levels, l)
	s.mu.Unlock()
}

func (s *statusLog) Transcribed(text string) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
}

func (s *statusLog) Error(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *statusLog) snapshot() ([]State, []float64, []string, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.states), slices.Clone(s.levels), slices.Clone(s.texts), slices.Clone(s.errs)
}

type fakePaster struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (p *fakePaster) Paste(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	return p.err
}

func (p *fakePaster) pasted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.texts)
}

// stubRecorder is a scripted Recorder.
type stubRecorder struct {
	mu       sync.Mutex
	starts   int
	stops    int
	startErr error
	artifact *recorder.Artifact
	level    float64
	panicOn  string
}

func (r *stubRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn == "start" {
		panic("driver exploded")
	}
	r.starts++
	return r.startErr
}

func (r *stubRecorder) Stop() (*recorder.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	a := r.artifact
	r.artifact = nil
	return a, nil
}

func (r *stubRecorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

func (r *stubRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops
}

type stubTranscriber struct {
	text    string
	err     error
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *stubTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	os.Remove(path)
	return s.text, s.err
}

func artifactFile(t *testing.T) *recorder.Artifact {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &recorder.Artifact{Path: p, Samples: 16000, Duration: time.Second}
}

func newController(rec Recorder, tr Transcriber, p Paster, obs *statusLog, opts ...Option) *Controller {
	opts = append(opts, WithObserver(obs), WithLevelInterval(5*time.Millisecond))
	return New(context.Background(), rec, tr, p, opts...)
}

func TestPressReleaseTranscribes(t *testing.T) {
	rec := &stubRecorder{artifact: artifactFile(t), level: 0.4}
	tr := &stubTranscriber{text: "hello world"}
	paster := &fakePaster{}
	obs := &statusLog{}
	c := newController(rec, tr, paster, obs)

	c.OnPress()
	if c.State() != Recording {
		t.Fatalf("state = %v, want Recording", c.State())
	}
	time.Sleep(30 * time.Millisecond)
	c.OnRelease()
	c.Wait()

	if c.State() != Idle {
		t.Errorf("state = %v, want Idle", c.State())
	}
	if got := paster.pasted(); !slices.Equal(got, []string{"hello world"}) {
		t.Errorf("pasted %q", got)
	}
	states, levels, texts, errs := obs.snapshot()
	if want := []State{Recording, Transcribing, Idle}; !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if len(levels) < 2 || levels[len(levels)-1] != 0 || !slices.Contains(levels, 0.4) {
		t.Errorf("levels = %v, want 0.4 updates ending in 0", levels)
	}
	if !slices.Equal(texts, []string{"hello world"}) || len(errs) != 0 {
		t.Errorf("texts = %q errs = %v", texts, errs)
	}
	if c.Pasted() != 1 {
		t.Errorf("Pasted = %d", c.Pasted())
	}
}

func TestRepeatedPressStartsOnce(t *testing.T) {
	rec := &stubRecorder{}
	c := newController(rec, &stubTranscriber{}, &fakePaster{}, &statusLog{})

	c.OnPress()
	c.OnPress()
	c.OnPress()
	if starts, _ := rec.counts(); starts != 1 {
		t.Errorf("starts = %d, want 1", starts)
	}
	c.OnRelease()
}

func TestReleaseWhileIdleIsNoop(t *testing.T) {
	rec := &stubRecorder{}
	obs := &statusLog{}
	c := newController(rec, &stubTranscriber{}, &fakePaster{}, obs)

	c.OnRelease()
	if _, stops := rec.counts(); stops != 0 {
		t.Errorf("stops = %d, want 0", stops)
	}
	if states, _, _, _ := obs.snapshot(); len(states) != 0 {
		t.Errorf("states = %v, want none", states)
	}
}

func TestShortTapReturnsToIdle(t *testing.T) {
	rec := &stubRecorder{}
	tr := &stubTranscriber{}
	obs := &statusLog{}
	c := newController(rec, tr, &fakePaster{}, obs)

	c.OnPress()
	c.OnRelease()
	c.Wait()

	states, _, _, _ := obs.snapshot()
	if want := []State{Recording, Idle}; !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if tr.calls != 0 {
		t.Error("transcriber called for a discarded take")
	}
}

func TestEmptyTranscriptIsNotPasted(t *testing.T) {
	rec := &stubRecorder{artifact: artifactFile(t)}
	paster := &fakePaster{}
	c := newController(rec, &stubTranscriber{text: ""}, paster, &statusLog{})

	c.OnPress()
	c.OnRelease()
	c.Wait()
	if len(paster.pasted()) != 0 {
		t.Errorf("pasted %q", paster.pasted())
	}
	if c.State() != Idle {
		t.Errorf("state = %v", c.State())
	}
}

func TestPressIgnoredWhileTranscribing(t *testing.T) {
	rec := &stubRecorder{artifact: artifactFile(t)}
	tr := &stubTranscriber{text: "x", release: make(chan struct{})}
	c := newController(rec, tr, &fakePaster{}, &statusLog{})

	c.OnPress()
	c.OnRelease()
	if c.State() != Transcribing {
		t.Fatalf("state = %v, want Transcribing", c.State())
	}

	done := make(chan struct{})
	go func() {
		c.OnPress()
		c.OnRelease()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hotkey handler blocked while transcribing")
	}
	if starts, _ := rec.counts(); starts != 1 {
		t.Errorf("starts = %d, want 1", starts)
	}

	close(tr.release)
	c.Wait()
	if c.State() != Idle {
		t.Errorf("state = %v", c.State())
	}
}

func TestTranscriptionErrorsReturnToIdle(t *testing.T) {
	for _, tt := range []struct {
		name    string
		err     error
		wantErr bool
		alerts  int
	}{
		{"inference", errors.New("boom"), true, 0},
		{"artifact gone", &transcriber.NotFoundError{Path: "x.wav"}, false, 0},
		{"model missing", &transcriber.ModelNotFoundError{File: "m.bin"}, true, 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			alerts := 0
			notify := func(string, string) error { alerts++; return nil }
			obs := &statusLog{}
			rec := &stubRecorder{}
			c := newController(rec, &stubTranscriber{err: tt.err}, &fakePaster{}, obs, WithNotifier(notify))

			for range 2 {
				rec.mu.Lock()
				rec.artifact = artifactFile(t)
				rec.mu.Unlock()
				c.OnPress()
				c.OnRelease()
				c.Wait()
				if c.State() != Idle {
					t.Fatalf("state = %v, want Idle", c.State())
				}
			}
			_, _, _, errs := obs.snapshot()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("errs = %v, wantErr %v", errs, tt.wantErr)
			}
			if alerts != tt.alerts {
				t.Errorf("alerts = %d, want %d", alerts, tt.alerts)
			}
		})
	}
}

func TestPasteFailureIsReported(t *testing.T) {
	rec := &stubRecorder{artifact: artifactFile(t)}
	obs := &statusLog{}
	c := newController(rec, &stubTranscriber{text: "hi"}, &fakePaster{err: errors.New("no display")}, obs)

	c.OnPress()
	c.OnRelease()
	c.Wait()
	_, _, _, errs := obs.snapshot()
	if len(errs) != 1 || c.Pasted() != 0 {
		t.Errorf("errs = %v pasted = %d", errs, c.Pasted())
	}
}

func TestDeviceErrorLeavesIdle(t *testing.T) {
	rec := &stubRecorder{startErr: &recorder.DeviceError{Op: "open", Device: "mic", Err: errors.New("busy")}}
	obs := &statusLog{}
	c := newController(rec, &stubTranscriber{}, &fakePaster{}, obs)

	c.OnPress()
	if c.State() != Idle {
		t.Fatalf("state = %v, want Idle", c.State())
	}
	_, _, _, errs := obs.snapshot()
	var de *recorder.DeviceError
	if len(errs) != 1 || !errors.As(errs[0], &de) {
		t.Errorf("errs = %v, want DeviceError", errs)
	}

	rec.mu.Lock()
	rec.startErr = nil
	rec.mu.Unlock()
	c.OnPress()
	if c.State() != Recording {
		t.Errorf("state = %v after retry, want Recording", c.State())
	}
	c.OnRelease()
}

func TestPanicInHandlerResets(t *testing.T) {
	rec := &stubRecorder{panicOn: "start"}
	obs := &statusLog{}
	c := newController(rec, &stubTranscriber{}, &fakePaster{}, obs)

	c.OnPress()
	if c.State() != Idle {
		t.Errorf("state = %v, want Idle", c.State())
	}
	if _, _, _, errs := obs.snapshot(); len(errs) != 1 {
		t.Errorf("errs = %v, want one panic report", errs)
	}
}

func TestPanicInTranscriberReturnsToIdle(t *testing.T) {
	fake := transcriber.NewFake(nil, nil)
	fake.Panic = "segfault"
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, transcriber.DefaultModelFile), []byte("x"), 0o644)
	svc := transcriber.NewService(transcriber.Locator{Dirs: []string{dir}}, fake.Loader())

	art := artifactFile(t)
	c := newController(&stubRecorder{artifact: art}, svc, &fakePaster{}, &statusLog{})
	c.OnPress()
	c.OnRelease()
	c.Wait()
	if c.State() != Idle {
		t.Errorf("state = %v, want Idle", c.State())
	}
	if _, err := os.Stat(art.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact not removed: %v", err)
	}
}

// wavInspector is a model that checks the artifact it is given.
type wavInspector struct {
	mu         sync.Mutex
	samples    int
	sampleRate int
	channels   int
	bitDepth   int
}

func (p *wavInspector) Transcribe(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.samples = len(buf.Data)
	p.sampleRate = int(dec.SampleRate)
	p.channels = int(dec.NumChans)
	p.bitDepth = int(dec.BitDepth)
	p.mu.Unlock()
	return []string{" a tone "}, nil
}

func (p *wavInspector) Close() error { return nil }

func TestEndToEndTone(t *testing.T) {
	ctx := audio.NewFakeContextPCM(audio.Tone(440, 2*time.Second, 0.5), false)
	tmp := t.TempDir()
	rec := recorder.New(ctx, recorder.WithTempDir(tmp))

	inspector := &wavInspector{}
	modelDir := t.TempDir()
	os.WriteFile(filepath.Join(modelDir, transcriber.DefaultModelFile), []byte("x"), 0o644)
	svc := transcriber.NewService(transcriber.Locator{Dirs: []string{modelDir}},
		func(string) (transcriber.Model, error) { return inspector, nil })

	paster := &fakePaster{}
	obs := &statusLog{}
	c := newController(rec, svc, paster, obs)

	c.OnPress()
	time.Sleep(20 * time.Millisecond)
	c.OnRelease()
	c.Wait()

	inspector.mu.Lock()
	defer inspector.mu.Unlock()
	if inspector.samples != 32000 {
		t.Errorf("samples = %d, want 32000", inspector.samples)
	}
	if inspector.sampleRate != 16000 || inspector.channels != 1 || inspector.bitDepth != 16 {
		t.Errorf("format = %d Hz / %d ch / %d bit", inspector.sampleRate, inspector.channels, inspector.bitDepth)
	}
	states, _, _, errs := obs.snapshot()
	if want := []State{Recording, Transcribing, Idle}; !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if len(errs) != 0 {
		t.Errorf("errs = %v", errs)
	}
	if got := paster.pasted(); !slices.Equal(got, []string{"a tone"}) {
		t.Errorf("pasted %q", got)
	}
	if left, _ := os.ReadDir(tmp); len(left) != 0 {
		t.Errorf("artifact left behind: %v", left)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "ready", Recording: "listening", Transcribing: "transcribing"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
