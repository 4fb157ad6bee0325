// Package session is the push-to-talk state machine. It reacts to hotkey
// edges, drives the recorder and hands finished artifacts to the
// transcriber off the listener goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"dictator/log"
	"dictator/recorder"
	"dictator/transcriber"
)

const DefaultLevelInterval = 50 * time.Millisecond

type State int

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "ready"
	case Recording:
		return "listening"
	case Transcribing:
		return "transcribing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Recorder interface {
	Start() error
	// Stop returns nil when the take was empty or too short.
	Stop() (*recorder.Artifact, error)
	Level() float64
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type Paster interface {
	Paste(text string) error
}

// Notifier raises an operator-facing alert.
type Notifier func(title, message string) error

type Option func(*Controller)

func WithLevelInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.levelInterval = d
		}
	}
}

// WithNoVoiceWarning sets how long a recording may stay silent before
// ErrNoVoice is reported. Zero disables the warning.
func WithNoVoiceWarning(d time.Duration) Option {
	return func(c *Controller) { c.noVoiceAfter = d }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.obs = append(c.obs, o) }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notify = n }
}

// Controller implements hotkey.Handler. OnPress and OnRelease return
// quickly; transcription runs on its own goroutine.
type Controller struct {
	ctx           context.Context
	rec           Recorder
	tr            Transcriber
	paster        Paster
	obs           Observers
	notify        Notifier
	levelInterval time.Duration
	noVoiceAfter  time.Duration

	mu        sync.Mutex
	state     State
	levelStop chan struct{}
	levelDone chan struct{}

	inflight   sync.WaitGroup
	pasted     atomic.Int64
	modelAlert sync.Once
}

// New builds a controller. ctx is handed to every transcription and is
// normally cancelled only at shutdown.
func New(ctx context.Context, rec Recorder, tr Transcriber, paster Paster, opts ...Option) *Controller {
	c := &Controller{
		ctx:           ctx,
		rec:           rec,
		tr:            tr,
		paster:        paster,
		levelInterval: DefaultLevelInterval,
		noVoiceAfter:  DefaultNoVoiceAfter,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pasted counts transcripts delivered to the paster.
func (c *Controller) Pasted() int {
	return int(c.pasted.Load())
}

// Wait blocks until no transcription is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) OnPress() {
	defer c.recoverToIdle("press")
	if err := c.press(); err != nil {
		c.reset()
		c.report(err)
	}
}

func (c *Controller) OnRelease() {
	defer c.recoverToIdle("release")
	if err := c.release(); err != nil {
		c.reset()
		c.report(err)
	}
}

func (c *Controller) press() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return nil
	}
	if err := c.rec.Start(); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	c.setStateLocked(Recording)
	c.startLevelLoop()
	return nil
}

func (c *Controller) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Recording {
		return nil
	}
	c.stopLevelLoop()
	art, err := c.rec.Stop()
	if err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	if art == nil {
		log.Info("recording discarded: too short")
		c.setStateLocked(Idle)
		return nil
	}
	c.setStateLocked(Transcribing)
	c.inflight.Add(1)
	go c.transcribe(art)
	return nil
}

func (c *Controller) transcribe(art *recorder.Artifact) {
	defer c.inflight.Done()
	defer c.setState(Idle)
	defer func() {
		if r := recover(); r != nil {
			c.report(fmt.Errorf("transcription panic: %v", r))
		}
	}()

	start := time.Now()
	text, err := c.tr.Transcribe(c.ctx, art.Path)
	m := log.RecordingMetrics{
		AudioLengthS: art.Duration.Seconds(),
		Samples:      art.Samples,
		TranscribeMs: float64(time.Since(start).Microseconds()) / 1000,
		TextLen:      len(text),
	}

	switch {
	case errors.Is(err, transcriber.ErrArtifactNotFound):
		log.Warnf("artifact vanished before transcription: %v", err)
		text = ""
	case errors.Is(err, transcriber.ErrModelNotFound):
		c.modelAlert.Do(func() { c.alert("Speech model missing", err.Error()) })
		c.report(err)
		return
	case err != nil:
		c.report(err)
		return
	}

	if text != "" {
		if err := c.paster.Paste(text); err != nil {
			c.report(fmt.Errorf("paste: %w", err))
		} else {
			m.Pasted = true
			c.pasted.Add(1)
		}
		log.TranscriptionText(text)
		c.obs.Transcribed(text)
	}
	log.Recording(m)
}

// reset forces the controller back to Idle after a failed or panicking
// edge. An in-flight transcription is left to finish on its own.
func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Transcribing {
		return
	}
	c.stopLevelLoop()
	if c.state == Recording {
		if art, err := c.rec.Stop(); err == nil && art != nil {
			os.Remove(art.Path)
		}
	}
	c.setStateLocked(Idle)
}

func (c *Controller) recoverToIdle(edge string) {
	r := recover()
	if r == nil {
		return
	}
	c.reset()
	c.report(fmt.Errorf("hotkey %s handler panic: %v", edge, r))
}

func (c *Controller) report(err error) {
	log.Errorf("session: %v", err)
	c.obs.Error(err)
}

func (c *Controller) alert(title, msg string) {
	if c.notify == nil {
		return
	}
	if err := c.notify(title, msg); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(s)
}

// Observers are called with c.mu held so status updates arrive in order.
func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.obs.Status(s)
}

func (c *Controller) startLevelLoop() {
	stop := make(chan struct{})
	done := make(chan struct{})
	c.levelStop, c.levelDone = stop, done
	var silence *silenceMonitor
	if c.noVoiceAfter > 0 {
		silence = newSilenceMonitor(c.noVoiceAfter, c.levelInterval)
	}
	go func() {
		defer close(done)
		defer c.obs.Level(0)
		t := time.NewTicker(c.levelInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				l := c.rec.Level()
				c.obs.Level(l)
				if silence != nil {
					c.checkVoice(silence.tick(l))
				}
			}
		}
	}()
}

func (c *Controller) checkVoice(ev silenceEvent) {
	switch ev {
	case silenceWarn, silenceRepeat:
		log.Info("no_voice_warning")
		c.obs.Error(ErrNoVoice)
	case silenceClear:
		log.Info("voice_resumed")
	}
}

func (c *Controller) stopLevelLoop() {
	if c.levelStop == nil {
		return
	}
	close(c.levelStop)
	<-c.levelDone
	c.levelStop, c.levelDone = nil, nil
}
