package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dictator/log"
)

const DefaultPollInterval = 5 * time.Second

// listener shutdown is bounded so a wedged backend cannot stall the supervisor.
const stopTimeout = time.Second

var ErrStopped = errors.New("hotkey: monitor not running")

type MonitorOption func(*Monitor)

func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.poll = d
		}
	}
}

// Monitor owns exactly one listener at a time and restarts it in place when
// it dies. All listener lifecycle changes happen on the goroutine running Run.
type Monitor struct {
	newSource SourceFactory
	handler   Handler
	poll      time.Duration

	mu      sync.Mutex
	binding Binding

	rebind   chan rebindRequest
	exited   chan struct{}
	restarts atomic.Int64
}

type rebindRequest struct {
	binding Binding
	done    chan error
}

type listener struct {
	src  Source
	done chan struct{}
}

func (l *listener) dead() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func NewMonitor(newSource SourceFactory, handler Handler, binding Binding, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		newSource: newSource,
		handler:   handler,
		poll:      DefaultPollInterval,
		binding:   binding,
		rebind:    make(chan rebindRequest),
		exited:    make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Monitor) Binding() Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binding
}

// Restarts counts listeners found dead by the supervisor.
func (m *Monitor) Restarts() int64 {
	return m.restarts.Load()
}

// Run starts the listener and supervises it until ctx is done. It fails
// only if the first listener cannot be started.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.exited)

	cur, err := m.start(m.Binding())
	if err != nil {
		return err
	}
	defer func() { m.stop(cur) }()

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-m.rebind:
			m.stop(cur)
			cur = nil
			l, err := m.start(req.binding)
			if err != nil {
				log.Warnf("hotkey listener start after rebind failed: %v", err)
				// keep the old binding; if it cannot restart either, the ticker retries
				if prev, perr := m.start(m.Binding()); perr == nil {
					cur = prev
				}
				req.done <- err
				continue
			}
			m.mu.Lock()
			m.binding = req.binding
			m.mu.Unlock()
			cur = l
			log.Info("hotkey_rebind: " + req.binding.Name)
			req.done <- nil

		case <-ticker.C:
			if cur != nil && !cur.dead() {
				continue
			}
			if cur != nil {
				log.Warn("hotkey listener died, restarting")
				m.stop(cur)
				cur = nil
				m.restarts.Add(1)
			}
			l, err := m.start(m.Binding())
			if err != nil {
				log.Warnf("hotkey listener restart failed: %v", err)
				continue
			}
			cur = l
		}
	}
}

// Rebind switches the active binding, replacing the listener. Events that
// arrive during the swap are not observed.
func (m *Monitor) Rebind(b Binding) error {
	req := rebindRequest{binding: b, done: make(chan error, 1)}
	select {
	case m.rebind <- req:
		return <-req.done
	case <-m.exited:
		return ErrStopped
	}
}

func (m *Monitor) start(b Binding) (*listener, error) {
	src := m.newSource()
	events, err := src.Start()
	if err != nil {
		return nil, fmt.Errorf("start hotkey listener: %w", err)
	}
	l := &listener{src: src, done: make(chan struct{})}
	go m.listen(l, b, events)
	return l, nil
}

func (m *Monitor) stop(l *listener) {
	if l == nil {
		return
	}
	l.src.Stop()
	select {
	case <-l.done:
	case <-time.After(stopTimeout):
		log.Warn("hotkey listener did not stop in time")
	}
}

// listen forwards edges for b. Presses are latched so OS key repeat does
// not produce extra OnPress calls; releases are always forwarded.
func (m *Monitor) listen(l *listener, b Binding, events <-chan KeyEvent) {
	defer close(l.done)
	pressed := false
	for ev := range events {
		if !b.Matches(ev) {
			continue
		}
		switch ev.Kind {
		case Press:
			if pressed {
				continue
			}
			pressed = true
			m.handler.OnPress()
		case Release:
			pressed = false
			m.handler.OnRelease()
		}
	}
}
