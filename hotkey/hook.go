package hotkey

import (
	"errors"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// hookStartTimeout bounds the wait for libuiohook's enable event.
var hookStartTimeout = 2 * time.Second

var ErrHookNotEnabled = errors.New("key hook did not start (no display, or input monitoring permission missing)")

// hookSource listens through libuiohook. gohook keeps global state, so only
// one hookSource may be started at a time; the Monitor guarantees that.
type hookSource struct {
	once sync.Once
	stop chan struct{}
}

func NewHookSource() Source {
	return &hookSource{stop: make(chan struct{})}
}

// Start fails unless the hook reports itself enabled. gohook discards the
// hook_run status, so the enable event is the only start signal.
func (h *hookSource) Start() (<-chan KeyEvent, error) {
	evs := hook.Start()
	if err := awaitHookEnabled(evs, h.stop, hookStartTimeout); err != nil {
		h.Stop()
		return nil, err
	}
	out := make(chan KeyEvent, 64)
	go pumpHook(evs, out, h.stop)
	return out, nil
}

func (h *hookSource) Stop() {
	h.once.Do(func() {
		close(h.stop)
		hook.End()
	})
}

func awaitHookEnabled(evs <-chan hook.Event, stop <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case e, ok := <-evs:
			if !ok || e.Kind == hook.HookDisabled {
				return ErrHookNotEnabled
			}
			if e.Kind == hook.HookEnabled {
				return nil
			}
		case <-stop:
			return ErrHookNotEnabled
		case <-timer.C:
			return ErrHookNotEnabled
		}
	}
}

// pumpHook translates hook events into out. It closes out when the hook
// reports itself disabled, so the Monitor sees the listener as dead.
func pumpHook(evs <-chan hook.Event, out chan<- KeyEvent, stop <-chan struct{}) {
	defer close(out)
	for {
		select {
		case <-stop:
			return
		case e, ok := <-evs:
			if !ok || e.Kind == hook.HookDisabled {
				return
			}
			ke, ok := translateHook(e)
			if !ok {
				continue
			}
			select {
			case out <- ke:
			case <-stop:
				return
			}
		}
	}
}

// KeyHold is libuiohook's "pressed" (modifiers and auto-repeat), KeyDown
// its "typed".
func translateHook(e hook.Event) (KeyEvent, bool) {
	var kind Kind
	switch e.Kind {
	case hook.KeyDown, hook.KeyHold:
		kind = Press
	case hook.KeyUp:
		kind = Release
	default:
		return KeyEvent{}, false
	}
	return KeyEvent{Kind: kind, Keycode: e.Keycode, Rawcode: e.Rawcode}, true
}
