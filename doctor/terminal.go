package doctor

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"dictator/shutdown"
)

// ttyState is stdin's terminal mode when the checks began. Key listeners
// can leave the tty raw, so it is put back after them and on interrupt.
type ttyState struct {
	fd    int
	state *term.State
}

func saveTTY(f *os.File) *ttyState {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return &ttyState{fd: fd}
	}
	st, err := term.GetState(fd)
	if err != nil {
		return &ttyState{fd: fd}
	}
	return &ttyState{fd: fd, state: st}
}

func (t *ttyState) restore() {
	if t == nil || t.state == nil {
		return
	}
	term.Restore(t.fd, t.state)
}

// trapInterrupt runs cleanup and exits with 130 if the user interrupts.
// The returned func disarms the trap.
func trapInterrupt(cleanup func(), exit func(int)) (disarm func()) {
	ctx, stop := shutdown.NotifyContext(context.Background())
	disarmed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-disarmed:
			return
		}
		select {
		case <-disarmed:
			return
		default:
		}
		cleanup()
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		exit(130)
	}()
	return func() {
		close(disarmed)
		stop()
	}
}
