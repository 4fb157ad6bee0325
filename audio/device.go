package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var ErrSelectionCancelled = errors.New("device selection cancelled")

// picker is the state of the interactive device list.
type picker struct {
	devices []DeviceInfo
	current string
	cursor  int
}

// newPicker starts the cursor on the configured device when it is listed.
func newPicker(devices []DeviceInfo, current string) *picker {
	p := &picker{devices: devices, current: current}
	for i, d := range devices {
		if current != "" && d.Name == current {
			p.cursor = i
			break
		}
	}
	return p
}

type pickResult int

const (
	pickNone pickResult = iota
	pickDone
	pickCancel
)

// key applies one read from a raw-mode terminal.
func (p *picker) key(b []byte) pickResult {
	switch {
	case len(b) == 1:
		switch b[0] {
		case '\r', '\n':
			return pickDone
		case 3, 'q': // Ctrl+C
			return pickCancel
		case 'j':
			p.move(1)
		case 'k':
			p.move(-1)
		}
	case len(b) == 3 && b[0] == 0x1b && b[1] == '[':
		switch b[2] {
		case 'A':
			p.move(-1)
		case 'B':
			p.move(1)
		}
	}
	return pickNone
}

func (p *picker) move(d int) {
	p.cursor = min(max(p.cursor+d, 0), len(p.devices)-1)
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select input device (↑/↓, Enter to confirm, q to cancel):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if d.Name == p.current {
			tag += " (current)"
		}
		if IsBluetooth(d.Name) {
			tag += " \x1b[33m[⚠ Lower audio quality]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}

// SelectDevice lets the user pick a capture device on the terminal, starting
// from current. A single device is returned without prompting.
func SelectDevice(ctx Context, current string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := newPicker(devices, current)
	p.render(os.Stdout)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch p.key(buf[:n]) {
		case pickDone:
			fmt.Print("\r\n")
			return &p.devices[p.cursor], nil
		case pickCancel:
			fmt.Print("\r\n")
			return nil, ErrSelectionCancelled
		}
		fmt.Printf("\x1b[%dA", len(p.devices)+2)
		p.render(os.Stdout)
	}
}
