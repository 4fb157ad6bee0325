//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
	evdevLAlt  = 56
	evdevRAlt  = 100
	evdevLMeta = 125
	evdevRMeta = 126
)

// struct input_event is a timeval followed by type, code and value. The
// timeval is 8 bytes on 32-bit kernels and 16 on 64-bit ones.
const (
	timevalSize = int(unsafe.Sizeof(syscall.Timeval{}))
	inputEvSize = timevalSize + 8
)

var evdevToVC = map[uint16]uint16{
	evdevLAlt:  VCAltL,
	evdevRAlt:  VCAltR,
	evdevLMeta: VCMetaL,
	evdevRMeta: VCMetaR,
}

// evdevSource reads keyboards under /dev/input directly. It works on Wayland
// where libuiohook cannot see global keys, but needs the user in the
// 'input' group.
type evdevSource struct {
	files []*os.File
	stop  chan struct{}
	once  sync.Once
}

func NewEvdevSource() Source {
	return &evdevSource{stop: make(chan struct{})}
}

func (h *evdevSource) Start() (<-chan KeyEvent, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return nil, fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
	}
	if len(h.files) == 0 {
		return nil, fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	out := make(chan KeyEvent, 64)
	var wg sync.WaitGroup
	for _, f := range h.files {
		wg.Add(1)
		go func(f *os.File) {
			defer wg.Done()
			h.readEvents(f, out)
		}(f)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (h *evdevSource) readEvents(f *os.File, out chan<- KeyEvent) {
	buf := make([]byte, inputEvSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for i := 0; i+inputEvSize <= n; i += inputEvSize {
			ev, ok := decodeEvdev(buf[i : i+inputEvSize])
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-h.stop:
				return
			}
		}
	}
}

func decodeEvdev(b []byte) (KeyEvent, bool) {
	evType := binary.NativeEndian.Uint16(b[timevalSize:])
	evCode := binary.NativeEndian.Uint16(b[timevalSize+2:])
	evValue := int32(binary.NativeEndian.Uint32(b[timevalSize+4:]))
	if evType != evKey {
		return KeyEvent{}, false
	}
	var kind Kind
	switch evValue {
	case keyPress, keyRepeat:
		kind = Press
	case keyRelease:
		kind = Release
	default:
		return KeyEvent{}, false
	}
	return KeyEvent{Kind: kind, Keycode: evdevToVC[evCode]}, true
}

func (h *evdevSource) Stop() {
	h.once.Do(func() {
		close(h.stop)
		for _, f := range h.files {
			f.Close()
		}
	})
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func DiagnoseEvdev() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
