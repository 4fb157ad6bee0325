package hotkey

import (
	"fmt"
	"runtime"
	"slices"
)

// libuiohook virtual key codes, shared by gohook on every platform.
const (
	VCAltL  uint16 = 0x0038
	VCAltR  uint16 = 0x0E38
	VCMetaL uint16 = 0x0E5B
	VCMetaR uint16 = 0x0E5C
)

// macOS virtual key codes.
const (
	macRightOption  uint16 = 61
	macRightCommand uint16 = 54
	macLeftOption   uint16 = 58
	macLeftCommand  uint16 = 55
)

// X11 keysyms (low 16 bits).
const (
	x11AltL      uint16 = 0xffe9
	x11AltR      uint16 = 0xffea
	x11ISOLevel3 uint16 = 0xfe03 // AltGr
	x11SuperL    uint16 = 0xffeb
	x11SuperR    uint16 = 0xffec
	x11MetaL     uint16 = 0xffe7
	x11MetaR     uint16 = 0xffe8
)

const DefaultBinding = "Right Option"

type Kind uint8

const (
	Press Kind = iota + 1
	Release
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	}
	return "unknown"
}

type KeyEvent struct {
	Kind    Kind
	Keycode uint16 // libuiohook virtual code, 0 if unknown
	Rawcode uint16 // platform code, 0 if unknown
}

// Binding maps a display name to the keys that trigger it. An event matches
// when its virtual code is in Keycodes or its raw code is in Rawcodes.
type Binding struct {
	Name     string
	Keycodes []uint16
	Rawcodes []uint16
}

func (b Binding) Matches(ev KeyEvent) bool {
	if ev.Keycode != 0 && slices.Contains(b.Keycodes, ev.Keycode) {
		return true
	}
	return ev.Rawcode != 0 && slices.Contains(b.Rawcodes, ev.Rawcode)
}

func (b Binding) IsZero() bool {
	return b.Name == "" && len(b.Keycodes) == 0 && len(b.Rawcodes) == 0
}

// Bindings is the fixed set offered to the user, default first.
var Bindings = bindingsFor(runtime.GOOS)

// Raw codes mean different keys on different systems, so they are only
// attached where they are known to be unambiguous.
func bindingsFor(goos string) []Binding {
	raw := func(mac uint16, x11 ...uint16) []uint16 {
		switch goos {
		case "darwin":
			return []uint16{mac}
		case "linux", "freebsd", "openbsd", "netbsd":
			return x11
		}
		return nil
	}
	return []Binding{
		{Name: "Right Option", Keycodes: []uint16{VCAltR}, Rawcodes: raw(macRightOption, x11AltR, x11ISOLevel3)},
		{Name: "Right Command", Keycodes: []uint16{VCMetaR}, Rawcodes: raw(macRightCommand, x11SuperR, x11MetaR)},
		{Name: "Left Option", Keycodes: []uint16{VCAltL}, Rawcodes: raw(macLeftOption, x11AltL)},
		{Name: "Left Command", Keycodes: []uint16{VCMetaL}, Rawcodes: raw(macLeftCommand, x11SuperL, x11MetaL)},
	}
}

func Lookup(name string) (Binding, bool) {
	for _, b := range Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Default returns the default binding.
func Default() Binding {
	b, _ := Lookup(DefaultBinding)
	return b
}

func Names() []string {
	names := make([]string, len(Bindings))
	for i, b := range Bindings {
		names[i] = b.Name
	}
	return names
}

// Source is one listener lifetime. Closing the returned channel means the
// listener died; Stop must close it too.
type Source interface {
	Start() (<-chan KeyEvent, error)
	Stop()
}

type SourceFactory func() Source

// Handler receives edges for the active binding, on the listener goroutine.
type Handler interface {
	OnPress()
	OnRelease()
}

// Factory returns the SourceFactory for a listener backend name.
func Factory(backend string) (SourceFactory, error) {
	switch backend {
	case "", "hook":
		return NewHookSource, nil
	case "evdev":
		return NewEvdevSource, nil
	}
	return nil, fmt.Errorf("unknown hotkey listener %q (use hook or evdev)", backend)
}
