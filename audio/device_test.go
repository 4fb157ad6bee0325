package audio

import (
	"bytes"
	"strings"
	"testing"
)

var pickerDevices = []DeviceInfo{
	{ID: "1", Name: "Built-in Microphone"},
	{ID: "2", Name: "USB Headset"},
	{ID: "3", Name: "AirPods Pro"},
}

func TestPickerStartsOnCurrentDevice(t *testing.T) {
	for current, want := range map[string]int{
		"":            0,
		"USB Headset": 1,
		"AirPods Pro": 2,
		"Unplugged":   0,
	} {
		if got := newPicker(pickerDevices, current).cursor; got != want {
			t.Errorf("newPicker(%q).cursor = %d, want %d", current, got, want)
		}
	}
}

func TestPickerKeys(t *testing.T) {
	p := newPicker(pickerDevices, "USB Headset")

	up := []byte{0x1b, '[', 'A'}
	down := []byte{0x1b, '[', 'B'}
	steps := []struct {
		in     []byte
		cursor int
		res    pickResult
	}{
		{up, 0, pickNone},
		{up, 0, pickNone},
		{down, 1, pickNone},
		{[]byte("j"), 2, pickNone},
		{[]byte("j"), 2, pickNone},
		{[]byte("k"), 1, pickNone},
		{[]byte("x"), 1, pickNone},
		{[]byte("\r"), 1, pickDone},
	}
	for i, s := range steps {
		if res := p.key(s.in); res != s.res || p.cursor != s.cursor {
			t.Fatalf("step %d: key(%q) = %v cursor %d, want %v cursor %d", i, s.in, res, p.cursor, s.res, s.cursor)
		}
	}
	if res := p.key([]byte{3}); res != pickCancel {
		t.Errorf("Ctrl+C = %v, want pickCancel", res)
	}
}

func TestPickerRender(t *testing.T) {
	var buf bytes.Buffer
	newPicker(pickerDevices, "USB Headset").render(&buf)
	out := buf.String()

	lines := strings.Split(out, "\r\n")
	var headset, airpods string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "USB Headset"):
			headset = l
		case strings.Contains(l, "AirPods Pro"):
			airpods = l
		}
	}
	if !strings.Contains(headset, "▶") || !strings.Contains(headset, "(current)") {
		t.Errorf("current device line = %q, want cursor and current marker", headset)
	}
	if !strings.Contains(airpods, "Lower audio quality") {
		t.Errorf("bluetooth line = %q, want quality warning", airpods)
	}
	if strings.Contains(airpods, "(current)") {
		t.Errorf("non-current device marked current: %q", airpods)
	}
}
