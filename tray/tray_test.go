package tray

import (
	"bytes"
	"image/png"
	"testing"
)

func TestIconIndex(t *testing.T) {
	for _, tt := range []struct {
		level float64
		want  int
	}{
		{0, 0},
		{0.1, 0},
		{0.17, 1},
		{0.5, 3},
		{0.99, 5},
		{1, 5},
		{7, 5},
		{-1, 0},
	} {
		if got := IconIndex(tt.level); got != tt.want {
			t.Errorf("IconIndex(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestRecordingStyle(t *testing.T) {
	c0, pad0 := recordingStyle(0)
	c5, pad5 := recordingStyle(5)
	if c0.R != 229 || c0.G != 57 || c0.B != 53 || pad0 != 4 {
		t.Errorf("level 0 = %+v pad %v", c0, pad0)
	}
	if c5.R != 229 || c5.G != 255 || c5.B != 0 || pad5 != 2 {
		t.Errorf("level 5 = %+v pad %v", c5, pad5)
	}
}

func TestIconsDecode(t *testing.T) {
	icons := [][]byte{iconReady, iconTranscribing, iconError}
	icons = append(icons, iconRecording[:]...)
	for i, b := range icons {
		img, err := png.Decode(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("icon %d: %v", i, err)
		}
		if img.Bounds().Dx() != iconSize || img.Bounds().Dy() != iconSize {
			t.Errorf("icon %d is %v", i, img.Bounds())
		}
	}
	// center pixel carries the status color
	img, _ := png.Decode(bytes.NewReader(iconTranscribing))
	r, g, b, _ := img.At(iconSize/2, iconSize/2).RGBA()
	if r>>8 != 30 || g>>8 != 136 || b>>8 != 229 {
		t.Errorf("transcribing center = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestStatusTitle(t *testing.T) {
	for in, want := range map[string]string{
		"ready":        "Ready",
		"listening":    "Listening...",
		"transcribing": "Transcribing...",
		"bogus":        "Ready",
	} {
		if got := statusTitle(in); got != want {
			t.Errorf("statusTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpdatesBeforeInitAreSafe(t *testing.T) {
	SetStatus("listening")
	SetLevel(0.9)
	SetStatus("ready")
}
