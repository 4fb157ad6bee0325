package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"dictator/session"
)

func update(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestLevelOnlyWhileRecording(t *testing.T) {
	m := update(newModel("dev"), LevelMsg{Level: 1})
	if m.level != 0 {
		t.Errorf("idle level = %v, want 0", m.level)
	}
	m = update(m, StatusMsg{State: session.Recording}, LevelMsg{Level: 1})
	if m.level <= 0 || m.peak != 1 {
		t.Errorf("recording level = %v peak = %v", m.level, m.peak)
	}
	m = update(m, StatusMsg{State: session.Transcribing})
	if m.level != 0 {
		t.Errorf("level after stop = %v, want 0", m.level)
	}
}

func TestTranscriptionAndErrors(t *testing.T) {
	m := update(newModel("dev"),
		tea.WindowSizeMsg{Width: 100, Height: 30},
		InfoMsg{Hotkey: "Right Option", Device: "USB Mic", Model: "ggml-small.en.bin"},
		TranscriptionMsg{Text: "hello there"},
		ErrorMsg{Err: errors.New("mic busy")},
	)
	if m.count != 1 || m.lastText != "hello there" {
		t.Errorf("count = %d text = %q", m.count, m.lastText)
	}
	view := m.View()
	for _, want := range []string{"hello there", "mic busy", "USB Mic", "READY", "Right Option"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(m, StatusMsg{State: session.Recording})
	if m.lastErr != "" {
		t.Error("error not cleared by a new recording")
	}
	if !strings.Contains(m.View(), "LISTENING") {
		t.Error("view missing LISTENING")
	}
}

func TestViewBeforeSize(t *testing.T) {
	if got := newModel("dev").View(); got != "Loading..." {
		t.Errorf("View = %q", got)
	}
}

func TestRenderMeterDimensions(t *testing.T) {
	for _, st := range []session.State{session.Idle, session.Recording, session.Transcribing} {
		out := renderMeter(3, 0.8, st)
		if lines := strings.Count(out, "\n"); lines != 11 {
			t.Errorf("%v: %d lines, want 11", st, lines)
		}
	}
}

func TestWrapText(t *testing.T) {
	for _, tt := range []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"short", 10, []string{"short"}},
		{"hello brave new world", 11, []string{"hello brave", "new world"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	} {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}
