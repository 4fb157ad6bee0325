package session

import (
	"errors"
	"time"
)

const (
	DefaultNoVoiceAfter = 8 * time.Second

	// speechLevel is the normalized level counted as voice.
	speechLevel      = 0.08
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

// ErrNoVoice is reported while a recording has carried no voice for the
// warning window. It does not end the recording.
var ErrNoVoice = errors.New("no voice detected, check the microphone")

type silenceEvent int

const (
	silenceNone   silenceEvent = iota
	silenceWarn                // no voice detected
	silenceClear               // speech resumed after warning
	silenceRepeat              // still silent a full window after the last warning
)

// silenceMonitor classifies level ticks over a sliding window.
type silenceMonitor struct {
	window []bool
	ticks  int

	warned   bool
	lastWarn int
}

func newSilenceMonitor(after, interval time.Duration) *silenceMonitor {
	n := max(int(after/interval), 1)
	return &silenceMonitor{window: make([]bool, n)}
}

func (m *silenceMonitor) ratio() float64 {
	n := min(m.ticks, len(m.window))
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[i] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *silenceMonitor) tick(level float64) silenceEvent {
	m.window[m.ticks%len(m.window)] = level >= speechLevel
	m.ticks++

	full := m.ticks >= len(m.window)
	r := m.ratio()

	switch {
	case full && !m.warned && r < speechMinRatio:
		m.warned = true
		m.lastWarn = m.ticks
		return silenceWarn
	case m.warned && r >= speechClearRatio:
		m.warned = false
		return silenceClear
	case m.warned && m.ticks-m.lastWarn >= len(m.window):
		m.lastWarn = m.ticks
		return silenceRepeat
	}
	return silenceNone
}
