package main

import (
	"dictator/beep"
	"dictator/log"
	"dictator/session"
	"dictator/tray"
)

// trayObserver mirrors controller state onto the menu bar icon.
type trayObserver struct{}

func (trayObserver) Status(s session.State)  { tray.SetStatus(s.String()) }
func (trayObserver) Level(l float64)         { tray.SetLevel(l) }
func (trayObserver) Transcribed(text string) {}
func (trayObserver) Error(err error)         { tray.SetError(err.Error()) }

// beepObserver plays the start and end cues.
type beepObserver struct {
	prev session.State
}

func (b *beepObserver) Status(s session.State) {
	switch {
	case s == session.Recording:
		go beep.PlayStart()
	case b.prev == session.Recording:
		go beep.PlayEnd()
	}
	b.prev = s
}

func (*beepObserver) Level(float64)      {}
func (*beepObserver) Transcribed(string) {}
func (*beepObserver) Error(error)        { go beep.PlayError() }

// logObserver writes state transitions to the diagnostics log. Errors are
// already logged by the controller.
type logObserver struct{}

func (logObserver) Status(s session.State) { log.Info("state: " + s.String()) }
func (logObserver) Level(float64)          {}
func (logObserver) Transcribed(string)     {}
func (logObserver) Error(error)            {}
