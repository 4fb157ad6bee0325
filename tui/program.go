package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"dictator/session"
)

// Program runs the view and implements session.Observer by forwarding to
// it. Send does not block once the program is running.
type Program struct {
	p *tea.Program
}

func New(version string) *Program {
	return &Program{p: tea.NewProgram(newModel(version), tea.WithAltScreen())}
}

// Run blocks until the user quits or Quit is called.
func (p *Program) Run() error {
	_, err := p.p.Run()
	return err
}

func (p *Program) Quit() { p.p.Quit() }

func (p *Program) SetInfo(hotkey, device, model string) {
	p.p.Send(InfoMsg{Hotkey: hotkey, Device: device, Model: model})
}

func (p *Program) Status(s session.State)  { p.p.Send(StatusMsg{State: s}) }
func (p *Program) Level(l float64)         { p.p.Send(LevelMsg{Level: l}) }
func (p *Program) Transcribed(text string) { p.p.Send(TranscriptionMsg{Text: text}) }
func (p *Program) Error(err error)         { p.p.Send(ErrorMsg{Err: err}) }
