// Package tui is the optional terminal status view: an animated level
// meter, the session state and the last transcript.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dictator/session"
)

type StatusMsg struct{ State session.State }
type LevelMsg struct{ Level float64 }
type TranscriptionMsg struct{ Text string }
type ErrorMsg struct{ Err error }

// InfoMsg sets the static lines under the meter.
type InfoMsg struct {
	Hotkey string
	Device string
	Model  string
}

type tickMsg time.Time

type model struct {
	state         session.State
	frame         int
	level         float64
	peak          float64
	recStart      time.Time
	now           time.Time
	width, height int
	info          InfoMsg
	lastText      string
	count         int
	lastErr       string
	version       string
}

// Pre-computed styles per state, indexed by ring color.
var (
	ringColors = map[session.State][]string{
		session.Idle:         {"", "252", "250", "248", "246", "244", "242", "240", "238", "236"},
		session.Recording:    {"", "226", "220", "214", "208", "196", "160", "124", "88", "52"},
		session.Transcribing: {"", "159", "123", "117", "81", "75", "69", "63", "27", "19"},
	}
	ringStyles = map[session.State][]lipgloss.Style{}

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	textStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

func init() {
	for st, colors := range ringColors {
		styles := make([]lipgloss.Style, len(colors))
		for i, c := range colors {
			if c != "" {
				styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
			}
		}
		ringStyles[st] = styles
	}
}

func newModel(version string) model {
	return model{version: version}
}

func tick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		m.now = time.Time(msg)
		return m, tick()

	case StatusMsg:
		if msg.State == session.Recording && m.state != session.Recording {
			m.recStart = time.Now()
			m.now = m.recStart
			m.peak = 0
			m.lastErr = ""
		}
		m.state = msg.State
		if m.state != session.Recording {
			m.level = 0
		}

	case LevelMsg:
		if m.state == session.Recording {
			m.level = m.level*0.6 + msg.Level*0.4
			m.peak = max(m.peak, msg.Level)
		}

	case TranscriptionMsg:
		m.count++
		m.lastText = msg.Text

	case ErrorMsg:
		m.lastErr = msg.Err.Error()

	case InfoMsg:
		m.info = msg
	}
	return m, nil
}

func (m model) statusLine() string {
	switch m.state {
	case session.Recording:
		dur := m.now.Sub(m.recStart).Seconds()
		line := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● LISTENING %.1fs", max(0, dur)))
		if dur > 1.0 && m.peak < 0.02 {
			line += errStyle.Render("  ⚠ no voice detected")
		}
		return line
	case session.Transcribing:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true).Render("◌ TRANSCRIBING")
	}
	return dimStyle.Render("○ READY")
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const meterWidth = 31
	left := renderMeter(m.frame, m.level, m.state)

	lines := []string{m.statusLine()}
	if m.info.Hotkey != "" {
		lines = append(lines, dimStyle.Render("hotkey: "+m.info.Hotkey))
	}
	if m.info.Device != "" {
		lines = append(lines, dimStyle.Render("mic: "+m.info.Device))
	}
	if m.info.Model != "" {
		lines = append(lines, dimStyle.Render("model: "+m.info.Model))
	}
	lines = append(lines, "",
		boldStyle.Render("hold "+m.info.Hotkey)+helpStyle.Render(" to dictate, q to quit"),
		helpStyle.Render("dictator "+m.version))
	left += strings.Join(lines, "\n")

	rightWidth := max(20, m.width-meterWidth-1)
	var right strings.Builder
	if m.lastText != "" {
		right.WriteString(titleStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.count)) + "\n\n")
		for _, line := range wrapText(m.lastText, max(10, rightWidth-2)) {
			right.WriteString(textStyle.Render(line) + "\n")
		}
	} else {
		right.WriteString(dimStyle.Render("No transcriptions yet") + "\n")
	}
	if m.lastErr != "" {
		right.WriteString("\n" + errStyle.Render("error: "+m.lastErr) + "\n")
	}

	leftPanel := lipgloss.NewStyle().Width(meterWidth).Height(m.height).Render(left)
	rightPanel := lipgloss.NewStyle().Width(rightWidth).Height(m.height).PaddingLeft(1).Render(right.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderMeter draws concentric rings with half-block characters. While
// recording the rings swell with the level; otherwise they breathe slowly.
func renderMeter(frame int, level float64, state session.State) string {
	const charsW = 30
	const charsH = 11
	const pixH = charsH * 2

	cx, cy := float64(charsW)/2, float64(pixH)/2
	styles := ringStyles[state]
	rings := len(styles) - 1

	breathe := math.Sin(float64(frame)*0.08) * 0.3
	if state == session.Recording {
		breathe = math.Sin(float64(frame)*0.10)*0.2 + level*6
	}

	ringAt := func(x, y int) int {
		d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
		for i := 1; i <= rings; i++ {
			r := float64(i)*1.1 + breathe*float64(rings-i)/float64(rings)
			if d < min(r, cy) {
				return i
			}
		}
		return 0
	}

	var b strings.Builder
	for row := 0; row < charsH; row++ {
		for col := 0; col < charsW; col++ {
			top, bot := ringAt(col, row*2), ringAt(col, row*2+1)
			switch {
			case top == 0 && bot == 0:
				b.WriteByte(' ')
			case top == bot:
				b.WriteString(styles[top].Render("█"))
			case bot == 0:
				b.WriteString(styles[top].Render("▀"))
			case top == 0:
				b.WriteString(styles[bot].Render("▄"))
			default:
				b.WriteString(styles[top].Background(styles[bot].GetForeground()).Render("▀"))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
