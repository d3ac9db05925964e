// ABOUTME: Server TUI for displaying detection activity
// ABOUTME: Real-time counters and recent results using bubbletea
package server

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	model    tuiModel
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name        string
	Port        int
	Mode        string
	Connections int
	Stats       StatsSnapshot
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

// labelOrder fixes the counter rows
var labelOrder = []string{
	analysis.LabelAI,
	analysis.LabelHuman,
	analysis.LabelUncertain,
	analysis.LabelUnknown,
	"error",
}

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	aiStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	humanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func labelStyle(label string) lipgloss.Style {
	switch label {
	case analysis.LabelAI:
		return aiStyle
	case analysis.LabelHuman:
		return humanStyle
	default:
		return valueStyle
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Voice Detect Server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Server", m.status.Name)
	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Mode", m.status.Mode)
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	field("WebSocket clients", fmt.Sprintf("%d", m.status.Connections))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Detections (%d)", m.status.Stats.Total)))
	b.WriteString("\n")
	for _, label := range labelOrder {
		b.WriteString(fmt.Sprintf("  %-16s ", label))
		b.WriteString(labelStyle(label).Render(fmt.Sprintf("%d", m.status.Stats.Counts[label])))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Recent"))
	b.WriteString("\n")
	if len(m.status.Stats.Recent) == 0 {
		b.WriteString(valueStyle.Render("  No detections yet"))
		b.WriteString("\n")
	}
	for _, d := range m.status.Stats.Recent {
		b.WriteString(fmt.Sprintf("  %s %-4s ", d.Time.Format("15:04:05"), d.Transport))
		b.WriteString(labelStyle(d.Classification).Render(fmt.Sprintf("%-16s", d.Classification)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %.2f  %s", d.Confidence, d.Duration.Round(time.Millisecond))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// NewServerTUI creates a new server TUI
func NewServerTUI(serverName string, port int, mode string) *ServerTUI {
	quitChan := make(chan struct{}, 1)
	return &ServerTUI{
		model: tuiModel{
			status: ServerStatus{
				Name:  serverName,
				Port:  port,
				Mode:  mode,
				Stats: StatsSnapshot{Counts: map[string]int{}},
			},
			startTime: time.Now(),
			quitChan:  quitChan,
		},
		updates:  make(chan ServerStatus, 10),
		quitChan: quitChan,
	}
}

// Start runs the TUI until it quits
func (t *ServerTUI) Start() error {
	t.program = tea.NewProgram(t.model, tea.WithAltScreen())

	go func() {
		for status := range t.updates {
			t.program.Send(statusMsg(status))
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *ServerTUI) Update(status ServerStatus) {
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
