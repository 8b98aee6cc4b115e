// Package tui provides a Bubble Tea terminal user interface for tilefetch.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/tilefetch/internal/config"
	"github.com/handiism/tilefetch/internal/download"
	"github.com/handiism/tilefetch/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	strategyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

const (
	inputDest = iota
	inputImagery
)

const maxLogs = 10

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// eventBuffer collects manager events between ticks.
type eventBuffer struct {
	mu     sync.Mutex
	events []download.ProgressEvent
}

func (b *eventBuffer) push(e download.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *eventBuffer) drain() []download.ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	logs     []LogEntry
	events   *eventBuffer
	err      error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Download manager reference
	manager *download.Manager
	summary *download.Summary

	// Download progress
	strategy  model.Strategy
	attempted int32
	total     int32

	// Options
	skipExisting bool
	verbose      bool

	width  int
	height int
}

// NewModel creates a new TUI model with inputs pre-filled from settings.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	dest := textinput.New()
	dest.Placeholder = "path/to/project"
	dest.CharLimit = 500
	dest.Width = 60
	dest.SetValue(settings.DestFolder)
	dest.Focus()

	imagery := textinput.New()
	imagery.Placeholder = "https://tiles.example/{z}/{x}/{y}.png or scene.tif"
	imagery.CharLimit = 1000
	imagery.Width = 60
	imagery.SetValue(settings.Imagery)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:        StateInput,
		inputs:       []textinput.Model{dest, imagery},
		spinner:      sp,
		progress:     prog,
		settings:     settings,
		logs:         make([]LogEntry, 0),
		events:       &eventBuffer{},
		ctx:          ctx,
		cancel:       cancel,
		skipExisting: settings.SkipExisting,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when the label archive has been read.
	InitDoneMsg struct {
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when the run finishes or is cancelled.
	DownloadDoneMsg struct {
		Summary *download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "tab", "shift+tab", "up", "down":
			if m.state == StateInput {
				m.setFocus((m.focus + 1) % len(m.inputs))
				return m, nil
			}

		case "enter":
			if m.state == StateInput && m.inputs[inputDest].Value() != "" && m.inputs[inputImagery].Value() != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick, m.tickProgress())
			}

		case "ctrl+s":
			if m.state == StateInput {
				m.skipExisting = !m.skipExisting
				return m, nil
			}

		case "ctrl+l":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.events.drain()
				m.err = nil
				m.attempted = 0
				m.total = 0
				m.manager = nil
				m.summary = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.setFocus(inputDest)
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.state == StateInitializing {
			m.manager = msg.Manager
			m.strategy = msg.Manager.Strategy()
			m.attempted, m.total = msg.Manager.GetProgress()
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload())
		}

	case DownloadDoneMsg:
		m.collectLogs()
		m.summary = msg.Summary
		if msg.Summary != nil {
			m.attempted = int32(msg.Summary.Attempted())
		}
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		m.collectLogs()
		if m.state == StateInitializing || m.state == StateDownloading {
			if m.manager != nil {
				m.attempted, m.total = m.manager.GetProgress()
				cmds = append(cmds, m.progress.SetPercent(m.percent()))
			}
			cmds = append(cmds, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text inputs
	if m.state == StateInput {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// collectLogs moves buffered events into the visible log.
func (m *Model) collectLogs() {
	for _, e := range m.events.drain() {
		// Filter verbose messages if not in verbose mode
		if e.Level == download.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.attempted) / float64(m.total)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🛰  Tile Fetch"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download imagery tiles for labelled data"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Destination folder (holds labels.npz):"))
	b.WriteString("\n")
	b.WriteString(m.inputs[inputDest].View())
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Imagery (tile URL template or GeoTIFF):"))
	b.WriteString("\n")
	b.WriteString(m.inputs[inputImagery].View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Skip existing tiles (ctrl+s)\n", checkbox(m.skipExisting)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (ctrl+l)\n", checkbox(m.verbose)))
	b.WriteString("\n")

	offset, _ := m.settings.Offset()
	if offset.Enabled {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Imagery offset: %s px", offset)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Reading labels..."))
	b.WriteString("\n\n")

	// Show logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(strategyStyle.Render(fmt.Sprintf("  %s imagery: %s", m.strategy, m.inputs[inputImagery].Value())))
	b.WriteString("\n\n")

	// Progress bar
	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Tiles: %d/%d", m.attempted, m.total)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	if m.summary == nil {
		b.WriteString(boxStyle.Render("✨ Download Complete!"))
		return b.String()
	}

	s := m.summary
	box := boxStyle.Render(fmt.Sprintf(
		"✨ Download Complete!\n\n"+
			"Tiles: %d/%d\n"+
			"Skipped: %d\n"+
			"Failed: %d\n"+
			"Folder: %s\n"+
			"Time: %s",
		s.Succeeded, s.Total,
		s.Skipped,
		len(s.Failed),
		s.Dir,
		s.Duration().Round(time.Millisecond),
	))
	b.WriteString(box)
	b.WriteString("\n")

	if len(s.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: next field • ctrl+s: skip existing • ctrl+l: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// runSettings returns a copy of the base settings with the form values applied.
func (m Model) runSettings() *config.Settings {
	settings := *m.settings
	settings.DestFolder = strings.TrimSpace(m.inputs[inputDest].Value())
	settings.Imagery = strings.TrimSpace(m.inputs[inputImagery].Value())
	settings.SkipExisting = m.skipExisting
	return &settings
}

// initializeDownload reads the label archive and creates the manager.
func (m Model) initializeDownload() tea.Cmd {
	settings := m.runSettings()
	events := m.events
	ctx := m.ctx

	return func() tea.Msg {
		manager := download.NewManager(settings, events.push)
		if err := manager.Initialize(ctx); err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Manager: manager}
	}
}

// startDownload runs the manager in the background.
func (m Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}
		summary, err := manager.Run(ctx)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
