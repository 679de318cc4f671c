package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/craftpanel/tui/internal/client"
	"github.com/craftpanel/tui/internal/theme"
	"github.com/craftpanel/tui/internal/views/addons"
	"github.com/craftpanel/tui/internal/views/console"
	"github.com/craftpanel/tui/internal/views/status"
)

const (
	healthInterval = 10 * time.Second
	maxHistory     = 100
)

// StatusClient is the REST side of the backend.
type StatusClient interface {
	GetStats(ctx context.Context, refresh bool) (*client.Snapshot, error)
	GetHealth(ctx context.Context) (*client.Health, error)
	Execute(ctx context.Context, command string) (string, error)
}

type commandResultMsg struct {
	command  string
	response string
	err      error
}

type statsMsg struct {
	snapshot *client.Snapshot
	err      error
}

type healthMsg struct {
	health *client.Health
	err    error
}

type healthTickMsg struct{}

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	http   StatusClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	// Sub-views.
	statusBar status.Model
	addons    addons.Model
	console   console.Model
	input     textinput.Model

	// Command history, oldest first. histIdx == len(history) means the
	// input holds a fresh line.
	history []string
	histIdx int

	// Connection state.
	connected   bool
	lastDialErr string
}

// New creates the root model.
func New(ws *client.WSClient, http StatusClient) Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "list"
	input.CharLimit = 1446
	input.Focus()

	return Model{
		ws:        ws,
		http:      http,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(),
		addons:    addons.New(),
		console:   console.New(),
		input:     input,
	}
}

// Init starts the websocket connection and the first REST fetches.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.ws.Listen(m.ctx, 0),
		m.fetchStats(false),
		m.fetchHealth(),
		textinput.Blink,
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.addons.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.lastDialErr = ""
		m.console.Add(console.KindEvent, "status stream connected")
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDialFailedMsg:
		m.connected = false
		m.statusBar.Connected = false
		// Only log a new kind of failure so retries do not flood the log.
		if text := msg.Err.Error(); text != m.lastDialErr {
			m.lastDialErr = text
			m.console.Add(console.KindError, "connect: "+text)
		}
		if errors.Is(msg.Err, client.ErrUnauthorized) {
			return m, nil
		}
		return m, m.ws.Listen(m.ctx, msg.Retry)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		m.console.Add(console.KindEvent, "status stream disconnected")
		return m, m.ws.Listen(m.ctx, client.NextDelay(0))

	case client.WSStatusMsg:
		m.applySnapshot(msg.Payload)
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSErrorMsg:
		m.console.Add(console.KindError, msg.Payload.Message)
		return m, m.ws.ReadLoop(m.ctx)

	case commandResultMsg:
		if msg.err != nil {
			m.console.Add(console.KindError, msg.err.Error())
		} else {
			m.console.Add(console.KindResponse, msg.response)
		}
		return m, nil

	case statsMsg:
		if msg.err != nil {
			m.console.Add(console.KindError, "stats: "+msg.err.Error())
			return m, nil
		}
		m.applySnapshot(*msg.snapshot)
		return m, nil

	case healthMsg:
		if msg.err == nil {
			m.statusBar.Steps = msg.health.Steps
		}
		return m, tea.Tick(healthInterval, func(time.Time) tea.Msg { return healthTickMsg{} })

	case healthTickMsg:
		return m, m.fetchHealth()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		if m.ws != nil {
			m.ws.Close()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		command := strings.TrimSpace(m.input.Value())
		if command == "" {
			return m, nil
		}
		m.input.Reset()
		m.pushHistory(command)
		m.console.Add(console.KindCommand, command)
		return m, m.execute(command)

	case key.Matches(msg, m.keys.HistoryPrev):
		if m.histIdx > 0 {
			m.histIdx--
			m.input.SetValue(m.history[m.histIdx])
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.HistoryNext):
		if m.histIdx < len(m.history) {
			m.histIdx++
			if m.histIdx == len(m.history) {
				m.input.Reset()
			} else {
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.console.ScrollUp(5)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.console.ScrollDown(5)
		return m, nil

	case key.Matches(msg, m.keys.AddonsUp):
		m.addons.Scroll(-1)
		return m, nil

	case key.Matches(msg, m.keys.AddonsDown):
		m.addons.Scroll(1)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchStats(true)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) pushHistory(command string) {
	if n := len(m.history); n == 0 || m.history[n-1] != command {
		m.history = append(m.history, command)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.histIdx = len(m.history)
}

func (m *Model) applySnapshot(s client.Snapshot) {
	m.statusBar.Snapshot = s
	m.addons.SetSnapshot(s)
}

func (m Model) execute(command string) tea.Cmd {
	ctx, api := m.ctx, m.http
	return func() tea.Msg {
		resp, err := api.Execute(ctx, command)
		return commandResultMsg{command: command, response: resp, err: err}
	}
}

func (m Model) fetchStats(refresh bool) tea.Cmd {
	ctx, api := m.ctx, m.http
	return func() tea.Msg {
		s, err := api.GetStats(ctx, refresh)
		return statsMsg{snapshot: s, err: err}
	}
}

func (m Model) fetchHealth() tea.Cmd {
	ctx, api := m.ctx, m.http
	return func() tea.Msg {
		h, err := api.GetHealth(ctx)
		return healthMsg{health: h, err: err}
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	consoleHeight := max(6, m.height/2-2)
	// status bar 3, capacity box 3, table header 3, console border 2,
	// input 1, help 1.
	addonRows := max(1, m.height-consoleHeight-13)

	sections := []string{m.statusBar.View()}
	if !m.connected {
		banner := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).
			Render("  DISCONNECTED  Reconnecting to status stream...")
		sections = append(sections, banner)
		addonRows = max(1, addonRows-1)
	}
	sections = append(sections,
		m.addons.View(addonRows),
		m.console.View(m.width, consoleHeight),
		m.input.View(),
		theme.StyleDimmed.Render("  enter:send  ↑/↓:history  pgup/pgdn:scroll  ctrl+n/p:addons  ctrl+r:refresh  esc:quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
