// Package console provides the scrollable command and response log.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/craftpanel/tui/internal/theme"
)

const maxEntries = 500

// Entry kinds.
const (
	KindCommand  = "cmd"
	KindResponse = "resp"
	KindError    = "err"
	KindEvent    = "evt"
)

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds console log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
}

// New creates an empty console model.
func New() Model {
	return Model{}
}

// Add appends message, one entry per line, and caps the buffer. Minecraft
// formatting codes are stripped.
func (m *Model) Add(kind, message string) {
	now := time.Now()
	message = StripFormatting(strings.TrimRight(message, "\n"))
	if message == "" && kind == KindResponse {
		message = "(no output)"
	}
	for _, line := range strings.Split(message, "\n") {
		m.Entries = append(m.Entries, Entry{
			Time:    now,
			Kind:    kind,
			Message: line,
		})
	}
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	// Reset scroll to bottom on new entry.
	m.Offset = 0
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset += n
	limit := len(m.Entries) - 1
	if limit < 0 {
		limit = 0
	}
	if m.Offset > limit {
		m.Offset = limit
	}
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// StripFormatting removes § color and style codes.
func StripFormatting(s string) string {
	if !strings.ContainsRune(s, '§') {
		return s
	}
	var b strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case skip:
			skip = false
		case r == '§':
			skip = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the log panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 3
	if visibleLines < 3 {
		visibleLines = 3
	}

	title := theme.StyleHeader.Render(" CONSOLE ")

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No commands sent yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, body)
		return panelStyle(innerW).Render(content)
	}

	// Build visible lines from bottom (minus offset).
	end := len(m.Entries) - m.Offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		msgStr := e.Message
		if len(msgStr) > innerW-12 && innerW > 15 {
			msgStr = msgStr[:innerW-15] + "..."
		}
		if e.Kind == KindCommand {
			msgStr = "> " + msgStr
		}
		msgStr = lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Render(msgStr)
		lines = append(lines, fmt.Sprintf("%s %s", tsStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	if m.Offset > 0 {
		body += "\n" + theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return panelStyle(innerW).Render(content)
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case KindCommand:
		return theme.ColorCommand
	case KindResponse:
		return theme.ColorResponse
	case KindError:
		return theme.ColorError
	case KindEvent:
		return theme.ColorEvent
	default:
		return theme.ColorDimmed
	}
}
