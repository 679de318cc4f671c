package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/craftpanel/tui/internal/client"
	"github.com/craftpanel/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Snapshot  client.Snapshot
	Steps     []client.StepHealth
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	s := m.Snapshot
	players := lipgloss.NewStyle().Foreground(theme.ColorBright).Render(
		fmt.Sprintf("%d/%d players", s.Players, s.MaxPlayers))
	tps := lipgloss.NewStyle().Foreground(theme.TPSColor(s.TPS)).Render(
		fmt.Sprintf("%.2f TPS", s.TPS))

	parts := []string{connStr, players, tps}
	if s.Uptime > 0 {
		parts = append(parts, "up "+FormatUptime(s.Uptime))
	}

	var healthParts []string
	for _, h := range m.Steps {
		if h.Status == client.StatusHealthy {
			continue
		}
		healthParts = append(healthParts, lipgloss.NewStyle().Foreground(theme.HealthColor(string(h.Status))).Render(
			fmt.Sprintf("%s: %s", h.Step, string(h.Status)),
		))
	}
	if len(healthParts) > 0 {
		parts = append(parts, strings.Join(healthParts, "  "))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(parts, sep))

	return bar
}

// FormatUptime renders seconds as a compact duration such as "3d4h" or
// "12m30s".
func FormatUptime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	secs := (d - mins*time.Minute) / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, mins)
	default:
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
}
