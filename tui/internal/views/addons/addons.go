// Package addons provides the player capacity row and installed addon table
// for the control panel TUI.
package addons

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/craftpanel/tui/internal/client"
	"github.com/craftpanel/tui/internal/theme"
)

// Model holds the addon view state.
type Model struct {
	Width    int
	Offset   int
	players  int
	maxSlots int
	mods     []client.Addon
}

// New creates an addon view model.
func New() Model {
	return Model{}
}

// SetSnapshot updates the view. The view sorts its own copy of the addon
// list by name so callers need not pre-sort.
func (m *Model) SetSnapshot(s client.Snapshot) {
	m.players, m.maxSlots = s.Players, s.MaxPlayers
	m.mods = append(m.mods[:0:0], s.Mods...)
	sort.Slice(m.mods, func(i, j int) bool {
		return strings.ToLower(m.mods[i].Name) < strings.ToLower(m.mods[j].Name)
	})
	if m.Offset >= len(m.mods) {
		m.Offset = max(0, len(m.mods)-1)
	}
}

// Scroll moves the table by n rows.
func (m *Model) Scroll(n int) {
	m.Offset = max(0, min(m.Offset+n, len(m.mods)-1))
}

// View renders the capacity row and up to rows addons.
func (m Model) View(rows int) string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	sections := []string{
		m.renderCapacity(width),
		m.renderTable(width, rows),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCapacity(width int) string {
	var pct float64
	if m.maxSlots > 0 {
		pct = float64(m.players) / float64(m.maxSlots)
	}
	label := fmt.Sprintf("Players %d/%d ", m.players, m.maxSlots)
	bar := renderBar(pct, max(10, width-len(label)-6))

	return theme.StyleBorder.
		Width(width).
		Padding(0, 1).
		Render(theme.StyleHeader.Render(label) + bar)
}

func (m Model) renderTable(width, rows int) string {
	header := theme.StyleHeader.Render(fmt.Sprintf("  Addons (%d)", len(m.mods)))

	if len(m.mods) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No addons installed"),
		)
	}

	colName := max(20, width-20)
	colSize := 12

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %*s", colName, "Name", colSize, "Size")
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colName+colSize+1))),
	}

	if rows < 1 {
		rows = 1
	}
	end := min(len(m.mods), m.Offset+rows)
	for _, a := range m.mods[m.Offset:end] {
		name := a.Name
		if len(name) > colName-1 {
			name = name[:colName-2] + "…"
		}
		nameStr := lipgloss.NewStyle().Foreground(theme.ColorBright).Width(colName).Render(name)
		sizeStr := dimStyle.Width(colSize).Align(lipgloss.Right).Render(a.Size)
		lines = append(lines, "  "+nameStr+" "+sizeStr)
	}
	if hidden := len(m.mods) - end; hidden > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  … %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderBar draws a capacity bar; fullness shifts its color toward danger.
func renderBar(pct float64, barWidth int) string {
	filled := max(0, min(int(pct*float64(barWidth)), barWidth))
	empty := barWidth - filled

	color := theme.ColorHealthy
	switch {
	case pct >= 1:
		color = theme.ColorDanger
	case pct > 0.8:
		color = theme.ColorWarning
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", empty))
	return bar
}
