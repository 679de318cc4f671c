// Package theme provides the Lip Gloss color palette and reusable styles
// for the control panel TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Console entry colors.
var (
	ColorCommand  = lipgloss.Color("#3b82f6")
	ColorResponse = lipgloss.Color("#e5e7eb")
	ColorError    = lipgloss.Color("#dc2626")
	ColorEvent    = lipgloss.Color("#7c3aed")
)

// Tick rate thresholds.
var (
	ColorTPSGood = lipgloss.Color("#22c55e") // >= 18
	ColorTPSSlow = lipgloss.Color("#d97706") // 15-18
	ColorTPSBad  = lipgloss.Color("#dc2626") // < 15
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// TPSColor returns the color for a server tick rate.
func TPSColor(tps float64) lipgloss.Color {
	switch {
	case tps >= 18:
		return ColorTPSGood
	case tps >= 15:
		return ColorTPSSlow
	default:
		return ColorTPSBad
	}
}

// HealthColor returns the color for a refresh step status.
func HealthColor(status string) lipgloss.Color {
	switch status {
	case "healthy":
		return ColorHealthy
	case "degraded":
		return ColorWarning
	case "failed":
		return ColorDanger
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)
)
