package base

import "github.com/charmbracelet/lipgloss"

// ColorPalette defines a consistent color scheme
type ColorPalette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DarkPalette is the default dark theme palette
var DarkPalette = ColorPalette{
	Primary:   lipgloss.Color("#7C3AED"), // Purple
	Secondary: lipgloss.Color("#06B6D4"), // Cyan
	Accent:    lipgloss.Color("#10B981"), // Emerald
	Success:   lipgloss.Color("#10B981"), // Emerald
	Warning:   lipgloss.Color("#F59E0B"), // Amber
	Error:     lipgloss.Color("#EF4444"), // Red
	Muted:     lipgloss.Color("#94A3B8"), // Slate
}

// Severity grades a reading from healthy to critical.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityNotice
	SeverityWarn
	SeverityCritical
)

// Color maps a severity onto the palette.
func (p ColorPalette) Color(s Severity) lipgloss.Color {
	switch s {
	case SeverityOK:
		return p.Success
	case SeverityNotice:
		return p.Secondary
	case SeverityWarn:
		return p.Warning
	default:
		return p.Error
	}
}

// FairnessSeverity grades a Jain fairness index in [0, 1].
func FairnessSeverity(index float64) Severity {
	switch {
	case index >= 0.9:
		return SeverityOK
	case index >= 0.7:
		return SeverityNotice
	case index >= 0.5:
		return SeverityWarn
	default:
		return SeverityCritical
	}
}
