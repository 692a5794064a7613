package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Colors (theme-aware - updated by theme.go)
var (
	PrimaryColor      = lipgloss.Color("#7D56F4")
	SecondaryColor    = lipgloss.Color("#04B575")
	SubtleColor       = lipgloss.Color("#626262")
	ForegroundColor   = lipgloss.Color("#FFFFFF")
	CompliantColor    = lipgloss.Color("#04B575")
	PartialColor      = lipgloss.Color("#FFCC00")
	NotCompliantColor = lipgloss.Color("#FF5F56")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ForegroundColor).
			Background(PrimaryColor).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// Detail view styles
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Width(18)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ForegroundColor)

	DescriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#CCCCCC")).
				Width(80)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	ControlBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(ForegroundColor).
			Background(PrimaryColor).
			Padding(0, 1)

	// Summary panel
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 2)

	// List item styles
	SelectedItemStyle = lipgloss.NewStyle().
				BorderLeft(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(PrimaryColor).
				PaddingLeft(1)

	NormalItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	StatsStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	StatHighlight = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)
)

// StatusColor returns the color for a compliance status
func StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.Compliant:
		return CompliantColor
	case model.PartiallyCompliant:
		return PartialColor
	}
	return NotCompliantColor
}

// StatusBadge returns a colored badge for a compliance status
func StatusBadge(s model.Status) string {
	fg := lipgloss.Color("#FFFFFF")
	if s == model.PartiallyCompliant {
		fg = lipgloss.Color("#000000")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(fg).
		Background(StatusColor(s)).
		Padding(0, 1).
		Render(strings.ToUpper(s.String()))
}

// ScoreBar returns a visual bar for a score in [0,1], colored by status
func ScoreBar(score float64, s model.Status, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(score*float64(width) + 0.5)
	filled = max(0, min(filled, width))

	filledStyle := lipgloss.NewStyle().Foreground(StatusColor(s))
	emptyStyle := lipgloss.NewStyle().Foreground(SubtleColor)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}

// Percent formats a percentage for display
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
