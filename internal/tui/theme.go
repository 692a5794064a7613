package tui

import "github.com/charmbracelet/lipgloss"

// ThemeName identifies a color theme
type ThemeName string

const (
	ThemeDefault    ThemeName = "default"
	ThemeDracula    ThemeName = "dracula"
	ThemeCatppuccin ThemeName = "catppuccin"
	ThemeNord       ThemeName = "nord"
)

// Theme holds color definitions for the TUI
type Theme struct {
	Name         ThemeName
	Primary      lipgloss.Color
	Secondary    lipgloss.Color
	Subtle       lipgloss.Color
	Compliant    lipgloss.Color
	Partial      lipgloss.Color
	NotCompliant lipgloss.Color
	Foreground   lipgloss.Color
}

// Themes available in the browser
var Themes = map[ThemeName]Theme{
	ThemeDefault: {
		Name:         ThemeDefault,
		Primary:      lipgloss.Color("#7D56F4"),
		Secondary:    lipgloss.Color("#04B575"),
		Subtle:       lipgloss.Color("#626262"),
		Compliant:    lipgloss.Color("#04B575"),
		Partial:      lipgloss.Color("#FFCC00"),
		NotCompliant: lipgloss.Color("#FF5F56"),
		Foreground:   lipgloss.Color("#FFFFFF"),
	},
	ThemeDracula: {
		Name:         ThemeDracula,
		Primary:      lipgloss.Color("#bd93f9"), // Purple
		Secondary:    lipgloss.Color("#50fa7b"), // Green
		Subtle:       lipgloss.Color("#6272a4"), // Comment
		Compliant:    lipgloss.Color("#50fa7b"), // Green
		Partial:      lipgloss.Color("#f1fa8c"), // Yellow
		NotCompliant: lipgloss.Color("#ff5555"), // Red
		Foreground:   lipgloss.Color("#f8f8f2"),
	},
	ThemeCatppuccin: {
		Name:         ThemeCatppuccin,
		Primary:      lipgloss.Color("#cba6f7"), // Mauve
		Secondary:    lipgloss.Color("#a6e3a1"), // Green
		Subtle:       lipgloss.Color("#6c7086"), // Overlay0
		Compliant:    lipgloss.Color("#a6e3a1"), // Green
		Partial:      lipgloss.Color("#f9e2af"), // Yellow
		NotCompliant: lipgloss.Color("#f38ba8"), // Red
		Foreground:   lipgloss.Color("#cdd6f4"), // Text
	},
	ThemeNord: {
		Name:         ThemeNord,
		Primary:      lipgloss.Color("#5e81ac"), // Nord10
		Secondary:    lipgloss.Color("#a3be8c"), // Nord14
		Subtle:       lipgloss.Color("#4c566a"), // Nord3
		Compliant:    lipgloss.Color("#a3be8c"), // Nord14
		Partial:      lipgloss.Color("#ebcb8b"), // Nord13
		NotCompliant: lipgloss.Color("#bf616a"), // Nord11
		Foreground:   lipgloss.Color("#eceff4"), // Nord6
	},
}

// themeOrder is the cycle order used by CycleTheme
var themeOrder = []ThemeName{ThemeDefault, ThemeDracula, ThemeCatppuccin, ThemeNord}

// CurrentTheme is the active theme
var CurrentTheme = Themes[ThemeDefault]

// SetTheme changes the active theme; unknown names are ignored
func SetTheme(name ThemeName) bool {
	theme, ok := Themes[name]
	if !ok {
		return false
	}
	CurrentTheme = theme
	updateStyles()
	return true
}

// CycleTheme switches to the next theme
func CycleTheme() ThemeName {
	for i, name := range themeOrder {
		if name == CurrentTheme.Name {
			next := themeOrder[(i+1)%len(themeOrder)]
			SetTheme(next)
			return next
		}
	}
	SetTheme(ThemeDefault)
	return ThemeDefault
}

// updateStyles refreshes the global styles with current theme colors
func updateStyles() {
	PrimaryColor = CurrentTheme.Primary
	SecondaryColor = CurrentTheme.Secondary
	SubtleColor = CurrentTheme.Subtle
	ForegroundColor = CurrentTheme.Foreground
	CompliantColor = CurrentTheme.Compliant
	PartialColor = CurrentTheme.Partial
	NotCompliantColor = CurrentTheme.NotCompliant

	TitleStyle = TitleStyle.Foreground(ForegroundColor).Background(PrimaryColor)
	SubtitleStyle = SubtitleStyle.Foreground(SubtleColor)
	LabelStyle = LabelStyle.Foreground(PrimaryColor)
	ValueStyle = ValueStyle.Foreground(ForegroundColor)
	SectionStyle = SectionStyle.Foreground(PrimaryColor)
	ControlBadge = ControlBadge.Foreground(ForegroundColor).Background(PrimaryColor)
	PanelStyle = PanelStyle.BorderForeground(PrimaryColor)
	SelectedItemStyle = SelectedItemStyle.BorderForeground(PrimaryColor)
	StatsStyle = StatsStyle.Foreground(SubtleColor)
	StatHighlight = StatHighlight.Foreground(PrimaryColor)
}
