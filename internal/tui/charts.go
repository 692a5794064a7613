package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// StatusStats holds the per-status control counts
type StatusStats struct {
	Compliant          int
	PartiallyCompliant int
	NotCompliant       int
	Total              int
}

// CategoryStats holds compliance data for one Annex A category
type CategoryStats struct {
	Name       string
	Controls   int
	Compliant  int
	Percentage float64 // mean raw score * 100
}

// GetStatusStats counts controls per status
func GetStatusStats(controls []model.ControlAssessment) StatusStats {
	stats := StatusStats{Total: len(controls)}
	for _, c := range controls {
		switch c.Result.Status {
		case model.Compliant:
			stats.Compliant++
		case model.PartiallyCompliant:
			stats.PartiallyCompliant++
		default:
			stats.NotCompliant++
		}
	}
	return stats
}

// GetCategoryStats groups controls by category, weakest first
func GetCategoryStats(controls []model.ControlAssessment) []CategoryStats {
	byName := make(map[string]*CategoryStats)
	sums := make(map[string]float64)
	for _, c := range controls {
		name := c.Control.Category
		if name == "" {
			name = "Uncategorized"
		}
		s, ok := byName[name]
		if !ok {
			s = &CategoryStats{Name: name}
			byName[name] = s
		}
		s.Controls++
		if c.Result.Status == model.Compliant {
			s.Compliant++
		}
		sums[name] += c.Result.RawScore
	}

	stats := make([]CategoryStats, 0, len(byName))
	for name, s := range byName {
		s.Percentage = sums[name] / float64(s.Controls) * 100
		stats = append(stats, *s)
	}
	slices.SortFunc(stats, func(a, b CategoryStats) int {
		if c := cmp.Compare(a.Percentage, b.Percentage); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return stats
}

// GetWeakestControls returns the n lowest-scoring controls, catalog order on ties
func GetWeakestControls(controls []model.ControlAssessment, n int) []model.ControlAssessment {
	sorted := slices.Clone(controls)
	slices.SortStableFunc(sorted, func(a, b model.ControlAssessment) int {
		return cmp.Compare(a.Result.RawScore, b.Result.RawScore)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// percentColor picks a status color for a 0-100 percentage
func percentColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 80:
		return CompliantColor
	case pct >= 50:
		return PartialColor
	}
	return NotCompliantColor
}

func chartTitle(text string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ForegroundColor).
		Background(PrimaryColor).
		Padding(0, 1).
		Render(text)
}

func newBarChart(width, height, reserved, barWidth, gap int) barchart.Model {
	return barchart.New(max(width-4, 10), max(height-reserved, 4),
		barchart.WithNoAutoBarWidth(),
		barchart.WithBarWidth(barWidth),
		barchart.WithBarGap(gap),
	)
}

// RenderStatusChart renders the compliant / partial / not compliant distribution
func RenderStatusChart(controls []model.ControlAssessment, width, height int) string {
	stats := GetStatusStats(controls)
	if stats.Total == 0 {
		return "No controls assessed"
	}

	var b strings.Builder
	b.WriteString(chartTitle("Control Status Distribution"))
	b.WriteString("\n\n")

	bc := newBarChart(width, height, 12, 8, 2)
	bc.PushAll([]barchart.BarData{
		statusBar("Compliant", stats.Compliant, CompliantColor),
		statusBar("Partial", stats.PartiallyCompliant, PartialColor),
		statusBar("Not", stats.NotCompliant, NotCompliantColor),
	})
	bc.Draw()

	b.WriteString(bc.View())
	b.WriteString("\n\n")

	rows := []struct {
		status model.Status
		count  int
	}{
		{model.Compliant, stats.Compliant},
		{model.PartiallyCompliant, stats.PartiallyCompliant},
		{model.NotCompliant, stats.NotCompliant},
	}
	for _, r := range rows {
		pct := float64(r.count) / float64(stats.Total) * 100
		style := lipgloss.NewStyle().Foreground(StatusColor(r.status)).Bold(true)
		b.WriteString(style.Render(fmt.Sprintf("%-20s %d (%.1f%%)", r.status.String()+":", r.count, pct)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(SubtleColor).Render("g/esc back to charts menu"))
	return b.String()
}

func statusBar(label string, count int, color lipgloss.Color) barchart.BarData {
	return barchart.BarData{
		Label: label,
		Values: []barchart.BarValue{{
			Name:  label,
			Value: float64(count),
			Style: lipgloss.NewStyle().Foreground(color),
		}},
	}
}

// RenderCategoryChart renders mean compliance per category
func RenderCategoryChart(controls []model.ControlAssessment, width, height int) string {
	return RenderCategoryChartWithSelection(controls, width, height, -1)
}

// RenderCategoryChartWithSelection renders the category chart with optional selection highlight
func RenderCategoryChartWithSelection(controls []model.ControlAssessment, width, height, selectedIndex int) string {
	categories := GetCategoryStats(controls)
	if len(categories) == 0 {
		return "No category data available"
	}

	var b strings.Builder
	b.WriteString(chartTitle("Compliance by Category"))
	b.WriteString("\n\n")

	bc := newBarChart(width, height, 8+len(categories), 3, 1)
	var items []barchart.BarData
	for _, c := range categories {
		items = append(items, barchart.BarData{
			Label: truncateString(c.Name, 6),
			Values: []barchart.BarValue{{
				Name:  c.Name,
				Value: c.Percentage,
				Style: lipgloss.NewStyle().Foreground(percentColor(c.Percentage)),
			}},
		})
	}
	bc.PushAll(items)
	bc.Draw()

	b.WriteString(bc.View())
	b.WriteString("\n\n")

	for i, c := range categories {
		marker := lipgloss.NewStyle().Foreground(percentColor(c.Percentage)).Render("█")
		line := fmt.Sprintf("%s: %.1f%% (%d/%d compliant)", c.Name, c.Percentage, c.Compliant, c.Controls)
		if i == selectedIndex {
			selectedStyle := lipgloss.NewStyle().
				Bold(true).
				Foreground(ForegroundColor).
				Background(PrimaryColor)
			line = selectedStyle.Render(" " + line + " ")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, line))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(SubtleColor).Render("j/k navigate • enter filter by category • g/esc back"))
	return b.String()
}

// RenderWeakestChart renders the lowest-scoring controls
func RenderWeakestChart(controls []model.ControlAssessment, width, height int) string {
	weakest := GetWeakestControls(controls, 10)
	if len(weakest) == 0 {
		return "No controls assessed"
	}

	var b strings.Builder
	b.WriteString(chartTitle("Lowest Scoring Controls"))
	b.WriteString("\n\n")

	bc := newBarChart(width, height, 10+len(weakest), 4, 1)
	var items []barchart.BarData
	for _, c := range weakest {
		items = append(items, barchart.BarData{
			Label: truncateString(c.Control.ID, 6),
			Values: []barchart.BarValue{{
				Name:  c.Control.ID,
				Value: c.Result.RawScore * 100,
				Style: lipgloss.NewStyle().Foreground(StatusColor(c.Result.Status)),
			}},
		})
	}
	bc.PushAll(items)
	bc.Draw()

	b.WriteString(bc.View())
	b.WriteString("\n\n")

	for _, c := range weakest {
		b.WriteString(fmt.Sprintf("%-7s %5.1f%%  %s\n", c.Control.ID, c.Result.RawScore*100, truncateString(c.Control.Title, 40)))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(SubtleColor).Render("g/esc back to charts menu"))
	return b.String()
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "."
}
