package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// RenderSummary renders the aggregate panel and status chart printed after `annexa check`
func RenderSummary(r *model.Report, width int) string {
	agg := r.Aggregate
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Annex A Compliance Summary"))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Run", r.RunID},
		{"Assessed", r.AssessedAt.Format("2006-01-02 15:04 MST")},
		{"Controls", fmt.Sprintf("%d", agg.Total)},
		{"Overall", Percent(agg.OverallPercentage)},
		{"Weighted", Percent(agg.WeightedPercentage)},
		{"Weight", fmt.Sprintf("%.2f / %.2f", agg.AchievedWeight, agg.TotalWeight)},
	}
	for _, row := range rows {
		b.WriteString(LabelStyle.Render(row.label + ":"))
		b.WriteString(ValueStyle.Render(row.value))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	counts := []struct {
		status model.Status
		count  int
	}{
		{model.Compliant, agg.Compliant},
		{model.PartiallyCompliant, agg.PartiallyCompliant},
		{model.NotCompliant, agg.NotCompliant},
	}
	barWidth := max(min(width-40, 30), 10)
	for _, c := range counts {
		share := 0.0
		if agg.Total > 0 {
			share = float64(c.count) / float64(agg.Total)
		}
		label := lipgloss.NewStyle().Foreground(StatusColor(c.status)).Bold(true).Width(LabelStyle.GetWidth())
		b.WriteString(label.Render(c.status.String()))
		b.WriteString(ScoreBar(share, c.status, barWidth))
		b.WriteString(fmt.Sprintf(" %d", c.count))
		b.WriteString("\n")
	}

	if agg.Total > 0 && width >= 40 {
		bc := newBarChart(min(width, 60), 12, 4, 8, 2)
		bc.PushAll([]barchart.BarData{
			statusBar("Compliant", agg.Compliant, CompliantColor),
			statusBar("Partial", agg.PartiallyCompliant, PartialColor),
			statusBar("Not", agg.NotCompliant, NotCompliantColor),
		})
		bc.Draw()
		b.WriteString("\n")
		b.WriteString(bc.View())
		b.WriteString("\n")
	}

	if gaps := r.Gaps(); len(gaps) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render(fmt.Sprintf("%d controls with gaps", len(gaps))))
		b.WriteString("\n")
		for i, g := range gaps {
			if i == 5 {
				b.WriteString(SubtitleStyle.Render(fmt.Sprintf("... %d more in gaps.csv", len(gaps)-5)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %-7s %s\n", g.ControlID, truncateString(g.Title, max(width-16, 20))))
		}
	}

	for _, w := range r.Warnings {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(PartialColor).Render("! " + w))
	}

	panel := PanelStyle
	if width > 0 {
		panel = panel.MaxWidth(width)
	}
	return panel.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderMarkdown renders markdown for the terminal using a glamour style
// ("dark", "light", "dracula", "notty", ...)
func RenderMarkdown(md string, width int, style string) (string, error) {
	if style == "" {
		style = "dracula"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(width, 40)),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return renderer.Render(md)
}
