package report

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Markdown renders the report as a Markdown document
func Markdown(r *model.Report) string {
	var b strings.Builder
	agg := r.Aggregate

	b.WriteString("# ISO 27001 Annex A Compliance Report\n\n")
	b.WriteString(fmt.Sprintf("**Assessed:** %s\n\n", r.AssessedAt.Format("2006-01-02 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("**Run ID:** `%s`\n\n", r.RunID))

	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("- **Controls assessed:** %d\n", agg.Total))
	b.WriteString(fmt.Sprintf("- **Compliant:** %d\n", agg.Compliant))
	b.WriteString(fmt.Sprintf("- **Partially compliant:** %d\n", agg.PartiallyCompliant))
	b.WriteString(fmt.Sprintf("- **Not compliant:** %d\n", agg.NotCompliant))
	b.WriteString(fmt.Sprintf("- **Overall compliance:** %s\n", pct(agg.OverallPercentage)))
	b.WriteString(fmt.Sprintf("- **Risk-weighted compliance:** %s\n\n", pct(agg.WeightedPercentage)))

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Controls\n\n")
	b.WriteString("| Control | Title | Status | Score | Weight | Best Policy |\n")
	b.WriteString("|---------|-------|--------|-------|--------|-------------|\n")
	for _, c := range r.Controls {
		res := c.Result
		best := "-"
		if res.BestMapping != nil {
			best = fmt.Sprintf("%s (%.2f)", res.BestMapping.PolicyID, res.BestMapping.Score)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.1f | %s |\n",
			res.ControlID, cell(res.Title), res.Status, res.RawScore, res.RiskWeight, cell(best)))
	}

	gaps := r.Gaps()
	if len(gaps) > 0 {
		b.WriteString("\n## Gaps\n\n")
		for _, g := range gaps {
			b.WriteString(fmt.Sprintf("### %s %s\n\n", g.ControlID, g.Title))
			if len(g.MissingEvidence) > 0 {
				b.WriteString(fmt.Sprintf("- **Missing evidence:** %s\n", strings.Join(g.MissingEvidence, ", ")))
			}
			if len(g.MissingPolicies) > 0 {
				b.WriteString(fmt.Sprintf("- **Missing policies:** %s\n", strings.Join(g.MissingPolicies, ", ")))
			}
			if len(g.MissingKeywords) > 0 {
				b.WriteString(fmt.Sprintf("- **Missing keywords:** %s\n", strings.Join(g.MissingKeywords, ", ")))
			}
			for _, rem := range g.Remediation {
				b.WriteString(fmt.Sprintf("- %s\n", rem))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("---\n\n")
	b.WriteString("*Generated by annexa*\n")
	return b.String()
}

// cell escapes pipes so text stays inside its table column
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
