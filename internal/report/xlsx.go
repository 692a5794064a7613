package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Sheet names in the workbook
const (
	SheetSummary  = "Summary"
	SheetControls = "Controls"
	SheetMappings = "Mappings"
	SheetGaps     = "Gaps"
	SheetCharts   = "Charts"
)

func exportXLSX(r *model.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetControls, SheetMappings, SheetGaps, SheetCharts} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	agg := r.Aggregate
	summary := [][]any{
		{"Metric", "Value"},
		{"Run ID", r.RunID},
		{"Assessed", r.AssessedAt.Format("2006-01-02 15:04:05")},
		{"Controls", agg.Total},
		{"Compliant", agg.Compliant},
		{"Partially Compliant", agg.PartiallyCompliant},
		{"Not Compliant", agg.NotCompliant},
		{"Overall %", round2(agg.OverallPercentage)},
		{"Weighted %", round2(agg.WeightedPercentage)},
		{"Match threshold", r.Settings.MatchThreshold},
	}
	if err := writeRows(f, SheetSummary, summary, header); err != nil {
		return err
	}

	controls := [][]any{{
		"Control", "Title", "Category", "Status", "Policy Score", "Evidence Score",
		"Raw Score", "Risk Weight", "Weighted", "Best Policy", "Missing Evidence", "Notes",
	}}
	for _, c := range r.Controls {
		res := c.Result
		best := ""
		if res.BestMapping != nil {
			best = res.BestMapping.PolicyID
		}
		controls = append(controls, []any{
			res.ControlID, res.Title, res.Category, res.Status.String(),
			res.PolicyScore, res.EvidenceScore, res.RawScore, res.RiskWeight, res.WeightedContribution,
			best, strings.Join(res.Missing, ", "), strings.Join(res.Notes, "; "),
		})
	}
	if err := writeRows(f, SheetControls, controls, header); err != nil {
		return err
	}

	mappings := [][]any{{"Control", "Policy", "Rank", "Score", "Match", "Matched Keywords", "Missing Keywords"}}
	for _, c := range r.Controls {
		for i, m := range c.Mappings {
			mappings = append(mappings, []any{
				c.Control.ID, m.PolicyID, i + 1, m.Score, m.IsMatch,
				strings.Join(m.MatchedKeywords, ", "), strings.Join(m.MissingKeywords, ", "),
			})
		}
	}
	if err := writeRows(f, SheetMappings, mappings, header); err != nil {
		return err
	}

	gaps := [][]any{{"Control", "Title", "Missing Evidence", "Missing Policies", "Missing Keywords", "Closest Policy", "Remediation"}}
	for _, g := range r.Gaps() {
		gaps = append(gaps, []any{
			g.ControlID, g.Title, strings.Join(g.MissingEvidence, ", "), strings.Join(g.MissingPolicies, ", "),
			strings.Join(g.MissingKeywords, ", "), g.ClosestPolicy, g.RemediationText(),
		})
	}
	if err := writeRows(f, SheetGaps, gaps, header); err != nil {
		return err
	}

	if err := writeCharts(f, r, header); err != nil {
		return err
	}

	for sheet, widths := range map[string][]float64{
		SheetSummary:  {22, 40},
		SheetControls: {10, 45, 30, 20, 12, 14, 10, 12, 10, 24, 30, 40},
		SheetMappings: {10, 28, 8, 10, 8, 30, 30},
		SheetGaps:     {10, 45, 30, 30, 24, 80},
	} {
		for i, w := range widths {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, col, col, w); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func writeCharts(f *excelize.File, r *model.Report, header int) error {
	agg := r.Aggregate
	rows := [][]any{
		{"Status", "Controls"},
		{model.Compliant.String(), agg.Compliant},
		{model.PartiallyCompliant.String(), agg.PartiallyCompliant},
		{model.NotCompliant.String(), agg.NotCompliant},
		{},
		{"Measure", "Percent"},
		{"Overall", round2(agg.OverallPercentage)},
		{"Weighted", round2(agg.WeightedPercentage)},
	}
	if err := writeRows(f, SheetCharts, rows, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetCharts, "A6", "B6", header); err != nil {
		return err
	}

	ref := func(cells string) string { return fmt.Sprintf("%s!%s", SheetCharts, cells) }
	if err := f.AddChart(SheetCharts, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       ref("$B$1"),
			Categories: ref("$A$2:$A$4"),
			Values:     ref("$B$2:$B$4"),
		}},
		Title:  []excelize.RichTextRun{{Text: "Controls by status"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return err
	}
	return f.AddChart(SheetCharts, "D20", &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       ref("$B$6"),
			Categories: ref("$A$7:$A$8"),
			Values:     ref("$B$7:$B$8"),
		}},
		Title:  []excelize.RichTextRun{{Text: "Compliance percentage"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

// writeRows fills a sheet from A1 and styles the first row as a header
func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
