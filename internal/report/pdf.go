package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/ethanolivertroy/annexa/internal/model"
)

func exportPDF(r *model.Report, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("ISO 27001 Annex A Compliance Report", true)
	pdf.SetCreator("annexa", true)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, "ISO 27001 Annex A Compliance Report", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Assessed %s | Run %s",
			r.AssessedAt.Format("2006-01-02 15:04"), r.RunID), "", 1, "L", false, 0, "")
		pdf.Ln(3)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	agg := r.Aggregate
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range [][2]string{
		{"Controls assessed", fmt.Sprintf("%d", agg.Total)},
		{"Compliant", fmt.Sprintf("%d", agg.Compliant)},
		{"Partially compliant", fmt.Sprintf("%d", agg.PartiallyCompliant)},
		{"Not compliant", fmt.Sprintf("%d", agg.NotCompliant)},
		{"Overall compliance", pct(agg.OverallPercentage)},
		{"Risk-weighted compliance", pct(agg.WeightedPercentage)},
	} {
		pdf.CellFormat(60, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, line[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{18, 82, 40, 16, 16, 18}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(31, 78, 120)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Control", "Title", "Status", "Score", "Weight", "Weighted"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for _, c := range r.Controls {
		res := c.Result
		red, green, blue := statusColor(res.Status)
		pdf.SetFillColor(red, green, blue)
		cells := []string{
			res.ControlID,
			tr(truncate(res.Title, 52)),
			res.Status.String(),
			fmt.Sprintf("%.2f", res.RawScore),
			fmt.Sprintf("%.1f", res.RiskWeight),
			fmt.Sprintf("%.2f", res.WeightedContribution),
		}
		for i, v := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, i == 2, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.OutputFileAndClose(path)
}

func statusColor(s model.Status) (int, int, int) {
	switch s {
	case model.Compliant:
		return 198, 239, 206
	case model.PartiallyCompliant:
		return 255, 235, 156
	}
	return 255, 199, 206
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
