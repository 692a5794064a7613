package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// GapsHeader is the column layout of gaps.csv
var GapsHeader = []string{
	"control_id", "title", "status", "missing_evidence", "missing_keywords", "closest_policy", "remediation",
}

// MappingsHeader is the column layout of mappings.csv
var MappingsHeader = []string{
	"control_id", "policy_id", "rank", "score", "is_match", "matched_keywords", "missing_keywords",
}

func exportGapsCSV(r *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteGapsCSV(w, r) })
}

func exportMappingsCSV(r *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteMappingsCSV(w, r) })
}

// WriteGapsCSV writes one row per non-compliant control, in catalog order
func WriteGapsCSV(w io.Writer, r *model.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(GapsHeader); err != nil {
		return err
	}
	for _, c := range r.Controls {
		g := c.Result.Gap
		if g == nil {
			continue
		}
		row := []string{
			g.ControlID,
			g.Title,
			c.Result.Status.String(),
			strings.Join(g.MissingEvidence, "; "),
			strings.Join(g.MissingKeywords, "; "),
			g.ClosestPolicy,
			g.RemediationText(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMappingsCSV writes every control-policy mapping with its rank
func WriteMappingsCSV(w io.Writer, r *model.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(MappingsHeader); err != nil {
		return err
	}
	for _, c := range r.Controls {
		for i, m := range c.Mappings {
			row := []string{
				c.Control.ID,
				m.PolicyID,
				strconv.Itoa(i + 1),
				fmt.Sprintf("%.4f", m.Score),
				strconv.FormatBool(m.IsMatch),
				strings.Join(m.MatchedKeywords, "; "),
				strings.Join(m.MissingKeywords, "; "),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeFile(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
