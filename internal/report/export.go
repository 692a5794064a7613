// Package report renders assessment reports into files
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// ExportFormat represents the export file format
type ExportFormat int

const (
	ExportJSON ExportFormat = iota
	ExportGapsCSV
	ExportMappingsCSV
	ExportMarkdown
	ExportXLSX
	ExportPDF
	ExportMetrics
)

// AllFormats lists every format in export order
var AllFormats = []ExportFormat{
	ExportJSON, ExportGapsCSV, ExportMappingsCSV, ExportMarkdown, ExportXLSX, ExportPDF, ExportMetrics,
}

func (f ExportFormat) String() string {
	switch f {
	case ExportJSON:
		return "JSON"
	case ExportGapsCSV:
		return "Gaps CSV"
	case ExportMappingsCSV:
		return "Mappings CSV"
	case ExportMarkdown:
		return "Markdown"
	case ExportXLSX:
		return "Excel"
	case ExportPDF:
		return "PDF"
	case ExportMetrics:
		return "Metrics"
	}
	return ""
}

// Filename returns the fixed output file name for the format
func (f ExportFormat) Filename() string {
	switch f {
	case ExportJSON:
		return "report.json"
	case ExportGapsCSV:
		return "gaps.csv"
	case ExportMappingsCSV:
		return "mappings.csv"
	case ExportMarkdown:
		return "report.md"
	case ExportXLSX:
		return "report.xlsx"
	case ExportPDF:
		return "report.pdf"
	case ExportMetrics:
		return "metrics.prom"
	}
	return ""
}

// ParseFormat maps a CLI name such as "xlsx" or "gaps" to a format
func ParseFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return ExportJSON, nil
	case "gaps", "csv", "gaps-csv":
		return ExportGapsCSV, nil
	case "mappings", "mappings-csv":
		return ExportMappingsCSV, nil
	case "md", "markdown":
		return ExportMarkdown, nil
	case "xlsx", "excel":
		return ExportXLSX, nil
	case "pdf":
		return ExportPDF, nil
	case "metrics", "prom", "prometheus":
		return ExportMetrics, nil
	}
	return 0, fmt.Errorf("unknown export format %q", name)
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Format   ExportFormat
	FilePath string
	Count    int
	Err      error
}

// Export writes the report in one format to outputDir
func Export(r *model.Report, format ExportFormat, outputDir string) ExportResult {
	name := format.Filename()
	if name == "" {
		return ExportResult{Format: format, Err: fmt.Errorf("unknown export format %d", format)}
	}
	path := filepath.Join(outputDir, name)

	var err error
	switch format {
	case ExportJSON:
		err = exportJSON(r, path)
	case ExportGapsCSV:
		err = exportGapsCSV(r, path)
	case ExportMappingsCSV:
		err = exportMappingsCSV(r, path)
	case ExportMarkdown:
		err = os.WriteFile(path, []byte(Markdown(r)), 0o644)
	case ExportXLSX:
		err = exportXLSX(r, path)
	case ExportPDF:
		err = exportPDF(r, path)
	case ExportMetrics:
		err = exportMetrics(r, path)
	}

	if err != nil {
		return ExportResult{Format: format, Err: fmt.Errorf("export %s: %w", format, err)}
	}
	return ExportResult{Format: format, FilePath: path, Count: len(r.Controls)}
}

// ExportAll writes every requested format, continuing past failures. Nil or
// empty formats means all of them.
func ExportAll(r *model.Report, outputDir string, formats ...ExportFormat) []ExportResult {
	if len(formats) == 0 {
		formats = AllFormats
	}
	results := make([]ExportResult, 0, len(formats))
	for _, f := range formats {
		results = append(results, Export(r, f, outputDir))
	}
	return results
}

func exportJSON(r *model.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// pct formats a percentage to two decimals
func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
