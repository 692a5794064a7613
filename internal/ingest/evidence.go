package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethanolivertroy/annexa/internal/evidence"
	"github.com/ethanolivertroy/annexa/internal/model"
)

// evidenceRecord is the on-disk shape. present defaults to true and path
// is accepted in place of source.
type evidenceRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Present   *bool  `json:"present"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Path      string `json:"path"`
}

// LoadEvidence reads a JSON or CSV evidence index. A missing file returns
// ErrMissingEvidenceIndex and a nil index.
func LoadEvidence(path string) (model.EvidenceIndex, error) {
	records, err := LoadEvidenceRecords(path)
	if err != nil {
		return nil, err
	}
	return evidence.BuildIndex(records), nil
}

// LoadEvidenceRecords reads the raw records of an evidence index
func LoadEvidenceRecords(path string) ([]model.EvidenceRecord, error) {
	if path == "" {
		return nil, ErrMissingEvidenceIndex
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingEvidenceIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("open evidence: %w", err)
	}
	defer f.Close()

	var raw []evidenceRecord
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		raw, err = readEvidenceCSV(path, f)
	} else {
		raw, err = readEvidenceJSON(path)
	}
	if err != nil {
		return nil, err
	}

	records := make([]model.EvidenceRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := r.toModel()
		if err != nil {
			return nil, malformed(path, fmt.Sprintf("/evidence/%d", i), "%v", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readEvidenceJSON(path string) ([]evidenceRecord, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if obj, ok := doc.(map[string]any); ok {
		items, found := obj["evidence"]
		if !found {
			return readKeyedEvidence(path, obj)
		}
		doc = items
	}
	var raw []evidenceRecord
	if err := remarshal(doc, &raw); err != nil {
		return nil, malformed(path, "", "%v", err)
	}
	return raw, nil
}

// readKeyedEvidence decodes an index keyed by evidence type, such as
// {"access_log": {"present": true}}. Keys are read in sorted order.
func readKeyedEvidence(path string, obj map[string]any) ([]evidenceRecord, error) {
	keys := slices.Sorted(maps.Keys(obj))
	raw := make([]evidenceRecord, 0, len(keys))
	for _, key := range keys {
		if _, ok := obj[key].(map[string]any); !ok {
			return nil, malformed(path, "/"+key, "object indexes need an evidence array or records keyed by type")
		}
		var rec evidenceRecord
		if err := remarshal(obj[key], &rec); err != nil {
			return nil, malformed(path, "/"+key, "%v", err)
		}
		switch strings.TrimSpace(rec.Type) {
		case "":
			rec.Type = key
		case key:
		default:
			return nil, malformed(path, "/"+key+"/type", "type %q does not match key %q", rec.Type, key)
		}
		raw = append(raw, rec)
	}
	return raw, nil
}

// readEvidenceCSV expects a header row naming at least a type column
func readEvidenceCSV(path string, r io.Reader) ([]evidenceRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, malformed(path, "", "invalid CSV: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["type"]; !ok {
		return nil, malformed(path, "type", "CSV header has no type column")
	}
	get := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []evidenceRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(path, "", "invalid CSV: %v", err)
		}
		rec := evidenceRecord{
			ID:        get(row, "id"),
			Type:      get(row, "type"),
			Timestamp: get(row, "timestamp"),
			Source:    get(row, "source"),
			Path:      get(row, "path"),
		}
		if v := get(row, "present"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, malformed(path, fmt.Sprintf("line %d: present", line), "%q is not a boolean", v)
			}
			rec.Present = &b
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r evidenceRecord) toModel() (model.EvidenceRecord, error) {
	if strings.TrimSpace(r.Type) == "" {
		return model.EvidenceRecord{}, errors.New("type is required")
	}
	rec := model.EvidenceRecord{
		ID:      r.ID,
		Type:    strings.TrimSpace(r.Type),
		Present: r.Present == nil || *r.Present,
		Source:  r.Source,
	}
	if rec.Source == "" {
		rec.Source = r.Path
	}
	if r.Timestamp != "" {
		ts, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			return model.EvidenceRecord{}, err
		}
		rec.Timestamp = &ts
	}
	return rec, nil
}

// ParseTimestamp accepts RFC 3339 timestamps and plain dates
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339 or YYYY-MM-DD", s)
}
