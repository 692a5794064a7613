// Package workspace persists the artifacts each pipeline stage hands to the next
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Artifact file names
const (
	SnapshotFile = "snapshot.json"
	MappingsFile = "mappings.json"
	ResultsFile  = "results.json"
)

// ErrArtifactMissing is wrapped by MissingArtifactError
var ErrArtifactMissing = errors.New("artifact missing")

// MissingArtifactError names the stage that produces the missing artifact
type MissingArtifactError struct {
	Path     string
	Producer string // stage that writes the artifact
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found: run `annexa %s` first", e.Path, e.Producer)
}

func (e *MissingArtifactError) Unwrap() error {
	return ErrArtifactMissing
}

// Sources records where the ingested inputs came from
type Sources struct {
	Catalog      string `json:"catalog,omitempty"` // empty = built-in
	Requirements string `json:"requirements,omitempty"`
	Policies     string `json:"policies"`
	Evidence     string `json:"evidence"`
}

// Snapshot is the output of the ingest stage
type Snapshot struct {
	CreatedAt time.Time              `json:"created_at"`
	Sources   Sources                `json:"sources"`
	Controls  []model.Control        `json:"controls"`
	Policies  []model.Policy         `json:"policies"`
	Evidence  []model.EvidenceRecord `json:"evidence"`
	// EvidenceMissing distinguishes an absent index from an empty one
	EvidenceMissing bool     `json:"evidence_missing,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ControlMappings holds the ranked mappings of one control
type ControlMappings struct {
	ControlID string          `json:"control_id"`
	Mappings  []model.Mapping `json:"mappings"`
}

// MappingSet is the output of the map stage, in catalog order
type MappingSet struct {
	CreatedAt time.Time         `json:"created_at"`
	Threshold float64           `json:"threshold"`
	Controls  []ControlMappings `json:"controls"`
}

// ByControl returns the mappings indexed like controls. Controls absent from
// the set get no mappings.
func (m *MappingSet) ByControl(controls []model.Control) [][]model.Mapping {
	byID := make(map[string][]model.Mapping, len(m.Controls))
	for _, cm := range m.Controls {
		byID[cm.ControlID] = cm.Mappings
	}
	out := make([][]model.Mapping, len(controls))
	for i, c := range controls {
		out[i] = byID[c.ID]
	}
	return out
}

// Workspace is an output directory holding stage artifacts
type Workspace struct {
	Dir string
}

// Open returns a workspace rooted at dir, creating it if needed
func Open(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the location of an artifact
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteSnapshot stores the ingest stage output
func (w *Workspace) WriteSnapshot(s *Snapshot) (string, error) {
	return w.write(SnapshotFile, s)
}

// ReadSnapshot loads the ingest stage output
func (w *Workspace) ReadSnapshot() (*Snapshot, error) {
	var s Snapshot
	if err := w.read(SnapshotFile, "ingest", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteMappings stores the map stage output
func (w *Workspace) WriteMappings(m *MappingSet) (string, error) {
	return w.write(MappingsFile, m)
}

// ReadMappings loads the map stage output
func (w *Workspace) ReadMappings() (*MappingSet, error) {
	var m MappingSet
	if err := w.read(MappingsFile, "map", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteReport stores the check stage output
func (w *Workspace) WriteReport(r *model.Report) (string, error) {
	return w.write(ResultsFile, r)
}

// ReadReport loads the check stage output
func (w *Workspace) ReadReport() (*model.Report, error) {
	var r model.Report
	if err := w.read(ResultsFile, "check", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (w *Workspace) write(name string, v any) (string, error) {
	path := w.Path(name)
	tmp, err := os.CreateTemp(w.Dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (w *Workspace) read(name, producer string, v any) error {
	path := w.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingArtifactError{Path: path, Producer: producer}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
