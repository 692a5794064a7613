package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/annexa/internal/model"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ws, err := Open(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		CreatedAt: ts,
		Sources:   Sources{Policies: "policies", Evidence: "evidence_index.json"},
		Controls:  []model.Control{{ID: "A.9.1", Title: "Access", RiskWeight: 2, RequiredEvidence: []string{"access_log"}}},
		Policies:  []model.Policy{{ID: "p.txt", Text: "body", Topics: []string{"access control"}}},
		Evidence:  []model.EvidenceRecord{{Type: "access_log", Present: true, Timestamp: &ts}},
	}
	path, err := ws.WriteSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Dir, SnapshotFile), path)

	got, err := ws.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.Controls, got.Controls)
	assert.Equal(t, snap.Policies, got.Policies)
	require.Len(t, got.Evidence, 1)
	assert.True(t, got.Evidence[0].Timestamp.Equal(ts))

	entries, err := os.ReadDir(ws.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestMissingArtifacts(t *testing.T) {
	ws, err := Open(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name     string
		read     func() error
		producer string
	}{
		{"snapshot", func() error { _, err := ws.ReadSnapshot(); return err }, "ingest"},
		{"mappings", func() error { _, err := ws.ReadMappings(); return err }, "map"},
		{"results", func() error { _, err := ws.ReadReport(); return err }, "check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrArtifactMissing))
			var me *MissingArtifactError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.producer, me.Producer)
			assert.Contains(t, err.Error(), "annexa "+tt.producer)
		})
	}
}

func TestCorruptArtifact(t *testing.T) {
	ws, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ws.Path(ResultsFile), []byte("{"), 0o644))

	_, err = ws.ReadReport()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrArtifactMissing))
}

func TestMappingSetByControl(t *testing.T) {
	set := &MappingSet{Controls: []ControlMappings{
		{ControlID: "B", Mappings: []model.Mapping{{ControlID: "B", PolicyID: "p"}}},
		{ControlID: "A", Mappings: []model.Mapping{}},
	}}
	controls := []model.Control{{ID: "A"}, {ID: "B"}, {ID: "C"}}

	got := set.ByControl(controls)
	require.Len(t, got, 3)
	assert.Empty(t, got[0])
	assert.Equal(t, "p", got[1][0].PolicyID)
	assert.Nil(t, got[2])
}

func TestReportRoundTrip(t *testing.T) {
	ws, err := Open(t.TempDir())
	require.NoError(t, err)

	report := &model.Report{
		RunID: "run-1",
		Controls: []model.ControlAssessment{{
			Control: model.Control{ID: "A.9.1"},
			Result: model.ComplianceResult{
				ControlID: "A.9.1",
				Status:    model.PartiallyCompliant,
				Gap:       &model.Gap{ControlID: "A.9.1", Remediation: []string{"fix"}},
			},
		}},
		Aggregate: model.AggregateResult{Total: 1, PartiallyCompliant: 1},
	}
	_, err = ws.WriteReport(report)
	require.NoError(t, err)

	got, err := ws.ReadReport()
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, model.PartiallyCompliant, got.Controls[0].Result.Status)
	assert.Equal(t, report.Aggregate, got.Aggregate)
	assert.Len(t, got.Gaps(), 1)
}
