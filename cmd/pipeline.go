package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ethanolivertroy/annexa/internal/assess"
	"github.com/ethanolivertroy/annexa/internal/evidence"
	"github.com/ethanolivertroy/annexa/internal/ingest"
	"github.com/ethanolivertroy/annexa/internal/matcher"
	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/ethanolivertroy/annexa/internal/report"
	"github.com/ethanolivertroy/annexa/internal/scoring"
	"github.com/ethanolivertroy/annexa/internal/tui"
	"github.com/ethanolivertroy/annexa/internal/workspace"
)

func newIngestCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the catalog, policy documents and evidence index into snapshot.json",
		Args:  cobra.NoArgs,
		RunE:  stageCommand(opts, "ingest", ingestStage),
	}
	addInputFlags(cmd, opts)
	return cmd
}

func newMapCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Score every policy against every control and write mappings.json",
		Args:  cobra.NoArgs,
		RunE:  stageCommand(opts, "map", mapStage),
	}
	addMatchFlags(cmd, opts)
	return cmd
}

func newCheckCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify evidence, score controls and write results.json and gaps.csv",
		Args:  cobra.NoArgs,
		RunE:  stageCommand(opts, "check", checkStage),
	}
	addCheckFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "controls evaluated in parallel")
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the assessment report in every requested format",
		Args:  cobra.NoArgs,
		RunE: stageCommand(opts, "export", func(ctx context.Context, e *env) error {
			return exportStage(ctx, e, opts.formats)
		}),
	}
	addExportFlags(cmd, opts)
	return cmd
}

func newRunAllCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run ingest, map, check and export in order, stopping at the first failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return &StageError{Stage: "run-all", Err: err}
			}
			defer func() { _ = e.log.Sync() }()

			stages := []struct {
				name string
				fn   stageFunc
			}{
				{"ingest", ingestStage},
				{"map", mapStage},
				{"check", checkStage},
				{"export", func(ctx context.Context, e *env) error { return exportStage(ctx, e, opts.formats) }},
			}
			for _, s := range stages {
				if err := runStage(cmd.Context(), e, s.name, s.fn); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addInputFlags(cmd, opts)
	addMatchFlags(cmd, opts)
	addCheckFlags(cmd, opts)
	addExportFlags(cmd, opts)
	return cmd
}

// ingestStage loads every input and records degraded inputs as warnings
func ingestStage(ctx context.Context, e *env) error {
	paths := e.cfg.Paths

	cat, err := ingest.LoadCatalog(paths.Catalog)
	if err != nil {
		return err
	}
	cat, err = ingest.LoadRequirements(paths.Requirements, cat)
	if err != nil {
		return err
	}

	snap := &workspace.Snapshot{
		CreatedAt: e.now,
		Sources: workspace.Sources{
			Catalog:      paths.Catalog,
			Requirements: paths.Requirements,
			Policies:     paths.Policies,
			Evidence:     paths.Evidence,
		},
		Controls: cat.Controls(),
	}

	snap.Policies, err = ingest.LoadPolicies(paths.Policies)
	switch {
	case errors.Is(err, ingest.ErrEmptyPolicySet):
		e.log.Warn("no policy documents found", zap.String("dir", paths.Policies))
		snap.Warnings = append(snap.Warnings, assess.WarnEmptyPolicySet)
	case err != nil:
		return err
	}

	snap.Evidence, err = ingest.LoadEvidenceRecords(paths.Evidence)
	switch {
	case errors.Is(err, ingest.ErrMissingEvidenceIndex):
		e.log.Warn("evidence index not found", zap.String("path", paths.Evidence))
		snap.EvidenceMissing = true
		snap.Warnings = append(snap.Warnings, assess.WarnMissingEvidenceIndex)
	case err != nil:
		return err
	}

	path, err := e.ws.WriteSnapshot(snap)
	if err != nil {
		return err
	}
	e.log.Info("ingested inputs",
		zap.Int("controls", len(snap.Controls)),
		zap.Int("policies", len(snap.Policies)),
		zap.Int("evidence", len(snap.Evidence)),
		zap.String("snapshot", path))
	fmt.Fprintf(e.out, "Ingested %d controls, %d policies, %d evidence records -> %s\n",
		len(snap.Controls), len(snap.Policies), len(snap.Evidence), path)
	return nil
}

// mapStage scores policies against controls and writes mappings.json and mappings.csv
func mapStage(ctx context.Context, e *env) error {
	snap, err := e.ws.ReadSnapshot()
	if err != nil {
		return err
	}
	a, err := newAssessor(e, e.cfg.Matching.Threshold)
	if err != nil {
		return err
	}

	mappings, err := a.MapControls(ctx, snap.Controls, snap.Policies)
	if err != nil {
		return err
	}

	set := &workspace.MappingSet{
		CreatedAt: e.now,
		Threshold: e.cfg.Matching.Threshold,
		Controls:  make([]workspace.ControlMappings, len(snap.Controls)),
	}
	view := &model.Report{Controls: make([]model.ControlAssessment, len(snap.Controls))}
	matched := 0
	for i, c := range snap.Controls {
		set.Controls[i] = workspace.ControlMappings{ControlID: c.ID, Mappings: mappings[i]}
		view.Controls[i] = model.ControlAssessment{Control: c, Mappings: mappings[i]}
		if best, ok := matcher.Best(mappings[i]); ok && best.IsMatch {
			matched++
		}
	}

	path, err := e.ws.WriteMappings(set)
	if err != nil {
		return err
	}
	if res := report.Export(view, report.ExportMappingsCSV, e.ws.Dir); res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(e.out, "Mapped %d controls against %d policies (%d with a matching policy) -> %s\n",
		len(snap.Controls), len(snap.Policies), matched, path)
	return nil
}

// checkStage verifies evidence, scores every control and writes results.json and gaps.csv
func checkStage(ctx context.Context, e *env) error {
	snap, err := e.ws.ReadSnapshot()
	if err != nil {
		return err
	}
	set, err := e.ws.ReadMappings()
	if err != nil {
		return err
	}
	if set.Threshold != e.cfg.Matching.Threshold {
		e.log.Warn("configured threshold differs from the map stage; using the map stage threshold",
			zap.Float64("configured", e.cfg.Matching.Threshold),
			zap.Float64("mapped", set.Threshold))
	}
	a, err := newAssessor(e, set.Threshold)
	if err != nil {
		return err
	}

	var index model.EvidenceIndex
	if !snap.EvidenceMissing {
		index = evidence.BuildIndex(snap.Evidence)
	}

	controls, err := a.Evaluate(ctx, snap.Controls, set.ByControl(snap.Controls), index)
	if err != nil {
		return err
	}
	r := a.NewReport(controls)
	r.Warnings = append(r.Warnings, snap.Warnings...)

	path, err := e.ws.WriteReport(r)
	if err != nil {
		return err
	}
	if res := report.Export(r, report.ExportGapsCSV, e.ws.Dir); res.Err != nil {
		// Results are already persisted
		e.log.Error("gap export failed", zap.Error(res.Err))
		fmt.Fprintf(e.out, "Warning: %v\n", res.Err)
	}

	fmt.Fprintln(e.out, tui.RenderSummary(r, 80))
	fmt.Fprintf(e.out, "Results -> %s\n", path)
	return nil
}

// exportStage writes every requested format, reporting failures without touching results.json
func exportStage(ctx context.Context, e *env, names []string) error {
	r, err := e.ws.ReadReport()
	if err != nil {
		return err
	}

	var formats []report.ExportFormat
	for _, name := range names {
		f, err := report.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	var failed []string
	for _, res := range report.ExportAll(r, e.ws.Dir, formats...) {
		if res.Err != nil {
			e.log.Error("export failed", zap.Stringer("format", res.Format), zap.Error(res.Err))
			failed = append(failed, res.Format.String())
			fmt.Fprintf(e.out, "  %-13s FAILED: %v\n", res.Format, res.Err)
			continue
		}
		fmt.Fprintf(e.out, "  %-13s %s\n", res.Format, res.FilePath)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d export(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// newAssessor wires matcher, verifier and scorer from the resolved config
func newAssessor(e *env, threshold float64) (*assess.Assessor, error) {
	m, err := matcher.New(matcher.Options{
		Threshold:       threshold,
		IncludeKeywords: e.cfg.Matching.IncludeKeywords,
	})
	if err != nil {
		return nil, err
	}
	s, err := scoring.New(scoring.Options(e.cfg.Scoring))
	if err != nil {
		return nil, err
	}
	now := e.now
	return assess.New(assess.Options{
		Matcher:  m,
		Verifier: evidence.NewVerifier(evidence.Options{MaxAge: e.cfg.Evidence.MaxAge, Now: func() time.Time { return now }}),
		Scorer:   s,
		Workers:  e.cfg.Workers,
		Logger:   e.log,
		Now:      func() time.Time { return now },
	})
}
