// Package assess runs the map and check stages over a control catalog
package assess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ethanolivertroy/annexa/internal/evidence"
	"github.com/ethanolivertroy/annexa/internal/logging"
	"github.com/ethanolivertroy/annexa/internal/matcher"
	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/ethanolivertroy/annexa/internal/scoring"
)

// Warnings attached to a report when inputs are degraded
const (
	WarnEmptyPolicySet       = "no policy documents available: every control scored on evidence only"
	WarnMissingEvidenceIndex = "evidence index missing: all required evidence treated as missing"
)

// Options wires the pipeline components
type Options struct {
	Matcher  *matcher.Matcher
	Verifier *evidence.Verifier
	Scorer   *scoring.Scorer
	Workers  int              // <= 1 runs sequentially
	Logger   *zap.Logger      // nil disables logging
	Now      func() time.Time // stamps AssessedAt; defaults to time.Now
}

// Inputs are the immutable values an assessment runs over
type Inputs struct {
	Controls []model.Control
	Policies []model.Policy
	Evidence model.EvidenceIndex // nil when no index was supplied
}

// Assessor evaluates controls against policies and evidence
type Assessor struct {
	matcher  *matcher.Matcher
	verifier *evidence.Verifier
	scorer   *scoring.Scorer
	workers  int
	log      *zap.Logger
	now      func() time.Time
}

// New validates the options and returns an Assessor
func New(opts Options) (*Assessor, error) {
	if opts.Matcher == nil || opts.Verifier == nil || opts.Scorer == nil {
		return nil, errors.New("assess: matcher, verifier and scorer are required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Assessor{
		matcher:  opts.Matcher,
		verifier: opts.Verifier,
		scorer:   opts.Scorer,
		workers:  max(opts.Workers, 1),
		log:      logging.OrNop(opts.Logger),
		now:      now,
	}, nil
}

// MapControls scores every policy against every control. The result is
// indexed like controls.
func (a *Assessor) MapControls(ctx context.Context, controls []model.Control, policies []model.Policy) ([][]model.Mapping, error) {
	if len(policies) == 0 {
		a.log.Warn("no policies to match against", zap.Int("controls", len(controls)))
	}
	out := make([][]model.Mapping, len(controls))
	err := a.forEach(ctx, len(controls), func(i int) {
		out[i] = a.matchOne(controls[i], policies)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Assessor) matchOne(control model.Control, policies []model.Policy) (mappings []model.Mapping) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("matching failed", zap.String("control", control.ID), zap.Any("panic", r))
			mappings = []model.Mapping{}
		}
	}()
	mappings = a.matcher.Match(control, policies)
	if best, ok := matcher.Best(mappings); ok {
		a.log.Debug("mapped control",
			zap.String("control", control.ID),
			zap.String("best_policy", best.PolicyID),
			zap.Float64("score", best.Score),
			zap.Bool("match", best.IsMatch))
	}
	return mappings
}

// Evaluate verifies evidence and scores each control given its mappings.
// mappings must be indexed like controls; a missing entry is treated as no
// policies.
func (a *Assessor) Evaluate(ctx context.Context, controls []model.Control, mappings [][]model.Mapping, index model.EvidenceIndex) ([]model.ControlAssessment, error) {
	if index == nil {
		a.log.Warn("evidence index missing, treating all evidence as missing")
	}
	out := make([]model.ControlAssessment, len(controls))
	err := a.forEach(ctx, len(controls), func(i int) {
		var m []model.Mapping
		if i < len(mappings) {
			m = mappings[i]
		}
		out[i] = a.evaluateOne(controls[i], m, index)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Assessor) evaluateOne(control model.Control, mappings []model.Mapping, index model.EvidenceIndex) (ca model.ControlAssessment) {
	ca = model.ControlAssessment{Control: control, Mappings: mappings}
	if ca.Mappings == nil {
		ca.Mappings = []model.Mapping{}
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("evaluation failed", zap.String("control", control.ID), zap.Any("panic", r))
			ca.Result = a.scorer.Failed(control, fmt.Sprint(r))
		}
	}()

	ca.Verification = a.verifier.Verify(control, index)
	ca.Verification.MissingPolicies = evidence.MissingPolicies(control, policyIDs(mappings), index)
	var best *model.Mapping
	if m, ok := matcher.Best(mappings); ok {
		best = &m
	}
	ca.Result = a.scorer.Score(control, best, ca.Verification)
	a.log.Debug("scored control",
		zap.String("control", control.ID),
		zap.Stringer("status", ca.Result.Status),
		zap.Float64("raw", ca.Result.RawScore))
	return ca
}

// policyIDs lists the policies a control was mapped against; every loaded
// policy has a mapping.
func policyIDs(mappings []model.Mapping) []string {
	ids := make([]string, len(mappings))
	for i, m := range mappings {
		ids[i] = m.PolicyID
	}
	return ids
}

// Run executes both stages and aggregates the results into a report
func (a *Assessor) Run(ctx context.Context, in Inputs) (*model.Report, error) {
	mappings, err := a.MapControls(ctx, in.Controls, in.Policies)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	controls, err := a.Evaluate(ctx, in.Controls, mappings, in.Evidence)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	report := a.NewReport(controls)
	if len(in.Policies) == 0 {
		report.Warnings = append(report.Warnings, WarnEmptyPolicySet)
	}
	if in.Evidence == nil {
		report.Warnings = append(report.Warnings, WarnMissingEvidenceIndex)
	}
	a.log.Info("assessment complete",
		zap.String("run_id", report.RunID),
		zap.Int("controls", report.Aggregate.Total),
		zap.Int("compliant", report.Aggregate.Compliant),
		zap.Float64("weighted_pct", report.Aggregate.WeightedPercentage))
	return report, nil
}

// NewReport stamps evaluated controls with a run ID, the assessment time and
// the settings in force, and aggregates their results.
func (a *Assessor) NewReport(controls []model.ControlAssessment) *model.Report {
	report := &model.Report{
		RunID:      uuid.NewString(),
		AssessedAt: a.now().UTC(),
		Settings:   a.Settings(),
		Controls:   controls,
	}
	report.Aggregate = scoring.Aggregate(report.Results())
	return report
}

// Settings reports the parameters the assessor was built with
func (a *Assessor) Settings() model.Settings {
	mo := a.matcher.Options()
	so := a.scorer.Options()
	s := model.Settings{
		MatchThreshold:     mo.Threshold,
		IncludeKeywords:    mo.IncludeKeywords,
		PolicyWeight:       so.PolicyWeight,
		EvidenceWeight:     so.EvidenceWeight,
		CompliantThreshold: so.CompliantThreshold,
		PartialThreshold:   so.PartialThreshold,
	}
	if age := a.verifier.MaxAge(); age > 0 {
		s.EvidenceMaxAge = age.String()
	}
	return s
}

// forEach calls fn for 0..n-1, fanning out over the worker limit
func (a *Assessor) forEach(ctx context.Context, n int, fn func(i int)) error {
	if a.workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}
