// Package scoring turns mapping and evidence results into per-control verdicts
// and aggregates them into overall and risk-weighted percentages.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/model"
)

// Options holds the score blend and status thresholds
type Options struct {
	PolicyWeight       float64
	EvidenceWeight     float64
	CompliantThreshold float64
	PartialThreshold   float64
}

// DefaultOptions returns equal weighting with 0.8/0.4 status thresholds
func DefaultOptions() Options {
	return Options{
		PolicyWeight:       config.DefaultPolicyWeight,
		EvidenceWeight:     config.DefaultEvidenceWeight,
		CompliantThreshold: config.DefaultCompliantThreshold,
		PartialThreshold:   config.DefaultPartialThreshold,
	}
}

// Scorer computes ComplianceResults
type Scorer struct {
	opts Options
}

// New returns a Scorer, or ErrThresholdMisconfiguration for invalid options
func New(opts Options) (*Scorer, error) {
	if err := config.ScoringConfig(opts).Validate(); err != nil {
		return nil, err
	}
	return &Scorer{opts: opts}, nil
}

// Options returns the scorer's configuration
func (s *Scorer) Options() Options {
	return s.opts
}

// Status maps a raw score onto the configured thresholds
func (s *Scorer) Status(raw float64) model.Status {
	switch {
	case raw >= s.opts.CompliantThreshold:
		return model.Compliant
	case raw >= s.opts.PartialThreshold:
		return model.PartiallyCompliant
	}
	return model.NotCompliant
}

// Score produces the verdict for one control. best is the control's
// highest-scoring mapping, nil when no policies were available; it counts
// toward the policy score only when it is a match.
func (s *Scorer) Score(control model.Control, best *model.Mapping, v model.Verification) model.ComplianceResult {
	res := model.ComplianceResult{
		ControlID: control.ID,
		Title:     control.Title,
		Category:  control.Category,
		Satisfied: v.Satisfied,
		Missing:   v.Missing,
	}
	if best != nil {
		b := *best
		res.BestMapping = &b
	}

	if reason := invalid(control); reason != "" {
		return s.reject(res, control, best, v, reason)
	}

	if best != nil && best.IsMatch {
		res.PolicyScore = best.Score
	}
	res.EvidenceScore = EvidenceScore(control, v)
	raw := s.opts.PolicyWeight*res.PolicyScore + s.opts.EvidenceWeight*res.EvidenceScore
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return s.reject(res, control, best, v, "score is not a number")
	}
	res.RawScore = clamp(raw)
	res.RiskWeight = control.RiskWeight
	res.WeightedContribution = res.RawScore * res.RiskWeight
	res.Status = s.Status(res.RawScore)

	if res.Status == model.Compliant && len(v.Missing) > 0 {
		res.Status = model.PartiallyCompliant
		res.Notes = append(res.Notes, "status capped at Partially Compliant: required evidence missing")
	}
	if res.Status == model.Compliant && len(v.MissingPolicies) > 0 {
		res.Status = model.PartiallyCompliant
		res.Notes = append(res.Notes, "status capped at Partially Compliant: required policies missing")
	}
	if res.Status != model.Compliant {
		res.Gap = gap(control, res, best, v)
	}
	return res
}

// reject marks a control NotCompliant with zero weight instead of failing the run
func (s *Scorer) reject(res model.ComplianceResult, control model.Control, best *model.Mapping, v model.Verification, reason string) model.ComplianceResult {
	res.Status = model.NotCompliant
	res.PolicyScore = 0
	res.EvidenceScore = 0
	res.RawScore = 0
	res.RiskWeight = 0
	res.WeightedContribution = 0
	res.Notes = append(res.Notes, "invalid control: "+reason)
	res.Gap = gap(control, res, best, v)
	res.Gap.Remediation = []string{"Correct the control definition: " + reason}
	return res
}

// Failed builds the NotCompliant result for a control whose evaluation could
// not complete.
func (s *Scorer) Failed(control model.Control, reason string) model.ComplianceResult {
	res := model.ComplianceResult{
		ControlID: control.ID,
		Title:     control.Title,
		Category:  control.Category,
		Status:    model.NotCompliant,
		Notes:     []string{"evaluation failed: " + reason},
	}
	v := model.Verification{Missing: control.RequiredEvidence, MissingPolicies: control.RequiredPolicies}
	res.Missing = v.Missing
	res.Gap = gap(control, res, nil, v)
	res.Gap.Remediation = []string{"Review the control definition and rerun the assessment"}
	return res
}

func invalid(control model.Control) string {
	switch {
	case control.ID == "":
		return "missing id"
	case math.IsNaN(control.RiskWeight):
		return "risk weight is not a number"
	case math.IsInf(control.RiskWeight, 0):
		return "risk weight is infinite"
	case control.RiskWeight <= 0:
		return fmt.Sprintf("risk weight %v is not positive", control.RiskWeight)
	}
	return ""
}

// EvidenceScore is the satisfied fraction of required evidence, 1.0 when the
// control requires none.
func EvidenceScore(control model.Control, v model.Verification) float64 {
	unique := make(map[string]struct{}, len(control.RequiredEvidence))
	for _, e := range control.RequiredEvidence {
		unique[e] = struct{}{}
	}
	if len(unique) == 0 {
		return 1
	}
	satisfied := min(len(v.Satisfied), len(unique))
	return float64(satisfied) / float64(len(unique))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Aggregate summarizes results. The outcome does not depend on result order.
func Aggregate(results []model.ComplianceResult) model.AggregateResult {
	agg := model.AggregateResult{Total: len(results)}
	if len(results) == 0 {
		return agg
	}

	raws := make([]float64, 0, len(results))
	contributions := make([]float64, 0, len(results))
	weights := make([]float64, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case model.Compliant:
			agg.Compliant++
		case model.PartiallyCompliant:
			agg.PartiallyCompliant++
		default:
			agg.NotCompliant++
		}
		raws = append(raws, r.RawScore)
		contributions = append(contributions, r.WeightedContribution)
		weights = append(weights, r.RiskWeight)
	}

	agg.OverallPercentage = sum(raws) / float64(len(raws)) * 100
	agg.TotalWeight = sum(weights)
	agg.AchievedWeight = sum(contributions)
	if agg.TotalWeight > 0 {
		agg.WeightedPercentage = agg.AchievedWeight / agg.TotalWeight * 100
	}
	return agg
}

// sum adds values in ascending order so the total is independent of input order
func sum(values []float64) float64 {
	sort.Float64s(values)
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
