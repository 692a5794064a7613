package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var a91 = model.Control{
	ID:               "A.9.1",
	Title:            "Business requirements of access control",
	Description:      "An access control policy shall be established.",
	RiskWeight:       3,
	RequiredEvidence: []string{"access_log"},
	RequiredKeywords: []string{"access control"},
}

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative weight", Options{PolicyWeight: -0.1, EvidenceWeight: 0.5, CompliantThreshold: 0.8, PartialThreshold: 0.4}},
		{"threshold above one", Options{PolicyWeight: 0.5, EvidenceWeight: 0.5, CompliantThreshold: 1.2, PartialThreshold: 0.4}},
		{"partial above compliant", Options{PolicyWeight: 0.5, EvidenceWeight: 0.5, CompliantThreshold: 0.4, PartialThreshold: 0.8}},
		{"both weights zero", Options{CompliantThreshold: 0.8, PartialThreshold: 0.4}},
		{"nan", Options{PolicyWeight: math.NaN(), EvidenceWeight: 0.5, CompliantThreshold: 0.8, PartialThreshold: 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrThresholdMisconfiguration))
		})
	}
}

func TestScoreCompliantScenario(t *testing.T) {
	s := newScorer(t)
	best := &model.Mapping{ControlID: "A.9.1", PolicyID: "P1", Score: 1.0, IsMatch: true, MatchedKeywords: []string{"access control"}}
	v := model.Verification{Satisfied: []string{"access_log"}, Missing: []string{}}

	res := s.Score(a91, best, v)
	assert.Equal(t, 1.0, res.PolicyScore)
	assert.Equal(t, 1.0, res.EvidenceScore)
	assert.Equal(t, 1.0, res.RawScore)
	assert.Equal(t, model.Compliant, res.Status)
	assert.Equal(t, 3.0, res.WeightedContribution)
	assert.Nil(t, res.Gap)
	require.NotNil(t, res.BestMapping)
	assert.Equal(t, "P1", res.BestMapping.PolicyID)
}

func TestScoreNotCompliantScenario(t *testing.T) {
	s := newScorer(t)
	best := &model.Mapping{ControlID: "A.9.1", PolicyID: "hr.txt", Score: 0.1, MissingKeywords: []string{"access control"}}
	v := model.Verification{Satisfied: []string{}, Missing: []string{"access_log"}}

	res := s.Score(a91, best, v)
	assert.Equal(t, 0.0, res.PolicyScore)
	assert.Equal(t, 0.0, res.EvidenceScore)
	assert.Equal(t, 0.0, res.RawScore)
	assert.Equal(t, model.NotCompliant, res.Status)
	assert.Equal(t, 0.0, res.WeightedContribution)

	require.NotNil(t, res.Gap)
	assert.Equal(t, []string{"access_log"}, res.Gap.MissingEvidence)
	assert.Equal(t, []string{"access control"}, res.Gap.MissingKeywords)
	assert.Equal(t, "hr.txt", res.Gap.ClosestPolicy)
	assert.Equal(t, 0.1, res.Gap.ClosestScore)
	require.Len(t, res.Gap.Remediation, 2)
	assert.Contains(t, res.Gap.Remediation[0], "access_log")
	assert.Contains(t, res.Gap.Remediation[1], "hr.txt")
	assert.Contains(t, res.Gap.Remediation[1], "access control")
}

func TestScoreNoPolicies(t *testing.T) {
	s := newScorer(t)
	v := model.Verification{Satisfied: []string{"access_log"}, Missing: []string{}}

	res := s.Score(a91, nil, v)
	assert.Equal(t, 0.5, res.RawScore)
	assert.Equal(t, model.PartiallyCompliant, res.Status)
	require.NotNil(t, res.Gap)
	assert.Empty(t, res.Gap.ClosestPolicy)
	assert.Equal(t, []string{"access control"}, res.Gap.MissingKeywords)
	assert.Contains(t, res.Gap.Remediation[0], "No policy documents")
}

func TestScoreMissingEvidenceCapsStatus(t *testing.T) {
	opts := DefaultOptions()
	opts.PolicyWeight, opts.EvidenceWeight = 0.9, 0.1
	s, err := New(opts)
	require.NoError(t, err)

	best := &model.Mapping{PolicyID: "P1", Score: 1, IsMatch: true}
	v := model.Verification{Satisfied: []string{}, Missing: []string{"access_log"}}

	res := s.Score(a91, best, v)
	assert.InDelta(t, 0.9, res.RawScore, 1e-12)
	assert.Equal(t, model.PartiallyCompliant, res.Status)
	require.NotNil(t, res.Gap)
	assert.Equal(t, []string{"access_log"}, res.Gap.MissingEvidence)
	assert.NotEmpty(t, res.Notes)
}

func TestScoreStaleEvidence(t *testing.T) {
	s := newScorer(t)
	best := &model.Mapping{PolicyID: "P1", Score: 1, IsMatch: true}
	v := model.Verification{Satisfied: []string{}, Missing: []string{"access_log"}, Stale: []string{"access_log"}}

	res := s.Score(a91, best, v)
	require.NotNil(t, res.Gap)
	assert.Equal(t, []string{"access_log"}, res.Gap.StaleEvidence)
	require.Len(t, res.Gap.Remediation, 1)
	assert.Contains(t, res.Gap.Remediation[0], "Refresh")
}

func TestScoreWeakMatchStillGetsRemediation(t *testing.T) {
	opts := DefaultOptions()
	opts.CompliantThreshold = 0.95
	s, err := New(opts)
	require.NoError(t, err)

	best := &model.Mapping{PolicyID: "P1", Score: 0.6, IsMatch: true}
	control := a91
	control.RequiredEvidence = nil

	res := s.Score(control, best, model.Verification{})
	assert.Equal(t, model.PartiallyCompliant, res.Status)
	require.NotNil(t, res.Gap)
	require.Len(t, res.Gap.Remediation, 1)
	assert.Contains(t, res.Gap.Remediation[0], "Strengthen")
}

func TestScoreMissingPolicies(t *testing.T) {
	s := newScorer(t)
	control := a91
	control.RequiredPolicies = []string{"access_control.txt", "acceptable_use"}
	best := &model.Mapping{PolicyID: "access_control.txt", Score: 1, IsMatch: true}
	v := model.Verification{
		Satisfied:       []string{"access_log"},
		Missing:         []string{},
		MissingPolicies: []string{"acceptable_use"},
	}

	res := s.Score(control, best, v)
	assert.Equal(t, 1.0, res.RawScore)
	assert.Equal(t, model.PartiallyCompliant, res.Status)
	assert.Contains(t, res.Notes, "status capped at Partially Compliant: required policies missing")

	require.NotNil(t, res.Gap)
	assert.Equal(t, []string{"acceptable_use"}, res.Gap.MissingPolicies)
	assert.Equal(t, []string{"policy: acceptable_use"}, res.Gap.MissingItems())
	require.Len(t, res.Gap.Remediation, 1)
	assert.Contains(t, res.Gap.Remediation[0], "Publish or update policies: acceptable_use")
}

func TestScoreZeroThresholdMatchIsNotBelowThreshold(t *testing.T) {
	s := newScorer(t)
	control := a91
	control.RequiredEvidence = nil
	control.RequiredKeywords = nil
	best := &model.Mapping{PolicyID: "hr.txt", Score: 0, IsMatch: true}

	res := s.Score(control, best, model.Verification{})
	assert.Equal(t, 0.0, res.PolicyScore)
	require.NotNil(t, res.Gap)
	assert.Empty(t, res.Gap.ClosestPolicy)
	for _, r := range res.Gap.Remediation {
		assert.NotContains(t, r, "below the match threshold")
	}
	assert.Contains(t, res.Gap.Remediation[0], "Strengthen")
}

func TestEvidenceScoreNoRequirements(t *testing.T) {
	control := model.Control{ID: "A.12.7", RiskWeight: 1}
	assert.Equal(t, 1.0, EvidenceScore(control, model.Verification{}))
	assert.Equal(t, 1.0, EvidenceScore(control, model.Verification{Missing: []string{"unrelated"}}))
}

func TestScoreInvalidControl(t *testing.T) {
	s := newScorer(t)
	best := &model.Mapping{PolicyID: "P1", Score: 1, IsMatch: true}
	v := model.Verification{Satisfied: []string{"access_log"}}

	tests := []struct {
		name    string
		control model.Control
	}{
		{"empty id", model.Control{Title: "x", RiskWeight: 1}},
		{"zero weight", model.Control{ID: "X", RiskWeight: 0}},
		{"negative weight", model.Control{ID: "X", RiskWeight: -2}},
		{"nan weight", model.Control{ID: "X", RiskWeight: math.NaN()}},
		{"inf weight", model.Control{ID: "X", RiskWeight: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(tt.control, best, v)
			assert.Equal(t, model.NotCompliant, res.Status)
			assert.Equal(t, 0.0, res.RawScore)
			assert.Equal(t, 0.0, res.RiskWeight)
			assert.Equal(t, 0.0, res.WeightedContribution)
			require.NotEmpty(t, res.Notes)
			assert.Contains(t, res.Notes[0], "invalid control")
			assert.NotNil(t, res.Gap)
		})
	}
}

func TestFailed(t *testing.T) {
	s := newScorer(t)
	res := s.Failed(a91, "boom")
	assert.Equal(t, model.NotCompliant, res.Status)
	assert.Equal(t, "A.9.1", res.ControlID)
	require.NotNil(t, res.Gap)
	assert.Equal(t, []string{"access_log"}, res.Gap.MissingEvidence)
	assert.Len(t, res.Gap.Remediation, 1)
	assert.Contains(t, res.Notes[0], "boom")
}

func TestStatusThresholds(t *testing.T) {
	s := newScorer(t)
	tests := []struct {
		raw  float64
		want model.Status
	}{
		{1.0, model.Compliant},
		{0.8, model.Compliant},
		{0.79, model.PartiallyCompliant},
		{0.4, model.PartiallyCompliant},
		{0.39, model.NotCompliant},
		{0, model.NotCompliant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Status(tt.raw), "raw %v", tt.raw)
	}
}

func TestAggregateWeightedScenario(t *testing.T) {
	results := []model.ComplianceResult{
		{ControlID: "X.1", Status: model.Compliant, RawScore: 1, RiskWeight: 1, WeightedContribution: 1},
		{ControlID: "X.2", Status: model.NotCompliant, RawScore: 0, RiskWeight: 5, WeightedContribution: 0},
	}
	agg := Aggregate(results)
	assert.Equal(t, 2, agg.Total)
	assert.Equal(t, 1, agg.Compliant)
	assert.Equal(t, 1, agg.NotCompliant)
	assert.Equal(t, 0, agg.PartiallyCompliant)
	assert.InDelta(t, 16.67, agg.WeightedPercentage, 0.005)
	assert.Equal(t, 50.0, agg.OverallPercentage)
	assert.Equal(t, 6.0, agg.TotalWeight)
	assert.Equal(t, 1.0, agg.AchievedWeight)
}

func TestAggregateEmptyAndZeroWeight(t *testing.T) {
	assert.Equal(t, model.AggregateResult{}, Aggregate(nil))

	agg := Aggregate([]model.ComplianceResult{{Status: model.NotCompliant}})
	assert.Equal(t, 0.0, agg.WeightedPercentage)
	assert.Equal(t, 0.0, agg.OverallPercentage)
	assert.Equal(t, 1, agg.Total)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	results := []model.ComplianceResult{
		{ControlID: "b", RawScore: 0.9, RiskWeight: 2, WeightedContribution: 1.8},
		{ControlID: "a", RawScore: 0.1, RiskWeight: 1, WeightedContribution: 0.1},
	}
	Aggregate(results)
	assert.Equal(t, "b", results[0].ControlID)
}

func genResult() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 1),
		gen.Float64Range(0.1, 10),
	).Map(func(v []interface{}) model.ComplianceResult {
		raw, w := v[0].(float64), v[1].(float64)
		return model.ComplianceResult{RawScore: raw, RiskWeight: w, WeightedContribution: raw * w}
	})
}

func TestScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	s := newScorer(t)

	properties.Property("raw in range and contribution exact", prop.ForAll(
		func(policy, sat, weight float64, matched bool) bool {
			best := &model.Mapping{PolicyID: "P", Score: policy, IsMatch: matched}
			v := model.Verification{Missing: []string{"e2"}}
			if sat > 0.5 {
				v = model.Verification{Satisfied: []string{"e1"}, Missing: []string{"e2"}}
			}
			control := model.Control{ID: "C", RiskWeight: weight, RequiredEvidence: []string{"e1", "e2"}}
			res := s.Score(control, best, v)
			return res.RawScore >= 0 && res.RawScore <= 1 &&
				res.WeightedContribution == res.RawScore*res.RiskWeight
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0.1, 10),
		gen.Bool(),
	))

	properties.Property("gap present iff not compliant", prop.ForAll(
		func(policy float64, matched bool, evidence int) bool {
			best := &model.Mapping{PolicyID: "P", Score: policy, IsMatch: matched}
			required := []string{"e1", "e2", "e3"}
			v := model.Verification{Satisfied: required[:evidence], Missing: required[evidence:]}
			control := model.Control{ID: "C", RiskWeight: 1, RequiredEvidence: required}
			res := s.Score(control, best, v)
			return (res.Gap != nil) == (res.Status != model.Compliant)
		},
		gen.Float64Range(0, 1),
		gen.Bool(),
		gen.IntRange(0, 3),
	))

	properties.Property("aggregate invariant under reordering", prop.ForAll(
		func(results []model.ComplianceResult) bool {
			reversed := make([]model.ComplianceResult, len(results))
			for i, r := range results {
				reversed[len(results)-1-i] = r
			}
			return Aggregate(results) == Aggregate(reversed)
		},
		gen.SliceOf(genResult()),
	))

	properties.TestingRun(t)
}
