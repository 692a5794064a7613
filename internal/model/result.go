package model

import (
	"strings"
	"time"
)

// Mapping is the evaluated correspondence between one control and one policy
type Mapping struct {
	ControlID       string   `json:"control_id"`
	PolicyID        string   `json:"policy_id"`
	Score           float64  `json:"score"` // 0.0-1.0
	IsMatch         bool     `json:"is_match"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	MissingKeywords []string `json:"missing_keywords,omitempty"`
}

// Verification is the outcome of checking a control's required evidence
type Verification struct {
	Satisfied []string `json:"satisfied"`
	Missing   []string `json:"missing"`
	Stale     []string `json:"stale,omitempty"` // subset of Missing: present but too old

	MissingPolicies []string `json:"missing_policies,omitempty"` // required policy documents not found
}

// Gap records why a control is not fully compliant and what to do about it
type Gap struct {
	ControlID       string   `json:"control_id"`
	Title           string   `json:"title"`
	MissingEvidence []string `json:"missing_evidence,omitempty"`
	StaleEvidence   []string `json:"stale_evidence,omitempty"`
	MissingKeywords []string `json:"missing_keywords,omitempty"`
	MissingPolicies []string `json:"missing_policies,omitempty"`
	ClosestPolicy   string   `json:"closest_policy,omitempty"`
	ClosestScore    float64  `json:"closest_score,omitempty"`
	Remediation     []string `json:"remediation"`
}

// MissingItems returns every missing evidence type, policy and keyword, in that order
func (g Gap) MissingItems() []string {
	items := make([]string, 0, len(g.MissingEvidence)+len(g.MissingPolicies)+len(g.MissingKeywords))
	items = append(items, g.MissingEvidence...)
	for _, p := range g.MissingPolicies {
		items = append(items, "policy: "+p)
	}
	for _, kw := range g.MissingKeywords {
		items = append(items, "keyword: "+kw)
	}
	return items
}

// RemediationText joins the remediation suggestions for flat exports
func (g Gap) RemediationText() string {
	return strings.Join(g.Remediation, " | ")
}

// ComplianceResult is the per-control verdict
type ComplianceResult struct {
	ControlID            string   `json:"control_id"`
	Title                string   `json:"title"`
	Category             string   `json:"category,omitempty"`
	Status               Status   `json:"status"`
	PolicyScore          float64  `json:"policy_score"`
	EvidenceScore        float64  `json:"evidence_score"`
	RawScore             float64  `json:"raw_score"`
	RiskWeight           float64  `json:"risk_weight"`
	WeightedContribution float64  `json:"weighted_contribution"`
	BestMapping          *Mapping `json:"best_mapping,omitempty"`
	Satisfied            []string `json:"satisfied_evidence,omitempty"`
	Missing              []string `json:"missing_evidence,omitempty"`
	Gap                  *Gap     `json:"gap,omitempty"`
	Notes                []string `json:"notes,omitempty"`
}

// AggregateResult summarizes a set of ComplianceResults
type AggregateResult struct {
	Total              int     `json:"total_controls"`
	Compliant          int     `json:"compliant"`
	PartiallyCompliant int     `json:"partially_compliant"`
	NotCompliant       int     `json:"not_compliant"`
	OverallPercentage  float64 `json:"overall_percentage"`
	WeightedPercentage float64 `json:"weighted_percentage"`
	TotalWeight        float64 `json:"total_weight"`
	AchievedWeight     float64 `json:"achieved_weight"`
}

// ControlAssessment bundles everything computed for one control
type ControlAssessment struct {
	Control      Control          `json:"control"`
	Mappings     []Mapping        `json:"mappings"`
	Verification Verification     `json:"verification"`
	Result       ComplianceResult `json:"result"`
}

// Settings records the parameters a report was computed with
type Settings struct {
	MatchThreshold     float64 `json:"match_threshold"`
	IncludeKeywords    bool    `json:"include_keywords"`
	PolicyWeight       float64 `json:"policy_weight"`
	EvidenceWeight     float64 `json:"evidence_weight"`
	CompliantThreshold float64 `json:"compliant_threshold"`
	PartialThreshold   float64 `json:"partial_threshold"`
	EvidenceMaxAge     string  `json:"evidence_max_age,omitempty"`
}

// Report is the complete output of one assessment run
type Report struct {
	RunID      string              `json:"run_id"`
	AssessedAt time.Time           `json:"assessed_at"`
	Settings   Settings            `json:"settings"`
	Controls   []ControlAssessment `json:"controls"`
	Aggregate  AggregateResult     `json:"aggregate"`
	Warnings   []string            `json:"warnings,omitempty"`
}

// Results returns the per-control results in catalog order
func (r *Report) Results() []ComplianceResult {
	results := make([]ComplianceResult, len(r.Controls))
	for i, c := range r.Controls {
		results[i] = c.Result
	}
	return results
}

// Gaps returns the gaps of non-compliant controls in catalog order
func (r *Report) Gaps() []Gap {
	var gaps []Gap
	for _, c := range r.Controls {
		if c.Result.Gap != nil {
			gaps = append(gaps, *c.Result.Gap)
		}
	}
	return gaps
}
