package scoring

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// gap describes why a control fell short. Remediation always holds at least
// one suggestion.
func gap(control model.Control, res model.ComplianceResult, best *model.Mapping, v model.Verification) *model.Gap {
	g := &model.Gap{
		ControlID:       control.ID,
		Title:           control.Title,
		MissingEvidence: v.Missing,
		StaleEvidence:   v.Stale,
		MissingPolicies: v.MissingPolicies,
	}
	if best != nil {
		g.MissingKeywords = best.MissingKeywords
	} else {
		g.MissingKeywords = control.RequiredKeywords
	}

	stale := make(map[string]struct{}, len(v.Stale))
	for _, s := range v.Stale {
		stale[s] = struct{}{}
	}
	var absent []string
	for _, m := range v.Missing {
		if _, ok := stale[m]; !ok {
			absent = append(absent, m)
		}
	}
	if len(absent) > 0 {
		g.Remediation = append(g.Remediation, "Provide evidence: "+strings.Join(absent, ", "))
	}
	if len(v.Stale) > 0 {
		g.Remediation = append(g.Remediation, "Refresh outdated evidence: "+strings.Join(v.Stale, ", "))
	}
	if len(v.MissingPolicies) > 0 {
		g.Remediation = append(g.Remediation,
			"Publish or update policies: "+strings.Join(v.MissingPolicies, ", ")+" (add the document to the policy directory or reference it in the evidence index)")
	}

	switch {
	case best == nil:
		g.Remediation = append(g.Remediation,
			fmt.Sprintf("No policy documents were available; draft a policy covering %q", control.Title))
	case !best.IsMatch:
		g.ClosestPolicy = best.PolicyID
		g.ClosestScore = best.Score
		msg := fmt.Sprintf("Closest policy %s scored %.2f, below the match threshold", best.PolicyID, best.Score)
		if len(best.MissingKeywords) > 0 {
			msg += "; add coverage for: " + strings.Join(best.MissingKeywords, ", ")
		} else {
			msg += "; expand it to address the control objective"
		}
		g.Remediation = append(g.Remediation, msg)
	case len(best.MissingKeywords) > 0:
		g.Remediation = append(g.Remediation,
			fmt.Sprintf("Policy %s does not mention: %s", best.PolicyID, strings.Join(best.MissingKeywords, ", ")))
	}

	if len(g.Remediation) == 0 {
		g.Remediation = append(g.Remediation,
			fmt.Sprintf("Strengthen policy coverage of %q to raise the score above the compliant threshold", control.Title))
	}
	return g
}
