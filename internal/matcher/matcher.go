// Package matcher maps controls to the policy documents that address them
package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/ethanolivertroy/annexa/internal/similarity"
)

// Options tunes the matcher
type Options struct {
	Threshold       float64 // minimum score for IsMatch
	IncludeKeywords bool    // append required keywords to the control query text
}

// Matcher scores every policy against a control
type Matcher struct {
	opts Options
}

// New returns a Matcher, rejecting thresholds outside [0,1]
func New(opts Options) (*Matcher, error) {
	if err := config.CheckUnit("matching.threshold", opts.Threshold); err != nil {
		return nil, err
	}
	return &Matcher{opts: opts}, nil
}

// Options returns the matcher's configuration
func (m *Matcher) Options() Options {
	return m.opts
}

// Query returns the text a control is compared with
func (m *Matcher) Query(control model.Control) string {
	if !m.opts.IncludeKeywords || len(control.RequiredKeywords) == 0 {
		return control.Description
	}
	return control.Description + " " + strings.Join(control.RequiredKeywords, " ")
}

// Match scores the control against every policy. All mappings are returned,
// highest score first with ties broken by policy ID.
func (m *Matcher) Match(control model.Control, policies []model.Policy) []model.Mapping {
	if len(policies) == 0 {
		return []model.Mapping{}
	}
	query := m.Query(control)
	mappings := make([]model.Mapping, 0, len(policies))
	for _, p := range policies {
		score := clamp(similarity.Score(query, p.Text))
		matched, missing := Coverage(control.RequiredKeywords, p)
		mappings = append(mappings, model.Mapping{
			ControlID:       control.ID,
			PolicyID:        p.ID,
			Score:           score,
			IsMatch:         score >= m.opts.Threshold,
			MatchedKeywords: matched,
			MissingKeywords: missing,
		})
	}
	Sort(mappings)
	return mappings
}

// Sort orders mappings by descending score, then ascending policy ID
func Sort(mappings []model.Mapping) {
	sort.SliceStable(mappings, func(i, j int) bool {
		if mappings[i].Score != mappings[j].Score {
			return mappings[i].Score > mappings[j].Score
		}
		return mappings[i].PolicyID < mappings[j].PolicyID
	})
}

// Best returns the highest-scoring mapping
func Best(mappings []model.Mapping) (model.Mapping, bool) {
	if len(mappings) == 0 {
		return model.Mapping{}, false
	}
	return mappings[0], true
}

// Coverage splits the required keywords into those the policy covers and
// those it does not. A keyword is covered when its phrase appears in the
// policy text or the policy declares it as a topic.
func Coverage(keywords []string, p model.Policy) (matched, missing []string) {
	text := " " + similarity.Normalize(p.Text) + " "
	topics := make(map[string]struct{}, len(p.Topics))
	for _, t := range p.Topics {
		topics[similarity.Normalize(t)] = struct{}{}
	}
	for _, kw := range keywords {
		n := similarity.Normalize(kw)
		if n == "" {
			continue
		}
		_, declared := topics[n]
		if declared || strings.Contains(text, " "+n+" ") {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
