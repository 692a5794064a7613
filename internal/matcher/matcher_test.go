package matcher

import (
	"errors"
	"testing"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accessControl = model.Control{
	ID:               "A.9.1",
	Title:            "Business requirements of access control",
	Description:      "An access control policy shall be established, documented and reviewed based on business and information security requirements.",
	RequiredKeywords: []string{"access control", "least privilege"},
}

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(Options{Threshold: config.DefaultMatchThreshold})
	require.NoError(t, err)
	return m
}

func TestNewRejectsBadThreshold(t *testing.T) {
	for _, th := range []float64{-0.1, 1.01} {
		_, err := New(Options{Threshold: th})
		require.Error(t, err)
		assert.True(t, errors.Is(err, config.ErrThresholdMisconfiguration))
	}
	for _, th := range []float64{0, 1} {
		_, err := New(Options{Threshold: th})
		assert.NoError(t, err)
	}
}

func TestMatchExactDescription(t *testing.T) {
	m := newMatcher(t)
	policies := []model.Policy{
		{ID: "access.txt", Text: accessControl.Description},
		{ID: "hr.txt", Text: "Employees receive onboarding in their first week."},
	}

	mappings := m.Match(accessControl, policies)
	require.Len(t, mappings, 2)

	best, ok := Best(mappings)
	require.True(t, ok)
	assert.Equal(t, "access.txt", best.PolicyID)
	assert.Equal(t, 1.0, best.Score)
	assert.True(t, best.IsMatch)
	assert.Equal(t, "A.9.1", best.ControlID)

	assert.False(t, mappings[1].IsMatch)
	assert.Less(t, mappings[1].Score, config.DefaultMatchThreshold)
}

func TestMatchOrderingAndTies(t *testing.T) {
	m := newMatcher(t)
	policies := []model.Policy{
		{ID: "c.txt", Text: "unrelated gardening notes"},
		{ID: "b.txt", Text: "unrelated cooking notes"},
		{ID: "a.txt", Text: "Access control policy reviewed yearly by information security."},
	}

	mappings := m.Match(accessControl, policies)
	require.Len(t, mappings, 3)
	assert.Equal(t, "a.txt", mappings[0].PolicyID)
	// zero-score ties fall back to policy ID
	assert.Equal(t, "b.txt", mappings[1].PolicyID)
	assert.Equal(t, "c.txt", mappings[2].PolicyID)

	for i := 1; i < len(mappings); i++ {
		assert.GreaterOrEqual(t, mappings[i-1].Score, mappings[i].Score)
	}
}

func TestMatchDeterministic(t *testing.T) {
	m := newMatcher(t)
	policies := []model.Policy{
		{ID: "p1.txt", Text: "Access to systems follows least privilege and is reviewed."},
		{ID: "p2.txt", Text: "Backups are taken nightly and restore tests run quarterly."},
		{ID: "p3.txt", Text: "Information security requirements are documented for access."},
	}
	first := m.Match(accessControl, policies)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match(accessControl, policies))
	}

	reversed := []model.Policy{policies[2], policies[1], policies[0]}
	assert.Equal(t, first, m.Match(accessControl, reversed))
}

func TestMatchEmptyPolicies(t *testing.T) {
	m := newMatcher(t)
	mappings := m.Match(accessControl, nil)
	assert.NotNil(t, mappings)
	assert.Empty(t, mappings)

	_, ok := Best(mappings)
	assert.False(t, ok)
}

func TestMatchScoresInRange(t *testing.T) {
	m := newMatcher(t)
	policies := []model.Policy{
		{ID: "empty.txt", Text: ""},
		{ID: "punct.txt", Text: "!!! ---"},
		{ID: "long.txt", Text: accessControl.Description + " " + accessControl.Description},
	}
	for _, mp := range m.Match(accessControl, policies) {
		assert.GreaterOrEqual(t, mp.Score, 0.0)
		assert.LessOrEqual(t, mp.Score, 1.0)
	}
}

func TestThresholdBoundary(t *testing.T) {
	policies := []model.Policy{{ID: "same.txt", Text: accessControl.Description}}

	m, err := New(Options{Threshold: 1})
	require.NoError(t, err)
	assert.True(t, m.Match(accessControl, policies)[0].IsMatch, "score equal to threshold matches")
}

func TestQueryIncludeKeywords(t *testing.T) {
	plain := newMatcher(t)
	assert.Equal(t, accessControl.Description, plain.Query(accessControl))

	withKw, err := New(Options{Threshold: 0.35, IncludeKeywords: true})
	require.NoError(t, err)
	assert.Equal(t, accessControl.Description+" access control least privilege", withKw.Query(accessControl))
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name        string
		policy      model.Policy
		wantMatched []string
		wantMissing []string
	}{
		{
			name:        "phrase in text",
			policy:      model.Policy{Text: "Our Access-Control policy applies least privilege."},
			wantMatched: []string{"access control", "least privilege"},
		},
		{
			name:        "declared topic",
			policy:      model.Policy{Text: "Access control rules.", Topics: []string{"Least Privilege"}},
			wantMatched: []string{"access control", "least privilege"},
		},
		{
			name:        "partial word does not count",
			policy:      model.Policy{Text: "accessible controls"},
			wantMissing: []string{"access control", "least privilege"},
		},
		{
			name:        "one missing",
			policy:      model.Policy{Text: "access control is enforced"},
			wantMatched: []string{"access control"},
			wantMissing: []string{"least privilege"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, missing := Coverage(accessControl.RequiredKeywords, tt.policy)
			assert.Equal(t, tt.wantMatched, matched)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}

func TestMappingCarriesKeywordCoverage(t *testing.T) {
	m := newMatcher(t)
	mappings := m.Match(accessControl, []model.Policy{{ID: "p.txt", Text: "access control policy"}})
	require.Len(t, mappings, 1)
	assert.Equal(t, []string{"access control"}, mappings[0].MatchedKeywords)
	assert.Equal(t, []string{"least privilege"}, mappings[0].MissingKeywords)
}
