// Package evidence checks a control's required evidence against an evidence index
package evidence

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Options tunes the verifier
type Options struct {
	MaxAge time.Duration    // 0 disables the freshness check
	Now    func() time.Time // reference time for freshness; defaults to time.Now
}

// Verifier decides which required evidence types are satisfied
type Verifier struct {
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier returns a Verifier for the given options
func NewVerifier(opts Options) *Verifier {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{maxAge: opts.MaxAge, now: now}
}

// MaxAge returns the freshness window, 0 when disabled
func (v *Verifier) MaxAge() time.Duration {
	return v.maxAge
}

// Verify partitions the control's required evidence into satisfied and
// missing, preserving declared order and dropping duplicates. A nil index
// leaves every requirement missing.
func (v *Verifier) Verify(control model.Control, index model.EvidenceIndex) model.Verification {
	out := model.Verification{
		Satisfied: []string{},
		Missing:   []string{},
	}
	seen := make(map[string]struct{}, len(control.RequiredEvidence))
	var ref time.Time
	if v.maxAge > 0 && len(control.RequiredEvidence) > 0 {
		ref = v.now()
	}
	for _, typ := range control.RequiredEvidence {
		if _, dup := seen[typ]; dup {
			continue
		}
		seen[typ] = struct{}{}

		rec, ok := index[typ]
		switch {
		case !ok || !rec.Present:
			out.Missing = append(out.Missing, typ)
		case v.maxAge > 0 && !fresh(rec, ref, v.maxAge):
			out.Missing = append(out.Missing, typ)
			out.Stale = append(out.Stale, typ)
		default:
			out.Satisfied = append(out.Satisfied, typ)
		}
	}
	return out
}

// MissingPolicies returns the control's required policies that are neither a
// loaded policy document nor named by a present evidence record's ID or source.
// Names compare by base name without extension, case-insensitively, so
// "access_control" and "policies/Access_Control.txt" are the same policy.
func MissingPolicies(control model.Control, policyIDs []string, index model.EvidenceIndex) []string {
	if len(control.RequiredPolicies) == 0 {
		return nil
	}
	available := make(map[string]struct{}, len(policyIDs)+len(index))
	for _, id := range policyIDs {
		available[policyKey(id)] = struct{}{}
	}
	for _, rec := range index {
		if !rec.Present {
			continue
		}
		for _, name := range []string{rec.ID, rec.Source} {
			if name != "" {
				available[policyKey(name)] = struct{}{}
			}
		}
	}

	var missing []string
	seen := make(map[string]struct{}, len(control.RequiredPolicies))
	for _, p := range control.RequiredPolicies {
		key := policyKey(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := available[key]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

func policyKey(name string) string {
	base := filepath.Base(filepath.ToSlash(strings.TrimSpace(name)))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// fresh reports whether rec was collected within maxAge of ref. Records
// without a timestamp are never fresh.
func fresh(rec model.EvidenceRecord, ref time.Time, maxAge time.Duration) bool {
	if rec.Timestamp == nil {
		return false
	}
	return ref.Sub(*rec.Timestamp) <= maxAge
}

// BuildIndex keys records by evidence type. When several records share a
// type, a present record wins over an absent one, then the newest timestamp,
// then the first seen.
func BuildIndex(records []model.EvidenceRecord) model.EvidenceIndex {
	index := make(model.EvidenceIndex, len(records))
	for _, rec := range records {
		cur, ok := index[rec.Type]
		if !ok || preferred(rec, cur) {
			index[rec.Type] = rec
		}
	}
	return index
}

func preferred(candidate, current model.EvidenceRecord) bool {
	if candidate.Present != current.Present {
		return candidate.Present
	}
	switch {
	case candidate.Timestamp == nil:
		return false
	case current.Timestamp == nil:
		return true
	}
	return candidate.Timestamp.After(*current.Timestamp)
}
