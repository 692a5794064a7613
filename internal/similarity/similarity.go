// Package similarity scores how closely two passages of text agree
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, applies NFKC, replaces punctuation with spaces and
// collapses whitespace.
func Normalize(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokens returns the content words of s in order, stopwords removed
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}

// Score returns a similarity in [0,1]. Empty input on either side scores 0;
// texts that normalize to the same string score 1.
//
// The score is the mean of the overlap coefficient over content-word sets and
// over adjacent word-pair sets, so a control description quoted inside a long
// policy still scores high while paraphrases earn partial credit. The smaller
// set counts as at least minSupport entries, so a handful of shared words
// never earns full credit on its own.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta, tb := Tokens(na), Tokens(nb)
	uni := overlap(set(ta), set(tb))
	ba, bb := bigrams(ta), bigrams(tb)
	if len(ba) == 0 || len(bb) == 0 {
		return uni
	}
	return (uni + overlap(ba, bb)) / 2
}

func set(tokens []string) map[string]struct{} {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func bigrams(tokens []string) map[string]struct{} {
	if len(tokens) < 2 {
		return nil
	}
	m := make(map[string]struct{}, len(tokens)-1)
	for i := 1; i < len(tokens); i++ {
		m[tokens[i-1]+" "+tokens[i]] = struct{}{}
	}
	return m
}

// minSupport is the smallest denominator overlap will divide by
const minSupport = 5

// overlap is |A∩B| / max(min(|A|,|B|), minSupport), 0 when either set is empty
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for k := range small {
		if _, ok := large[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(small), minSupport))
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries,
// after both are normalized.
func ContainsPhrase(text, phrase string) bool {
	p := Normalize(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+Normalize(text)+" ", " "+p+" ")
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "which": {}, "will": {}, "with": {},
	"all": {}, "any": {}, "these": {}, "those": {}, "such": {}, "should": {}, "shall": {},
	"must": {}, "can": {}, "may": {}, "within": {}, "where": {}, "when": {}, "so": {},
}
