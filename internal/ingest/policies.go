package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// policyExtensions lists the file types read as policy documents
var policyExtensions = map[string]bool{".txt": true, ".md": true}

// topicsPrefix introduces an optional first line declaring policy topics
const topicsPrefix = "topics:"

// LoadPolicies reads every policy document in dir, sorted by file name. A
// missing directory or one without policy files yields ErrEmptyPolicySet
// with an empty, usable slice.
func LoadPolicies(dir string) ([]model.Policy, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Policy{}, fmt.Errorf("%s: %w", dir, ErrEmptyPolicySet)
	}
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}

	policies := []model.Policy{}
	for _, e := range entries {
		if e.IsDir() || !policyExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy: %w", err)
		}
		if !utf8.Valid(data) {
			return nil, malformed(path, "", "policy is not valid UTF-8")
		}
		policies = append(policies, ParsePolicy(e.Name(), path, string(data)))
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].ID < policies[j].ID })

	if len(policies) == 0 {
		return policies, fmt.Errorf("%s: %w", dir, ErrEmptyPolicySet)
	}
	return policies, nil
}

// ParsePolicy builds a Policy from raw text, lifting a leading
// "Topics: a, b" line into Topics.
func ParsePolicy(id, path, text string) model.Policy {
	text = strings.TrimPrefix(text, "\ufeff")
	p := model.Policy{ID: id, Path: path, Text: text}

	first, rest, _ := strings.Cut(text, "\n")
	line := strings.TrimSpace(first)
	if len(line) < len(topicsPrefix) || !strings.EqualFold(line[:len(topicsPrefix)], topicsPrefix) {
		return p
	}
	for _, t := range strings.Split(line[len(topicsPrefix):], ",") {
		if t = strings.TrimSpace(t); t != "" {
			p.Topics = append(p.Topics, t)
		}
	}
	p.Text = rest
	return p
}
