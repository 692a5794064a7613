package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/annexa/internal/catalog"
)

func TestLoadCatalogBuiltIn(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Len(), c.Len())
}

func TestLoadCatalogFormats(t *testing.T) {
	for _, path := range []string{"testdata/catalog.json", "testdata/catalog.yaml"} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c, err := LoadCatalog(path)
			require.NoError(t, err)
			require.Equal(t, 2, c.Len())

			controls := c.Controls()
			assert.Equal(t, "A.9.1", controls[0].ID)
			assert.Equal(t, 3.0, controls[0].RiskWeight)
			assert.Equal(t, []string{"access_log"}, controls[0].RequiredEvidence)
			assert.Equal(t, []string{"access control"}, controls[0].RequiredKeywords)

			// omitted weight falls back to the title heuristic
			assert.Equal(t, "A.12.3", controls[1].ID)
			assert.Equal(t, 1.0, controls[1].RiskWeight)
		})
	}
}

func TestLoadCatalogMalformed(t *testing.T) {
	tests := []struct {
		path      string
		wantField string
		wantText  string
	}{
		{"testdata/catalog_bad_weight.json", "/0/risk_weight", ""},
		{"testdata/catalog_missing_title.json", "/0", "title"},
		{"testdata/catalog_duplicate.json", "/id", "A.9.1"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			_, err := LoadCatalog(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var me *MalformedInputError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.path, me.File)
			assert.Equal(t, tt.wantField, me.Field)
			assert.Contains(t, me.Reason, tt.wantText)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoadCatalogInvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": `), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorIs(t, err, ErrMalformedInput)

	objPath := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(objPath, []byte(`{"items": []}`), 0o644))
	_, err = LoadCatalog(objPath)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = LoadCatalog(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedInput))
}

func TestLoadRequirements(t *testing.T) {
	base, err := LoadCatalog("testdata/catalog.json")
	require.NoError(t, err)

	c, err := LoadRequirements("testdata/requirements.json", base)
	require.NoError(t, err)
	a91, _ := c.Get("A.9.1")
	assert.Equal(t, []string{"access_log", "mfa_config"}, a91.RequiredEvidence)
	assert.Equal(t, []string{"access control"}, a91.RequiredKeywords)

	a123, _ := c.Get("A.12.3")
	assert.Equal(t, []string{"backup", "restore test"}, a123.RequiredKeywords)
	assert.Equal(t, 2.0, a123.RiskWeight)

	same, err := LoadRequirements("", base)
	require.NoError(t, err)
	assert.Same(t, base, same)

	_, err = LoadRequirements("testdata/requirements_unknown.json", base)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestLoadRequirementsPolicies(t *testing.T) {
	base, err := LoadCatalog("testdata/catalog.json")
	require.NoError(t, err)

	c, err := LoadRequirements("testdata/requirements_policies.json", base)
	require.NoError(t, err)
	a91, _ := c.Get("A.9.1")
	assert.Equal(t, []string{"access_log", "mfa_config"}, a91.RequiredEvidence)
	assert.Equal(t, []string{"access_control.txt", "acceptable_use"}, a91.RequiredPolicies)

	path := filepath.Join(t.TempDir(), "reqs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A.9.1": {"required_policies": ["", "x"]}}`), 0o644))
	_, err = LoadRequirements(path, base)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestLoadPolicies(t *testing.T) {
	policies, err := LoadPolicies("testdata/policies")
	require.NoError(t, err)
	require.Len(t, policies, 2)

	assert.Equal(t, "access_control.txt", policies[0].ID)
	assert.Equal(t, filepath.Join("testdata/policies", "access_control.txt"), policies[0].Path)
	assert.Equal(t, []string{"access control", "least privilege"}, policies[0].Topics)
	assert.NotContains(t, policies[0].Text, "Topics:")
	assert.Contains(t, policies[0].Text, "need-to-know")

	assert.Equal(t, "backup.md", policies[1].ID)
	assert.Empty(t, policies[1].Topics)
}

func TestLoadPoliciesEmpty(t *testing.T) {
	policies, err := LoadPolicies(t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyPolicySet)
	assert.NotNil(t, policies)
	assert.Empty(t, policies)

	policies, err = LoadPolicies(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrEmptyPolicySet)
	assert.Empty(t, policies)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTopics []string
		wantText   string
	}{
		{"no header", "Plain text.", nil, "Plain text."},
		{"header", "TOPICS: Backup ,  restore test\nBody", []string{"Backup", "restore test"}, "Body"},
		{"bom", "\ufeffTopics: crypto\nBody", []string{"crypto"}, "Body"},
		{"header only", "Topics: a", []string{"a"}, ""},
		{"mentions topics later", "Body\nTopics: a", nil, "Body\nTopics: a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePolicy("p.txt", "dir/p.txt", tt.text)
			assert.Equal(t, tt.wantTopics, p.Topics)
			assert.Equal(t, tt.wantText, p.Text)
			assert.Equal(t, "p.txt", p.ID)
		})
	}
}

func TestLoadEvidence(t *testing.T) {
	for _, path := range []string{"testdata/evidence_index.json", "testdata/evidence_keyed.json", "testdata/evidence.csv"} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			index, err := LoadEvidence(path)
			require.NoError(t, err)
			require.Len(t, index, 3)

			access := index["access_log"]
			assert.True(t, access.Present)
			require.NotNil(t, access.Timestamp)
			assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), *access.Timestamp)

			backup := index["backup_log"]
			assert.True(t, backup.Present, "present defaults to true")
			require.NotNil(t, backup.Timestamp)
			assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), *backup.Timestamp)

			mfa := index["mfa_config"]
			assert.False(t, mfa.Present)
			assert.Nil(t, mfa.Timestamp)
		})
	}

	index, err := LoadEvidence("testdata/evidence_index.json")
	require.NoError(t, err)
	assert.Equal(t, "evidence/backup.log", index["backup_log"].Source)

	keyed, err := LoadEvidence("testdata/evidence_keyed.json")
	require.NoError(t, err)
	assert.Equal(t, index, keyed)
}

func TestLoadEvidenceKeyedMalformed(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"value is not a record", `{"access_log": true}`, "/access_log"},
		{"type disagrees with key", `{"access_log": {"type": "backup_log"}}`, "/access_log/type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "evidence.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))
			_, err := LoadEvidence(path)
			var me *MalformedInputError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.field, me.Field)
		})
	}

	path := filepath.Join(t.TempDir(), "evidence.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	index, err := LoadEvidence(path)
	require.NoError(t, err)
	assert.Empty(t, index)
}

func TestLoadEvidenceMissing(t *testing.T) {
	index, err := LoadEvidence(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrMissingEvidenceIndex)
	assert.Nil(t, index)

	_, err = LoadEvidence("")
	assert.ErrorIs(t, err, ErrMissingEvidenceIndex)
}

func TestLoadEvidenceMalformed(t *testing.T) {
	for _, path := range []string{"testdata/evidence_no_type.json", "testdata/evidence_bad_time.json"} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadEvidence(path)
			require.Error(t, err)
			var me *MalformedInputError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, "/evidence/0", me.Field)
		})
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("type,present\naccess_log,maybe\n"), 0o644))
	_, err := LoadEvidence(bad)
	assert.ErrorIs(t, err, ErrMalformedInput)

	noType := filepath.Join(dir, "notype.csv")
	require.NoError(t, os.WriteFile(noType, []byte("id,present\n1,true\n"), 0o644))
	_, err = LoadEvidence(noType)
	assert.ErrorIs(t, err, ErrMalformedInput)
}
