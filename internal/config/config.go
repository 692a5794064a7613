// Package config loads assessment settings from YAML, the environment and defaults
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrThresholdMisconfiguration is returned when a threshold or weight lies outside [0,1]
var ErrThresholdMisconfiguration = errors.New("threshold misconfiguration")

// Default values
const (
	DefaultMatchThreshold     = 0.35
	DefaultPolicyWeight       = 0.5
	DefaultEvidenceWeight     = 0.5
	DefaultCompliantThreshold = 0.8
	DefaultPartialThreshold   = 0.4
	DefaultOutputDir          = "out"
	DefaultPoliciesDir        = "policies"
	DefaultEvidencePath       = "evidence_index.json"
	DefaultAdvisorModel       = "llama3.2"
	DefaultAdvisorURL         = "http://localhost:11434"
)

// Config holds every tunable of an assessment run
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Matching MatchingConfig `yaml:"matching"`
	Evidence EvidenceConfig `yaml:"evidence"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Workers  int            `yaml:"workers"`
	Log      LogConfig      `yaml:"log"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
}

// PathsConfig locates the inputs and the output directory
type PathsConfig struct {
	Catalog      string `yaml:"catalog"`      // empty = built-in Annex A catalog
	Requirements string `yaml:"requirements"` // optional overlay of required evidence/keywords
	Policies     string `yaml:"policies"`
	Evidence     string `yaml:"evidence"`
	Output       string `yaml:"output"`
}

// MatchingConfig tunes the control-policy matcher
type MatchingConfig struct {
	Threshold       float64 `yaml:"threshold"`
	IncludeKeywords bool    `yaml:"include_keywords"`
}

// EvidenceConfig tunes the evidence verifier
type EvidenceConfig struct {
	MaxAge time.Duration `yaml:"max_age"` // 0 disables the freshness check
	AsOf   string        `yaml:"as_of"`   // assessment date (RFC3339 or 2006-01-02); empty = now
}

// ScoringConfig tunes the compliance scorer
type ScoringConfig struct {
	PolicyWeight       float64 `yaml:"policy_weight"`
	EvidenceWeight     float64 `yaml:"evidence_weight"`
	CompliantThreshold float64 `yaml:"compliant_threshold"`
	PartialThreshold   float64 `yaml:"partial_threshold"`
}

// LogConfig selects log level and encoding
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// AdvisorConfig points at the local model used by the advise command
type AdvisorConfig struct {
	Model string `yaml:"model"`
	URL   string `yaml:"url"`
}

// Default returns the documented defaults
func Default() Config {
	return Config{
		Paths: PathsConfig{
			Policies: DefaultPoliciesDir,
			Evidence: DefaultEvidencePath,
			Output:   DefaultOutputDir,
		},
		Matching: MatchingConfig{Threshold: DefaultMatchThreshold},
		Scoring: ScoringConfig{
			PolicyWeight:       DefaultPolicyWeight,
			EvidenceWeight:     DefaultEvidenceWeight,
			CompliantThreshold: DefaultCompliantThreshold,
			PartialThreshold:   DefaultPartialThreshold,
		},
		Workers: 1,
		Log:     LogConfig{Level: "info", Format: "console"},
		Advisor: AdvisorConfig{Model: DefaultAdvisorModel, URL: DefaultAdvisorURL},
	}
}

// Load reads a YAML file over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ANNEXA_* environment variables
func (c *Config) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
		return nil
	}

	setString("ANNEXA_CATALOG", &c.Paths.Catalog)
	setString("ANNEXA_REQUIREMENTS", &c.Paths.Requirements)
	setString("ANNEXA_POLICIES", &c.Paths.Policies)
	setString("ANNEXA_EVIDENCE", &c.Paths.Evidence)
	setString("ANNEXA_OUTPUT", &c.Paths.Output)
	setString("ANNEXA_AS_OF", &c.Evidence.AsOf)
	setString("ANNEXA_LOG_LEVEL", &c.Log.Level)
	setString("ANNEXA_LOG_FORMAT", &c.Log.Format)
	setString("ANNEXA_ADVISOR_MODEL", &c.Advisor.Model)
	setString("ANNEXA_ADVISOR_URL", &c.Advisor.URL)

	floats := []struct {
		key string
		dst *float64
	}{
		{"ANNEXA_THRESHOLD", &c.Matching.Threshold},
		{"ANNEXA_POLICY_WEIGHT", &c.Scoring.PolicyWeight},
		{"ANNEXA_EVIDENCE_WEIGHT", &c.Scoring.EvidenceWeight},
		{"ANNEXA_COMPLIANT_THRESHOLD", &c.Scoring.CompliantThreshold},
		{"ANNEXA_PARTIAL_THRESHOLD", &c.Scoring.PartialThreshold},
	}
	for _, f := range floats {
		if err := setFloat(f.key, f.dst); err != nil {
			return err
		}
	}
	if v := os.Getenv("ANNEXA_EVIDENCE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ANNEXA_EVIDENCE_MAX_AGE: %w", err)
		}
		c.Evidence.MaxAge = d
	}
	if v := os.Getenv("ANNEXA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ANNEXA_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate rejects configurations that would make scoring meaningless
func (c Config) Validate() error {
	if err := CheckUnit("matching.threshold", c.Matching.Threshold); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.Evidence.MaxAge < 0 {
		return fmt.Errorf("evidence.max_age must not be negative")
	}
	if _, err := c.AssessmentTime(time.Now); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Validate checks the scoring weights and status thresholds
func (s ScoringConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"scoring.policy_weight", s.PolicyWeight},
		{"scoring.evidence_weight", s.EvidenceWeight},
		{"scoring.compliant_threshold", s.CompliantThreshold},
		{"scoring.partial_threshold", s.PartialThreshold},
	} {
		if err := CheckUnit(f.name, f.v); err != nil {
			return err
		}
	}
	if s.PolicyWeight+s.EvidenceWeight == 0 {
		return fmt.Errorf("%w: scoring weights are both zero", ErrThresholdMisconfiguration)
	}
	if s.PartialThreshold > s.CompliantThreshold {
		return fmt.Errorf("%w: partial_threshold %.2f exceeds compliant_threshold %.2f",
			ErrThresholdMisconfiguration, s.PartialThreshold, s.CompliantThreshold)
	}
	return nil
}

// CheckUnit returns ErrThresholdMisconfiguration unless v is within [0,1]
func CheckUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s = %v is outside [0,1]", ErrThresholdMisconfiguration, name, v)
	}
	return nil
}

// AssessmentTime resolves evidence.as_of, falling back to now
func (c Config) AssessmentTime(now func() time.Time) (time.Time, error) {
	if c.Evidence.AsOf == "" {
		return now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.Evidence.AsOf); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("evidence.as_of %q is not RFC3339 or YYYY-MM-DD", c.Evidence.AsOf)
}
