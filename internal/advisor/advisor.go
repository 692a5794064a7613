// Package advisor asks a local Ollama model for a remediation plan covering a report's gaps
package advisor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/ethanolivertroy/annexa/internal/config"
	"github.com/ethanolivertroy/annexa/internal/logging"
	"github.com/ethanolivertroy/annexa/internal/model"
)

// Seed is sent with every request so repeated runs over the same report agree
const Seed = 27001

// NoGapsMessage is returned without contacting the model when every control is compliant
const NoGapsMessage = "All assessed controls are compliant; no remediation plan is needed."

const systemPrompt = `You are an ISO/IEC 27001 lead implementer.
You are given the gaps found by an automated Annex A assessment.
Write a prioritized remediation plan in Markdown.
Group related controls, put the highest risk weight first, and only use the facts provided.
Do not restate the scores.`

// Config holds advisor configuration
type Config struct {
	Model     string // model name (e.g., "llama3.2")
	OllamaURL string // default: http://localhost:11434
}

// ConfigFromEnv creates a Config from ANNEXA_ADVISOR_* environment variables
func ConfigFromEnv() Config {
	cfg := Config{
		Model:     os.Getenv("ANNEXA_ADVISOR_MODEL"),
		OllamaURL: os.Getenv("ANNEXA_ADVISOR_URL"),
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultAdvisorModel
	}
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = config.DefaultAdvisorURL
	}
	return cfg
}

// FromConfig converts the advisor section of the run configuration
func FromConfig(c config.AdvisorConfig) Config {
	return Config{Model: c.Model, OllamaURL: c.URL}
}

// Validate checks if the config can reach a model
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("advisor model is required")
	}
	if c.OllamaURL == "" {
		return fmt.Errorf("advisor url is required")
	}
	u, err := url.Parse(c.OllamaURL)
	if err != nil {
		return fmt.Errorf("invalid advisor url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid advisor url %q: scheme must be http or https", c.OllamaURL)
	}
	return nil
}

// Advisor talks to an Ollama server
type Advisor struct {
	client    *api.Client
	modelName string
	logger    *zap.Logger
}

// New creates an advisor; a nil logger disables logging
func New(cfg Config, logger *zap.Logger) (*Advisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.OllamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid advisor url: %w", err)
	}
	return &Advisor{
		client:    api.NewClient(u, http.DefaultClient),
		modelName: cfg.Model,
		logger:    logging.OrNop(logger),
	}, nil
}

// Name returns the model name
func (a *Advisor) Name() string {
	return a.modelName
}

// Advise returns a Markdown remediation plan for the report's gaps
func (a *Advisor) Advise(ctx context.Context, r *model.Report) (string, error) {
	gaps := r.Gaps()
	if len(gaps) == 0 {
		return NoGapsMessage, nil
	}

	stream := false
	req := &api.ChatRequest{
		Model: a.modelName,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(r)},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0,
			"seed":        Seed,
		},
	}

	a.logger.Info("requesting remediation plan",
		zap.String("model", a.modelName),
		zap.Int("gaps", len(gaps)),
	)

	var out strings.Builder
	err := a.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	plan := strings.TrimSpace(out.String())
	if plan == "" {
		return "", fmt.Errorf("ollama chat: model %s returned an empty response", a.modelName)
	}
	return plan, nil
}

// Prompt lists the report's gaps for the model in catalog order
func Prompt(r *model.Report) string {
	var b strings.Builder
	agg := r.Aggregate
	fmt.Fprintf(&b, "Assessment %s: %d controls, %d compliant, %d partially compliant, %d not compliant.\n\n",
		r.RunID, agg.Total, agg.Compliant, agg.PartiallyCompliant, agg.NotCompliant)

	b.WriteString("Gaps:\n")
	for _, c := range r.Controls {
		g := c.Result.Gap
		if g == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s %s (%s, risk weight %.1f)\n", g.ControlID, c.Control.Title, c.Result.Status, c.Result.RiskWeight)
		if len(g.MissingEvidence) > 0 {
			fmt.Fprintf(&b, "  missing evidence: %s\n", strings.Join(g.MissingEvidence, ", "))
		}
		if len(g.StaleEvidence) > 0 {
			fmt.Fprintf(&b, "  outdated evidence: %s\n", strings.Join(g.StaleEvidence, ", "))
		}
		if len(g.MissingPolicies) > 0 {
			fmt.Fprintf(&b, "  missing policies: %s\n", strings.Join(g.MissingPolicies, ", "))
		}
		if len(g.MissingKeywords) > 0 {
			fmt.Fprintf(&b, "  policy does not cover: %s\n", strings.Join(g.MissingKeywords, ", "))
		}
		for _, step := range g.Remediation {
			fmt.Fprintf(&b, "  suggested: %s\n", step)
		}
	}
	return b.String()
}
