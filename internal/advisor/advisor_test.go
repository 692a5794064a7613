package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ethanolivertroy/annexa/internal/model"
)

func gapReport() *model.Report {
	return &model.Report{
		RunID: "run-7",
		Controls: []model.ControlAssessment{
			{
				Control: model.Control{ID: "A.9.1", Title: "Business requirements of access control"},
				Result:  model.ComplianceResult{ControlID: "A.9.1", Status: model.Compliant, RiskWeight: 2},
			},
			{
				Control: model.Control{ID: "A.12.3", Title: "Backup"},
				Result: model.ComplianceResult{
					ControlID:  "A.12.3",
					Status:     model.NotCompliant,
					RiskWeight: 1,
					Gap: &model.Gap{
						ControlID:       "A.12.3",
						MissingEvidence: []string{"backup_log"},
						StaleEvidence:   []string{"restore_test"},
						MissingKeywords: []string{"restore"},
						Remediation:     []string{"Provide evidence: backup_log"},
					},
				},
			},
		},
		Aggregate: model.AggregateResult{Total: 2, Compliant: 1, NotCompliant: 1},
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ANNEXA_ADVISOR_MODEL", "")
	t.Setenv("ANNEXA_ADVISOR_URL", "")
	cfg := ConfigFromEnv()
	assert.Equal(t, "llama3.2", cfg.Model)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)

	t.Setenv("ANNEXA_ADVISOR_MODEL", "qwen2.5")
	t.Setenv("ANNEXA_ADVISOR_URL", "http://127.0.0.1:9999")
	cfg = ConfigFromEnv()
	assert.Equal(t, "qwen2.5", cfg.Model)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.OllamaURL)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Model: "llama3.2", OllamaURL: "http://localhost:11434"}, false},
		{"missing model", Config{OllamaURL: "http://localhost:11434"}, true},
		{"missing url", Config{Model: "llama3.2"}, true},
		{"bad scheme", Config{Model: "llama3.2", OllamaURL: "ftp://localhost"}, true},
		{"unparseable", Config{Model: "llama3.2", OllamaURL: "http://[::1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(gapReport())
	assert.Contains(t, p, "Assessment run-7: 2 controls, 1 compliant")
	assert.Contains(t, p, "- A.12.3 Backup (Not Compliant, risk weight 1.0)")
	assert.Contains(t, p, "missing evidence: backup_log")
	assert.Contains(t, p, "outdated evidence: restore_test")
	assert.Contains(t, p, "policy does not cover: restore")
	assert.Contains(t, p, "suggested: Provide evidence: backup_log")
	assert.NotContains(t, p, "A.9.1", "compliant controls are not gaps")
}

func TestAdvise(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   got.Model,
			Message: api.Message{Role: "assistant", Content: "## Plan\n\n1. Collect backup logs.\n"},
			Done:    true,
		})
	}))
	defer srv.Close()

	a, err := New(Config{Model: "llama3.2", OllamaURL: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", a.Name())

	plan, err := a.Advise(context.Background(), gapReport())
	require.NoError(t, err)
	assert.Equal(t, "## Plan\n\n1. Collect backup logs.", plan)

	assert.Equal(t, "llama3.2", got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.EqualValues(t, 0, got.Options["temperature"])
	assert.EqualValues(t, Seed, got.Options["seed"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.True(t, strings.Contains(got.Messages[1].Content, "A.12.3"))
}

func TestAdviseNoGapsSkipsModel(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := New(Config{Model: "llama3.2", OllamaURL: srv.URL}, nil)
	require.NoError(t, err)

	r := gapReport()
	r.Controls = r.Controls[:1]
	plan, err := a.Advise(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, NoGapsMessage, plan)
	assert.False(t, called)
}

func TestAdviseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3.2\" not found"}`))
	}))
	defer srv.Close()

	a, err := New(Config{Model: "llama3.2", OllamaURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = a.Advise(context.Background(), gapReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama chat")
}

func TestAdviseEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"  "},"done":true}`))
	}))
	defer srv.Close()

	a, err := New(Config{Model: "llama3.2", OllamaURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = a.Advise(context.Background(), gapReport())
	assert.ErrorContains(t, err, "empty response")
}
