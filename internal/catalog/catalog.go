// Package catalog provides the ISO 27001 Annex A control catalog
package catalog

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Catalog is an ordered, immutable list of controls
type Catalog struct {
	controls []model.Control
	index    map[string]int
}

// New builds a catalog from controls in the given order. Controls without a
// risk weight receive DefaultWeight(title). Duplicate IDs are rejected.
func New(controls []model.Control) (*Catalog, error) {
	c := &Catalog{
		controls: make([]model.Control, len(controls)),
		index:    make(map[string]int, len(controls)),
	}
	for i, ctrl := range controls {
		if _, dup := c.index[ctrl.ID]; dup {
			return nil, fmt.Errorf("duplicate control id %q", ctrl.ID)
		}
		if ctrl.RiskWeight == 0 {
			ctrl.RiskWeight = DefaultWeight(ctrl.Title)
		}
		c.controls[i] = clone(ctrl)
		c.index[ctrl.ID] = i
	}
	return c, nil
}

// Default returns the built-in Annex A catalog
func Default() *Catalog {
	c, err := New(AnnexA)
	if err != nil {
		panic(err)
	}
	return c
}

// Controls returns a copy of the controls in catalog order
func (c *Catalog) Controls() []model.Control {
	out := make([]model.Control, len(c.controls))
	for i, ctrl := range c.controls {
		out[i] = clone(ctrl)
	}
	return out
}

// Len returns the number of controls
func (c *Catalog) Len() int {
	return len(c.controls)
}

// Get returns a specific control by ID
func (c *Catalog) Get(id string) (model.Control, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Control{}, false
	}
	return clone(c.controls[i]), true
}

func clone(ctrl model.Control) model.Control {
	ctrl.RequiredEvidence = append([]string(nil), ctrl.RequiredEvidence...)
	ctrl.RequiredKeywords = append([]string(nil), ctrl.RequiredKeywords...)
	if ctrl.RequiredPolicies != nil {
		ctrl.RequiredPolicies = append([]string(nil), ctrl.RequiredPolicies...)
	}
	return ctrl
}

// ListByCategory returns controls whose category contains the given text, case-insensitively
func (c *Catalog) ListByCategory(category string) []model.Control {
	var out []model.Control
	for _, ctrl := range c.controls {
		if category == "" || strings.Contains(strings.ToLower(ctrl.Category), strings.ToLower(category)) {
			out = append(out, clone(ctrl))
		}
	}
	return out
}

// Requirement overrides the evidence, keywords and policies a control demands
type Requirement struct {
	RequiredEvidence []string `json:"required_evidence" yaml:"required_evidence"`
	RequiredKeywords []string `json:"required_keywords" yaml:"required_keywords"`
	RequiredPolicies []string `json:"required_policies" yaml:"required_policies"`
	RiskWeight       float64  `json:"risk_weight,omitempty" yaml:"risk_weight,omitempty"`
}

// WithRequirements returns a new catalog with the overlay applied. Fields left
// nil in a Requirement keep the catalog's values.
func (c *Catalog) WithRequirements(reqs map[string]Requirement) (*Catalog, error) {
	controls := c.Controls()
	for id, req := range reqs {
		i, ok := c.index[id]
		if !ok {
			return nil, fmt.Errorf("requirement for unknown control %q", id)
		}
		if req.RequiredEvidence != nil {
			controls[i].RequiredEvidence = req.RequiredEvidence
		}
		if req.RequiredKeywords != nil {
			controls[i].RequiredKeywords = req.RequiredKeywords
		}
		if req.RequiredPolicies != nil {
			controls[i].RequiredPolicies = req.RequiredPolicies
		}
		if req.RiskWeight != 0 {
			controls[i].RiskWeight = req.RiskWeight
		}
	}
	return New(controls)
}

// DefaultWeight assigns a risk weight from the control title: access and
// cryptography controls weigh 2.0, asset and physical controls 1.5, the rest 1.0.
func DefaultWeight(title string) float64 {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "access"), strings.Contains(t, "cryptograph"):
		return 2.0
	case strings.Contains(t, "asset"), strings.Contains(t, "physical"):
		return 1.5
	}
	return 1.0
}
