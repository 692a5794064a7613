// Package model defines the entities shared by the assessment pipeline
package model

import "time"

// Control represents an ISO 27001 Annex A control and its declared requirements
type Control struct {
	ID               string   `json:"id" yaml:"id"`                               // e.g., "A.9.1"
	Title            string   `json:"title" yaml:"title"`                         // e.g., "Business requirements of access control"
	Description      string   `json:"description" yaml:"description"`             // Control objective text
	Category         string   `json:"category" yaml:"category"`                   // e.g., "Access control"
	RiskWeight       float64  `json:"risk_weight" yaml:"risk_weight"`             // > 0
	RequiredEvidence []string `json:"required_evidence" yaml:"required_evidence"` // Evidence type names
	RequiredKeywords []string `json:"required_keywords" yaml:"required_keywords"` // Policy topic keywords
	RequiredPolicies []string `json:"required_policies,omitempty" yaml:"required_policies,omitempty"` // Policy documents, e.g. "access_control.txt"
}

// Policy represents a policy document loaded from disk
type Policy struct {
	ID     string   `json:"id"`               // File name, e.g. "access_control.txt"
	Path   string   `json:"path,omitempty"`   // Source location
	Text   string   `json:"text"`             // Full body
	Topics []string `json:"topics,omitempty"` // Declared topics
}

// EvidenceRecord is a single piece of collected evidence
type EvidenceRecord struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type"`
	Present   bool       `json:"present"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// EvidenceIndex maps an evidence type name to its record
type EvidenceIndex map[string]EvidenceRecord
