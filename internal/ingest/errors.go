// Package ingest reads catalogs, policies and evidence from disk
package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks an input file that fails validation. The run must abort.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmptyPolicySet means no policy documents were found
	ErrEmptyPolicySet = errors.New("no policy documents found")
	// ErrMissingEvidenceIndex means the evidence index file does not exist
	ErrMissingEvidenceIndex = errors.New("evidence index not found")
)

// MalformedInputError names the offending file and field
type MalformedInputError struct {
	File   string
	Field  string // JSON pointer or column name, empty when the whole file is bad
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedInput) hold for every MalformedInputError
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func malformed(file, field, format string, args ...any) error {
	return &MalformedInputError{File: file, Field: field, Reason: fmt.Sprintf(format, args...)}
}
