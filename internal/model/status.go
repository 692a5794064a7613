package model

import "fmt"

// Status is the compliance verdict for a single control
type Status int

const (
	NotCompliant Status = iota
	PartiallyCompliant
	Compliant
)

func (s Status) String() string {
	switch s {
	case Compliant:
		return "Compliant"
	case PartiallyCompliant:
		return "Partially Compliant"
	case NotCompliant:
		return "Not Compliant"
	}
	return ""
}

// MarshalText encodes the status by its display name
func (s Status) MarshalText() ([]byte, error) {
	name := s.String()
	if name == "" {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a display name back into a Status
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Compliant":
		*s = Compliant
	case "Partially Compliant":
		*s = PartiallyCompliant
	case "Not Compliant":
		*s = NotCompliant
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}
