package model

import (
	"fmt"
	"strings"
)

// ControlItem wraps ControlAssessment to implement list.Item interface
type ControlItem struct {
	ControlAssessment
}

// Title returns the display title for the list
func (c ControlItem) Title() string {
	return c.Control.Title
}

// Description returns the secondary text for the list
func (c ControlItem) Description() string {
	return fmt.Sprintf("%s | %s | Score: %.0f%%", c.Control.Category, c.Result.Status, c.Result.RawScore*100)
}

// FilterValue returns the string used for filtering
func (c ControlItem) FilterValue() string {
	return strings.Join([]string{
		c.Control.ID,
		c.Control.Title,
		c.Control.Category,
		c.Result.Status.String(),
	}, " ")
}
