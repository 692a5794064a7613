package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// ControlDelegate renders assessed controls in the results list
type ControlDelegate struct {
	ShowDescription bool
	Styles          ControlDelegateStyles
}

// ControlDelegateStyles contains the styles for the delegate
type ControlDelegateStyles struct {
	NormalTitle   lipgloss.Style
	NormalDesc    lipgloss.Style
	SelectedTitle lipgloss.Style
	SelectedDesc  lipgloss.Style
	DimmedTitle   lipgloss.Style
	DimmedDesc    lipgloss.Style
	IDStyle       lipgloss.Style
}

// NewControlDelegate creates a new delegate with default styles
func NewControlDelegate() ControlDelegate {
	return ControlDelegate{
		ShowDescription: true,
		Styles: ControlDelegateStyles{
			NormalTitle:   lipgloss.NewStyle().Foreground(ForegroundColor),
			NormalDesc:    lipgloss.NewStyle().Foreground(SubtleColor),
			SelectedTitle: lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true),
			SelectedDesc:  lipgloss.NewStyle().Foreground(ForegroundColor),
			DimmedTitle:   lipgloss.NewStyle().Foreground(SubtleColor),
			DimmedDesc:    lipgloss.NewStyle().Foreground(SubtleColor),
			IDStyle:       lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true),
		},
	}
}

// Height returns the height of each item
func (d ControlDelegate) Height() int {
	if d.ShowDescription {
		return 2
	}
	return 1
}

// Spacing returns the spacing between items
func (d ControlDelegate) Spacing() int {
	return 1
}

// Update handles item updates
func (d ControlDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a single item
func (d ControlDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ctrl, ok := item.(model.ControlItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	isFiltering := m.FilterState() == list.Filtering

	var titleStyle, descStyle, idStyle lipgloss.Style
	switch {
	case isFiltering:
		titleStyle = d.Styles.DimmedTitle
		descStyle = d.Styles.DimmedDesc
		idStyle = d.Styles.DimmedTitle
	case isSelected:
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
		idStyle = d.Styles.IDStyle
	default:
		titleStyle = d.Styles.NormalTitle
		descStyle = d.Styles.NormalDesc
		idStyle = d.Styles.IDStyle
	}

	res := ctrl.Result
	line := idStyle.Render(fmt.Sprintf("[%s]", ctrl.Control.ID)) +
		titleStyle.Render(" "+ctrl.Title()) +
		" " + StatusBadge(res.Status)
	if res.Gap != nil {
		line += lipgloss.NewStyle().Foreground(NotCompliantColor).Bold(true).Render(" [gap]")
	}

	if isSelected {
		line = SelectedItemStyle.Render(line)
	} else {
		line = NormalItemStyle.Render(line)
	}
	fmt.Fprint(w, line)

	if d.ShowDescription {
		descText := fmt.Sprintf("%s %s", ctrl.Description(), ScoreBar(res.RawScore, res.Status, 10))
		desc := descStyle.Render(descText)
		if isSelected {
			desc = SelectedItemStyle.Render(desc)
		} else {
			desc = NormalItemStyle.Render(desc)
		}
		fmt.Fprint(w, "\n"+desc)
	}
}
