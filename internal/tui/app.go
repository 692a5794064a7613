package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/annexa/internal/model"
	"github.com/ethanolivertroy/annexa/internal/report"
)

// ViewState represents the current view
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewChartsMenu
	ViewStatusChart
	ViewCategoryChart
	ViewWeakestChart
	ViewExportMenu
)

// ChartOption represents a chart in the charts menu
type ChartOption struct {
	Name        string
	Description string
	View        ViewState
}

// SortMode represents the current sort order
type SortMode int

const (
	SortByCatalog SortMode = iota
	SortByScore
	SortByWeight
	SortByStatus
)

func (s SortMode) String() string {
	switch s {
	case SortByCatalog:
		return "Catalog"
	case SortByScore:
		return "Score"
	case SortByWeight:
		return "Risk Weight"
	case SortByStatus:
		return "Status"
	}
	return ""
}

// FilterMode represents special filters
type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterGaps
	FilterCategory
)

// Model is the results browser model
type Model struct {
	report        *model.Report
	list          list.Model
	items         []list.Item
	width         int
	height        int
	view          ViewState
	selected      *model.ControlItem
	keys          KeyMap
	help          help.Model
	showHelp      bool
	viewport      viewport.Model
	viewportReady bool
	sortMode      SortMode
	filterMode    FilterMode
	statusMsg     string
	exportDir     string
	// Category chart state
	categories            []CategoryStats
	selectedCategoryIndex int
	selectedCategory      string
	// Charts menu state
	chartOptions       []ChartOption
	selectedChartIndex int
	// Export menu state
	exportOptions       []report.ExportFormat
	selectedExportIndex int
}

// NewModel creates a browser over a finished report; exports are written to exportDir
func NewModel(r *model.Report, exportDir string) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		report:    r,
		keys:      DefaultKeyMap(),
		help:      h,
		sortMode:  SortByCatalog,
		exportDir: exportDir,
		chartOptions: []ChartOption{
			{Name: "Status Distribution", Description: "Controls per compliance status", View: ViewStatusChart},
			{Name: "Categories", Description: "Mean score per Annex A category", View: ViewCategoryChart},
			{Name: "Lowest Scores", Description: "Controls needing the most work", View: ViewWeakestChart},
		},
		exportOptions: report.AllFormats,
	}
	m.applySortAndFilter()

	m.list = list.New(m.items, NewControlDelegate(), 0, 0)
	m.list.Title = "ISO 27001 Annex A Assessment"
	m.list.SetShowStatusBar(true)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(false)
	m.list.Styles.Title = TitleStyle

	// Use exact substring matching
	m.list.Filter = func(term string, targets []string) []list.Rank {
		var ranks []list.Rank
		term = strings.ToLower(term)
		for i, target := range targets {
			if strings.Contains(strings.ToLower(target), term) {
				ranks = append(ranks, list.Rank{Index: i})
			}
		}
		return ranks
	}
	return m
}

// Run starts the browser in the alternate screen and blocks until it exits
func Run(r *model.Report, exportDir string) error {
	_, err := tea.NewProgram(NewModel(r, exportDir), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Clear status message on any key press
		m.statusMsg = ""

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		filtering := m.view == ViewList && m.list.FilterState() == list.Filtering
		if msg.String() == "?" && !filtering {
			m.showHelp = !m.showHelp
			return m, nil
		}

		switch m.view {
		case ViewList:
			if !filtering {
				if next, cmd, handled := m.updateList(msg); handled {
					return next, cmd
				}
			}

		case ViewDetail:
			switch msg.String() {
			case "q", "esc", "backspace":
				m.view = ViewList
				m.selected = nil
				return m, nil
			default:
				if m.viewportReady {
					var cmd tea.Cmd
					m.viewport, cmd = m.viewport.Update(msg)
					return m, cmd
				}
			}

		case ViewChartsMenu:
			switch msg.String() {
			case "q", "esc", "g", "backspace":
				m.view = ViewList
			case "j", "down":
				m.selectedChartIndex = (m.selectedChartIndex + 1) % len(m.chartOptions)
			case "k", "up":
				m.selectedChartIndex = (m.selectedChartIndex - 1 + len(m.chartOptions)) % len(m.chartOptions)
			case "enter":
				selected := m.chartOptions[m.selectedChartIndex]
				if selected.View == ViewCategoryChart {
					m.categories = GetCategoryStats(m.report.Controls)
					m.selectedCategoryIndex = 0
				}
				m.view = selected.View
			}
			return m, nil

		case ViewCategoryChart:
			switch msg.String() {
			case "q", "esc", "backspace":
				m.view = ViewChartsMenu
			case "g":
				if m.filterMode == FilterCategory {
					m.filterMode = FilterNone
					m.selectedCategory = ""
					m.refreshItems()
				}
				m.view = ViewChartsMenu
			case "j", "down":
				if len(m.categories) > 0 {
					m.selectedCategoryIndex = (m.selectedCategoryIndex + 1) % len(m.categories)
				}
			case "k", "up":
				if len(m.categories) > 0 {
					m.selectedCategoryIndex = (m.selectedCategoryIndex - 1 + len(m.categories)) % len(m.categories)
				}
			case "enter":
				if m.selectedCategoryIndex < len(m.categories) {
					c := m.categories[m.selectedCategoryIndex]
					m.selectedCategory = c.Name
					m.filterMode = FilterCategory
					m.refreshItems()
					m.statusMsg = fmt.Sprintf("Filtered: %s (%d controls)", c.Name, c.Controls)
					m.view = ViewList
				}
			}
			return m, nil

		case ViewStatusChart, ViewWeakestChart:
			switch msg.String() {
			case "q", "esc", "g", "backspace":
				m.view = ViewChartsMenu
			}
			return m, nil

		case ViewExportMenu:
			switch msg.String() {
			case "q", "esc", "e", "backspace":
				m.view = ViewList
			case "j", "down":
				m.selectedExportIndex = (m.selectedExportIndex + 1) % len(m.exportOptions)
			case "k", "up":
				m.selectedExportIndex = (m.selectedExportIndex - 1 + len(m.exportOptions)) % len(m.exportOptions)
			case "enter":
				result := report.Export(m.report, m.exportOptions[m.selectedExportIndex], m.exportDir)
				if result.Err != nil {
					m.statusMsg = fmt.Sprintf("Export failed: %v", result.Err)
				} else {
					m.statusMsg = fmt.Sprintf("Exported %d controls to %s", result.Count, result.FilePath)
				}
				m.view = ViewList
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		headerHeight := 4 // Title + stats
		footerHeight := 2 // Help
		m.list.SetSize(msg.Width, msg.Height-headerHeight-footerHeight)
		if m.viewportReady {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - 6
		}
		return m, nil
	}

	if m.view == ViewList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateList handles list view keys; handled is false when the list should see the key
func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, tea.Quit, true
	case "enter":
		if item, ok := m.list.SelectedItem().(model.ControlItem); ok {
			m.selected = &item
			m.view = ViewDetail
			m.viewport = viewport.New(max(m.width-4, 20), max(m.height-6, 5))
			m.viewport.SetContent(m.renderDetailContent())
			m.viewportReady = true
			return m, nil, true
		}
	case "s":
		m.sortMode = (m.sortMode + 1) % 4
		m.refreshItems()
		m.statusMsg = fmt.Sprintf("Sorted by: %s", m.sortMode.String())
		return m, nil, true
	case "x":
		if m.filterMode == FilterGaps {
			m.filterMode = FilterNone
			m.statusMsg = "Filter cleared"
		} else {
			m.filterMode = FilterGaps
			m.statusMsg = "Showing controls with gaps only"
		}
		m.refreshItems()
		return m, nil, true
	case "g":
		m.selectedChartIndex = 0
		m.view = ViewChartsMenu
		return m, nil, true
	case "e":
		m.selectedExportIndex = 0
		m.view = ViewExportMenu
		return m, nil, true
	case "t":
		name := CycleTheme()
		m.list.SetDelegate(NewControlDelegate())
		m.list.Styles.Title = TitleStyle
		m.statusMsg = fmt.Sprintf("Theme: %s", name)
		return m, nil, true
	case "home":
		m.list.Select(0)
		return m, nil, true
	case "end", "G":
		if len(m.list.Items()) > 0 {
			m.list.Select(len(m.list.Items()) - 1)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *Model) refreshItems() {
	m.applySortAndFilter()
	m.list.SetItems(m.items)
}

func (m *Model) applySortAndFilter() {
	var filtered []model.ControlAssessment
	for _, c := range m.report.Controls {
		switch m.filterMode {
		case FilterGaps:
			if c.Result.Gap == nil {
				continue
			}
		case FilterCategory:
			if m.selectedCategory != "" && c.Control.Category != m.selectedCategory {
				continue
			}
		}
		filtered = append(filtered, c)
	}

	// Stable sorts keep catalog order on ties
	switch m.sortMode {
	case SortByScore:
		slices.SortStableFunc(filtered, func(a, b model.ControlAssessment) int {
			return cmp.Compare(a.Result.RawScore, b.Result.RawScore)
		})
	case SortByWeight:
		slices.SortStableFunc(filtered, func(a, b model.ControlAssessment) int {
			return cmp.Compare(b.Result.RiskWeight, a.Result.RiskWeight)
		})
	case SortByStatus:
		slices.SortStableFunc(filtered, func(a, b model.ControlAssessment) int {
			return cmp.Compare(a.Result.Status, b.Result.Status)
		})
	}

	m.items = make([]list.Item, len(filtered))
	for i, c := range filtered {
		m.items[i] = model.ControlItem{ControlAssessment: c}
	}
}

// View renders the view
func (m Model) View() string {
	switch m.view {
	case ViewDetail:
		if m.selected != nil {
			return m.renderDetailView()
		}
	case ViewChartsMenu:
		return m.renderChartsMenu()
	case ViewExportMenu:
		return m.renderExportMenu()
	case ViewStatusChart:
		return RenderStatusChart(m.report.Controls, m.width, m.height)
	case ViewCategoryChart:
		return RenderCategoryChartWithSelection(m.report.Controls, m.width, m.height, m.selectedCategoryIndex)
	case ViewWeakestChart:
		return RenderWeakestChart(m.report.Controls, m.width, m.height)
	}
	return m.renderListView()
}

func (m Model) renderMenu(title string, names, descriptions []string, selected int, footer string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(chartTitle(title))
	b.WriteString("\n\n")

	selectedStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ForegroundColor).
		Background(PrimaryColor).
		Padding(0, 1)
	descStyle := lipgloss.NewStyle().Foreground(SubtleColor)
	for i, name := range names {
		if i == selected {
			b.WriteString(selectedStyle.Render("> " + name))
		} else {
			b.WriteString("  " + name)
		}
		b.WriteString("\n")
		if descriptions != nil {
			b.WriteString(descStyle.Render("    " + descriptions[i]))
			b.WriteString("\n\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(descStyle.Render(footer))
	return b.String()
}

func (m Model) renderChartsMenu() string {
	names := make([]string, len(m.chartOptions))
	descs := make([]string, len(m.chartOptions))
	for i, opt := range m.chartOptions {
		names[i] = opt.Name
		descs[i] = opt.Description
	}
	return m.renderMenu("Charts & Graphs", names, descs, m.selectedChartIndex, "j/k navigate • enter select • g/esc back")
}

func (m Model) renderExportMenu() string {
	names := make([]string, len(m.exportOptions))
	for i, f := range m.exportOptions {
		names[i] = fmt.Sprintf("%-10s %s", f.String(), f.Filename())
	}
	footer := fmt.Sprintf("Writing to %s • j/k navigate • enter export • e/esc back", m.exportDir)
	return m.renderMenu("Export Report", names, nil, m.selectedExportIndex, footer)
}

func (m Model) renderListView() string {
	var b strings.Builder

	agg := m.report.Aggregate
	stats := fmt.Sprintf("%s %d Controls | %s %d Compliant | %s %d Partial | %s %d Not Compliant | Weighted %s",
		StatHighlight.Render("■"),
		agg.Total,
		lipgloss.NewStyle().Foreground(CompliantColor).Render("■"),
		agg.Compliant,
		lipgloss.NewStyle().Foreground(PartialColor).Render("■"),
		agg.PartiallyCompliant,
		lipgloss.NewStyle().Foreground(NotCompliantColor).Render("■"),
		agg.NotCompliant,
		StatHighlight.Render(Percent(agg.WeightedPercentage)),
	)
	b.WriteString(StatsStyle.Render(stats))
	b.WriteString("\n")

	indicators := []string{fmt.Sprintf("Sort: %s", m.sortMode.String())}
	switch m.filterMode {
	case FilterGaps:
		indicators = append(indicators, lipgloss.NewStyle().Foreground(NotCompliantColor).Render("Filter: Gaps"))
	case FilterCategory:
		indicators = append(indicators, lipgloss.NewStyle().Foreground(PrimaryColor).Render(fmt.Sprintf("Filter: %s", m.selectedCategory)))
	}
	b.WriteString(SubtitleStyle.Render(strings.Join(indicators, " | ")))
	b.WriteString("\n")

	b.WriteString(m.list.View())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(m.statusMsg))
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.View(m.keys))
	} else {
		b.WriteString(SubtitleStyle.Render("/ filter • s sort • x gaps • g graphs • e export • t theme • ? help • q quit"))
	}

	return b.String()
}

func (m Model) renderDetailView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ControlBadge.Render(m.selected.Control.ID))
	b.WriteString("  ")
	b.WriteString(StatusBadge(m.selected.Result.Status))
	b.WriteString("\n\n")

	if m.viewportReady {
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n")
	footer := "↑/↓ scroll | q/esc back"
	if m.statusMsg != "" {
		footer = m.statusMsg + " | " + footer
	}
	b.WriteString(SubtitleStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderDetailContent() string {
	if m.selected == nil {
		return ""
	}
	c := m.selected.ControlAssessment
	res := c.Result
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ForegroundColor).Render(c.Control.Title))
	b.WriteString("\n\n")

	fields := []struct {
		label string
		value string
	}{
		{"Category", c.Control.Category},
		{"Status", res.Status.String()},
		{"Policy Score", fmt.Sprintf("%.2f", res.PolicyScore)},
		{"Evidence Score", fmt.Sprintf("%.2f", res.EvidenceScore)},
		{"Risk Weight", fmt.Sprintf("%.2f", res.RiskWeight)},
		{"Contribution", fmt.Sprintf("%.2f", res.WeightedContribution)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b.WriteString(LabelStyle.Render(f.label + ":"))
		b.WriteString(ValueStyle.Render(f.value))
		b.WriteString("\n")
	}
	b.WriteString(LabelStyle.Render("Raw Score:"))
	b.WriteString(ScoreBar(res.RawScore, res.Status, 20))
	b.WriteString(ValueStyle.Render(fmt.Sprintf(" %.0f%%", res.RawScore*100)))
	b.WriteString("\n")

	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render(title))
		b.WriteString("\n")
	}

	section("Control Objective")
	b.WriteString(DescriptionStyle.Render(c.Control.Description))
	b.WriteString("\n")

	section("Policy Mappings")
	if len(c.Mappings) == 0 {
		b.WriteString(SubtitleStyle.Render("No policies evaluated"))
		b.WriteString("\n")
	}
	for i, mp := range c.Mappings {
		if i == 5 {
			b.WriteString(SubtitleStyle.Render(fmt.Sprintf("... %d more", len(c.Mappings)-5)))
			b.WriteString("\n")
			break
		}
		match := SubtitleStyle.Render("below threshold")
		if mp.IsMatch {
			match = lipgloss.NewStyle().Foreground(CompliantColor).Render("match")
		}
		b.WriteString(fmt.Sprintf("  %-28s %.2f  %s\n", truncateString(mp.PolicyID, 28), mp.Score, match))
		if len(mp.MissingKeywords) > 0 {
			b.WriteString(SubtitleStyle.Render("    missing keywords: " + strings.Join(mp.MissingKeywords, ", ")))
			b.WriteString("\n")
		}
	}

	section("Evidence")
	evidence := []struct {
		label string
		items []string
	}{
		{"Satisfied", c.Verification.Satisfied},
		{"Missing", c.Verification.Missing},
		{"Stale", c.Verification.Stale},
	}
	if len(c.Control.RequiredPolicies) > 0 {
		evidence = append(evidence, struct {
			label string
			items []string
		}{"Missing policies", c.Verification.MissingPolicies})
	}
	for _, e := range evidence {
		value := "none"
		if len(e.items) > 0 {
			value = strings.Join(e.items, ", ")
		}
		b.WriteString(LabelStyle.Render(e.label + ":"))
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}

	if res.Gap != nil {
		section("Remediation")
		for _, step := range res.Gap.Remediation {
			b.WriteString(DescriptionStyle.Render("• " + step))
			b.WriteString("\n")
		}
	}

	if len(res.Notes) > 0 {
		section("Notes")
		for _, n := range res.Notes {
			b.WriteString(DescriptionStyle.Render("• " + n))
			b.WriteString("\n")
		}
	}

	return b.String()
}
