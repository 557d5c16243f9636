// Package tui implements the full-screen anomaly review workflow on
// bubbletea. It presents every flagged row of a pending import and collects
// a keep/skip/edit decision for each before the corrections are applied.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mhagberg/voltflow/internal/model"
)

type decision int

const (
	decisionPending decision = iota
	decisionKeep
	decisionSkip
	decisionEdit
)

func (d decision) label() string {
	switch d {
	case decisionKeep:
		return "keep"
	case decisionSkip:
		return "skip"
	case decisionEdit:
		return "edit"
	default:
		return "?"
	}
}

// rowReview is the review state of one flagged row.
type rowReview struct {
	patch     *model.TripPatch
	record    model.TripRecord
	anomalies []model.Anomaly
	index     int
	decision  decision
}

type mode int

const (
	modeList mode = iota
	modeEdit
)

// Model is the bubbletea model of the review screen.
type Model struct {
	input        textinput.Model
	parseError   string
	rows         []rowReview
	editFields   []model.Field
	keys         KeyMap
	pendingPatch *model.TripPatch
	cursor       int
	editField    int
	width        int
	mode         mode
	done         bool
	cancelled    bool
}

// NewModel builds the review model for a pending dataset and its anomalies.
func NewModel(pending []model.TripRecord, anomalies []model.Anomaly) Model {
	byRow := make(map[int][]model.Anomaly)
	var order []int
	for _, anomaly := range anomalies {
		if _, seen := byRow[anomaly.TripIndex]; !seen {
			order = append(order, anomaly.TripIndex)
		}
		byRow[anomaly.TripIndex] = append(byRow[anomaly.TripIndex], anomaly)
	}

	rows := make([]rowReview, 0, len(order))
	for _, index := range order {
		rows = append(rows, rowReview{
			index:     index,
			record:    pending[index],
			anomalies: byRow[index],
		})
	}

	input := textinput.New()
	input.CharLimit = 32
	input.Width = 24

	return Model{
		rows:  rows,
		keys:  DefaultKeyMap(),
		input: input,
		width: 80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeEdit {
			return m.updateEdit(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Keep):
		m.rows[m.cursor].decision = decisionKeep
		m.rows[m.cursor].patch = nil
		m.advance()
	case key.Matches(msg, m.keys.Skip):
		m.rows[m.cursor].decision = decisionSkip
		m.rows[m.cursor].patch = nil
		m.advance()
	case key.Matches(msg, m.keys.SkipAll):
		for i := range m.rows {
			if m.rows[i].decision == decisionPending {
				m.rows[i].decision = decisionSkip
			}
		}
	case key.Matches(msg, m.keys.Edit):
		return m.beginEdit(), nil
	case key.Matches(msg, m.keys.Apply):
		if m.undecided() == 0 {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) beginEdit() Model {
	row := m.rows[m.cursor]

	fields := make([]model.Field, 0, len(row.anomalies))
	seen := make(map[model.Field]bool)
	for _, anomaly := range row.anomalies {
		if anomaly.Field == "" || seen[anomaly.Field] {
			continue
		}
		seen[anomaly.Field] = true
		fields = append(fields, anomaly.Field)
	}

	m.mode = modeEdit
	m.editFields = fields
	m.editField = 0
	m.pendingPatch = &model.TripPatch{}
	m.parseError = ""
	m.input.SetValue("")
	m.input.Focus()
	return m
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = modeList
		m.pendingPatch = nil
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value != "" {
			if err := m.pendingPatch.SetField(m.editFields[m.editField], value); err != nil {
				m.parseError = err.Error()
				return m, nil
			}
		}
		m.parseError = ""
		m.editField++
		m.input.SetValue("")
		if m.editField < len(m.editFields) {
			return m, nil
		}

		// All flagged fields visited; an all-blank pass keeps the row.
		if m.pendingPatch.IsEmpty() {
			m.rows[m.cursor].decision = decisionKeep
			m.rows[m.cursor].patch = nil
		} else {
			m.rows[m.cursor].decision = decisionEdit
			m.rows[m.cursor].patch = m.pendingPatch
		}
		m.pendingPatch = nil
		m.mode = modeList
		m.input.Blur()
		m.advance()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// advance moves the cursor to the next undecided row, if any.
func (m *Model) advance() {
	for i := 1; i <= len(m.rows); i++ {
		next := (m.cursor + i) % len(m.rows)
		if m.rows[next].decision == decisionPending {
			m.cursor = next
			return
		}
	}
}

func (m Model) undecided() int {
	count := 0
	for _, row := range m.rows {
		if row.decision == decisionPending {
			count++
		}
	}
	return count
}

// Cancelled reports whether the user abandoned the review.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Done reports whether every row was decided and the decisions applied.
func (m Model) Done() bool {
	return m.done
}

// Directives converts the collected decisions into correction directives.
func (m Model) Directives() []model.CorrectionDirective {
	var directives []model.CorrectionDirective
	for _, row := range m.rows {
		switch row.decision {
		case decisionSkip:
			directives = append(directives, model.CorrectionDirective{
				TripIndex: row.index,
				Action:    model.ActionSkip,
			})
		case decisionEdit:
			directives = append(directives, model.CorrectionDirective{
				TripIndex: row.index,
				Action:    model.ActionCorrect,
				Patch:     row.patch,
			})
		}
	}
	return directives
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.rows) == 0 {
		return "No anomalies to review.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("⚡ Journey import review — %d flagged rows", len(m.rows))))
	b.WriteString("\n\n")

	for i, row := range m.rows {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}

		status := pendingStyle.Render("[ ]")
		switch row.decision {
		case decisionKeep:
			status = keepStyle.Render("[keep]")
		case decisionSkip:
			status = skipStyle.Render("[skip]")
		case decisionEdit:
			status = editStyle.Render("[edit]")
		}

		b.WriteString(fmt.Sprintf("%s%s row %-4d %s\n",
			marker, status, row.index, summarize(row)))
	}

	b.WriteString("\n")
	b.WriteString(m.detailView())

	if m.mode == modeEdit {
		b.WriteString("\n")
		b.WriteString(m.editView())
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.helpLine()))
	}

	return b.String()
}

func (m Model) detailView() string {
	row := m.rows[m.cursor]
	rec := row.record

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Start %s   End %s\n",
		timeOrMissing(rec, model.FieldStartTime), timeOrMissing(rec, model.FieldEndTime)))
	b.WriteString(fmt.Sprintf("Odometer %.1f → %.1f km   Distance %.1f km   Energy %.1f kWh\n",
		rec.OdometerStart, rec.OdometerEnd, rec.DistanceKm, rec.EnergyKWh))
	for _, anomaly := range row.anomalies {
		b.WriteString(errorStyle.Render("  ✗ "+anomaly.Description) + "\n")
	}

	return detailStyle.Width(m.width - 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) editView() string {
	field := m.editFields[m.editField]

	var b strings.Builder
	b.WriteString(fmt.Sprintf("New value for %s (%d/%d, blank keeps original):\n",
		field, m.editField+1, len(m.editFields)))
	b.WriteString(m.input.View())
	if m.parseError != "" {
		b.WriteString("\n" + errorStyle.Render(m.parseError))
	}
	return b.String()
}

func (m Model) helpLine() string {
	if m.undecided() == 0 {
		return "enter apply · q abandon"
	}
	return "↑/↓ move · K keep · s skip · e edit · X skip all · enter apply · q abandon"
}

func summarize(row rowReview) string {
	categories := make([]string, 0, len(row.anomalies))
	seen := make(map[model.AnomalyCategory]bool)
	for _, anomaly := range row.anomalies {
		if seen[anomaly.Category] {
			continue
		}
		seen[anomaly.Category] = true
		categories = append(categories, string(anomaly.Category))
	}
	return strings.Join(categories, ", ")
}

func timeOrMissing(rec model.TripRecord, field model.Field) string {
	if !rec.Present.Has(field) {
		return "(missing)"
	}
	if field == model.FieldStartTime {
		return rec.StartTime.Format(model.PatchTimeLayout)
	}
	return rec.EndTime.Format(model.PatchTimeLayout)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#36A3FF"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#36A3FF"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	keepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	editStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	detailStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#333")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)
