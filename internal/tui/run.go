package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/model"
)

// Reviewer runs the full-screen review workflow. Implements service.Reviewer.
type Reviewer struct{}

// NewReviewer creates a TUI reviewer.
func NewReviewer() *Reviewer {
	return &Reviewer{}
}

// Review presents the flagged rows and returns the user's decisions.
func (r *Reviewer) Review(ctx context.Context, pending []model.TripRecord, anomalies []model.Anomaly) ([]model.CorrectionDirective, error) {
	program := tea.NewProgram(
		NewModel(pending, anomalies),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review screen failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model %T", final)
	}
	if m.Cancelled() || !m.Done() {
		return nil, cli.ErrReviewCancelled
	}

	return m.Directives(), nil
}
