// Package session holds the dataset lifecycle for one import/correction
// cycle: the accepted dataset, the pending (unconfirmed) dataset, and the
// outstanding anomaly list.
package session

import (
	"log/slog"

	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/correction"
	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/validate"
)

// State is the lifecycle phase of the session.
type State string

// Session states.
const (
	// StateEmpty means no dataset has been accepted yet.
	StateEmpty State = "empty"
	// StateCleanLoaded means an accepted dataset is available and no
	// correction is outstanding.
	StateCleanLoaded State = "clean_loaded"
	// StateAwaitingCorrection means a flagged import is parked as pending
	// until the user resolves or cancels the correction workflow.
	StateAwaitingCorrection State = "awaiting_correction"
)

// Session owns the pending and accepted datasets and mediates between the
// anomaly detector, the correction resolver, and the presentation layer.
// It performs no I/O and is meant for single-goroutine use: at most one
// import/correction cycle is active at a time.
type Session struct {
	detector  *validate.Detector
	resolver  *correction.Resolver
	accepted  []model.TripRecord
	pending   []model.TripRecord
	anomalies []model.Anomaly
	state     State
}

// New creates an empty session using the given detector.
func New(detector *validate.Detector) *Session {
	return &Session{
		detector: detector,
		resolver: correction.NewResolver(),
		state:    StateEmpty,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Accepted returns a read-only snapshot of the accepted dataset. The session
// replaces, never mutates, the accepted dataset, and callers get their own
// copy so downstream consumers cannot alias session state.
func (s *Session) Accepted() []model.TripRecord {
	out := make([]model.TripRecord, len(s.accepted))
	copy(out, s.accepted)
	return out
}

// Anomalies returns the outstanding anomaly list for display. Empty unless
// the session is awaiting correction.
func (s *Session) Anomalies() []model.Anomaly {
	out := make([]model.Anomaly, len(s.anomalies))
	copy(out, s.anomalies)
	return out
}

// Pending returns a snapshot of the pending dataset, for rendering the
// flagged rows alongside their anomalies.
func (s *Session) Pending() []model.TripRecord {
	out := make([]model.TripRecord, len(s.pending))
	copy(out, s.pending)
	return out
}

// Import runs the detector over a freshly parsed dataset. A clean dataset is
// accepted immediately; a flagged one is parked as pending with its anomaly
// list until the user resolves or cancels. Importing while a correction is
// already outstanding is rejected.
func (s *Session) Import(records []model.TripRecord) ([]model.Anomaly, error) {
	if s.state == StateAwaitingCorrection {
		return nil, common.ErrCorrectionPending
	}

	// Snapshot the input so a caller mutating its slice after Import cannot
	// alter session state.
	snapshot := make([]model.TripRecord, len(records))
	copy(snapshot, records)

	anomalies := s.detector.Validate(snapshot)
	if len(anomalies) == 0 {
		s.accepted = snapshot
		s.pending = nil
		s.anomalies = nil
		s.state = StateCleanLoaded
		slog.Debug("Import accepted without corrections", "rows", len(records))
		return nil, nil
	}

	// Previous accepted data stays in place until correction completes.
	s.pending = snapshot
	s.anomalies = anomalies
	s.state = StateAwaitingCorrection
	slog.Debug("Import parked pending correction",
		"rows", len(records),
		"anomalies", len(anomalies))
	return s.Anomalies(), nil
}

// Resolve applies the user's directives to the pending dataset and promotes
// the result to accepted. Only valid while awaiting correction.
func (s *Session) Resolve(directives []model.CorrectionDirective) ([]model.TripRecord, error) {
	if s.state != StateAwaitingCorrection {
		return nil, common.ErrNoPendingImport
	}

	corrected := s.resolver.Apply(s.pending, directives)
	s.accepted = corrected
	s.pending = nil
	s.anomalies = nil
	s.state = StateCleanLoaded

	slog.Debug("Corrections resolved", "rows", len(corrected))
	return s.Accepted(), nil
}

// Cancel abandons an outstanding correction workflow. The pending dataset and
// its anomalies are discarded; the accepted dataset keeps its previous value
// and the state reverts to whatever it was before the flagged import.
func (s *Session) Cancel() {
	if s.state != StateAwaitingCorrection {
		return
	}

	s.pending = nil
	s.anomalies = nil
	if len(s.accepted) > 0 {
		s.state = StateCleanLoaded
	} else {
		s.state = StateEmpty
	}
}
