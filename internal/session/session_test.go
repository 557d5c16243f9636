package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/validate"
)

func newSession() *Session {
	return New(validate.NewDetector(validate.DefaultOptions()))
}

func cleanTrip(id string) model.TripRecord {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return model.TripRecord{
		ID:            id,
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		OdometerStart: 100,
		OdometerEnd:   140,
		DistanceKm:    40,
		EnergyKWh:     8,
		Present:       model.AllFields(),
	}
}

func badTrip(id string) model.TripRecord {
	rec := cleanTrip(id)
	rec.DistanceKm = -10
	rec.OdometerEnd = rec.OdometerStart - 10
	return rec
}

func TestSession_CleanImportLoadsDirectly(t *testing.T) {
	s := newSession()
	assert.Equal(t, StateEmpty, s.State())

	anomalies, err := s.Import([]model.TripRecord{cleanTrip("a"), cleanTrip("b")})

	require.NoError(t, err)
	assert.Empty(t, anomalies)
	assert.Equal(t, StateCleanLoaded, s.State())
	assert.Len(t, s.Accepted(), 2)
	assert.Empty(t, s.Anomalies())
	assert.Empty(t, s.Pending())
}

func TestSession_FlaggedImportParksPending(t *testing.T) {
	s := newSession()

	anomalies, err := s.Import([]model.TripRecord{cleanTrip("a"), badTrip("b")})

	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 1, anomalies[0].TripIndex)
	assert.Equal(t, StateAwaitingCorrection, s.State())
	assert.Empty(t, s.Accepted(), "nothing accepted until corrections resolve")
	assert.Len(t, s.Pending(), 2)
}

func TestSession_ResolvePromotesCorrected(t *testing.T) {
	s := newSession()
	_, err := s.Import([]model.TripRecord{cleanTrip("a"), badTrip("b")})
	require.NoError(t, err)

	accepted, err := s.Resolve([]model.CorrectionDirective{
		{TripIndex: 1, Action: model.ActionSkip},
	})

	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "a", accepted[0].ID)
	assert.Equal(t, StateCleanLoaded, s.State())
	assert.Empty(t, s.Anomalies())
	assert.Empty(t, s.Pending())
}

func TestSession_ResolveWithoutPendingFails(t *testing.T) {
	s := newSession()

	_, err := s.Resolve(nil)
	assert.ErrorIs(t, err, common.ErrNoPendingImport)

	_, err = s.Import([]model.TripRecord{cleanTrip("a")})
	require.NoError(t, err)

	_, err = s.Resolve(nil)
	assert.ErrorIs(t, err, common.ErrNoPendingImport)
}

func TestSession_ImportWhileAwaitingCorrectionRejected(t *testing.T) {
	s := newSession()
	_, err := s.Import([]model.TripRecord{badTrip("a")})
	require.NoError(t, err)

	_, err = s.Import([]model.TripRecord{cleanTrip("b")})
	assert.ErrorIs(t, err, common.ErrCorrectionPending)
	assert.Equal(t, StateAwaitingCorrection, s.State())
}

func TestSession_ReentrantFlaggedImportKeepsPreviousAccepted(t *testing.T) {
	s := newSession()
	_, err := s.Import([]model.TripRecord{cleanTrip("a")})
	require.NoError(t, err)

	// A fresh flagged import parks as pending; the previous accepted dataset
	// stays visible until the correction completes.
	anomalies, err := s.Import([]model.TripRecord{badTrip("b")})
	require.NoError(t, err)
	require.NotEmpty(t, anomalies)
	assert.Equal(t, StateAwaitingCorrection, s.State())

	accepted := s.Accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, "a", accepted[0].ID)

	resolved, err := s.Resolve([]model.CorrectionDirective{
		{TripIndex: 0, Action: model.ActionSkip},
	})
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Equal(t, StateCleanLoaded, s.State())
}

func TestSession_Cancel(t *testing.T) {
	t.Run("reverts to empty without prior data", func(t *testing.T) {
		s := newSession()
		_, err := s.Import([]model.TripRecord{badTrip("a")})
		require.NoError(t, err)

		s.Cancel()

		assert.Equal(t, StateEmpty, s.State())
		assert.Empty(t, s.Pending())
		assert.Empty(t, s.Anomalies())
	})

	t.Run("reverts to clean loaded with prior data", func(t *testing.T) {
		s := newSession()
		_, err := s.Import([]model.TripRecord{cleanTrip("a")})
		require.NoError(t, err)
		_, err = s.Import([]model.TripRecord{badTrip("b")})
		require.NoError(t, err)

		s.Cancel()

		assert.Equal(t, StateCleanLoaded, s.State())
		require.Len(t, s.Accepted(), 1)
		assert.Equal(t, "a", s.Accepted()[0].ID)
	})

	t.Run("no-op outside correction", func(t *testing.T) {
		s := newSession()
		s.Cancel()
		assert.Equal(t, StateEmpty, s.State())
	})
}

func TestSession_AcceptedReturnsCopy(t *testing.T) {
	s := newSession()
	_, err := s.Import([]model.TripRecord{cleanTrip("a")})
	require.NoError(t, err)

	snapshot := s.Accepted()
	snapshot[0].ID = "mutated"

	assert.Equal(t, "a", s.Accepted()[0].ID)
}

func TestSession_ImportCopiesInput(t *testing.T) {
	s := newSession()

	clean := []model.TripRecord{cleanTrip("a")}
	_, err := s.Import(clean)
	require.NoError(t, err)

	clean[0].ID = "mutated"
	assert.Equal(t, "a", s.Accepted()[0].ID)

	flagged := []model.TripRecord{badTrip("b")}
	_, err = s.Import(flagged)
	require.NoError(t, err)

	flagged[0].ID = "mutated"
	assert.Equal(t, "b", s.Pending()[0].ID)
}
