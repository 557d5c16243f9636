package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/model"
)

func trip(id string, odoStart, odoEnd, distance float64) model.TripRecord {
	return model.TripRecord{
		ID:            id,
		OdometerStart: odoStart,
		OdometerEnd:   odoEnd,
		DistanceKm:    distance,
		Present: model.FieldSet(0).
			With(model.FieldOdometerStart).
			With(model.FieldOdometerEnd).
			With(model.FieldDistance),
	}
}

func skip(index int) model.CorrectionDirective {
	return model.CorrectionDirective{TripIndex: index, Action: model.ActionSkip}
}

func correctDistance(index int, km float64) model.CorrectionDirective {
	return model.CorrectionDirective{
		TripIndex: index,
		Action:    model.ActionCorrect,
		Patch:     &model.TripPatch{DistanceKm: &km},
	}
}

func TestResolver_Apply_SkipRemovesRow(t *testing.T) {
	resolver := NewResolver()

	// A valid first trip followed by a physically impossible one.
	pending := []model.TripRecord{
		trip("a", 100, 150, 50),
		trip("b", 150, 140, -10),
	}

	got := resolver.Apply(pending, []model.CorrectionDirective{skip(1)})

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 50.0, got[0].DistanceKm)
}

func TestResolver_Apply_PatchPrecedence(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{
		trip("a", 0, 40, 99),
		trip("b", 40, 90, 50),
		trip("c", 90, 120, 30),
	}

	got := resolver.Apply(pending, []model.CorrectionDirective{correctDistance(0, 42)})

	require.Len(t, got, 3)
	// Patched field wins, everything else is retained.
	assert.Equal(t, 42.0, got[0].DistanceKm)
	assert.Equal(t, 0.0, got[0].OdometerStart)
	assert.Equal(t, 40.0, got[0].OdometerEnd)
	assert.Equal(t, "a", got[0].ID)
	// Untouched rows pass through unchanged.
	assert.Equal(t, pending[1], got[1])
	assert.Equal(t, pending[2], got[2])
}

func TestResolver_Apply_LengthConservation(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{
		trip("a", 0, 10, 10),
		trip("b", 10, 20, 10),
		trip("c", 20, 30, 10),
		trip("d", 30, 40, 10),
	}

	tests := []struct {
		name       string
		directives []model.CorrectionDirective
		wantLen    int
	}{
		{"no directives", nil, 4},
		{"one skip", []model.CorrectionDirective{skip(2)}, 3},
		{"duplicate skips count once", []model.CorrectionDirective{skip(2), skip(2)}, 3},
		{"skips and corrections", []model.CorrectionDirective{skip(0), correctDistance(1, 5), skip(3)}, 2},
		{"out-of-range skips are no-ops", []model.CorrectionDirective{skip(-1), skip(4), skip(99)}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Apply(pending, tt.directives)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestResolver_Apply_OrderPreservation(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{
		trip("a", 0, 10, 10),
		trip("b", 10, 20, 10),
		trip("c", 20, 30, 10),
		trip("d", 30, 40, 10),
		trip("e", 40, 50, 10),
	}

	got := resolver.Apply(pending, []model.CorrectionDirective{
		skip(1),
		correctDistance(3, 12),
		skip(4),
	})

	ids := make([]string, 0, len(got))
	for _, rec := range got {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func TestResolver_Apply_OutOfRangeDirectiveIsNoOp(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{trip("a", 0, 10, 10)}

	got := resolver.Apply(pending, []model.CorrectionDirective{
		correctDistance(5, 99),
		correctDistance(-2, 99),
		skip(1),
	})

	require.Len(t, got, 1)
	assert.Equal(t, pending[0], got[0])
}

func TestResolver_Apply_SkipWinsOverCorrect(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{
		trip("a", 0, 10, 10),
		trip("b", 10, 20, 10),
	}

	// Both a skip and a correct for row 0, in both submission orders: the row
	// is filtered out before the patch map is consulted, so skip wins.
	for name, directives := range map[string][]model.CorrectionDirective{
		"skip first":    {skip(0), correctDistance(0, 42)},
		"correct first": {correctDistance(0, 42), skip(0)},
	} {
		t.Run(name, func(t *testing.T) {
			got := resolver.Apply(pending, directives)
			require.Len(t, got, 1)
			assert.Equal(t, "b", got[0].ID)
		})
	}
}

func TestResolver_Apply_LastCorrectWins(t *testing.T) {
	resolver := NewResolver()
	pending := []model.TripRecord{trip("a", 0, 10, 10)}

	got := resolver.Apply(pending, []model.CorrectionDirective{
		correctDistance(0, 11),
		correctDistance(0, 22),
	})

	require.Len(t, got, 1)
	assert.Equal(t, 22.0, got[0].DistanceKm)
}

func TestResolver_Apply_EmptyDataset(t *testing.T) {
	resolver := NewResolver()

	got := resolver.Apply(nil, []model.CorrectionDirective{skip(0)})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStats(t *testing.T) {
	skipped, corrected := Stats([]model.CorrectionDirective{
		skip(0),
		correctDistance(0, 1), // shadowed by the skip
		correctDistance(1, 2),
		correctDistance(1, 3), // duplicate index counts once
		skip(42),              // out of range
	}, 3)

	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, corrected)
}
