package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/model"
)

func tripOn(day time.Time, distance, energy float64) model.TripRecord {
	return model.TripRecord{
		ID:         "trip-" + day.Format("0102"),
		StartTime:  day,
		EndTime:    day.Add(time.Hour),
		DistanceKm: distance,
		EnergyKWh:  energy,
		Present:    model.AllFields(),
	}
}

func TestCompute(t *testing.T) {
	june := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 3, 8, 0, 0, 0, time.UTC)

	summary := Compute([]model.TripRecord{
		tripOn(june, 50, 10),
		tripOn(june.AddDate(0, 0, 1), 30, 5.4),
		tripOn(july, 120, 21.6),
	})

	assert.Equal(t, 3, summary.Trips)
	assert.InDelta(t, 200, summary.TotalDistanceKm, 0.001)
	assert.InDelta(t, 37, summary.TotalEnergyKWh, 0.001)
	assert.InDelta(t, 18.5, summary.MeanEfficiency(), 0.001)
	assert.Equal(t, 3*time.Hour, summary.DrivingTime)
	assert.Equal(t, 120.0, summary.LongestTrip.DistanceKm)
	assert.Equal(t, "2025-06", summary.BusiestMonth)

	require.Len(t, summary.Months, 2)
	assert.Equal(t, "2025-06", summary.Months[0].Month)
	assert.Equal(t, 2, summary.Months[0].Trips)
	assert.InDelta(t, 80, summary.Months[0].DistanceKm, 0.001)
	assert.InDelta(t, 19.25, summary.Months[0].Efficiency(), 0.001)
	assert.Equal(t, "2025-07", summary.Months[1].Month)
	assert.Equal(t, 1, summary.Months[1].Trips)
}

func TestCompute_Empty(t *testing.T) {
	summary := Compute(nil)

	assert.Equal(t, 0, summary.Trips)
	assert.Zero(t, summary.MeanEfficiency())
	assert.Empty(t, summary.Months)
	assert.Empty(t, summary.BusiestMonth)
}

func TestCompute_SparseRecords(t *testing.T) {
	// A record without a start time contributes to the totals but not to any
	// month bucket.
	rec := model.TripRecord{
		ID:         "no-start",
		DistanceKm: 40,
		EnergyKWh:  8,
		Present:    model.FieldSet(0).With(model.FieldDistance).With(model.FieldEnergy),
	}

	summary := Compute([]model.TripRecord{rec})

	assert.InDelta(t, 40, summary.TotalDistanceKm, 0.001)
	assert.Empty(t, summary.Months)
}
