package sheets

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/stats"
)

func reportRecord(start time.Time, distance, energy float64) model.TripRecord {
	return model.TripRecord{
		ID:            "r-" + start.Format("0102"),
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		OdometerStart: 1000,
		OdometerEnd:   1000 + distance,
		DistanceKm:    distance,
		EnergyKWh:     energy,
		Present:       model.AllFields(),
	}
}

func TestPrepareReportData_Layout(t *testing.T) {
	writer := &Writer{config: DefaultConfig(), logger: slog.Default()}

	records := []model.TripRecord{
		reportRecord(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), 40, 8),
		reportRecord(time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), 120, 22),
	}
	summary := stats.Compute(records)

	values := writer.prepareReportData(records, summary)

	require.NotEmpty(t, values)
	assert.Equal(t, "Journey Report", values[0][0])

	var monthRows, tripHeaderIdx int
	for i, row := range values {
		if len(row) > 0 && row[0] == "Monthly Breakdown" {
			monthRows = i
		}
		if len(row) > 0 && row[0] == "Trip Details" {
			tripHeaderIdx = i
		}
	}
	require.NotZero(t, monthRows)
	require.NotZero(t, tripHeaderIdx)

	// Two months means two breakdown rows between the column header and the
	// blank separator.
	assert.Equal(t, "2025-05", values[monthRows+2][0])
	assert.Equal(t, "2025-06", values[monthRows+3][0])

	// Trips are listed newest first after the column header.
	first := values[tripHeaderIdx+2]
	assert.Equal(t, "2025-06-02 08:00", first[0])

	// Every trip row carries the computed consumption.
	assert.Equal(t, "18.3", first[6])
}

func TestPrepareReportData_MissingFieldsRenderBlank(t *testing.T) {
	writer := &Writer{config: DefaultConfig(), logger: slog.Default()}

	rec := model.TripRecord{
		ID:         "sparse",
		StartTime:  time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		DistanceKm: 40,
		Present:    model.FieldSet(0).With(model.FieldStartTime).With(model.FieldDistance),
	}
	summary := stats.Compute([]model.TripRecord{rec})

	values := writer.prepareReportData([]model.TripRecord{rec}, summary)

	last := values[len(values)-1]
	assert.Equal(t, "2025-06-02 08:00", last[0])
	assert.Equal(t, "", last[1]) // end time absent
	assert.Equal(t, "", last[2]) // odometer start absent
	assert.Equal(t, 40.0, last[4])
	assert.Equal(t, "", last[5]) // energy absent
	assert.Equal(t, "", last[6]) // no consumption without energy
}
