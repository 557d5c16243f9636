// Package validate implements the journey-data anomaly detection pipeline:
// per-row checks over imported trip records and dataset-wide scanning.
package validate

import (
	"fmt"

	"github.com/mhagberg/voltflow/internal/model"
)

// Options configures the tolerances used by the row checks.
type Options struct {
	// OdometerToleranceKm is the allowed disagreement between the odometer
	// delta and the recorded distance before a mismatch is flagged.
	OdometerToleranceKm float64
	// EfficiencyMinKWh100 and EfficiencyMaxKWh100 bound the plausible
	// consumption range in kWh per 100 km.
	EfficiencyMinKWh100 float64
	EfficiencyMaxKWh100 float64
}

// DefaultOptions returns the tolerances used when none are configured.
func DefaultOptions() Options {
	return Options{
		OdometerToleranceKm: 1.0,
		EfficiencyMinKWh100: 0.0,
		EfficiencyMaxKWh100: 60.0,
	}
}

// Detector scans imported datasets for data-quality anomalies.
type Detector struct {
	opts Options
}

// NewDetector creates a detector with the given tolerances.
func NewDetector(opts Options) *Detector {
	if opts.OdometerToleranceKm <= 0 {
		opts.OdometerToleranceKm = DefaultOptions().OdometerToleranceKm
	}
	if opts.EfficiencyMaxKWh100 <= opts.EfficiencyMinKWh100 {
		def := DefaultOptions()
		opts.EfficiencyMinKWh100 = def.EfficiencyMinKWh100
		opts.EfficiencyMaxKWh100 = def.EfficiencyMaxKWh100
	}
	return &Detector{opts: opts}
}

// Validate runs the row checks over an entire dataset. Anomalies come back
// ordered by ascending trip index, and within one row in check order (field
// checks before cross-field checks). A clean dataset yields an empty,
// non-nil slice.
func (d *Detector) Validate(dataset []model.TripRecord) []model.Anomaly {
	anomalies := make([]model.Anomaly, 0)
	for i, rec := range dataset {
		anomalies = append(anomalies, d.CheckRecord(rec, i)...)
	}
	return anomalies
}

// CheckRecord inspects a single trip record and returns every issue found.
// All checks are evaluated independently; none short-circuits the others.
// The function is pure: same record and index, same anomalies.
func (d *Detector) CheckRecord(rec model.TripRecord, index int) []model.Anomaly {
	var found []model.Anomaly

	found = append(found, missingFields(rec, index)...)
	found = append(found, d.implausibleValues(rec, index)...)
	found = append(found, timeOrdering(rec, index)...)
	found = append(found, d.odometerMismatch(rec, index)...)

	return found
}

// missingFields emits one anomaly per required field absent from the row.
func missingFields(rec model.TripRecord, index int) []model.Anomaly {
	var found []model.Anomaly
	for _, field := range model.RequiredFields {
		if rec.Present.Has(field) {
			continue
		}
		found = append(found, model.Anomaly{
			TripIndex:   index,
			RecordID:    rec.ID,
			Category:    model.AnomalyMissingField,
			Field:       field,
			Severity:    model.SeverityError,
			Description: fmt.Sprintf("required field %s is missing", field),
		})
	}
	return found
}

// implausibleValues flags physically impossible numbers: negative distance,
// negative consumption, or a derived efficiency outside the plausible range.
// Absent fields are left to the missing-field check.
func (d *Detector) implausibleValues(rec model.TripRecord, index int) []model.Anomaly {
	var found []model.Anomaly

	if rec.Present.Has(model.FieldDistance) && rec.DistanceKm < 0 {
		found = append(found, model.Anomaly{
			TripIndex:   index,
			RecordID:    rec.ID,
			Category:    model.AnomalyImplausibleValue,
			Field:       model.FieldDistance,
			Severity:    model.SeverityError,
			Description: fmt.Sprintf("negative distance %.1f km", rec.DistanceKm),
		})
	}

	if rec.Present.Has(model.FieldEnergy) && rec.EnergyKWh < 0 {
		found = append(found, model.Anomaly{
			TripIndex:   index,
			RecordID:    rec.ID,
			Category:    model.AnomalyImplausibleValue,
			Field:       model.FieldEnergy,
			Severity:    model.SeverityError,
			Description: fmt.Sprintf("negative energy consumption %.1f kWh", rec.EnergyKWh),
		})
	}

	if eff, ok := rec.Efficiency(); ok {
		if eff < d.opts.EfficiencyMinKWh100 || eff > d.opts.EfficiencyMaxKWh100 {
			found = append(found, model.Anomaly{
				TripIndex: index,
				RecordID:  rec.ID,
				Category:  model.AnomalyImplausibleValue,
				Field:     model.FieldEnergy,
				Severity:  model.SeverityError,
				Description: fmt.Sprintf("efficiency %.1f kWh/100km outside plausible range %.1f-%.1f",
					eff, d.opts.EfficiencyMinKWh100, d.opts.EfficiencyMaxKWh100),
			})
		}
	}

	return found
}

// timeOrdering flags trips that end before they start.
func timeOrdering(rec model.TripRecord, index int) []model.Anomaly {
	if !rec.Present.Has(model.FieldStartTime) || !rec.Present.Has(model.FieldEndTime) {
		return nil
	}
	if !rec.EndTime.Before(rec.StartTime) {
		return nil
	}
	return []model.Anomaly{{
		TripIndex: index,
		RecordID:  rec.ID,
		Category:  model.AnomalyTimeOrdering,
		Field:     model.FieldEndTime,
		Severity:  model.SeverityError,
		Description: fmt.Sprintf("end time %s is before start time %s",
			rec.EndTime.Format("2006-01-02 15:04"), rec.StartTime.Format("2006-01-02 15:04")),
	}}
}

// odometerMismatch flags rows where the odometer delta disagrees with the
// recorded distance beyond the configured tolerance.
func (d *Detector) odometerMismatch(rec model.TripRecord, index int) []model.Anomaly {
	if !rec.Present.Has(model.FieldOdometerStart) ||
		!rec.Present.Has(model.FieldOdometerEnd) ||
		!rec.Present.Has(model.FieldDistance) {
		return nil
	}

	delta := rec.OdometerDelta()
	diff := delta - rec.DistanceKm
	if diff < 0 {
		diff = -diff
	}
	if diff <= d.opts.OdometerToleranceKm {
		return nil
	}

	return []model.Anomaly{{
		TripIndex: index,
		RecordID:  rec.ID,
		Category:  model.AnomalyOdometerMismatch,
		Field:     model.FieldDistance,
		Severity:  model.SeverityWarning,
		Description: fmt.Sprintf("odometer delta %.1f km disagrees with recorded distance %.1f km",
			delta, rec.DistanceKm),
	}}
}
