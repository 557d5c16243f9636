// Package model defines the core domain models used throughout the application.
package model

import "time"

// Field identifies one of the trip record fields the validator and patcher
// operate on.
type Field string

// Trip record field names.
const (
	FieldStartTime     Field = "start_time"
	FieldEndTime       Field = "end_time"
	FieldOdometerStart Field = "odometer_start"
	FieldOdometerEnd   Field = "odometer_end"
	FieldDistance      Field = "distance_km"
	FieldEnergy        Field = "energy_kwh"
)

// RequiredFields lists the fields every imported trip row must carry.
var RequiredFields = []Field{
	FieldStartTime,
	FieldEndTime,
	FieldOdometerStart,
	FieldOdometerEnd,
	FieldDistance,
	FieldEnergy,
}

// FieldSet is a value-copyable set of trip record fields. The importer marks
// which columns were actually present in the source row so the validator can
// tell a genuine zero from an absent value.
type FieldSet uint8

var fieldBits = map[Field]FieldSet{
	FieldStartTime:     1 << 0,
	FieldEndTime:       1 << 1,
	FieldOdometerStart: 1 << 2,
	FieldOdometerEnd:   1 << 3,
	FieldDistance:      1 << 4,
	FieldEnergy:        1 << 5,
}

// With returns a copy of the set with f marked present.
func (s FieldSet) With(f Field) FieldSet {
	return s | fieldBits[f]
}

// Has reports whether f is marked present.
func (s FieldSet) Has(f Field) bool {
	return s&fieldBits[f] != 0
}

// AllFields is the set containing every trip record field.
func AllFields() FieldSet {
	var s FieldSet
	for _, bit := range fieldBits {
		s |= bit
	}
	return s
}

// TripRecord is one row of imported journey data. Records are identified by a
// synthetic ID assigned at import time; the positional index into the pending
// dataset is still the contract for correction directives.
type TripRecord struct {
	StartTime     time.Time
	EndTime       time.Time
	ID            string
	OdometerStart float64
	OdometerEnd   float64
	DistanceKm    float64
	EnergyKWh     float64
	Present       FieldSet
}

// OdometerDelta returns the distance implied by the odometer pair.
func (t TripRecord) OdometerDelta() float64 {
	return t.OdometerEnd - t.OdometerStart
}

// Efficiency returns the consumption in kWh per 100 km and whether it could
// be derived (both inputs present and a positive distance).
func (t TripRecord) Efficiency() (float64, bool) {
	if !t.Present.Has(FieldDistance) || !t.Present.Has(FieldEnergy) || t.DistanceKm <= 0 {
		return 0, false
	}
	return t.EnergyKWh / t.DistanceKm * 100, true
}

// Duration returns the trip duration, zero if either timestamp is missing.
func (t TripRecord) Duration() time.Duration {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}
