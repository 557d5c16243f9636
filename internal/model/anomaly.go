package model

import "fmt"

// AnomalyCategory classifies a detected data-quality issue.
type AnomalyCategory string

// Anomaly categories, ordered roughly from per-field to cross-field checks.
const (
	AnomalyMissingField     AnomalyCategory = "missing_field"
	AnomalyImplausibleValue AnomalyCategory = "implausible_value"
	AnomalyTimeOrdering     AnomalyCategory = "time_ordering"
	AnomalyOdometerMismatch AnomalyCategory = "odometer_mismatch"
)

// Severity indicates how strongly a flagged row should be treated.
type Severity string

// Severity levels.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Anomaly is one detected issue on one row of a pending dataset. TripIndex is
// a positional reference into the exact pending snapshot the detector ran
// over, not a stable record identity; RecordID carries the stable import-time
// ID alongside it. Anomalies are immutable once created.
type Anomaly struct {
	RecordID    string
	Category    AnomalyCategory
	Field       Field
	Description string
	Severity    Severity
	TripIndex   int
}

// String renders the anomaly for logs and plain CLI output.
func (a Anomaly) String() string {
	return fmt.Sprintf("row %d [%s/%s]: %s", a.TripIndex, a.Category, a.Severity, a.Description)
}
