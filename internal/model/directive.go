package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DirectiveAction is the user's decision for one flagged row.
type DirectiveAction string

// Directive actions.
const (
	ActionSkip    DirectiveAction = "skip"
	ActionCorrect DirectiveAction = "correct"
)

// CorrectionDirective is a single user decision for one anomaly. TripIndex
// refers to the pending dataset snapshot the anomalies were detected against.
// Patch is only consulted when Action is ActionCorrect.
type CorrectionDirective struct {
	Patch     *TripPatch
	Action    DirectiveAction
	TripIndex int
}

// TripPatch is a partial trip record: only non-nil fields are applied over the
// original row, everything else is retained.
type TripPatch struct {
	StartTime     *time.Time
	EndTime       *time.Time
	OdometerStart *float64
	OdometerEnd   *float64
	DistanceKm    *float64
	EnergyKWh     *float64
}

// Apply merges the patch over rec and returns the corrected record. Patched
// fields are also marked present, since the user supplied them explicitly.
func (p *TripPatch) Apply(rec TripRecord) TripRecord {
	if p == nil {
		return rec
	}
	if p.StartTime != nil {
		rec.StartTime = *p.StartTime
		rec.Present = rec.Present.With(FieldStartTime)
	}
	if p.EndTime != nil {
		rec.EndTime = *p.EndTime
		rec.Present = rec.Present.With(FieldEndTime)
	}
	if p.OdometerStart != nil {
		rec.OdometerStart = *p.OdometerStart
		rec.Present = rec.Present.With(FieldOdometerStart)
	}
	if p.OdometerEnd != nil {
		rec.OdometerEnd = *p.OdometerEnd
		rec.Present = rec.Present.With(FieldOdometerEnd)
	}
	if p.DistanceKm != nil {
		rec.DistanceKm = *p.DistanceKm
		rec.Present = rec.Present.With(FieldDistance)
	}
	if p.EnergyKWh != nil {
		rec.EnergyKWh = *p.EnergyKWh
		rec.Present = rec.Present.With(FieldEnergy)
	}
	return rec
}

// PatchTimeLayout is the timestamp format the correction front-ends accept.
const PatchTimeLayout = "2006-01-02 15:04"

// SetField parses raw user input into the patch slot for field. Timestamps
// accept PatchTimeLayout or RFC3339; numbers accept a comma decimal
// separator.
func (p *TripPatch) SetField(field Field, raw string) error {
	raw = strings.TrimSpace(raw)

	switch field {
	case FieldStartTime, FieldEndTime:
		ts, err := time.Parse(PatchTimeLayout, raw)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			return fmt.Errorf("expected a timestamp like %q", PatchTimeLayout)
		}
		if field == FieldStartTime {
			p.StartTime = &ts
		} else {
			p.EndTime = &ts
		}
	default:
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", raw)
		}
		switch field {
		case FieldOdometerStart:
			p.OdometerStart = &v
		case FieldOdometerEnd:
			p.OdometerEnd = &v
		case FieldDistance:
			p.DistanceKm = &v
		case FieldEnergy:
			p.EnergyKWh = &v
		default:
			return fmt.Errorf("unknown field %q", field)
		}
	}
	return nil
}

// IsEmpty reports whether the patch would change nothing.
func (p *TripPatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.StartTime == nil && p.EndTime == nil &&
		p.OdometerStart == nil && p.OdometerEnd == nil &&
		p.DistanceKm == nil && p.EnergyKWh == nil
}
