// Package correction applies user correction directives to a pending dataset.
package correction

import (
	"log/slog"

	"github.com/mhagberg/voltflow/internal/model"
)

// Resolver computes a corrected dataset from the pending dataset and the
// user's per-row decisions.
type Resolver struct{}

// NewResolver creates a correction resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Apply resolves directives against the pending dataset and returns the
// corrected dataset.
//
// Every directive index refers to a position in the original pending array,
// so the pending dataset is walked in original index order and never
// re-indexed before directives are resolved. Skipped rows are dropped,
// patched rows keep every field the patch does not set, and untouched rows
// pass through unchanged. Retained rows keep their relative order.
//
// A directive whose index is out of bounds is ignored. If several directives
// target the same index, the last skip/correct of each kind wins, and a skip
// beats a correct: the row is filtered out before the patch map is consulted.
func (r *Resolver) Apply(pending []model.TripRecord, directives []model.CorrectionDirective) []model.TripRecord {
	skips := make(map[int]bool)
	patches := make(map[int]*model.TripPatch)

	for _, d := range directives {
		if d.TripIndex < 0 || d.TripIndex >= len(pending) {
			slog.Debug("Ignoring out-of-range correction directive",
				"trip_index", d.TripIndex,
				"dataset_size", len(pending),
				"action", d.Action)
			continue
		}
		switch d.Action {
		case model.ActionSkip:
			skips[d.TripIndex] = true
		case model.ActionCorrect:
			patches[d.TripIndex] = d.Patch
		}
	}

	corrected := make([]model.TripRecord, 0, len(pending)-len(skips))
	for i, rec := range pending {
		if skips[i] {
			continue
		}
		if patch, ok := patches[i]; ok {
			rec = patch.Apply(rec)
		}
		corrected = append(corrected, rec)
	}

	return corrected
}

// Stats summarizes what a directive set did to a pending dataset of the given
// size, for reporting after a correction cycle.
func Stats(directives []model.CorrectionDirective, datasetSize int) (skipped, corrected int) {
	skips := make(map[int]bool)
	patched := make(map[int]bool)
	for _, d := range directives {
		if d.TripIndex < 0 || d.TripIndex >= datasetSize {
			continue
		}
		switch d.Action {
		case model.ActionSkip:
			skips[d.TripIndex] = true
		case model.ActionCorrect:
			patched[d.TripIndex] = true
		}
	}
	for i := range patched {
		if skips[i] {
			delete(patched, i)
		}
	}
	return len(skips), len(patched)
}
