// Package stats aggregates trip statistics over an accepted dataset.
package stats

import (
	"sort"
	"time"

	"github.com/mhagberg/voltflow/internal/model"
)

// MonthStat aggregates the trips of one calendar month.
type MonthStat struct {
	Month      string // YYYY-MM
	Trips      int
	DistanceKm float64
	EnergyKWh  float64
}

// Efficiency returns the month's mean consumption in kWh/100km, zero when no
// distance was driven.
func (m MonthStat) Efficiency() float64 {
	if m.DistanceKm <= 0 {
		return 0
	}
	return m.EnergyKWh / m.DistanceKm * 100
}

// Summary aggregates an entire dataset.
type Summary struct {
	Months          []MonthStat
	LongestTrip     model.TripRecord
	BusiestMonth    string
	Trips           int
	TotalDistanceKm float64
	TotalEnergyKWh  float64
	DrivingTime     time.Duration
}

// MeanEfficiency returns the dataset-wide consumption in kWh/100km, zero when
// no distance was driven.
func (s Summary) MeanEfficiency() float64 {
	if s.TotalDistanceKm <= 0 {
		return 0
	}
	return s.TotalEnergyKWh / s.TotalDistanceKm * 100
}

// Compute aggregates the dataset. Rows missing a field simply do not
// contribute that field to the totals; by the time a dataset is accepted the
// correction workflow has already dealt with anything worth fixing.
func Compute(records []model.TripRecord) Summary {
	summary := Summary{Trips: len(records)}
	byMonth := make(map[string]*MonthStat)

	for _, rec := range records {
		if rec.Present.Has(model.FieldDistance) {
			summary.TotalDistanceKm += rec.DistanceKm
			if rec.DistanceKm > summary.LongestTrip.DistanceKm {
				summary.LongestTrip = rec
			}
		}
		if rec.Present.Has(model.FieldEnergy) {
			summary.TotalEnergyKWh += rec.EnergyKWh
		}
		summary.DrivingTime += rec.Duration()

		if !rec.Present.Has(model.FieldStartTime) {
			continue
		}
		month := rec.StartTime.Format("2006-01")
		stat, ok := byMonth[month]
		if !ok {
			stat = &MonthStat{Month: month}
			byMonth[month] = stat
		}
		stat.Trips++
		if rec.Present.Has(model.FieldDistance) {
			stat.DistanceKm += rec.DistanceKm
		}
		if rec.Present.Has(model.FieldEnergy) {
			stat.EnergyKWh += rec.EnergyKWh
		}
	}

	summary.Months = make([]MonthStat, 0, len(byMonth))
	for _, stat := range byMonth {
		summary.Months = append(summary.Months, *stat)
	}
	sort.Slice(summary.Months, func(i, j int) bool {
		return summary.Months[i].Month < summary.Months[j].Month
	})

	busiest := 0
	for _, stat := range summary.Months {
		if stat.Trips > busiest {
			busiest = stat.Trips
			summary.BusiestMonth = stat.Month
		}
	}

	return summary
}
