// Package calc implements the cost and range calculator.
package calc

import (
	"github.com/mhagberg/voltflow/internal/stats"
)

// Rates holds the user's pricing and vehicle parameters.
type Rates struct {
	Currency    string
	PricePerKWh float64
	BatteryKWh  float64
}

// MonthCost is the charging cost attributed to one month of driving.
type MonthCost struct {
	Month string
	Cost  float64
}

// CostReport breaks down charging cost over an aggregated dataset.
type CostReport struct {
	Currency     string
	ByMonth      []MonthCost
	TotalCost    float64
	CostPer100Km float64
}

// Cost computes a cost report for the summary at the given rates.
func Cost(summary stats.Summary, rates Rates) CostReport {
	report := CostReport{
		Currency:  rates.Currency,
		TotalCost: summary.TotalEnergyKWh * rates.PricePerKWh,
	}
	if summary.TotalDistanceKm > 0 {
		report.CostPer100Km = report.TotalCost / summary.TotalDistanceKm * 100
	}

	report.ByMonth = make([]MonthCost, 0, len(summary.Months))
	for _, month := range summary.Months {
		report.ByMonth = append(report.ByMonth, MonthCost{
			Month: month.Month,
			Cost:  month.EnergyKWh * rates.PricePerKWh,
		})
	}
	return report
}

// TripCost estimates the charging cost of a single trip of the given length,
// using the observed mean efficiency in kWh/100km.
func TripCost(distanceKm, efficiencyKWh100, pricePerKWh float64) float64 {
	if distanceKm <= 0 || efficiencyKWh100 <= 0 {
		return 0
	}
	return distanceKm / 100 * efficiencyKWh100 * pricePerKWh
}

// TripEnergy estimates the energy a trip of the given length will consume.
func TripEnergy(distanceKm, efficiencyKWh100 float64) float64 {
	if distanceKm <= 0 || efficiencyKWh100 <= 0 {
		return 0
	}
	return distanceKm / 100 * efficiencyKWh100
}

// EstimateRange returns the driving range a full battery supports at the
// observed efficiency, zero when efficiency cannot be established.
func EstimateRange(batteryKWh, efficiencyKWh100 float64) float64 {
	if batteryKWh <= 0 || efficiencyKWh100 <= 0 {
		return 0
	}
	return batteryKWh / efficiencyKWh100 * 100
}
