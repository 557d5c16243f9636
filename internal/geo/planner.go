package geo

import (
	"context"
	"fmt"

	"github.com/mhagberg/voltflow/internal/calc"
	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/service"
)

// Plan is the result of planning one trip: the resolved endpoints, the
// computed route, and the energy/cost estimate at the caller's parameters.
type Plan struct {
	From        service.Location
	To          service.Location
	Route       service.Route
	EnergyKWh   float64
	Cost        float64
	ChargeStops int
	FullCharges float64
}

// Planner combines a geocoder and a router into the trip-planning workflow.
type Planner struct {
	geocoder service.Geocoder
	router   service.Router
}

// NewPlanner creates a planner on top of the given collaborators.
func NewPlanner(geocoder service.Geocoder, router service.Router) *Planner {
	return &Planner{geocoder: geocoder, router: router}
}

// PlanTrip geocodes both endpoints, routes between them, and estimates energy
// use and charging cost at the given efficiency (kWh/100km) and rates.
func (p *Planner) PlanTrip(ctx context.Context, origin, destination string, efficiencyKWh100 float64, rates calc.Rates) (Plan, error) {
	if p.geocoder == nil || p.router == nil {
		return Plan{}, common.ErrGeoDisabled
	}

	from, err := p.geocoder.Geocode(ctx, origin)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to resolve origin: %w", err)
	}

	to, err := p.geocoder.Geocode(ctx, destination)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to resolve destination: %w", err)
	}

	route, err := p.router.Route(ctx, from, to)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to compute route: %w", err)
	}

	plan := Plan{
		From:      from,
		To:        to,
		Route:     route,
		EnergyKWh: calc.TripEnergy(route.DistanceKm, efficiencyKWh100),
		Cost:      calc.TripCost(route.DistanceKm, efficiencyKWh100, rates.PricePerKWh),
	}

	if rates.BatteryKWh > 0 && plan.EnergyKWh > 0 {
		plan.FullCharges = plan.EnergyKWh / rates.BatteryKWh
		// Stops needed beyond the charge you leave with.
		stops := int(plan.FullCharges)
		if plan.FullCharges == float64(stops) && stops > 0 {
			stops--
		}
		plan.ChargeStops = stops
	}

	return plan, nil
}
