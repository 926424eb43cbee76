package offer

import "errors"

var (
	ErrMissingRoute      = errors.New("origin and destination are required")
	ErrMissingDeparture  = errors.New("departure_date is required")
	ErrNoAdultPassenger  = errors.New("at least one adult passenger is required")
	ErrNegativePaxCount  = errors.New("passenger counts must not be negative")
	ErrMissingReturnDate = errors.New("return_date is required for round trips")
	ErrMissingTripLegs   = errors.New("multi_city_legs are required for multi-city trips")
)

// Validate checks the request invariants before it reaches any supplier.
func (r SearchRequest) Validate() error {
	if r.Adults < 1 {
		return ErrNoAdultPassenger
	}
	if r.Children < 0 || r.Infants < 0 {
		return ErrNegativePaxCount
	}

	switch r.TripType {
	case TripMultiCity:
		if len(r.MultiCityLegs) == 0 {
			return ErrMissingTripLegs
		}
		for _, leg := range r.MultiCityLegs {
			if leg.Origin == "" || leg.Destination == "" {
				return ErrMissingRoute
			}
			if leg.DepartureDate == "" {
				return ErrMissingDeparture
			}
		}
		return nil
	case TripRoundTrip:
		if r.ReturnDate == "" {
			return ErrMissingReturnDate
		}
	}

	if r.Origin == "" || r.Destination == "" {
		return ErrMissingRoute
	}
	if r.DepartureDate == "" {
		return ErrMissingDeparture
	}
	return nil
}
