package offer

import "time"

type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiCity TripType = "multi_city"
)

// TripLeg is one requested leg of a multi-city trip.
type TripLeg struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

// SearchRequest describes one trip query. It is treated as immutable once
// built by the HTTP layer.
type SearchRequest struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date,omitempty"`
	TripType      TripType  `json:"trip_type"`
	MultiCityLegs []TripLeg `json:"multi_city_legs,omitempty"`
	Adults        int       `json:"adults"`
	Children      int       `json:"children"`
	Infants       int       `json:"infants"`
	CabinClass    string    `json:"cabin_class"`
}

// Price is the fare breakdown of an offer.
type Price struct {
	BaseFare float64 `json:"base_fare"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Airline identifies a carrier.
type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Stop is one endpoint of a leg or segment.
type Stop struct {
	Airport string    `json:"airport"`
	City    string    `json:"city,omitempty"`
	Time    time.Time `json:"time"`
}

// Segment is one physical flight.
type Segment struct {
	Airline         Airline `json:"airline"`
	FlightNumber    string  `json:"flight_number"`
	Departure       Stop    `json:"departure"`
	Arrival         Stop    `json:"arrival"`
	DurationMinutes int     `json:"duration_minutes"`
	Baggage         string  `json:"baggage,omitempty"`
}

// Leg is one directional itinerary made of one or more segments.
type Leg struct {
	Departure       Stop      `json:"departure"`
	Arrival         Stop      `json:"arrival"`
	DurationMinutes int       `json:"duration_minutes"`
	Stops           int       `json:"stops"`
	CabinClass      string    `json:"cabin_class,omitempty"`
	Segments        []Segment `json:"segments"`
}

// NormalizedOffer is the canonical shape every supplier response is mapped
// into. Identity is supplier-scoped: SupplierCode plus ReferenceID.
type NormalizedOffer struct {
	SupplierCode      string    `json:"supplier_code"`
	ReferenceID       string    `json:"reference_id"`
	Price             Price     `json:"price"`
	Legs              []Leg     `json:"legs"`
	ValidatingAirline Airline   `json:"validating_airline"`
	Refundable        bool      `json:"refundable"`
	SeatsAvailable    int       `json:"seats_available"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// FirstLeg returns the outbound leg, or nil for a malformed offer.
func (o *NormalizedOffer) FirstLeg() *Leg {
	if len(o.Legs) == 0 {
		return nil
	}
	return &o.Legs[0]
}

// FirstFlightNumber returns the flight number of the first segment of the
// first leg, or an empty string when either is missing.
func (o *NormalizedOffer) FirstFlightNumber() string {
	leg := o.FirstLeg()
	if leg == nil || len(leg.Segments) == 0 {
		return ""
	}
	return leg.Segments[0].FlightNumber
}
