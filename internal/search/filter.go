package search

import (
	"strings"

	"farehub/internal/offer"
)

// Filters are the caller-applied post-search criteria. Every field is
// optional; set fields compose with logical AND.
type Filters struct {
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	AirlineCode *string  `json:"airline_code,omitempty"`
	MaxStops    *int     `json:"max_stops,omitempty"`
	Refundable  *bool    `json:"refundable,omitempty"`
}

// FilterResults narrows an already-merged result set. It is independent of
// the dedupe/sort/limit pipeline and never re-orders offers.
func FilterResults(offers []offer.NormalizedOffer, filters Filters) []offer.NormalizedOffer {
	out := make([]offer.NormalizedOffer, 0, len(offers))
	for i := range offers {
		if matchesFilters(&offers[i], filters) {
			out = append(out, offers[i])
		}
	}
	return out
}

func matchesFilters(o *offer.NormalizedOffer, filters Filters) bool {
	if filters.MinPrice != nil && o.Price.Total < *filters.MinPrice {
		return false
	}
	if filters.MaxPrice != nil && o.Price.Total > *filters.MaxPrice {
		return false
	}
	if filters.AirlineCode != nil && !strings.EqualFold(o.ValidatingAirline.Code, *filters.AirlineCode) {
		return false
	}
	if filters.MaxStops != nil {
		leg := o.FirstLeg()
		if leg == nil || leg.Stops > *filters.MaxStops {
			return false
		}
	}
	if filters.Refundable != nil && o.Refundable != *filters.Refundable {
		return false
	}
	return true
}
