package search

import (
	"sort"
	"strconv"
	"strings"

	"farehub/cfg"
	"farehub/internal/offer"
)

// mergeResults applies the fixed pipeline to the combined supplier output:
// dedupe, then sort, then limit. Supplier completion order never survives
// this stage, so the observable ordering is reproducible.
func mergeResults(offers []offer.NormalizedOffer, mc cfg.MergeConfig) []offer.NormalizedOffer {
	out := offers
	if mc.Deduplicate {
		out = deduplicate(out)
	}
	out = sortOffers(out, mc.SortBy, mc.SortDirection)
	return limitResults(out, mc.MaxResults)
}

// fingerprint identifies an itinerary independent of the supplier that sold
// it: route, departure second, validating airline and first flight number.
func fingerprint(o *offer.NormalizedOffer) string {
	leg := o.FirstLeg()
	if leg == nil {
		// Malformed offers should not reach this point, but a missing leg
		// must never crash the pipeline.
		return o.SupplierCode + ":" + o.ReferenceID
	}
	return strings.Join([]string{
		leg.Departure.Airport,
		leg.Arrival.Airport,
		strconv.FormatInt(leg.Departure.Time.Unix(), 10),
		o.ValidatingAirline.Code,
		o.FirstFlightNumber(),
	}, "|")
}

// deduplicate keeps the first offer seen per fingerprint, in input order.
func deduplicate(offers []offer.NormalizedOffer) []offer.NormalizedOffer {
	seen := make(map[string]struct{}, len(offers))
	out := make([]offer.NormalizedOffer, 0, len(offers))
	for i := range offers {
		fp := fingerprint(&offers[i])
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, offers[i])
	}
	return out
}

func sortOffers(offers []offer.NormalizedOffer, sortBy, direction string) []offer.NormalizedOffer {
	if len(offers) == 0 {
		return offers
	}

	sorted := make([]offer.NormalizedOffer, len(offers))
	copy(sorted, offers)

	key := sortKey(sortBy)
	ascending := strings.ToLower(direction) != "desc"

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(&sorted[i]), key(&sorted[j])
		if ascending {
			return a < b
		}
		return a > b
	})

	return sorted
}

// sortKey maps a configured sort name to a numeric key. Offers without legs
// yield the zero key rather than crashing. Unknown names fall back to price.
func sortKey(sortBy string) func(*offer.NormalizedOffer) float64 {
	switch strings.ToLower(sortBy) {
	case "duration":
		return func(o *offer.NormalizedOffer) float64 {
			if leg := o.FirstLeg(); leg != nil {
				return float64(leg.DurationMinutes)
			}
			return 0
		}
	case "departure":
		return func(o *offer.NormalizedOffer) float64 {
			if leg := o.FirstLeg(); leg != nil {
				return float64(leg.Departure.Time.Unix())
			}
			return 0
		}
	case "arrival":
		return func(o *offer.NormalizedOffer) float64 {
			if leg := o.FirstLeg(); leg != nil {
				return float64(leg.Arrival.Time.Unix())
			}
			return 0
		}
	case "stops":
		return func(o *offer.NormalizedOffer) float64 {
			if leg := o.FirstLeg(); leg != nil {
				return float64(leg.Stops)
			}
			return 0
		}
	default:
		return func(o *offer.NormalizedOffer) float64 {
			return o.Price.Total
		}
	}
}

func limitResults(offers []offer.NormalizedOffer, max int) []offer.NormalizedOffer {
	if max <= 0 {
		return []offer.NormalizedOffer{}
	}
	if len(offers) <= max {
		return offers
	}
	return offers[:max]
}
