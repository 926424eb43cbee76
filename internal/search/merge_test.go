package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farehub/cfg"
	"farehub/internal/offer"
)

func mkOffer(supplierCode, ref string, total float64, airline, flightNumber, departAt string) offer.NormalizedOffer {
	dep, _ := time.Parse("2006-01-02T15:04:05", departAt)
	arr := dep.Add(2 * time.Hour)
	return offer.NormalizedOffer{
		SupplierCode: supplierCode,
		ReferenceID:  ref,
		Price:        offer.Price{Total: total, Currency: "USD"},
		Legs: []offer.Leg{{
			Departure:       offer.Stop{Airport: "CGK", Time: dep},
			Arrival:         offer.Stop{Airport: "DPS", Time: arr},
			DurationMinutes: 120,
			Segments: []offer.Segment{{
				Airline:      offer.Airline{Code: airline},
				FlightNumber: flightNumber,
				Departure:    offer.Stop{Airport: "CGK", Time: dep},
				Arrival:      offer.Stop{Airport: "DPS", Time: arr},
			}},
		}},
		ValidatingAirline: offer.Airline{Code: airline},
	}
}

func defaultMerge() cfg.MergeConfig {
	return cfg.MergeConfig{
		Deduplicate:   true,
		SortBy:        "price",
		SortDirection: "asc",
		MaxResults:    100,
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("b", "2", 280, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("a", "3", 150, "BA", "BA200", "2025-06-01T12:00:00"),
	}

	once := deduplicate(offers)
	twice := deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_CollapsesSameItinerary(t *testing.T) {
	// Same route, departure second, airline and flight number; different
	// supplier, reference and price.
	offers := []offer.NormalizedOffer{
		mkOffer("a", "ref-1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("b", "ref-2", 250, "AA", "AA100", "2025-06-01T10:00:00"),
	}

	out := deduplicate(offers)
	require.Len(t, out, 1)
	// First in input order wins.
	assert.Equal(t, "ref-1", out[0].ReferenceID)
	assert.Equal(t, 300.0, out[0].Price.Total)
}

func TestDeduplicate_ZeroLegFallsBackToIdentity(t *testing.T) {
	offers := []offer.NormalizedOffer{
		{SupplierCode: "a", ReferenceID: "x"},
		{SupplierCode: "a", ReferenceID: "y"},
		{SupplierCode: "a", ReferenceID: "x"},
	}

	out := deduplicate(offers)
	assert.Len(t, out, 2)
}

func TestSortOffers_DirectionFlip(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("b", "2", 150, "BA", "BA200", "2025-06-01T14:00:00"),
		mkOffer("c", "3", 220, "CA", "CA300", "2025-06-01T08:00:00"),
	}
	offers[0].Legs[0].DurationMinutes = 90
	offers[1].Legs[0].DurationMinutes = 200
	offers[2].Legs[0].DurationMinutes = 140
	offers[0].Legs[0].Stops = 2
	offers[1].Legs[0].Stops = 0
	offers[2].Legs[0].Stops = 1

	for _, key := range []string{"price", "duration", "departure", "arrival", "stops"} {
		asc := sortOffers(offers, key, "asc")
		desc := sortOffers(offers, key, "desc")

		reversed := make([]offer.NormalizedOffer, len(asc))
		for i := range asc {
			reversed[len(asc)-1-i] = asc[i]
		}
		assert.Equal(t, desc, reversed, "key %s", key)
	}
}

func TestSortOffers_UnknownKeyFallsBackToPrice(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("b", "2", 150, "BA", "BA200", "2025-06-01T14:00:00"),
	}

	out := sortOffers(offers, "bogus", "asc")
	assert.Equal(t, 150.0, out[0].Price.Total)
}

func TestSortOffers_MissingLegsSortAsZero(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		{SupplierCode: "b", ReferenceID: "legless", Price: offer.Price{Total: 100}},
	}

	out := sortOffers(offers, "duration", "asc")
	assert.Equal(t, "legless", out[0].ReferenceID)
}

func TestLimitResults_Boundary(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 100, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("a", "2", 200, "AA", "AA101", "2025-06-01T11:00:00"),
		mkOffer("a", "3", 300, "AA", "AA102", "2025-06-01T12:00:00"),
	}

	assert.Len(t, limitResults(offers, 2), 2)
	assert.Len(t, limitResults(offers, 3), 3)
	assert.Len(t, limitResults(offers, 10), 3)
	assert.Empty(t, limitResults(offers, 0))
}

func TestMergeResults_Pipeline(t *testing.T) {
	mc := defaultMerge()
	mc.MaxResults = 2

	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 300, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("b", "2", 280, "AA", "AA100", "2025-06-01T10:00:00"), // dup of 1
		mkOffer("c", "3", 150, "BA", "BA200", "2025-06-01T12:00:00"),
		mkOffer("d", "4", 500, "CA", "CA300", "2025-06-01T13:00:00"),
	}

	out := mergeResults(offers, mc)
	require.Len(t, out, 2)
	assert.Equal(t, 150.0, out[0].Price.Total)
	assert.Equal(t, 300.0, out[1].Price.Total)
}

func TestFilterResults_Composition(t *testing.T) {
	offers := []offer.NormalizedOffer{
		mkOffer("a", "1", 100, "AA", "AA100", "2025-06-01T10:00:00"),
		mkOffer("a", "2", 250, "BA", "BA200", "2025-06-01T11:00:00"),
		mkOffer("a", "3", 400, "CA", "CA300", "2025-06-01T12:00:00"),
	}

	minPrice, maxPrice := 150.0, 300.0
	out := FilterResults(offers, Filters{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.Len(t, out, 1)
	assert.Equal(t, 250.0, out[0].Price.Total)
}

func TestFilterResults_IndividualKeys(t *testing.T) {
	refundable := mkOffer("a", "1", 100, "AA", "AA100", "2025-06-01T10:00:00")
	refundable.Refundable = true
	direct := mkOffer("a", "2", 200, "BA", "BA200", "2025-06-01T11:00:00")
	twoStops := mkOffer("a", "3", 300, "AA", "AA300", "2025-06-01T12:00:00")
	twoStops.Legs[0].Stops = 2

	offers := []offer.NormalizedOffer{refundable, direct, twoStops}

	airline := "aa"
	byAirline := FilterResults(offers, Filters{AirlineCode: &airline})
	assert.Len(t, byAirline, 2, "airline match is case-insensitive")

	maxStops := 0
	byStops := FilterResults(offers, Filters{MaxStops: &maxStops})
	assert.Len(t, byStops, 2)

	wantRefundable := true
	byRefund := FilterResults(offers, Filters{Refundable: &wantRefundable})
	require.Len(t, byRefund, 1)
	assert.Equal(t, "1", byRefund[0].ReferenceID)

	// No filters set: everything passes.
	assert.Len(t, FilterResults(offers, Filters{}), 3)
}
