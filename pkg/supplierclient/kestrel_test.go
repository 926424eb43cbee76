package supplierclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farehub/internal/offer"
	"farehub/internal/supplier"
	"farehub/pkg/logger"
)

const kestrelSearchBody = `{
  "status": "ok",
  "offers": [
    {
      "offer_ref": "KES-001",
      "carrier": {"iata": "KD", "name": "Kestrel Air"},
      "fare": {"base": 120.5, "taxes": 29.5, "total": 150, "currency": "USD"},
      "refundable": true,
      "seats_left": 4,
      "valid_until": "2025-06-01T18:00:00Z",
      "journeys": [
        {
          "from": {"code": "CGK", "city": "Jakarta"},
          "to": {"code": "DPS", "city": "Denpasar"},
          "depart_at": "2025-06-01T10:00:00",
          "arrive_at": "2025-06-01T12:55:00",
          "duration_minutes": 115,
          "stops": 0,
          "cabin": "economy",
          "segments": [
            {
              "carrier": "KD",
              "carrier_name": "Kestrel Air",
              "flight_number": "KD101",
              "from": {"code": "CGK", "city": "Jakarta"},
              "to": {"code": "DPS", "city": "Denpasar"},
              "depart_at": "2025-06-01T10:00:00",
              "arrive_at": "2025-06-01T12:55:00",
              "duration_minutes": 115,
              "baggage": "20kg checked"
            }
          ]
        }
      ]
    }
  ]
}`

func newKestrel(baseURL string) *KestrelClient {
	desc := supplier.Descriptor{
		Code:   "kestrel",
		Driver: "kestrel",
		Config: map[string]string{"base_url": baseURL, "api_key": "test-key"},
	}
	return NewKestrelClient(http.DefaultClient, desc, logger.NewWithWriter("production", io.Discard))
}

func TestKestrelSearch_NormalizesOffers(t *testing.T) {
	var gotPath, gotKey string
	var gotReq offer.SearchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kestrelSearchBody))
	}))
	defer srv.Close()

	client := newKestrel(srv.URL)
	offers, err := client.Search(context.Background(), offer.SearchRequest{
		Origin:        "CGK",
		Destination:   "DPS",
		DepartureDate: "2025-06-01",
		TripType:      offer.TripOneWay,
		Adults:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, "/kestrel/v1/offers/search", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "CGK", gotReq.Origin)

	require.Len(t, offers, 1)
	o := offers[0]
	assert.Equal(t, "kestrel", o.SupplierCode)
	assert.Equal(t, "KES-001", o.ReferenceID)
	assert.Equal(t, 150.0, o.Price.Total)
	assert.Equal(t, "KD", o.ValidatingAirline.Code)
	assert.True(t, o.Refundable)
	require.Len(t, o.Legs, 1)
	assert.Equal(t, 115, o.Legs[0].DurationMinutes)
	require.Len(t, o.Legs[0].Segments, 1)
	assert.Equal(t, "KD101", o.Legs[0].Segments[0].FlightNumber)
}

func TestKestrelSearch_NoResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","offers":[]}`))
	}))
	defer srv.Close()

	offers, err := newKestrel(srv.URL).Search(context.Background(), offer.SearchRequest{Adults: 1})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestKestrelSearch_Non200IsSupplierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newKestrel(srv.URL).Search(context.Background(), offer.SearchRequest{Adults: 1})
	var supErr *supplier.SupplierError
	require.ErrorAs(t, err, &supErr)
	assert.Equal(t, "kestrel", supErr.Supplier)
}

func TestKestrelOfferDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newKestrel(srv.URL).OfferDetails(context.Background(), "KES-404")
	assert.ErrorIs(t, err, supplier.ErrOfferNotFound)
}

func TestKestrelIsAvailable(t *testing.T) {
	assert.True(t, newKestrel("http://kestrel.test").IsAvailable())
	assert.False(t, newKestrel("").IsAvailable())
}
