package supplierclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"farehub/internal/offer"
	"farehub/internal/supplier"
	"farehub/pkg/logger"
)

// KestrelClient talks to the Kestrel Air distribution API. Kestrel takes the
// search request as a JSON POST body and keys requests with an API key
// header.
type KestrelClient struct {
	httpClient *http.Client
	code       string
	baseURL    string
	apiKey     string
	logger     logger.Client
}

func NewKestrelClient(httpClient *http.Client, desc supplier.Descriptor, log logger.Client) *KestrelClient {
	return &KestrelClient{
		httpClient: httpClient,
		code:       desc.Code,
		baseURL:    desc.Config["base_url"],
		apiKey:     desc.Config["api_key"],
		logger:     log,
	}
}

func (k *KestrelClient) SupplierCode() string {
	return k.code
}

func (k *KestrelClient) IsAvailable() bool {
	return k.baseURL != ""
}

type kestrelSearchResponse struct {
	Status string         `json:"status"`
	Offers []kestrelOffer `json:"offers"`
}

type kestrelOffer struct {
	OfferRef   string           `json:"offer_ref"`
	Carrier    kestrelCarrier   `json:"carrier"`
	Fare       kestrelFare      `json:"fare"`
	Refundable bool             `json:"refundable"`
	SeatsLeft  int              `json:"seats_left"`
	ValidUntil FlexibleTime     `json:"valid_until"`
	Journeys   []kestrelJourney `json:"journeys"`
}

type kestrelCarrier struct {
	IATA string `json:"iata"`
	Name string `json:"name"`
}

type kestrelFare struct {
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

type kestrelPoint struct {
	Code string `json:"code"`
	City string `json:"city"`
}

type kestrelJourney struct {
	From            kestrelPoint     `json:"from"`
	To              kestrelPoint     `json:"to"`
	DepartAt        FlexibleTime     `json:"depart_at"`
	ArriveAt        FlexibleTime     `json:"arrive_at"`
	DurationMinutes int              `json:"duration_minutes"`
	Stops           int              `json:"stops"`
	Cabin           string           `json:"cabin"`
	Segments        []kestrelSegment `json:"segments"`
}

type kestrelSegment struct {
	Carrier         string       `json:"carrier"`
	CarrierName     string       `json:"carrier_name"`
	FlightNumber    string       `json:"flight_number"`
	From            kestrelPoint `json:"from"`
	To              kestrelPoint `json:"to"`
	DepartAt        FlexibleTime `json:"depart_at"`
	ArriveAt        FlexibleTime `json:"arrive_at"`
	DurationMinutes int          `json:"duration_minutes"`
	Baggage         string       `json:"baggage"`
}

func (k *KestrelClient) Search(ctx context.Context, req offer.SearchRequest) ([]offer.NormalizedOffer, error) {
	url := fmt.Sprintf("%s/kestrel/v1/offers/search", k.baseURL)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("failed to marshal request: %w", err))
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("failed to build request: %w", err))
	}
	r.Header.Set("Content-Type", "application/json")
	if k.apiKey != "" {
		r.Header.Set("X-Api-Key", k.apiKey)
	}

	resp, err := k.httpClient.Do(r)
	if err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("external api call failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("external api returned non-200 status: %d", resp.StatusCode))
	}

	var apiResp kestrelSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("failed to decode json response: %w", err))
	}

	return k.normalize(apiResp.Offers), nil
}

func (k *KestrelClient) OfferDetails(ctx context.Context, referenceID string) (*offer.NormalizedOffer, error) {
	url := fmt.Sprintf("%s/kestrel/v1/offers/%s", k.baseURL, referenceID)

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("failed to build request: %w", err))
	}
	if k.apiKey != "" {
		r.Header.Set("X-Api-Key", k.apiKey)
	}

	resp, err := k.httpClient.Do(r)
	if err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("external api call failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, supplier.ErrOfferNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("external api returned non-200 status: %d", resp.StatusCode))
	}

	var raw kestrelOffer
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, supplier.NewSupplierError(k.code, fmt.Errorf("failed to decode json response: %w", err))
	}

	normalized := k.normalizeOffer(raw)
	return &normalized, nil
}

func (k *KestrelClient) normalize(raw []kestrelOffer) []offer.NormalizedOffer {
	mapped := make([]offer.NormalizedOffer, 0, len(raw))
	for _, ko := range raw {
		mapped = append(mapped, k.normalizeOffer(ko))
	}
	return mapped
}

func (k *KestrelClient) normalizeOffer(ko kestrelOffer) offer.NormalizedOffer {
	legs := make([]offer.Leg, 0, len(ko.Journeys))
	for _, j := range ko.Journeys {
		segments := make([]offer.Segment, 0, len(j.Segments))
		for _, s := range j.Segments {
			segments = append(segments, offer.Segment{
				Airline:      offer.Airline{Code: s.Carrier, Name: s.CarrierName},
				FlightNumber: s.FlightNumber,
				Departure: offer.Stop{
					Airport: s.From.Code,
					City:    s.From.City,
					Time:    s.DepartAt.Time,
				},
				Arrival: offer.Stop{
					Airport: s.To.Code,
					City:    s.To.City,
					Time:    s.ArriveAt.Time,
				},
				DurationMinutes: s.DurationMinutes,
				Baggage:         s.Baggage,
			})
		}

		legs = append(legs, offer.Leg{
			Departure: offer.Stop{
				Airport: j.From.Code,
				City:    j.From.City,
				Time:    j.DepartAt.Time,
			},
			Arrival: offer.Stop{
				Airport: j.To.Code,
				City:    j.To.City,
				Time:    j.ArriveAt.Time,
			},
			DurationMinutes: j.DurationMinutes,
			Stops:           j.Stops,
			CabinClass:      j.Cabin,
			Segments:        segments,
		})
	}

	return offer.NormalizedOffer{
		SupplierCode: k.code,
		ReferenceID:  ko.OfferRef,
		Price: offer.Price{
			BaseFare: ko.Fare.Base,
			Taxes:    ko.Fare.Taxes,
			Total:    ko.Fare.Total,
			Currency: ko.Fare.Currency,
		},
		Legs:              legs,
		ValidatingAirline: offer.Airline{Code: ko.Carrier.IATA, Name: ko.Carrier.Name},
		Refundable:        ko.Refundable,
		SeatsAvailable:    ko.SeatsLeft,
		ExpiresAt:         ko.ValidUntil.Time,
	}
}
