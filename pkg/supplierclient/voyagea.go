package supplierclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"farehub/internal/offer"
	"farehub/internal/supplier"
	"farehub/pkg/logger"
)

// VoyageaClient talks to the Voyagea GDS. Voyagea authenticates with an
// OAuth2 client-credentials token and takes search parameters as a query
// string. Token refresh is handled by the oauth2 transport.
type VoyageaClient struct {
	httpClient *http.Client
	code       string
	baseURL    string
	clientID   string
	secret     string
	logger     logger.Client
}

func NewVoyageaClient(desc supplier.Descriptor, log logger.Client) *VoyageaClient {
	conf := &clientcredentials.Config{
		ClientID:     desc.Config["client_id"],
		ClientSecret: desc.Config["client_secret"],
		TokenURL:     desc.Config["token_url"],
	}
	return &VoyageaClient{
		httpClient: conf.Client(context.Background()),
		code:       desc.Code,
		baseURL:    desc.Config["base_url"],
		clientID:   conf.ClientID,
		secret:     conf.ClientSecret,
		logger:     log,
	}
}

func (v *VoyageaClient) SupplierCode() string {
	return v.code
}

func (v *VoyageaClient) IsAvailable() bool {
	return v.baseURL != "" && v.clientID != "" && v.secret != ""
}

type voyageaSearchResponse struct {
	Data []voyageaOffer `json:"data"`
}

type voyageaOffer struct {
	ID                string             `json:"id"`
	Price             voyageaPrice       `json:"price"`
	ValidatingCarrier string             `json:"validating_carrier"`
	CarrierName       string             `json:"carrier_name"`
	Refundable        bool               `json:"refundable"`
	BookableSeats     int                `json:"bookable_seats"`
	ExpiresAt         FlexibleTime       `json:"expires_at"`
	Itineraries       []voyageaItinerary `json:"itineraries"`
}

type voyageaPrice struct {
	Base       string `json:"base"`
	Taxes      string `json:"taxes"`
	GrandTotal string `json:"grand_total"`
	Currency   string `json:"currency"`
}

type voyageaItinerary struct {
	Duration string           `json:"duration"` // ISO8601, e.g. PT2H10M
	Cabin    string           `json:"cabin"`
	Segments []voyageaSegment `json:"segments"`
}

type voyageaSegment struct {
	CarrierCode string       `json:"carrier_code"`
	Number      string       `json:"number"`
	Departure   voyageaPoint `json:"departure"`
	Arrival     voyageaPoint `json:"arrival"`
	Duration    string       `json:"duration"`
}

type voyageaPoint struct {
	IATACode string       `json:"iata_code"`
	City     string       `json:"city"`
	At       FlexibleTime `json:"at"`
}

func (v *VoyageaClient) Search(ctx context.Context, req offer.SearchRequest) ([]offer.NormalizedOffer, error) {
	q := url.Values{}
	q.Set("origin", req.Origin)
	q.Set("destination", req.Destination)
	q.Set("departure_date", req.DepartureDate)
	if req.ReturnDate != "" {
		q.Set("return_date", req.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(req.Adults))
	if req.Children > 0 {
		q.Set("children", strconv.Itoa(req.Children))
	}
	if req.Infants > 0 {
		q.Set("infants", strconv.Itoa(req.Infants))
	}
	if req.CabinClass != "" {
		q.Set("cabin", req.CabinClass)
	}

	u := fmt.Sprintf("%s/v1/offers?%s", v.baseURL, q.Encode())
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := v.httpClient.Do(r)
	if err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("external api call failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("external api returned non-200 status: %d", resp.StatusCode))
	}

	var payload voyageaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("failed to decode json response: %w", err))
	}

	return v.normalize(payload.Data), nil
}

func (v *VoyageaClient) OfferDetails(ctx context.Context, referenceID string) (*offer.NormalizedOffer, error) {
	u := fmt.Sprintf("%s/v1/offers/%s", v.baseURL, url.PathEscape(referenceID))
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := v.httpClient.Do(r)
	if err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("external api call failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, supplier.ErrOfferNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("external api returned non-200 status: %d", resp.StatusCode))
	}

	var raw voyageaOffer
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, supplier.NewSupplierError(v.code, fmt.Errorf("failed to decode json response: %w", err))
	}

	normalized := v.normalizeOffer(raw)
	return &normalized, nil
}

func (v *VoyageaClient) normalize(raw []voyageaOffer) []offer.NormalizedOffer {
	mapped := make([]offer.NormalizedOffer, 0, len(raw))
	for _, vo := range raw {
		mapped = append(mapped, v.normalizeOffer(vo))
	}
	return mapped
}

func (v *VoyageaClient) normalizeOffer(vo voyageaOffer) offer.NormalizedOffer {
	base, _ := strconv.ParseFloat(vo.Price.Base, 64)
	taxes, _ := strconv.ParseFloat(vo.Price.Taxes, 64)
	total, _ := strconv.ParseFloat(vo.Price.GrandTotal, 64)

	legs := make([]offer.Leg, 0, len(vo.Itineraries))
	for _, it := range vo.Itineraries {
		if len(it.Segments) == 0 {
			continue
		}

		segments := make([]offer.Segment, 0, len(it.Segments))
		for _, s := range it.Segments {
			segments = append(segments, offer.Segment{
				Airline:      offer.Airline{Code: s.CarrierCode},
				FlightNumber: s.CarrierCode + s.Number,
				Departure: offer.Stop{
					Airport: s.Departure.IATACode,
					City:    s.Departure.City,
					Time:    s.Departure.At.Time,
				},
				Arrival: offer.Stop{
					Airport: s.Arrival.IATACode,
					City:    s.Arrival.City,
					Time:    s.Arrival.At.Time,
				},
				DurationMinutes: parseISODurationMinutes(s.Duration),
			})
		}

		first := segments[0]
		last := segments[len(segments)-1]
		legs = append(legs, offer.Leg{
			Departure:       first.Departure,
			Arrival:         last.Arrival,
			DurationMinutes: parseISODurationMinutes(it.Duration),
			Stops:           len(segments) - 1,
			CabinClass:      it.Cabin,
			Segments:        segments,
		})
	}

	return offer.NormalizedOffer{
		SupplierCode: v.code,
		ReferenceID:  vo.ID,
		Price: offer.Price{
			BaseFare: base,
			Taxes:    taxes,
			Total:    total,
			Currency: vo.Price.Currency,
		},
		Legs:              legs,
		ValidatingAirline: offer.Airline{Code: vo.ValidatingCarrier, Name: vo.CarrierName},
		Refundable:        vo.Refundable,
		SeatsAvailable:    vo.BookableSeats,
		ExpiresAt:         vo.ExpiresAt.Time,
	}
}

// parseISODurationMinutes handles the small subset Voyagea emits, e.g.
// PT2H10M or PT150M.
func parseISODurationMinutes(s string) int {
	s = strings.TrimPrefix(s, "PT")
	total := 0
	var num strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num.WriteRune(r)
			continue
		}
		v, _ := strconv.Atoi(num.String())
		num.Reset()
		switch r {
		case 'H':
			total += v * 60
		case 'M':
			total += v
		}
	}
	return total
}
