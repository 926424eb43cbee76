package supplier

import (
	"context"
	"errors"

	"farehub/internal/offer"
)

// ErrOfferNotFound is returned by OfferDetails when the reference id is
// unknown to the supplier.
var ErrOfferNotFound = errors.New("offer not found")

// Supplier is the capability contract every flight-data adapter satisfies.
// New providers are added by implementing it, never by touching the search
// orchestrator.
type Supplier interface {
	// SupplierCode is the stable identifier used in logs, dedup keys and
	// error attribution.
	SupplierCode() string

	// IsAvailable is a cheap, side-effect-free readiness check, e.g.
	// credentials present. Used when falling back to static configuration.
	IsAvailable() bool

	// Search performs the provider call and returns normalized offers.
	// "No results" is an empty slice, not an error.
	Search(ctx context.Context, req offer.SearchRequest) ([]offer.NormalizedOffer, error)

	// OfferDetails fetches full detail for a previously returned offer
	// reference, for booking continuation.
	OfferDetails(ctx context.Context, referenceID string) (*offer.NormalizedOffer, error)
}

// SupplierError wraps a transport, auth or parse failure from one adapter.
type SupplierError struct {
	Supplier string
	Err      error
}

func (e *SupplierError) Error() string {
	return e.Supplier + ": " + e.Err.Error()
}

func (e *SupplierError) Unwrap() error {
	return e.Err
}

func NewSupplierError(supplier string, err error) *SupplierError {
	return &SupplierError{Supplier: supplier, Err: err}
}

// UnsupportedDriverError is returned when a named driver has no registered
// implementation.
type UnsupportedDriverError struct {
	Driver string
}

func (e *UnsupportedDriverError) Error() string {
	return "unsupported supplier driver: " + e.Driver
}
