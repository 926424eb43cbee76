package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"farehub/cfg"
	"farehub/internal/offer"
	"farehub/internal/supplier"
	"farehub/pkg/cache"
	"farehub/pkg/idgen"
	"farehub/pkg/logger"
)

// SupplierSource is the slice of the registry the orchestrator needs.
type SupplierSource interface {
	ActiveSuppliers(ctx context.Context) ([]supplier.Supplier, error)
	Driver(ctx context.Context, name string) (supplier.Supplier, error)
}

// SupplierFailure attributes one failed supplier call in the metadata.
type SupplierFailure struct {
	Supplier string `json:"supplier"`
	Reason   string `json:"reason"`
}

type Metadata struct {
	TotalResults       int               `json:"total_results"`
	SuppliersQueried   int               `json:"suppliers_queried"`
	SuppliersSucceeded int               `json:"suppliers_succeeded"`
	SuppliersFailed    int               `json:"suppliers_failed"`
	SupplierErrors     []SupplierFailure `json:"supplier_errors,omitempty"`
	SearchTimeMs       int64             `json:"search_time_ms"`
	CacheHit           bool              `json:"cache_hit"`
	CacheKey           string            `json:"cache_key,omitempty"`
}

type SearchResponse struct {
	SearchID string                  `json:"search_id"`
	Metadata Metadata                `json:"metadata"`
	Offers   []offer.NormalizedOffer `json:"offers"`
}

// Service fans a search out to every active supplier and merges the results
// into one ranked set.
type Service struct {
	suppliers       SupplierSource
	cache           cache.Cache
	ids             idgen.Generator
	parallel        bool
	supplierTimeout time.Duration
	merge           cfg.MergeConfig
	ttl             time.Duration
	logger          logger.Client
}

func NewService(suppliers SupplierSource, cache cache.Cache, ids idgen.Generator, config *cfg.Config, log logger.Client) *Service {
	return &Service{
		suppliers:       suppliers,
		cache:           cache,
		ids:             ids,
		parallel:        config.ParallelSearch,
		supplierTimeout: config.SupplierTimeout,
		merge:           config.Merge,
		ttl:             time.Duration(config.CacheTTLMinutes) * time.Minute,
		logger:          log,
	}
}

// generateCacheKey derives a deterministic key from the full request,
// multi-city legs included.
func (s *Service) generateCacheKey(req offer.SearchRequest) string {
	raw, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("offers:search:%x", hash[:16])
}

// Search runs the aggregate search. Individual supplier failures are logged
// and excluded; they never surface to the caller. An empty supplier set is a
// configuration state, not a request failure.
func (s *Service) Search(ctx context.Context, req offer.SearchRequest) (*SearchResponse, error) {
	cacheKey := s.generateCacheKey(req)

	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	startTime := time.Now()

	suppliers, err := s.suppliers.ActiveSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active suppliers: %w", err)
	}

	response := &SearchResponse{
		SearchID: strconv.FormatInt(s.ids.GenerateID(), 10),
		Offers:   []offer.NormalizedOffer{},
	}
	response.Metadata.SuppliersQueried = len(suppliers)
	response.Metadata.CacheKey = cacheKey

	if len(suppliers) == 0 {
		s.logger.Warn("no active suppliers configured",
			logger.Field{Key: "search_id", Value: response.SearchID})
		return response, nil
	}

	var results []supplierResult
	if s.parallel && len(suppliers) > 1 {
		results = s.fanOut(ctx, suppliers, req)
	} else {
		results = s.sequential(ctx, suppliers, req)
	}

	var all []offer.NormalizedOffer
	for _, r := range results {
		if r.err != nil {
			response.Metadata.SuppliersFailed++
			response.Metadata.SupplierErrors = append(response.Metadata.SupplierErrors,
				SupplierFailure{Supplier: r.supplier, Reason: r.err.Error()})
			continue
		}
		response.Metadata.SuppliersSucceeded++
		all = append(all, s.dropMalformed(r.supplier, r.offers)...)
	}

	response.Offers = mergeResults(all, s.merge)
	response.Metadata.TotalResults = len(response.Offers)
	response.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()

	s.toCache(ctx, cacheKey, response)
	return response, nil
}

// SearchSupplier queries one named supplier. A failing search degrades to an
// empty result like a single fan-out arm; an unresolvable name propagates,
// since the caller asked for that supplier specifically.
func (s *Service) SearchSupplier(ctx context.Context, code string, req offer.SearchRequest) ([]offer.NormalizedOffer, error) {
	sup, err := s.suppliers.Driver(ctx, code)
	if err != nil {
		return nil, err
	}

	result := s.searchOne(ctx, sup, req)
	if result.err != nil {
		return []offer.NormalizedOffer{}, nil
	}
	return s.dropMalformed(code, result.offers), nil
}

// OfferDetails fetches full detail for a previously returned offer.
func (s *Service) OfferDetails(ctx context.Context, code, referenceID string) (*offer.NormalizedOffer, error) {
	sup, err := s.suppliers.Driver(ctx, code)
	if err != nil {
		return nil, err
	}
	return sup.OfferDetails(ctx, referenceID)
}

// ActiveSupplierCodes lists the codes of currently usable suppliers.
func (s *Service) ActiveSupplierCodes(ctx context.Context) ([]string, error) {
	suppliers, err := s.suppliers.ActiveSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(suppliers))
	for _, sup := range suppliers {
		codes = append(codes, sup.SupplierCode())
	}
	return codes, nil
}

type supplierResult struct {
	supplier string
	offers   []offer.NormalizedOffer
	err      error
}

// fanOut queries every supplier concurrently. Each goroutine writes its own
// result slot, so no lock is held while calls are in flight; a slow or
// failing supplier only affects its own slot.
func (s *Service) fanOut(ctx context.Context, suppliers []supplier.Supplier, req offer.SearchRequest) []supplierResult {
	results := make([]supplierResult, len(suppliers))

	var g errgroup.Group
	for i, sup := range suppliers {
		g.Go(func() error {
			results[i] = s.searchOne(ctx, sup, req)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) sequential(ctx context.Context, suppliers []supplier.Supplier, req offer.SearchRequest) []supplierResult {
	results := make([]supplierResult, len(suppliers))
	for i, sup := range suppliers {
		results[i] = s.searchOne(ctx, sup, req)
	}
	return results
}

// searchOne is one isolated supplier call with its own timeout. A timeout is
// treated like any other supplier failure.
func (s *Service) searchOne(ctx context.Context, sup supplier.Supplier, req offer.SearchRequest) supplierResult {
	callCtx := ctx
	if s.supplierTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.supplierTimeout)
		defer cancel()
	}

	offers, err := sup.Search(callCtx, req)
	if err != nil {
		s.logger.Error("supplier search failed",
			logger.Field{Key: "supplier", Value: sup.SupplierCode()},
			logger.Field{Key: "err", Value: err})
		return supplierResult{supplier: sup.SupplierCode(), err: err}
	}
	return supplierResult{supplier: sup.SupplierCode(), offers: offers}
}

// dropMalformed rejects offers without legs. They violate the adapter
// contract and would poison dedup and sort keys downstream.
func (s *Service) dropMalformed(supplierCode string, offers []offer.NormalizedOffer) []offer.NormalizedOffer {
	valid := offers[:0:0]
	for i := range offers {
		if len(offers[i].Legs) == 0 {
			s.logger.Warn("rejecting offer without legs",
				logger.Field{Key: "supplier", Value: supplierCode},
				logger.Field{Key: "reference_id", Value: offers[i].ReferenceID})
			continue
		}
		valid = append(valid, offers[i])
	}
	return valid
}

func (s *Service) fromCache(ctx context.Context, key string) *SearchResponse {
	if key == "" {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil || cached == "" {
		return nil
	}

	var response SearchResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		s.logger.Error("failed to unmarshal cached response",
			logger.Field{Key: "cache_key", Value: key},
			logger.Field{Key: "err", Value: err})
		return nil
	}
	response.Metadata.CacheHit = true
	response.Metadata.CacheKey = key
	return &response
}

func (s *Service) toCache(ctx context.Context, key string, response *SearchResponse) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response for caching",
			logger.Field{Key: "err", Value: err})
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Error("failed to cache response",
			logger.Field{Key: "cache_key", Value: key},
			logger.Field{Key: "err", Value: err})
	}
}
