package supplier

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farehub/cfg"
	"farehub/internal/offer"
	"farehub/pkg/logger"
)

type fakeSupplier struct {
	code      string
	available bool
	offers    []offer.NormalizedOffer
	searchErr error
}

func (f *fakeSupplier) SupplierCode() string { return f.code }
func (f *fakeSupplier) IsAvailable() bool    { return f.available }

func (f *fakeSupplier) Search(ctx context.Context, req offer.SearchRequest) ([]offer.NormalizedOffer, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.offers, nil
}

func (f *fakeSupplier) OfferDetails(ctx context.Context, referenceID string) (*offer.NormalizedOffer, error) {
	for i := range f.offers {
		if f.offers[i].ReferenceID == referenceID {
			return &f.offers[i], nil
		}
	}
	return nil, ErrOfferNotFound
}

type fakeStore struct {
	descs   []Descriptor
	listErr error
}

func (f *fakeStore) ListActive(ctx context.Context) ([]Descriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.descs, nil
}

func (f *fakeStore) GetByCode(ctx context.Context, code string) (*Descriptor, error) {
	for i := range f.descs {
		if f.descs[i].Code == code {
			return &f.descs[i], nil
		}
	}
	return nil, ErrDescriptorNotFound
}

func testLogger() logger.Client {
	return logger.NewWithWriter("production", io.Discard)
}

func countingFactory(code string, calls *int) Factory {
	return func(desc Descriptor) (Supplier, error) {
		*calls++
		return &fakeSupplier{code: code, available: true}, nil
	}
}

func TestDriver_ResolvesPersistedDescriptor(t *testing.T) {
	store := &fakeStore{descs: []Descriptor{
		{Code: "acme", Driver: "kestrel", Active: true, Healthy: true},
	}}
	reg := NewRegistry(store, nil, "acme", testLogger())

	var gotDesc Descriptor
	reg.RegisterDriver("kestrel", func(desc Descriptor) (Supplier, error) {
		gotDesc = desc
		return &fakeSupplier{code: desc.Code, available: true}, nil
	})

	s, err := reg.Driver(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", s.SupplierCode())
	assert.Equal(t, "kestrel", gotDesc.Driver)
}

func TestDriver_FallsBackToStaticConfig(t *testing.T) {
	static := map[string]cfg.SupplierConfig{
		"acme": {Driver: "kestrel", BaseURL: "http://kestrel.test"},
	}
	reg := NewRegistry(&fakeStore{}, static, "acme", testLogger())

	var gotDesc Descriptor
	reg.RegisterDriver("kestrel", func(desc Descriptor) (Supplier, error) {
		gotDesc = desc
		return &fakeSupplier{code: desc.Code, available: true}, nil
	})

	_, err := reg.Driver(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "http://kestrel.test", gotDesc.Config["base_url"])
}

func TestDriver_UnknownDriver(t *testing.T) {
	reg := NewRegistry(&fakeStore{}, nil, "nope", testLogger())

	_, err := reg.Driver(context.Background(), "nope")
	var udErr *UnsupportedDriverError
	require.ErrorAs(t, err, &udErr)
	assert.Equal(t, "nope", udErr.Driver)
}

func TestDriver_CachesInstances(t *testing.T) {
	reg := NewRegistry(&fakeStore{}, nil, "acme", testLogger())

	calls := 0
	reg.RegisterDriver("acme", countingFactory("acme", &calls))

	first, err := reg.Driver(context.Background(), "acme")
	require.NoError(t, err)
	second, err := reg.Driver(context.Background(), "acme")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	reg.ClearInstances()
	_, err = reg.Driver(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestExtend_WinsOverOtherSources(t *testing.T) {
	store := &fakeStore{descs: []Descriptor{
		{Code: "acme", Driver: "kestrel", Active: true, Healthy: true},
	}}
	reg := NewRegistry(store, nil, "acme", testLogger())
	reg.RegisterDriver("kestrel", func(desc Descriptor) (Supplier, error) {
		t.Fatal("factory should not be consulted when a resolver exists")
		return nil, nil
	})

	custom := &fakeSupplier{code: "custom", available: true}
	reg.Extend("acme", func(ctx context.Context) (Supplier, error) {
		return custom, nil
	})

	s, err := reg.Driver(context.Background(), "acme")
	require.NoError(t, err)
	assert.Same(t, custom, s)
}

func TestActiveSuppliers_SkipsUnresolvable(t *testing.T) {
	store := &fakeStore{descs: []Descriptor{
		{Code: "alpha", Driver: "good", Active: true, Healthy: true, Priority: 1},
		{Code: "broken", Driver: "missing", Active: true, Healthy: true, Priority: 2},
		{Code: "gamma", Driver: "good", Active: true, Healthy: true, Priority: 3},
	}}
	reg := NewRegistry(store, nil, "alpha", testLogger())
	reg.RegisterDriver("good", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: desc.Code, available: true}, nil
	})

	active, err := reg.ActiveSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alpha", active[0].SupplierCode())
	assert.Equal(t, "gamma", active[1].SupplierCode())
}

func TestActiveSuppliers_StaticFallbackFiltersAvailability(t *testing.T) {
	static := map[string]cfg.SupplierConfig{
		"ready":   {Driver: "ready"},
		"offline": {Driver: "offline"},
	}
	reg := NewRegistry(&fakeStore{}, static, "ready", testLogger())
	reg.RegisterDriver("ready", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: desc.Code, available: true}, nil
	})
	reg.RegisterDriver("offline", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: desc.Code, available: false}, nil
	})

	active, err := reg.ActiveSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ready", active[0].SupplierCode())
}

func TestActiveSuppliers_StoreErrorFallsBackToStatic(t *testing.T) {
	static := map[string]cfg.SupplierConfig{
		"ready": {Driver: "ready"},
	}
	store := &fakeStore{listErr: errors.New("db down")}
	reg := NewRegistry(store, static, "ready", testLogger())
	reg.RegisterDriver("ready", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: desc.Code, available: true}, nil
	})

	active, err := reg.ActiveSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestDriver_ConcurrentFirstAccess(t *testing.T) {
	reg := NewRegistry(&fakeStore{}, nil, "acme", testLogger())
	reg.RegisterDriver("acme", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: "acme", available: true}, nil
	})

	const goroutines = 16
	results := make([]Supplier, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Driver(context.Background(), "acme")
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i], "all callers must observe the same cached instance")
	}
}

func TestDefaultSupplier(t *testing.T) {
	reg := NewRegistry(&fakeStore{}, nil, "acme", testLogger())
	reg.RegisterDriver("acme", func(desc Descriptor) (Supplier, error) {
		return &fakeSupplier{code: "acme", available: true}, nil
	})

	s, err := reg.DefaultSupplier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme", s.SupplierCode())
}
