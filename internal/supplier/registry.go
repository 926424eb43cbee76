package supplier

import (
	"context"
	"errors"
	"sort"
	"sync"

	"farehub/cfg"
	"farehub/pkg/logger"
)

// Factory builds a Supplier from a descriptor. Factories are registered per
// driver name at startup, so an unknown name fails fast instead of surfacing
// as a runtime lookup miss deep in a search.
type Factory func(desc Descriptor) (Supplier, error)

// Resolver is a custom resolution hook registered with Extend. It is
// consulted before the persisted store and the static configuration.
type Resolver func(ctx context.Context) (Supplier, error)

// Registry resolves supplier names to adapter instances. Resolution order is
// custom resolver, then persisted descriptor, then static configuration.
// Resolved instances are cached for the lifetime of the registry.
type Registry struct {
	store       Store
	static      map[string]cfg.SupplierConfig
	defaultName string
	log         logger.Client

	mu        sync.Mutex
	drivers   map[string]Factory
	resolvers map[string]Resolver
	instances map[string]Supplier
}

func NewRegistry(store Store, static map[string]cfg.SupplierConfig, defaultName string, log logger.Client) *Registry {
	return &Registry{
		store:       store,
		static:      static,
		defaultName: defaultName,
		log:         log,
		drivers:     make(map[string]Factory),
		resolvers:   make(map[string]Resolver),
		instances:   make(map[string]Supplier),
	}
}

// RegisterDriver adds a named driver implementation.
func (r *Registry) RegisterDriver(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[name] = factory
}

// Extend registers a custom resolver for name, checked before any other
// resolution path. Intended for tests and custom wiring.
func (r *Registry) Extend(name string, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = resolver
}

// ClearInstances drops the instance cache. The next Driver call re-resolves.
// May race benignly with in-flight resolutions; a concurrent search at worst
// re-resolves once more.
func (r *Registry) ClearInstances() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]Supplier)
}

// Driver returns the cached instance for name, resolving one if needed.
// Resolution failures propagate: the caller explicitly asked for this
// supplier.
func (r *Registry) Driver(ctx context.Context, name string) (Supplier, error) {
	r.mu.Lock()
	if s, ok := r.instances[name]; ok {
		r.mu.Unlock()
		return s, nil
	}
	resolver := r.resolvers[name]
	r.mu.Unlock()

	var (
		s   Supplier
		err error
	)
	if resolver != nil {
		s, err = resolver(ctx)
	} else {
		s, err = r.resolve(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	// Double-checked insert: two concurrent first accesses may both
	// resolve, only one instance wins the cache.
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.instances[name]; ok {
		return cached, nil
	}
	r.instances[name] = s
	return s, nil
}

// DefaultSupplier resolves the configured default driver name.
func (r *Registry) DefaultSupplier(ctx context.Context) (Supplier, error) {
	return r.Driver(ctx, r.defaultName)
}

// ActiveSuppliers returns usable suppliers: persisted active+healthy
// descriptors by priority, each resolved through Driver; descriptors that
// fail to resolve are logged and skipped. When the persisted set yields
// nothing usable, static configuration entries that report IsAvailable are
// used instead.
func (r *Registry) ActiveSuppliers(ctx context.Context) ([]Supplier, error) {
	if r.store != nil {
		descs, err := r.store.ListActive(ctx)
		if err != nil {
			r.log.Warn("failed to load persisted suppliers, trying static config",
				logger.Field{Key: "err", Value: err})
		} else {
			out := make([]Supplier, 0, len(descs))
			for _, d := range descs {
				s, err := r.Driver(ctx, d.Code)
				if err != nil {
					r.log.Warn("skipping unresolvable supplier",
						logger.Field{Key: "supplier", Value: d.Code},
						logger.Field{Key: "err", Value: err})
					continue
				}
				out = append(out, s)
			}
			if len(out) > 0 {
				return out, nil
			}
		}
	}

	names := make([]string, 0, len(r.static))
	for name := range r.static {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Supplier, 0, len(names))
	for _, name := range names {
		s, err := r.Driver(ctx, name)
		if err != nil {
			r.log.Warn("skipping static supplier",
				logger.Field{Key: "supplier", Value: name},
				logger.Field{Key: "err", Value: err})
			continue
		}
		if !s.IsAvailable() {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Registry) resolve(ctx context.Context, name string) (Supplier, error) {
	if r.store != nil {
		desc, err := r.store.GetByCode(ctx, name)
		switch {
		case err == nil:
			driverName := desc.Driver
			if driverName == "" {
				driverName = name
			}
			return r.build(driverName, *desc)
		case !errors.Is(err, ErrDescriptorNotFound):
			return nil, err
		}
	}

	if sc, ok := r.static[name]; ok {
		driverName := sc.Driver
		if driverName == "" {
			driverName = name
		}
		return r.build(driverName, descriptorFromStatic(name, sc))
	}

	return r.build(name, Descriptor{Code: name, Driver: name})
}

func (r *Registry) build(driverName string, desc Descriptor) (Supplier, error) {
	r.mu.Lock()
	factory, ok := r.drivers[driverName]
	r.mu.Unlock()
	if !ok {
		return nil, &UnsupportedDriverError{Driver: driverName}
	}
	return factory(desc)
}

func descriptorFromStatic(name string, sc cfg.SupplierConfig) Descriptor {
	config := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			config[key] = value
		}
	}
	set("base_url", sc.BaseURL)
	set("api_key", sc.APIKey)
	set("client_id", sc.ClientID)
	set("client_secret", sc.ClientSecret)
	set("token_url", sc.TokenURL)

	return Descriptor{
		Code:    name,
		Name:    name,
		Driver:  sc.Driver,
		Active:  true,
		Healthy: true,
		Config:  config,
	}
}
