package supplier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"farehub/pkg/db"
)

// ErrDescriptorNotFound is returned when no persisted supplier matches a code.
var ErrDescriptorNotFound = errors.New("supplier descriptor not found")

// Descriptor is the persisted metadata of one supplier. It is read-only to
// this core; administration happens elsewhere.
type Descriptor struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Driver   string            `json:"driver"`
	Active   bool              `json:"active"`
	Healthy  bool              `json:"healthy"`
	Priority int               `json:"priority"`
	Config   map[string]string `json:"config"`
}

// Store loads persisted supplier descriptors.
type Store interface {
	// ListActive returns active and healthy descriptors ordered by
	// priority ascending, ties broken by code.
	ListActive(ctx context.Context) ([]Descriptor, error)
	GetByCode(ctx context.Context, code string) (*Descriptor, error)
}

type SQLStore struct {
	exec db.SQLExecutor
}

func NewSQLStore(exec db.SQLExecutor) *SQLStore {
	return &SQLStore{exec: exec}
}

const listActiveQuery = `
SELECT code, name, driver, active, healthy, priority, config
FROM suppliers
WHERE active = TRUE AND healthy = TRUE
ORDER BY priority ASC, code ASC`

func (s *SQLStore) ListActive(ctx context.Context) ([]Descriptor, error) {
	rows, err := s.exec.QueryContext(ctx, listActiveQuery)
	if err != nil {
		return nil, fmt.Errorf("list active suppliers: %w", err)
	}
	defer rows.Close()

	var out []Descriptor
	for rows.Next() {
		desc, err := scanDescriptor(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active suppliers: %w", err)
	}
	return out, nil
}

const getByCodeQuery = `
SELECT code, name, driver, active, healthy, priority, config
FROM suppliers
WHERE code = $1`

func (s *SQLStore) GetByCode(ctx context.Context, code string) (*Descriptor, error) {
	row := s.exec.QueryRowContext(ctx, getByCodeQuery, code)
	desc, err := scanDescriptor(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDescriptorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get supplier %q: %w", code, err)
	}
	return &desc, nil
}

func scanDescriptor(scan func(dest ...any) error) (Descriptor, error) {
	var (
		desc      Descriptor
		configRaw []byte
	)
	if err := scan(&desc.Code, &desc.Name, &desc.Driver, &desc.Active,
		&desc.Healthy, &desc.Priority, &configRaw); err != nil {
		return Descriptor{}, err
	}
	if len(configRaw) > 0 {
		if err := json.Unmarshal(configRaw, &desc.Config); err != nil {
			return Descriptor{}, fmt.Errorf("decode supplier config for %q: %w", desc.Code, err)
		}
	}
	return desc, nil
}
