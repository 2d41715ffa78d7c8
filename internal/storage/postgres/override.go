package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/warchief/internal/game/ability"
)

// ErrOverrideNotFound is returned when no override is stored for an ability name.
var ErrOverrideNotFound = errors.New("override not found")

// StoredOverride is an ability override together with its last update time.
type StoredOverride struct {
	Override  ability.Override
	UpdatedAt time.Time
}

// OverrideRepository stores sparse ability overrides as JSONB patches keyed
// by ability name.
type OverrideRepository struct {
	db *pgxpool.Pool
}

// NewOverrideRepository creates an OverrideRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewOverrideRepository(db *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Upsert stores o, replacing any earlier patch for the same ability.
//
// Precondition: o.Name must be non-empty.
// Postcondition: Returns the stored override with UpdatedAt set.
func (r *OverrideRepository) Upsert(ctx context.Context, o ability.Override) (StoredOverride, error) {
	if o.Name == "" {
		return StoredOverride{}, fmt.Errorf("upserting override: name must not be empty")
	}
	patch, err := json.Marshal(o)
	if err != nil {
		return StoredOverride{}, fmt.Errorf("encoding override %q: %w", o.Name, err)
	}

	var stored StoredOverride
	var raw []byte
	err = r.db.QueryRow(ctx,
		`INSERT INTO ability_overrides (name, patch)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET patch = EXCLUDED.patch, updated_at = NOW()
		 RETURNING patch, updated_at`,
		o.Name, patch,
	).Scan(&raw, &stored.UpdatedAt)
	if err != nil {
		return StoredOverride{}, fmt.Errorf("upserting override %q: %w", o.Name, err)
	}
	if err := json.Unmarshal(raw, &stored.Override); err != nil {
		return StoredOverride{}, fmt.Errorf("decoding override %q: %w", o.Name, err)
	}
	return stored, nil
}

// Get returns the override stored for name.
//
// Postcondition: Returns ErrOverrideNotFound if nothing is stored.
func (r *OverrideRepository) Get(ctx context.Context, name string) (StoredOverride, error) {
	var stored StoredOverride
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT patch, updated_at FROM ability_overrides WHERE name = $1`,
		name,
	).Scan(&raw, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredOverride{}, ErrOverrideNotFound
		}
		return StoredOverride{}, fmt.Errorf("querying override %q: %w", name, err)
	}
	if err := json.Unmarshal(raw, &stored.Override); err != nil {
		return StoredOverride{}, fmt.Errorf("decoding override %q: %w", name, err)
	}
	return stored, nil
}

// List returns every stored override ordered by ability name.
func (r *OverrideRepository) List(ctx context.Context) ([]StoredOverride, error) {
	rows, err := r.db.Query(ctx,
		`SELECT patch, updated_at FROM ability_overrides ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing overrides: %w", err)
	}
	defer rows.Close()

	var out []StoredOverride
	for rows.Next() {
		var stored StoredOverride
		var raw []byte
		if err := rows.Scan(&raw, &stored.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		if err := json.Unmarshal(raw, &stored.Override); err != nil {
			return nil, fmt.Errorf("decoding override: %w", err)
		}
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing overrides: %w", err)
	}
	return out, nil
}

// Delete removes the override for name.
//
// Postcondition: Returns ErrOverrideNotFound if nothing was stored.
func (r *OverrideRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ability_overrides WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting override %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

// LoadInto registers every stored override with resolver and returns how many
// were applied. An override naming an ability the catalog lacks is an error;
// overrides applied before it stay registered.
func (r *OverrideRepository) LoadInto(ctx context.Context, resolver *ability.Resolver) (int, error) {
	stored, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, s := range stored {
		if err := resolver.SetOverride(s.Override); err != nil {
			return i, fmt.Errorf("applying stored override %q: %w", s.Override.Name, err)
		}
	}
	return len(stored), nil
}
