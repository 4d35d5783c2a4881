// Package store defines the cycle log interface and implementations.
//
// The store is the durable, append-only log of analysis cycles. The agent
// process is the sole writer; the viewer process opens its own read-only
// instance of the same store and calls Reload to pick up new cycles.
package store

import (
	"context"
	"fmt"

	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/domain"
)

// Store is the durable log of analysis cycles.
//
// Append must durably persist the cycle before returning; a crash during
// an append must never corrupt previously stored cycles or surface a
// half-written cycle on reload. Stored cycles are never mutated.
type Store interface {
	// Append durably persists the cycle and makes it visible to
	// subsequent reads. Duplicate cycle IDs are rejected.
	Append(ctx context.Context, cycle *domain.Cycle) error

	// Get returns the cycle with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, cycleID string) (*domain.Cycle, error)

	// List returns all cycles matching the filter, ordered by started_at
	// ascending (descending when the filter requests it).
	List(ctx context.Context, filter domain.CycleFilter) ([]domain.Cycle, error)

	// Stats computes summary statistics over the full history.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Reload discards the in-memory cache and re-reads persisted state.
	Reload(ctx context.Context) error

	Close() error
}

// Open creates the writing store selected by the configuration.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendJSON:
		return NewJSONStore(cfg.StorePath)
	case config.StoreBackendSQLite:
		return NewSQLiteStore(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenReader creates the reading store for the viewer process. Reader
// stores never migrate or write; they tolerate a store the agent has not
// created yet.
func OpenReader(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendJSON:
		return NewJSONStore(cfg.StorePath)
	case config.StoreBackendSQLite:
		return NewSQLiteStoreReader(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
