package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/screenpilot/screenpilot/domain"
)

// JSONStore persists the cycle log as a single JSON document. The whole
// document is held in memory as the canonical cache; every append rewrites
// the document to a temporary file, syncs it, and atomically renames it
// over the store path. A reader therefore observes either the previous or
// the new document, never a torn one.
type JSONStore struct {
	path string

	mu     sync.RWMutex
	cycles []domain.Cycle
	byID   map[string]int
}

type jsonDocument struct {
	Cycles      []domain.Cycle `json:"cycles"`
	LastUpdated time.Time      `json:"last_updated"`
	TotalCycles int            `json:"total_cycles"`
}

// NewJSONStore opens (or creates) the document at path and loads it into
// memory. A stale temporary file left by a crashed append is ignored; it
// holds uncommitted data and the next flush overwrites it.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) tmpPath() string {
	return s.path + ".tmp"
}

// Append persists the cycle. The cycle is deep-copied into the cache, so
// later mutation by the caller cannot alter stored state.
func (s *JSONStore) Append(ctx context.Context, cycle *domain.Cycle) error {
	if cycle == nil || cycle.CycleID == "" {
		return fmt.Errorf("cycle must have an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[cycle.CycleID]; exists {
		return fmt.Errorf("cycle %s already appended", cycle.CycleID)
	}

	next := make([]domain.Cycle, len(s.cycles), len(s.cycles)+1)
	copy(next, s.cycles)
	next = append(next, *cycle.Clone())

	if err := s.flush(next); err != nil {
		return fmt.Errorf("failed to persist cycle %s: %w", cycle.CycleID, err)
	}

	s.cycles = next
	s.byID[cycle.CycleID] = len(next) - 1
	return nil
}

// flush writes the document via temp file + fsync + atomic rename.
func (s *JSONStore) flush(cycles []domain.Cycle) error {
	doc := jsonDocument{
		Cycles:      cycles,
		LastUpdated: time.Now().UTC(),
		TotalCycles: len(cycles),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.tmpPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(s.tmpPath())
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(s.tmpPath())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(s.tmpPath())
		return err
	}
	return os.Rename(s.tmpPath(), s.path)
}

// Get returns the cycle with the given ID.
func (s *JSONStore) Get(ctx context.Context, cycleID string) (*domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[cycleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.cycles[idx].Clone(), nil
}

// List returns all cycles matching the filter ordered by started_at.
func (s *JSONStore) List(ctx context.Context, filter domain.CycleFilter) ([]domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCycles(s.cycles, filter), nil
}

// Stats computes summary statistics over the cached history.
func (s *JSONStore) Stats(ctx context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ComputeStats(s.cycles), nil
}

// Reload discards the cache and re-reads the persisted document.
// Reload never touches the temp file: a leftover from a crashed append
// was never committed and the next flush truncates it, while removing it
// here could unlink another process's in-flight append.
func (s *JSONStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.cycles = nil
		s.byID = make(map[string]int)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("store %s is corrupt: %w", s.path, err)
	}

	sort.SliceStable(doc.Cycles, func(i, j int) bool {
		return doc.Cycles[i].StartedAt.Before(doc.Cycles[j].StartedAt)
	})

	s.cycles = doc.Cycles
	s.byID = make(map[string]int, len(doc.Cycles))
	for i := range doc.Cycles {
		s.byID[doc.Cycles[i].CycleID] = i
	}
	return nil
}

// Close is a no-op; the document is flushed on every append.
func (s *JSONStore) Close() error {
	return nil
}

// listCycles filters and orders a copy of the cached cycles.
func listCycles(cycles []domain.Cycle, filter domain.CycleFilter) []domain.Cycle {
	out := make([]domain.Cycle, 0, len(cycles))
	for i := range cycles {
		if filter.Matches(&cycles[i]) {
			out = append(out, *cycles[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter.SortDesc {
			return out[j].StartedAt.Before(out[i].StartedAt)
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
