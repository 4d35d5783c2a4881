package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/screenpilot/screenpilot/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite. Every insert commits before
// Append returns; SQLite's transactional append keeps the file
// self-consistent for concurrent readers. The full history is mirrored in
// an in-memory cache kept consistent after each append.
type SQLiteStore struct {
	db     *sql.DB
	reader bool

	mu     sync.RWMutex
	cycles []domain.Cycle
	byID   map[string]int
}

// sqliteDSN adds the cross-process defaults unless the caller already
// supplied DSN parameters. WAL lets the viewer read while the agent
// inserts, and the busy timeout rides out the moments it cannot.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_busy_timeout=5000&_journal_mode=WAL"
}

// NewSQLiteStore opens the database at dsn for the writing agent,
// migrating the schema, and loads the cycle cache.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.Reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStoreReader opens the database for the viewer. The reader
// never migrates; a database the agent has not created yet reads as an
// empty history.
func NewSQLiteStoreReader(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, reader: true}
	if err := s.Reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			cycle_id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			completed_at DATETIME NOT NULL,
			screenshot_path TEXT,
			scene TEXT,
			recommendation TEXT,
			action_results TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Append durably persists the cycle and updates the cache.
func (s *SQLiteStore) Append(ctx context.Context, cycle *domain.Cycle) error {
	if cycle == nil || cycle.CycleID == "" {
		return fmt.Errorf("cycle must have an ID")
	}
	if s.reader {
		return fmt.Errorf("store is opened read-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[cycle.CycleID]; exists {
		return fmt.Errorf("cycle %s already appended", cycle.CycleID)
	}

	scene, recommendation, results, err := marshalCycleBlobs(cycle)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, started_at, completed_at, screenshot_path, scene, recommendation, action_results, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.CycleID, cycle.StartedAt, cycle.CompletedAt, cycle.ScreenshotPath,
		scene, recommendation, results, cycle.Status, cycle.Error)
	if err != nil {
		return fmt.Errorf("failed to persist cycle %s: %w", cycle.CycleID, err)
	}

	s.cycles = append(s.cycles, *cycle.Clone())
	s.byID[cycle.CycleID] = len(s.cycles) - 1
	return nil
}

func marshalCycleBlobs(cycle *domain.Cycle) (scene, recommendation, results sql.NullString, err error) {
	if cycle.Scene != nil {
		data, e := json.Marshal(cycle.Scene)
		if e != nil {
			return scene, recommendation, results, fmt.Errorf("failed to encode scene: %w", e)
		}
		scene = sql.NullString{String: string(data), Valid: true}
	}
	if cycle.Recommendation != nil {
		data, e := json.Marshal(cycle.Recommendation)
		if e != nil {
			return scene, recommendation, results, fmt.Errorf("failed to encode recommendation: %w", e)
		}
		recommendation = sql.NullString{String: string(data), Valid: true}
	}
	if len(cycle.ActionResults) > 0 {
		data, e := json.Marshal(cycle.ActionResults)
		if e != nil {
			return scene, recommendation, results, fmt.Errorf("failed to encode action results: %w", e)
		}
		results = sql.NullString{String: string(data), Valid: true}
	}
	return scene, recommendation, results, nil
}

// Get returns the cycle with the given ID from the cache.
func (s *SQLiteStore) Get(ctx context.Context, cycleID string) (*domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[cycleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.cycles[idx].Clone(), nil
}

// List returns all cycles matching the filter ordered by started_at.
func (s *SQLiteStore) List(ctx context.Context, filter domain.CycleFilter) ([]domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCycles(s.cycles, filter), nil
}

// Stats computes summary statistics over the cached history.
func (s *SQLiteStore) Stats(ctx context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ComputeStats(s.cycles), nil
}

// Reload re-reads all cycles from the database into the cache.
func (s *SQLiteStore) Reload(ctx context.Context) error {
	if s.reader {
		var tables int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'cycles'`).Scan(&tables)
		if err != nil {
			return fmt.Errorf("failed to inspect database: %w", err)
		}
		if tables == 0 {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.cycles = nil
			s.byID = make(map[string]int)
			return nil
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle_id, started_at, completed_at, screenshot_path, scene, recommendation, action_results, status, error
		 FROM cycles ORDER BY started_at ASC`)
	if err != nil {
		return fmt.Errorf("failed to read cycles: %w", err)
	}
	defer rows.Close()

	var cycles []domain.Cycle
	for rows.Next() {
		var c domain.Cycle
		var screenshotPath, scene, recommendation, results, errMsg sql.NullString
		if err := rows.Scan(&c.CycleID, &c.StartedAt, &c.CompletedAt, &screenshotPath,
			&scene, &recommendation, &results, &c.Status, &errMsg); err != nil {
			return err
		}
		if screenshotPath.Valid {
			c.ScreenshotPath = screenshotPath.String
		}
		if errMsg.Valid {
			c.Error = errMsg.String
		}
		if scene.Valid {
			if err := json.Unmarshal([]byte(scene.String), &c.Scene); err != nil {
				return fmt.Errorf("failed to decode scene for cycle %s: %w", c.CycleID, err)
			}
		}
		if recommendation.Valid {
			if err := json.Unmarshal([]byte(recommendation.String), &c.Recommendation); err != nil {
				return fmt.Errorf("failed to decode recommendation for cycle %s: %w", c.CycleID, err)
			}
		}
		if results.Valid {
			if err := json.Unmarshal([]byte(results.String), &c.ActionResults); err != nil {
				return fmt.Errorf("failed to decode action results for cycle %s: %w", c.CycleID, err)
			}
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = cycles
	s.byID = make(map[string]int, len(cycles))
	for i := range cycles {
		s.byID[cycles[i].CycleID] = i
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
