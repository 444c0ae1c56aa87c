// Package cache is the local SQLite cache shared by the pipeline: entity
// neighborhoods fetched from Neo4j, relation embeddings, and verdicts from
// batch verification runs.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache: miss")

// Cache wraps a single-connection SQLite database. All methods are safe
// for concurrent use.
type Cache struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	ttl    time.Duration
	logger *zap.Logger

	// now is swapped in tests to exercise expiry.
	now func() time.Time
}

// Open creates (or opens) the cache database at path. A ttl of zero
// disables entity expiry.
func Open(path string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("Failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("Failed to set journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("Failed to set synchronous=NORMAL", zap.Error(err))
	}

	c := &Cache{db: db, path: path, ttl: ttl, logger: logger, now: time.Now}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Cache opened", zap.String("path", path), zap.Duration("ttl", ttl))
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entity_cache (
		input TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relation_vectors (
		relation TEXT NOT NULL,
		engine TEXT NOT NULL,
		vector TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (relation, engine)
	);

	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		claim TEXT NOT NULL,
		verdict TEXT NOT NULL,
		explanation TEXT,
		model TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_verdicts_claim ON verdicts(claim);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// --- Entity neighborhood cache ---

// GetEntity unmarshals the cached payload for input into out. Expired
// entries are treated as misses and deleted lazily.
func (c *Cache) GetEntity(input string, out any) error {
	c.mu.RLock()
	var payload string
	var fetchedAt time.Time
	err := c.db.QueryRow(
		"SELECT payload, fetched_at FROM entity_cache WHERE input = ?", input,
	).Scan(&payload, &fetchedAt)
	c.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read entity cache: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(fetchedAt) > c.ttl {
		c.mu.Lock()
		_, _ = c.db.Exec("DELETE FROM entity_cache WHERE input = ?", input)
		c.mu.Unlock()
		return ErrMiss
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("corrupt entity cache entry for %q: %w", input, err)
	}
	return nil
}

// PutEntity stores the JSON encoding of value under input.
func (c *Cache) PutEntity(input string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode entity payload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		`INSERT INTO entity_cache (input, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(input) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		input, string(payload), c.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write entity cache: %w", err)
	}
	return nil
}

// --- Relation embedding cache ---

// GetVector implements similarity.VectorCache.
func (c *Cache) GetVector(relation, engine string) ([]float32, bool, error) {
	c.mu.RLock()
	var raw string
	err := c.db.QueryRow(
		"SELECT vector FROM relation_vectors WHERE relation = ? AND engine = ?", relation, engine,
	).Scan(&raw)
	c.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read relation vector: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, false, fmt.Errorf("corrupt vector for relation %q: %w", relation, err)
	}
	return vec, true, nil
}

// PutVector implements similarity.VectorCache.
func (c *Cache) PutVector(relation, engine string, vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode vector: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		`INSERT INTO relation_vectors (relation, engine, vector) VALUES (?, ?, ?)
		 ON CONFLICT(relation, engine) DO UPDATE SET vector = excluded.vector`,
		relation, engine, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write relation vector: %w", err)
	}
	return nil
}

// --- Verdict log ---

// VerdictRecord is one stored verification outcome.
type VerdictRecord struct {
	ID          string
	Claim       string
	Verdict     string
	Explanation string
	Model       string
	CreatedAt   time.Time
}

// RecordVerdict appends a verification outcome and returns its id.
func (c *Cache) RecordVerdict(claim, verdict, explanation, model string) (string, error) {
	id := uuid.New().String()

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(
		"INSERT INTO verdicts (id, claim, verdict, explanation, model, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, claim, verdict, explanation, model, c.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record verdict: %w", err)
	}
	return id, nil
}

// VerdictsForClaim returns stored verdicts for a claim, newest first.
func (c *Cache) VerdictsForClaim(claim string) ([]VerdictRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.Query(
		"SELECT id, claim, verdict, explanation, model, created_at FROM verdicts WHERE claim = ? ORDER BY created_at DESC, id",
		claim,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var r VerdictRecord
		if err := rows.Scan(&r.ID, &r.Claim, &r.Verdict, &r.Explanation, &r.Model, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune removes expired entity entries. Returns the number deleted.
func (c *Cache) Prune() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().UTC().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.db.Exec("DELETE FROM entity_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune entity cache: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		c.logger.Debug("Pruned expired entity entries", zap.Int64("count", n))
	}
	return n, nil
}
