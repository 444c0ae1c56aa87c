// Package kg talks to the FactKG knowledge graph in Neo4j. Entities are
// `:Entity` nodes with `name`/`id` properties; edges carry the DBpedia
// relation as their type. Queries use elementId(...) throughout; numeric
// id(...) is deprecated server-side.
package kg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"claimkg/internal/config"
	"claimkg/internal/trie"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ErrClosed is returned when a connector is used after Close.
var ErrClosed = errors.New("kg: connector is closed")

// ErrNotFound is returned when an entity lookup matches nothing.
var ErrNotFound = errors.New("kg: entity not found")

// Connector wraps a Neo4j driver for the FactKG graph. Safe for concurrent
// use; each operation runs in its own session.
type Connector struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Connect creates a connector. The driver itself connects lazily; no
// round-trip happens until the first query.
func Connect(cfg config.KGConfig, logger *zap.Logger) (*Connector, error) {
	if cfg.URI == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("kg: uri, username and password are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Connector{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

// Close shuts the driver down. Further calls on the connector error.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.driver.Close(ctx)
}

func (c *Connector) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Connector) readSession(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
}

// CountNodes returns the total node count.
func (c *Connector) CountNodes(ctx context.Context) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	session := c.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (n) RETURN count(n) AS total_nodes", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}

	total, _ := record.Get("total_nodes")
	count, ok := total.(int64)
	if !ok {
		return 0, nil
	}
	return count, nil
}

// Run executes an arbitrary read query and returns one map per record.
func (c *Connector) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	session := c.readSession(ctx)
	defer session.Close(ctx)

	c.logger.Debug("Running cypher", zap.String("query", cypher))

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var rows []map[string]any
	for result.Next(ctx) {
		rows = append(rows, result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// EntityNames returns every distinct non-null node name. This is the trie
// source; on a full FactKG import it is on the order of a million strings.
func (c *Connector) EntityNames(ctx context.Context) ([]string, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	session := c.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"MATCH (n) WHERE n.name IS NOT NULL RETURN DISTINCT n.name AS name", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity names: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		if name := stringValue(result.Record().AsMap()["name"]); name != "" {
			names = append(names, name)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entity names: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// BuildTrie builds the entity name trie, saving it when savePath is
// non-empty.
func (c *Connector) BuildTrie(ctx context.Context, savePath string) (*trie.Trie, error) {
	names, err := c.EntityNames(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Building entity trie", zap.Int("entities", len(names)))
	t := trie.New(names)

	if savePath != "" {
		c.logger.Info("Saving trie", zap.String("path", savePath))
		if err := t.Save(savePath); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
