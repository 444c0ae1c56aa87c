package kg

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Node is a graph node keyed by its element id.
type Node struct {
	ElementID  string         `json:"element_id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Name returns the node's name property, falling back to the element id.
func (n Node) Name() string {
	if name := stringValue(n.Properties["name"]); name != "" {
		return name
	}
	return n.ElementID
}

// Relationship is a typed edge between two element ids.
type Relationship struct {
	ElementID      string         `json:"element_id"`
	Type           string         `json:"type"`
	StartElementID string         `json:"start"`
	EndElementID   string         `json:"end"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// Graph is the deduplicated node/relationship set of a query result.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Relation is one named edge in an entity neighborhood, endpoints given as
// element id strings.
type Relation struct {
	Name  string `json:"relation_name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// EntityConnections is an entity with its direct neighborhood.
type EntityConnections struct {
	Current   Node       `json:"current_node"`
	Direct    []Node     `json:"direct_node"`
	Relations []Relation `json:"relations"`
}

// RunGraph executes a query and collects every node and relationship
// appearing in the result, deduplicated by element id.
func (c *Connector) RunGraph(ctx context.Context, cypher string, params map[string]any) (*Graph, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	session := c.readSession(ctx)
	defer session.Close(ctx)

	c.logger.Debug("Running graph cypher", zap.String("query", cypher))

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}

	nodes := make(map[string]Node)
	rels := make(map[string]Relationship)
	for result.Next(ctx) {
		for _, value := range result.Record().Values {
			collectGraphValue(value, nodes, rels)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}

	g := &Graph{
		Nodes:         make([]Node, 0, len(nodes)),
		Relationships: make([]Relationship, 0, len(rels)),
	}
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, n)
	}
	for _, r := range rels {
		g.Relationships = append(g.Relationships, r)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ElementID < g.Nodes[j].ElementID })
	sort.Slice(g.Relationships, func(i, j int) bool {
		return g.Relationships[i].ElementID < g.Relationships[j].ElementID
	})
	return g, nil
}

func collectGraphValue(value any, nodes map[string]Node, rels map[string]Relationship) {
	switch v := value.(type) {
	case neo4j.Node:
		nodes[v.ElementId] = Node{
			ElementID:  v.ElementId,
			Labels:     v.Labels,
			Properties: v.Props,
		}
	case neo4j.Relationship:
		rels[v.ElementId] = Relationship{
			ElementID:      v.ElementId,
			Type:           v.Type,
			StartElementID: v.StartElementId,
			EndElementID:   v.EndElementId,
			Properties:     v.Props,
		}
	case neo4j.Path:
		for _, n := range v.Nodes {
			collectGraphValue(n, nodes, rels)
		}
		for _, r := range v.Relationships {
			collectGraphValue(r, nodes, rels)
		}
	case []any:
		for _, item := range v {
			collectGraphValue(item, nodes, rels)
		}
	}
}

// entityConnectionsCypher matches by element id or exact name and returns
// the entity, its distinct neighbors, and the connecting relations.
const entityConnectionsCypher = `
MATCH (n:Entity)
WHERE elementId(n) = $input OR n.name = $input
MATCH (n)-[r]-(m:Entity)
RETURN n AS current_node,
       collect(DISTINCT m) AS direct_node,
       collect({relation_name: type(r), start: elementId(startNode(r)), end: elementId(endNode(r))}) AS relations
`

// EntityConnections finds an entity by element id or exact name and
// returns its direct neighborhood. ErrNotFound when nothing matches.
func (c *Connector) EntityConnections(ctx context.Context, input string) (*EntityConnections, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	session := c.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, entityConnectionsCypher, map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("entity lookup failed: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("entity lookup failed: %w", err)
		}
		return nil, fmt.Errorf("%w: %q", ErrNotFound, input)
	}
	record := result.Record()

	conn := &EntityConnections{}

	if current, ok := record.Get("current_node"); ok {
		if n, ok := current.(neo4j.Node); ok {
			conn.Current = Node{ElementID: n.ElementId, Labels: n.Labels, Properties: n.Props}
		}
	}

	if direct, ok := record.Get("direct_node"); ok {
		if items, ok := direct.([]any); ok {
			for _, item := range items {
				if n, ok := item.(neo4j.Node); ok {
					conn.Direct = append(conn.Direct, Node{
						ElementID:  n.ElementId,
						Labels:     n.Labels,
						Properties: n.Props,
					})
				}
			}
		}
	}

	if relations, ok := record.Get("relations"); ok {
		if items, ok := relations.([]any); ok {
			for _, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				conn.Relations = append(conn.Relations, Relation{
					Name:  stringValue(m["relation_name"]),
					Start: stringValue(m["start"]),
					End:   stringValue(m["end"]),
				})
			}
		}
	}

	c.logger.Debug("Entity neighborhood fetched",
		zap.String("input", input),
		zap.Int("neighbors", len(conn.Direct)),
		zap.Int("relations", len(conn.Relations)),
	)
	return conn, nil
}
