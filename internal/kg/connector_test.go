package kg

import (
	"context"
	"errors"
	"testing"

	"claimkg/internal/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func testConfig() config.KGConfig {
	return config.KGConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "secret",
	}
}

func TestConnectRequiresCredentials(t *testing.T) {
	for _, cfg := range []config.KGConfig{
		{},
		{URI: "bolt://localhost:7687"},
		{URI: "bolt://localhost:7687", Username: "neo4j"},
	} {
		if _, err := Connect(cfg, nil); err == nil {
			t.Errorf("Connect(%+v) should fail", cfg)
		}
	}
}

func TestConnectIsLazy(t *testing.T) {
	// No server is listening; Connect must still succeed because the
	// driver only dials on first use.
	conn, err := Connect(testConfig(), nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestUseAfterClose(t *testing.T) {
	conn, err := Connect(testConfig(), nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ctx := context.Background()
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close twice is fine.
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if _, err := conn.CountNodes(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("CountNodes after close = %v, want ErrClosed", err)
	}
	if _, err := conn.Run(ctx, "RETURN 1", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Run after close = %v, want ErrClosed", err)
	}
	if _, err := conn.EntityConnections(ctx, "Huế"); !errors.Is(err, ErrClosed) {
		t.Errorf("EntityConnections after close = %v, want ErrClosed", err)
	}
	if _, err := conn.EntityNames(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("EntityNames after close = %v, want ErrClosed", err)
	}
}

func TestNodeName(t *testing.T) {
	n := Node{ElementID: "4:abc:1", Properties: map[string]any{"name": "Huế"}}
	if n.Name() != "Huế" {
		t.Errorf("Name() = %q", n.Name())
	}

	n = Node{ElementID: "4:abc:2", Properties: map[string]any{}}
	if n.Name() != "4:abc:2" {
		t.Errorf("Name() fallback = %q", n.Name())
	}
}

func TestCollectGraphValue(t *testing.T) {
	nodes := make(map[string]Node)
	rels := make(map[string]Relationship)

	a := neo4j.Node{ElementId: "n1", Labels: []string{"Entity"}, Props: map[string]any{"name": "A"}}
	b := neo4j.Node{ElementId: "n2", Labels: []string{"Entity"}, Props: map[string]any{"name": "B"}}
	r := neo4j.Relationship{ElementId: "r1", Type: "capital", StartElementId: "n1", EndElementId: "n2"}

	collectGraphValue(a, nodes, rels)
	collectGraphValue([]any{a, b, r}, nodes, rels) // duplicates collapse
	collectGraphValue(neo4j.Path{Nodes: []neo4j.Node{a, b}, Relationships: []neo4j.Relationship{r}}, nodes, rels)
	collectGraphValue("scalar noise", nodes, rels)

	if len(nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(nodes))
	}
	if len(rels) != 1 {
		t.Errorf("Expected 1 relationship, got %d", len(rels))
	}
	if rels["r1"].Type != "capital" {
		t.Errorf("Relationship type = %q", rels["r1"].Type)
	}
}
