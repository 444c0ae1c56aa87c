package plot

import (
	"strings"
	"testing"

	"claimkg/internal/dataset"
	"claimkg/internal/kg"
)

func sampleConnections() *kg.EntityConnections {
	return &kg.EntityConnections{
		Current: kg.Node{ElementID: "1", Properties: map[string]any{"name": "Huế"}},
		Direct: []kg.Node{
			{ElementID: "2", Properties: map[string]any{"name": "Empire of Vietnam"}},
			{ElementID: "3", Properties: map[string]any{"name": "Vietnam"}},
		},
		Relations: []kg.Relation{
			{Name: "capital", Start: "2", End: "1"},
			{Name: "country", Start: "1", End: "3"},
			{Name: "isPartOf", Start: "1", End: "3"},
		},
	}
}

func TestWriteDOTMergesParallelEdges(t *testing.T) {
	var b strings.Builder
	if err := WriteDOT(&b, sampleConnections()); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := b.String()

	if !strings.Contains(out, `"Huế" [style=filled, fillcolor=lightblue];`) {
		t.Errorf("current entity should be highlighted:\n%s", out)
	}
	if !strings.Contains(out, `"Huế" -> "Vietnam" [label="country, isPartOf"];`) {
		t.Errorf("parallel edges should merge into one label:\n%s", out)
	}
	if !strings.Contains(out, `"Empire of Vietnam" -> "Huế" [label="capital"];`) {
		t.Errorf("missing capital edge:\n%s", out)
	}
	if strings.Count(out, "->") != 2 {
		t.Errorf("expected 2 merged edges, got %d:\n%s", strings.Count(out, "->"), out)
	}
}

func TestWriteDOTDeterministic(t *testing.T) {
	var a, b strings.Builder
	if err := WriteDOT(&a, sampleConnections()); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	if err := WriteDOT(&b, sampleConnections()); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	if a.String() != b.String() {
		t.Error("output should be identical across runs")
	}
}

func TestWriteDOTOrdersSharedNamesById(t *testing.T) {
	// Two distinct nodes carrying the same display name: edge order must
	// follow element ids, identically on every run.
	conns := &kg.EntityConnections{
		Current: kg.Node{ElementID: "1", Properties: map[string]any{"name": "Huế"}},
		Direct: []kg.Node{
			{ElementID: "3", Properties: map[string]any{"name": "Vietnam"}},
			{ElementID: "2", Properties: map[string]any{"name": "Vietnam"}},
		},
		Relations: []kg.Relation{
			{Name: "later", Start: "1", End: "3"},
			{Name: "earlier", Start: "1", End: "2"},
		},
	}

	var b strings.Builder
	if err := WriteDOT(&b, conns); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := b.String()

	earlier := strings.Index(out, `[label="earlier"]`)
	later := strings.Index(out, `[label="later"]`)
	if earlier < 0 || later < 0 {
		t.Fatalf("missing edges:\n%s", out)
	}
	if earlier > later {
		t.Errorf("edge to lower element id should come first:\n%s", out)
	}
}

func TestWriteDOTNil(t *testing.T) {
	var b strings.Builder
	if err := WriteDOT(&b, nil); err == nil {
		t.Fatal("expected an error for nil connections")
	}
}

func TestWriteTriplets(t *testing.T) {
	triplets := []dataset.Triplet{
		{Subject: "Vedat Tek", Relation: "significantBuilding", Object: "unknown_0"},
		{Subject: "unknown_0", Relation: "location", Object: "Istanbul"},
		{Subject: "Vedat Tek", Relation: "significantBuilding", Object: "unknown_0"},
	}

	var b strings.Builder
	if err := WriteTriplets(&b, triplets); err != nil {
		t.Fatalf("WriteTriplets: %v", err)
	}
	out := b.String()

	if !strings.Contains(out, `"unknown_0" [style=dashed];`) {
		t.Errorf("placeholder node should be dashed:\n%s", out)
	}
	if strings.Count(out, `label="significantBuilding"`) != 1 {
		t.Errorf("duplicate triplets should collapse to one edge:\n%s", out)
	}
	if !strings.Contains(out, `"unknown_0" -> "Istanbul" [label="location"];`) {
		t.Errorf("missing location edge:\n%s", out)
	}
}

func TestWriteTripletsEmpty(t *testing.T) {
	var b strings.Builder
	if err := WriteTriplets(&b, nil); err == nil {
		t.Fatal("expected an error for an empty triplet set")
	}
}
