package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenerateTripletsSingleEntity(t *testing.T) {
	sample := &Sample{
		EntitySet: []string{"Vedat_Tek"},
		Evidence: map[string][][]string{
			"Vedat_Tek": {{"birth_place", "~significant_building"}},
		},
	}

	if err := GenerateTriplets(sample, Options{RemoveUnderscore: true}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}

	want := []Triplet{
		{"Vedat Tek", "birth_place", "unknown_0"},
		{"unknown_0", "significant_building", "Vedat Tek"},
	}
	if diff := cmp.Diff(want, sample.Triplets); diff != "" {
		t.Errorf("Triplets mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateTripletsTwoEntities(t *testing.T) {
	sample := &Sample{
		EntitySet: []string{"Huế", "Empire_of_Vietnam"},
		Evidence: map[string][][]string{
			"Huế": {{"~capital"}},
		},
	}

	if err := GenerateTriplets(sample, Options{RemoveUnderscore: true}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}

	want := []Triplet{
		{"Empire of Vietnam", "capital", "Huế"},
	}
	if diff := cmp.Diff(want, sample.Triplets); diff != "" {
		t.Errorf("Triplets mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateTripletsImplicitNodes(t *testing.T) {
	// "Inner Harbour" is labeled in evidence but not in the entity set, so
	// it must become a stable placeholder.
	sample := &Sample{
		EntitySet: []string{"A", "B"},
		Evidence: map[string][][]string{
			"A":            {{"located_in"}},
			"Inner_Harbour": {{"part_of"}},
		},
	}

	if err := GenerateTriplets(sample, Options{}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}

	var sawUnknownHead bool
	for _, tr := range sample.Triplets {
		if IsUnknown(tr.Subject) && tr.Relation == "part_of" {
			sawUnknownHead = true
		}
		if tr.Subject == "Inner_Harbour" || tr.Object == "Inner_Harbour" {
			t.Errorf("Implicit entity leaked into triplets: %v", tr)
		}
	}
	if !sawUnknownHead {
		t.Error("Expected part_of triplets headed by a placeholder")
	}
}

func TestGenerateTripletsDeterministic(t *testing.T) {
	build := func() *Sample {
		return &Sample{
			EntitySet: []string{"X", "Y"},
			Evidence: map[string][][]string{
				"X":    {{"r1"}},
				"Y":    {{"r2"}},
				"imp1": {{"r3"}},
				"imp2": {{"r4"}},
			},
		}
	}

	a, b := build(), build()
	if err := GenerateTriplets(a, Options{}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}
	if err := GenerateTriplets(b, Options{}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}
	if diff := cmp.Diff(a.Triplets, b.Triplets); diff != "" {
		t.Errorf("Generation is not deterministic:\n%s", diff)
	}
}

func TestGenerateTripletsDedupes(t *testing.T) {
	sample := &Sample{
		EntitySet: []string{"A", "B"},
		Evidence: map[string][][]string{
			"A": {{"rel"}, {"rel"}},
		},
	}
	if err := GenerateTriplets(sample, Options{}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}
	if len(sample.Triplets) != 1 {
		t.Errorf("Expected 1 deduplicated triplet, got %d", len(sample.Triplets))
	}
}

func TestGenerateTripletsEmptyEvidence(t *testing.T) {
	// No evidence paths means no triplets, for both the single-entity
	// and multi-entity shapes. Nil and empty maps behave the same.
	samples := []*Sample{
		{EntitySet: []string{"A"}},
		{EntitySet: []string{"A"}, Evidence: map[string][][]string{}},
		{EntitySet: []string{"A", "B"}},
		{EntitySet: []string{"A", "B"}, Evidence: map[string][][]string{}},
	}
	for i, sample := range samples {
		if err := GenerateTriplets(sample, Options{}); err != nil {
			t.Fatalf("Sample %d: GenerateTriplets failed: %v", i, err)
		}
		if len(sample.Triplets) != 0 {
			t.Errorf("Sample %d: expected no triplets, got %v", i, sample.Triplets)
		}
	}
}

func TestGenerateTripletsEmptyEntitySet(t *testing.T) {
	sample := &Sample{Evidence: map[string][][]string{"A": {{"rel"}}}}
	if err := GenerateTriplets(sample, Options{}); err == nil {
		t.Fatal("Expected error for empty entity set")
	}
}

func TestGenerateTripletsKeepsPlaceholderUnderscores(t *testing.T) {
	sample := &Sample{
		EntitySet: []string{"Some_Entity"},
		Evidence: map[string][][]string{
			"Some_Entity": {{"rel"}},
		},
	}
	if err := GenerateTriplets(sample, Options{RemoveUnderscore: true}); err != nil {
		t.Fatalf("GenerateTriplets failed: %v", err)
	}
	if sample.Triplets[0].Object != "unknown_0" {
		t.Errorf("Placeholder was rewritten: %q", sample.Triplets[0].Object)
	}
	if sample.Triplets[0].Subject != "Some Entity" {
		t.Errorf("Entity underscore not replaced: %q", sample.Triplets[0].Subject)
	}
}
