package similarity

import (
	"context"
	"math"
	"testing"
)

// fakeEngine maps known texts to fixed vectors.
type fakeEngine struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, ok := f.vectors[t]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return 3 }
func (f *fakeEngine) Name() string    { return "fake" }

// memCache is an in-memory VectorCache.
type memCache struct {
	vecs map[string][]float32
}

func (m *memCache) GetVector(relation, engine string) ([]float32, bool, error) {
	v, ok := m.vecs[engine+"|"+relation]
	return v, ok, nil
}

func (m *memCache) PutVector(relation, engine string, vec []float32) error {
	if m.vecs == nil {
		m.vecs = make(map[string][]float32)
	}
	m.vecs[engine+"|"+relation] = vec
	return nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{1, 0}, []float32{1, 0, 0}, 0}, // dimension mismatch
		{nil, nil, 0},
		{[]float32{0, 0}, []float32{1, 0}, 0}, // zero vector
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSim(t *testing.T) {
	engine := &fakeEngine{vectors: map[string][]float32{
		"birth place":    {1, 0, 0},
		"place of birth": {0.9, 0.1, 0},
		"death year":     {0, 1, 0},
	}}
	scorer := NewScorer(engine, nil, nil)

	ctx := context.Background()
	close, err := scorer.Sim(ctx, "birth place", "place of birth")
	if err != nil {
		t.Fatalf("Sim failed: %v", err)
	}
	far, err := scorer.Sim(ctx, "birth place", "death year")
	if err != nil {
		t.Fatalf("Sim failed: %v", err)
	}
	if close <= far {
		t.Errorf("Expected close pair to outscore far pair: %v vs %v", close, far)
	}
}

func TestTopK(t *testing.T) {
	engine := &fakeEngine{vectors: map[string][]float32{
		"birth":            {1, 0, 0},
		"birth_year":       {0.9, 0.1, 0},
		"country_of_birth": {0.8, 0.2, 0},
		"death_place":      {0, 1, 0},
	}}
	scorer := NewScorer(engine, nil, nil)

	got, err := scorer.TopK(context.Background(), "birth",
		[]string{"death_place", "country_of_birth", "birth_year"}, 2)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got))
	}
	if got[0].Candidate != "birth_year" || got[1].Candidate != "country_of_birth" {
		t.Errorf("Unexpected ranking: %v", got)
	}
	if got[0].Score < got[1].Score {
		t.Error("Results not in descending score order")
	}
}

func TestTopKEmptyCandidates(t *testing.T) {
	scorer := NewScorer(&fakeEngine{}, nil, nil)
	if _, err := scorer.TopK(context.Background(), "q", nil, 3); err == nil {
		t.Fatal("Expected error for empty candidates")
	}
}

func TestTopKClampsK(t *testing.T) {
	scorer := NewScorer(&fakeEngine{}, nil, nil)
	got, err := scorer.TopK(context.Background(), "q", []string{"a", "b"}, 10)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected clamp to 2, got %d", len(got))
	}
}

func TestScorerUsesCache(t *testing.T) {
	engine := &fakeEngine{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	cache := &memCache{}
	scorer := NewScorer(engine, cache, nil)

	ctx := context.Background()
	if _, err := scorer.Sim(ctx, "a", "b"); err != nil {
		t.Fatalf("Sim failed: %v", err)
	}
	callsAfterFirst := engine.calls

	// Second run must be served entirely from cache.
	if _, err := scorer.Sim(ctx, "a", "b"); err != nil {
		t.Fatalf("Sim failed: %v", err)
	}
	if engine.calls != callsAfterFirst {
		t.Errorf("Engine called again despite warm cache: %d -> %d", callsAfterFirst, engine.calls)
	}
}
