package similarity

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// VectorCache stores relation embeddings keyed by relation text and engine
// name, so a fixed candidate pool is not re-embedded on every query.
type VectorCache interface {
	GetVector(relation, engine string) ([]float32, bool, error)
	PutVector(relation, engine string, vec []float32) error
}

// Scorer compares relation strings through an embedding engine.
type Scorer struct {
	engine Engine
	cache  VectorCache
	logger *zap.Logger
}

// NewScorer creates a scorer. cache may be nil.
func NewScorer(engine Engine, cache VectorCache, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{engine: engine, cache: cache, logger: logger}
}

// Scored is one candidate with its similarity to the query.
type Scored struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Sim computes cosine similarity between two relation strings.
//
//	sim("birth place", "place of birth") -> ~0.92
func (s *Scorer) Sim(ctx context.Context, r1, r2 string) (float64, error) {
	vecs, err := s.embedAll(ctx, []string{r1, r2})
	if err != nil {
		return 0, err
	}
	return Cosine(vecs[0], vecs[1]), nil
}

// TopK returns the k candidates most similar to query, highest first.
// Errors on an empty candidate list.
func (s *Scorer) TopK(ctx context.Context, query string, candidates []string, k int) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidates list cannot be empty")
	}
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}

	queryVec, err := s.embedAll(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	candVecs, err := s.embedAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Candidate: c, Score: Cosine(queryVec[0], candVecs[i])}
	}
	// Stable: equal scores keep candidate order.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	s.logger.Debug("Relation similarity ranked",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("k", k),
	)
	return scored[:k], nil
}

// embedAll fetches embeddings, serving from the vector cache where
// possible and embedding only the misses.
func (s *Scorer) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if s.cache != nil {
			vec, ok, err := s.cache.GetVector(text, s.engine.Name())
			if err != nil {
				s.logger.Warn("Vector cache read failed", zap.Error(err))
			} else if ok {
				vecs[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		embedded, err := s.engine.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
		for j, vec := range embedded {
			vecs[missingIdx[j]] = vec
			if s.cache != nil {
				if err := s.cache.PutVector(missing[j], s.engine.Name(), vec); err != nil {
					s.logger.Warn("Vector cache write failed", zap.Error(err))
				}
			}
		}
	}

	return vecs, nil
}
