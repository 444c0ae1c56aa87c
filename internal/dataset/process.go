package dataset

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProcessSplit generates triplets for every sample in a split and returns
// the distinct entities (triplet subjects and objects) seen across the
// split, sorted. The entity list is what feeds trie updates.
func ProcessSplit(ctx context.Context, split Split, opts Options, workers int, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	distinct := make(map[string]bool)

	claims := split.Claims()
	logger.Info("Processing split",
		zap.Int("records", len(claims)),
		zap.Int("workers", workers),
	)

	for _, claim := range claims {
		sample := split[claim]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := GenerateTriplets(sample, opts); err != nil {
				return fmt.Errorf("claim %q: %w", claim, err)
			}

			mu.Lock()
			for _, t := range sample.Triplets {
				distinct[t.Subject] = true
				distinct[t.Object] = true
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entities := make([]string, 0, len(distinct))
	for e := range distinct {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	logger.Info("Split processed", zap.Int("distinct_entities", len(entities)))
	return entities, nil
}
