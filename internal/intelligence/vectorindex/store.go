// Package vectorindex provides semantic retrieval over chunk embeddings and
// the rebuild-or-load policy shared by every backend.
package vectorindex

import (
	"context"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Store is a persisted vector index. SimilaritySearchWithScore returns
// distances: lower means more similar.
type Store interface {
	// Build replaces any persisted index with one over chunks.
	Build(ctx context.Context, chunks []review.Chunk) error
	// Load opens a persisted index. It reports false when none exists.
	Load(ctx context.Context) (bool, error)
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]review.ScoredChunk, error)
}

// Open applies the rebuild policy: a forced recreate or a missing index
// triggers a full rebuild from chunks, otherwise the persisted index is
// loaded. Rebuilding with no non-empty chunk is an error.
func Open(ctx context.Context, store Store, chunks []review.Chunk, forceRecreate bool, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if !forceRecreate {
		loaded, err := store.Load(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexLoadFailed, "vector index: load failed")
		}
		if loaded {
			logger.Info("vector index loaded")
			return nil
		}
		logger.Info("no persisted vector index, rebuilding")
	}

	kept := NonEmpty(chunks)
	if len(kept) == 0 {
		return errors.New(errors.ErrCodeEmptyCorpus, "vector index: no chunk with non-empty content to embed")
	}
	if err := store.Build(ctx, kept); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "vector index: build failed")
	}
	logger.Info("vector index built", logging.Int("chunks", len(kept)), logging.Bool("forced", forceRecreate))
	return nil
}

// NonEmpty returns the chunks whose content is non-empty after trimming.
func NonEmpty(chunks []review.Chunk) []review.Chunk {
	out := make([]review.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) != "" {
			out = append(out, c)
		}
	}
	return out
}

//Personal.AI order the ending
