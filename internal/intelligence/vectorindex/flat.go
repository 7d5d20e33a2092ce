package vectorindex

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/embedding"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// FlatFileName is the artifact written under the persist directory.
const FlatFileName = "flat_index.json"

type flatFile struct {
	Dimension int            `json:"dimension"`
	Chunks    []review.Chunk `json:"chunks"`
	Vectors   [][]float32    `json:"vectors"`
}

// FlatStore is an exact squared-L2 index kept in memory and persisted as
// one JSON file.
type FlatStore struct {
	dir      string
	embedder embedding.Embedder
	logger   logging.Logger

	mu   sync.RWMutex
	data *flatFile
}

var _ Store = (*FlatStore)(nil)

func NewFlatStore(persistDir string, embedder embedding.Embedder, logger logging.Logger) *FlatStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FlatStore{dir: persistDir, embedder: embedder, logger: logger.Named("flat_index")}
}

func (s *FlatStore) path() string { return filepath.Join(s.dir, FlatFileName) }

func (s *FlatStore) Build(ctx context.Context, chunks []review.Chunk) error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "flat index: remove old artifact")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(chunks) {
		return errors.New(errors.ErrCodeIndexBuildFailed, "flat index: embedder returned wrong number of vectors")
	}

	dim := 0
	for i, v := range vecs {
		if i == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return errors.New(errors.ErrCodeDimensionMismatch, "flat index: inconsistent embedding dimension")
		}
		embedding.Normalize(v)
	}

	data := &flatFile{Dimension: dim, Chunks: chunks, Vectors: vecs}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "flat index: encode")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "flat index: create directory")
	}
	if err := os.WriteFile(s.path(), raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "flat index: write")
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	s.logger.Info("flat index persisted", logging.String("path", s.path()), logging.Int("vectors", len(vecs)), logging.Int("dimension", dim))
	return nil
}

func (s *FlatStore) Load(ctx context.Context) (bool, error) {
	raw, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeIndexLoadFailed, "flat index: read")
	}
	var data flatFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeIndexLoadFailed, "flat index: decode")
	}
	if len(data.Chunks) != len(data.Vectors) {
		return false, errors.New(errors.ErrCodeIndexLoadFailed, "flat index: chunk and vector counts differ")
	}
	s.mu.Lock()
	s.data = &data
	s.mu.Unlock()
	return true, nil
}

func (s *FlatStore) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]review.ScoredChunk, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data == nil {
		return nil, errors.New(errors.ErrCodeIndexNotReady, "flat index: not built or loaded")
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorFailed, "flat index: embed query")
	}
	if len(vecs) != 1 {
		return nil, errors.New(errors.ErrCodeVectorFailed, "flat index: embedder returned no query vector")
	}
	q := embedding.Normalize(vecs[0])
	if len(q) != data.Dimension {
		return nil, errors.New(errors.ErrCodeDimensionMismatch, "flat index: query dimension differs from index")
	}

	out := make([]review.ScoredChunk, len(data.Vectors))
	for i, v := range data.Vectors {
		out[i] = review.ScoredChunk{Score: squaredL2(q, v), Chunk: data.Chunks[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

//Personal.AI order the ending
