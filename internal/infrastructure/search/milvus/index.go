package milvus

import (
	"context"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/embedding"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Field names of the chunk collection.
const (
	FieldID        = "id"
	FieldContent   = "content"
	FieldMetadata  = "metadata"
	FieldEmbedding = "embedding"
)

const (
	// DefaultCollection is used when vector.milvus.collection is empty.
	DefaultCollection = "fair_review_chunks"

	maxContentLength  = 65535
	maxMetadataLength = 8192
)

// ChunkIndex stores chunk embeddings in one Milvus collection and answers
// L2 similarity queries over it.
type ChunkIndex struct {
	client     *Client
	embedder   embedding.Embedder
	collection string
	shards     int32
	logger     logging.Logger
}

// NewChunkIndex binds a collection name to a connected client.
func NewChunkIndex(c *Client, embedder embedding.Embedder, collection string, shards int32, logger logging.Logger) *ChunkIndex {
	if collection == "" {
		collection = DefaultCollection
	}
	if shards <= 0 {
		shards = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChunkIndex{
		client:     c,
		embedder:   embedder,
		collection: collection,
		shards:     shards,
		logger:     logger.Named("milvus_index"),
	}
}

// Collection returns the bound collection name.
func (x *ChunkIndex) Collection() string { return x.collection }

func chunkSchema(name string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "policy clause embeddings",
		Fields: []*entity.Field{
			{Name: FieldID, DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: true},
			{Name: FieldContent, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": strconv.Itoa(maxContentLength)}},
			{Name: FieldMetadata, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": strconv.Itoa(maxMetadataLength)}},
			{Name: FieldEmbedding, DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": strconv.Itoa(dim)}},
		},
	}
}

// Build drops any existing collection and recreates it from chunks.
func (x *ChunkIndex) Build(ctx context.Context, chunks []review.Chunk) error {
	mc := x.client.GetMilvusClient()

	texts := make([]string, len(chunks))
	metas := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = truncateBytes(c.Content, maxContentLength)
		raw, err := json.Marshal(c.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "milvus: encode chunk metadata")
		}
		if len(raw) > maxMetadataLength {
			return errors.New(errors.ErrCodeIndexBuildFailed, "milvus: chunk metadata too large").WithDetail(c.Metadata.FileName)
		}
		metas[i] = string(raw)
	}

	vecs, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(chunks) || len(vecs) == 0 {
		return errors.New(errors.ErrCodeIndexBuildFailed, "milvus: embedder returned wrong number of vectors")
	}
	dim := len(vecs[0])
	for _, v := range vecs {
		if len(v) != dim {
			return errors.New(errors.ErrCodeDimensionMismatch, "milvus: inconsistent embedding dimension")
		}
		embedding.Normalize(v)
	}

	has, err := mc.HasCollection(ctx, x.collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: check collection")
	}
	if has {
		if err := mc.DropCollection(ctx, x.collection); err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: drop collection")
		}
		x.logger.Warn("Collection dropped", logging.String("name", x.collection))
	}

	if err := mc.CreateCollection(ctx, chunkSchema(x.collection, dim), x.shards); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: create collection")
	}

	if _, err := mc.Insert(ctx, x.collection, "",
		entity.NewColumnVarChar(FieldContent, texts),
		entity.NewColumnVarChar(FieldMetadata, metas),
		entity.NewColumnFloatVector(FieldEmbedding, dim, vecs),
	); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: insert chunks")
	}
	if err := mc.Flush(ctx, x.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: flush")
	}

	idx, err := entity.NewIndexFlat(entity.L2)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: build index params")
	}
	if err := mc.CreateIndex(ctx, x.collection, FieldEmbedding, idx, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: create index")
	}
	if err := mc.LoadCollection(ctx, x.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "milvus: load collection")
	}

	x.logger.Info("Collection built",
		logging.String("name", x.collection),
		logging.Int("vectors", len(vecs)),
		logging.Int("dimension", dim))
	return nil
}

// Load loads an existing collection into memory. It reports false when the
// collection does not exist.
func (x *ChunkIndex) Load(ctx context.Context) (bool, error) {
	mc := x.client.GetMilvusClient()
	has, err := mc.HasCollection(ctx, x.collection)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeIndexLoadFailed, "milvus: check collection")
	}
	if !has {
		return false, nil
	}
	if err := mc.LoadCollection(ctx, x.collection, false); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeIndexLoadFailed, "milvus: load collection")
	}
	x.logger.Info("Collection loaded", logging.String("name", x.collection))
	return true, nil
}

// SimilaritySearchWithScore embeds query and returns the k nearest chunks
// with their L2 distances.
func (x *ChunkIndex) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]review.ScoredChunk, error) {
	if k <= 0 {
		return []review.ScoredChunk{}, nil
	}
	vecs, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorFailed, "milvus: embed query")
	}
	if len(vecs) != 1 {
		return nil, errors.New(errors.ErrCodeVectorFailed, "milvus: embedder returned no query vector")
	}
	q := embedding.Normalize(vecs[0])

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorFailed, "milvus: search params")
	}
	results, err := x.client.GetMilvusClient().Search(ctx, x.collection, nil, "",
		[]string{FieldContent, FieldMetadata},
		[]entity.Vector{entity.FloatVector(q)},
		FieldEmbedding, entity.L2, k, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorFailed, "milvus: search failed")
	}
	if len(results) == 0 {
		return []review.ScoredChunk{}, nil
	}
	return decodeResult(results[0])
}

func decodeResult(res client.SearchResult) ([]review.ScoredChunk, error) {
	if res.Err != nil {
		return nil, errors.Wrap(res.Err, errors.ErrCodeVectorFailed, "milvus: search result error")
	}
	contentCol, ok := res.Fields.GetColumn(FieldContent).(*entity.ColumnVarChar)
	if !ok {
		return nil, errors.New(errors.ErrCodeVectorFailed, "milvus: result has no content column")
	}
	metaCol, ok := res.Fields.GetColumn(FieldMetadata).(*entity.ColumnVarChar)
	if !ok {
		return nil, errors.New(errors.ErrCodeVectorFailed, "milvus: result has no metadata column")
	}

	contents, metas := contentCol.Data(), metaCol.Data()
	n := res.ResultCount
	if n > len(res.Scores) {
		n = len(res.Scores)
	}
	if n > len(contents) {
		n = len(contents)
	}

	out := make([]review.ScoredChunk, 0, n)
	for i := 0; i < n; i++ {
		var md review.ChunkMetadata
		if i < len(metas) && metas[i] != "" {
			if err := json.Unmarshal([]byte(metas[i]), &md); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeVectorFailed, "milvus: decode chunk metadata")
			}
		}
		out = append(out, review.ScoredChunk{
			Score: float64(res.Scores[i]),
			Chunk: review.Chunk{Content: contents[i], Metadata: md},
		})
	}
	return out, nil
}

// truncateBytes cuts s to at most n bytes on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

//Personal.AI order the ending
