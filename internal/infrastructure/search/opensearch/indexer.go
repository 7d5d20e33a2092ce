package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// DefaultIndex is used when opensearch.index is empty.
const DefaultIndex = "fair_review_chunks"

// chunkDocument is the indexed form of a chunk.
type chunkDocument struct {
	Content            string `json:"content"`
	FileName           string `json:"file_name"`
	FilePath           string `json:"file_path"`
	ParentChapterTitle string `json:"parent_chapter_title"`
	ParentChapterID    int    `json:"parent_chapter_id,omitempty"`
	MinChunkID         int    `json:"min_chunk_id,omitempty"`
	DocumentType       string `json:"document_type,omitempty"`
	Authority          string `json:"authority,omitempty"`
	PolicyType         string `json:"policy_type,omitempty"`
	InputTime          string `json:"input_time,omitempty"`
}

func documentFrom(c review.Chunk) chunkDocument {
	m := c.Metadata
	return chunkDocument{
		Content:            c.Content,
		FileName:           m.FileName,
		FilePath:           m.FilePath,
		ParentChapterTitle: m.ParentChapterTitle,
		ParentChapterID:    m.ParentChapterID,
		MinChunkID:         m.MinChunkID,
		DocumentType:       m.DocumentType,
		Authority:          m.Authority,
		PolicyType:         m.PolicyType,
		InputTime:          m.InputTime,
	}
}

func (d chunkDocument) chunk() review.Chunk {
	return review.Chunk{
		Content: d.Content,
		Metadata: review.ChunkMetadata{
			FileName:           d.FileName,
			FilePath:           d.FilePath,
			ParentChapterTitle: d.ParentChapterTitle,
			ParentChapterID:    d.ParentChapterID,
			MinChunkID:         d.MinChunkID,
			DocumentType:       d.DocumentType,
			Authority:          d.Authority,
			PolicyType:         d.PolicyType,
			InputTime:          d.InputTime,
		},
	}
}

// ChunkIndexMapping scores content and chapter titles with BM25 using the
// same k1/b pairs as the in-process retriever.
func ChunkIndexMapping() map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"similarity": map[string]interface{}{
				"content_bm25": map[string]interface{}{"type": "BM25", "k1": 1.5, "b": 0.75},
				"chapter_bm25": map[string]interface{}{"type": "BM25", "k1": 1.2, "b": 0.4},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content":              map[string]interface{}{"type": "text", "similarity": "content_bm25"},
				"parent_chapter_title": map[string]interface{}{"type": "text", "similarity": "chapter_bm25", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword"}}},
				"file_name":            map[string]interface{}{"type": "keyword"},
				"file_path":            map[string]interface{}{"type": "keyword"},
				"parent_chapter_id":    map[string]interface{}{"type": "integer"},
				"min_chunk_id":         map[string]interface{}{"type": "integer"},
				"document_type":        map[string]interface{}{"type": "keyword"},
				"authority":            map[string]interface{}{"type": "keyword"},
				"policy_type":          map[string]interface{}{"type": "keyword"},
				"input_time":           map[string]interface{}{"type": "keyword"},
			},
		},
	}
}

// Indexer mirrors the chunk store into an OpenSearch index.
type Indexer struct {
	client    *Client
	index     string
	batchSize int
	logger    logging.Logger
}

func NewIndexer(client *Client, index string, logger logging.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{client: client, index: index, batchSize: 500, logger: logger.Named("opensearch_indexer")}
}

// Index returns the target index name.
func (i *Indexer) Index() string { return i.index }

// IndexExists reports whether the target index exists.
func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.CodeSearchError, "opensearch: check index existence")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 200:
		return true, nil
	case resp.StatusCode == 404:
		return false, nil
	default:
		return false, handleErrorResponse(resp, "check index existence failed")
	}
}

// Recreate drops the index if present and creates it with ChunkIndexMapping.
func (i *Indexer) Recreate(ctx context.Context) error {
	exists, err := i.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		resp, err := opensearchapi.IndicesDeleteRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
		if err != nil {
			return errors.Wrap(err, errors.CodeSearchError, "opensearch: delete index")
		}
		defer resp.Body.Close()
		if resp.IsError() {
			return handleErrorResponse(resp, "delete index failed")
		}
		i.logger.Warn("Index dropped", logging.String("index", i.index))
	}

	body, err := json.Marshal(ChunkIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "opensearch: encode mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader(body)}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "opensearch: create index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return handleErrorResponse(resp, "create index failed")
	}
	i.logger.Info("Index created", logging.String("index", i.index))
	return nil
}

// Mirror replaces the index contents with chunks. Document ids are the
// chunk positions so repeated mirrors of the same store are idempotent.
func (i *Indexer) Mirror(ctx context.Context, chunks []review.Chunk) error {
	if err := i.Recreate(ctx); err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += i.batchSize {
		end := start + i.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		var buf bytes.Buffer
		for n := start; n < end; n++ {
			meta, _ := json.Marshal(map[string]interface{}{
				"index": map[string]string{"_index": i.index, "_id": strconv.Itoa(n)},
			})
			doc, err := json.Marshal(documentFrom(chunks[n]))
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "opensearch: encode chunk")
			}
			buf.Write(meta)
			buf.WriteByte('\n')
			buf.Write(doc)
			buf.WriteByte('\n')
		}

		if err := i.bulk(ctx, &buf); err != nil {
			return err
		}
	}

	i.logger.Info("Chunks mirrored", logging.String("index", i.index), logging.Int("count", len(chunks)))
	return nil
}

func (i *Indexer) bulk(ctx context.Context, body *bytes.Buffer) error {
	resp, err := opensearchapi.BulkRequest{Body: bytes.NewReader(body.Bytes()), Refresh: "true"}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "opensearch: bulk request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return handleErrorResponse(resp, "bulk request failed")
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string `json:"_id"`
			Error *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "opensearch: decode bulk response")
	}
	if !result.Errors {
		return nil
	}
	var reasons []string
	for _, item := range result.Items {
		for _, r := range item {
			if r.Error != nil {
				reasons = append(reasons, r.ID+": "+r.Error.Reason)
			}
		}
	}
	return errors.New(errors.ErrCodeIndexBuildFailed, "opensearch: bulk items failed").WithDetail(strings.Join(reasons, "; "))
}

func handleErrorResponse(resp *opensearchapi.Response, msg string) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Newf(errors.CodeSearchError, "opensearch: %s: %s - %s", msg, errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Newf(errors.CodeSearchError, "opensearch: %s: status %d", msg, resp.StatusCode)
}

//Personal.AI order the ending
