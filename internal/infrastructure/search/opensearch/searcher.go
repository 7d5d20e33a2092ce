package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// BackendName labels metrics emitted by this lexical backend.
const BackendName = "opensearch"

// Searcher is a lexical retriever backed by an OpenSearch index built by
// Indexer. Scores are OpenSearch BM25 scores, higher is better.
type Searcher struct {
	client  *Client
	index   string
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

func NewSearcher(client *Client, index string, logger logging.Logger, metrics *prometheus.ReviewMetrics) *Searcher {
	if index == "" {
		index = DefaultIndex
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Searcher{client: client, index: index, logger: logger.Named("opensearch_searcher"), metrics: metrics}
}

// Retrieve returns up to topK chunks whose content matches query.
func (s *Searcher) Retrieve(ctx context.Context, query string, topK int) ([]review.ScoredChunk, error) {
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return []review.ScoredChunk{}, nil
	}
	return s.search(ctx, map[string]interface{}{
		"match": map[string]interface{}{"content": query},
	}, topK)
}

// RetrieveWithChapterFilter restricts the match to chunks whose chapter title
// matches any of targetChapters. When no chunk survives the filter it records
// a fallback and returns the unfiltered ranking.
func (s *Searcher) RetrieveWithChapterFilter(ctx context.Context, query string, targetChapters []string, topK int) ([]review.ScoredChunk, error) {
	targets := make([]interface{}, 0, len(targetChapters))
	for _, t := range targetChapters {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, map[string]interface{}{
				"match": map[string]interface{}{"parent_chapter_title": t},
			})
		}
	}
	if len(targets) == 0 || topK <= 0 || strings.TrimSpace(query) == "" {
		return s.Retrieve(ctx, query, topK)
	}

	hits, err := s.search(ctx, map[string]interface{}{
		"bool": map[string]interface{}{
			"must": []interface{}{
				map[string]interface{}{"match": map[string]interface{}{"content": query}},
			},
			"filter": []interface{}{
				map[string]interface{}{"bool": map[string]interface{}{
					"should":               targets,
					"minimum_should_match": 1,
				}},
			},
		},
	}, topK)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}

	s.metrics.RecordChapterFilterFallback(BackendName)
	s.logger.Warn("no chapter matched the filter, falling back to unfiltered retrieval",
		logging.Strings("target_chapters", targetChapters))
	return s.Retrieve(ctx, query, topK)
}

func (s *Searcher) search(ctx context.Context, query map[string]interface{}, size int) ([]review.ScoredChunk, error) {
	body, err := json.Marshal(map[string]interface{}{
		"size":  size,
		"query": query,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "opensearch: encode query")
	}

	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLexicalFailed, "opensearch: search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, errors.Wrap(handleErrorResponse(resp, "search failed"), errors.ErrCodeLexicalFailed, "opensearch: search failed")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Score  float64       `json:"_score"`
				Source chunkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLexicalFailed, "opensearch: decode search response")
	}

	out := make([]review.ScoredChunk, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		out = append(out, review.ScoredChunk{Score: h.Score, Chunk: h.Source.chunk()})
	}
	return out, nil
}

//Personal.AI order the ending
