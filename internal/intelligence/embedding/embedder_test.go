package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

func TestOpenAIEmbedder_BatchesAndOrders(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "embed-test", req.Model)

		// Answer in reverse order to check that Index is honoured.
		var items []string
		for i := len(req.Input) - 1; i >= 0; i-- {
			items = append(items, fmt.Sprintf(`{"object":"embedding","index":%d,"embedding":[%d,0]}`, i, len([]rune(req.Input[i]))))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"object":"list","data":[%s],"model":"embed-test","usage":{"prompt_tokens":3,"total_tokens":3}}`, strings.Join(items, ","))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(
		config.EmbeddingConfig{Model: "embed-test", BatchSize: 2, Timeout: 5 * time.Second},
		config.LLMConfig{APIKey: "k", BaseURL: srv.URL},
		nil, nil)
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}, {3, 0}}, vecs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIEmbedder_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(config.EmbeddingConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"}, config.LLMConfig{}, nil, nil)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"x"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingFailed))
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(config.EmbeddingConfig{}, config.LLMConfig{}, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	assert.InDelta(t, 1, math.Sqrt(sum), 1e-6)

	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
}

//Personal.AI order the ending
