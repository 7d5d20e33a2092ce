package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

type capturedRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req capturedRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req capturedRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	metrics, _ := testutil.NewTestMetrics(t)
	c, err := NewOpenAIClient(OpenAIConfig{
		APIKey: "test-key", BaseURL: baseURL + "/", Model: "doubao-test", Timeout: 5 * time.Second, Temperature: 0.1,
	}, logging.NewNopLogger(), metrics)
	require.NoError(t, err)
	return c
}

func TestNewOpenAIClient_Validation(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{Model: "m"}, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = NewOpenAIClient(OpenAIConfig{APIKey: "k"}, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

const completionOK = `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"LLM_OK"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`

func TestOpenAIClient_Chat(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req capturedRequest) {
		assert.Equal(t, "doubao-test", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, RoleSystem, req.Messages[0].Role)
			assert.Equal(t, "你好", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionOK)
	})

	c := newTestClient(t, srv.URL)
	out, err := c.Chat(context.Background(), []Message{System("sys"), User("你好")})
	require.NoError(t, err)
	assert.Equal(t, "LLM_OK", out)
}

func TestOpenAIClient_Probe(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req capturedRequest) {
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, RoleUser, req.Messages[0].Role)
			assert.Contains(t, req.Messages[0].Content, ProbeToken)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionOK)
	})

	c := newTestClient(t, srv.URL)
	ok, err := Probe(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenAIClient_ChatErrors(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req capturedRequest) {
		w.Header().Set("Content-Type", "application/json")
		if len(req.Messages) > 0 && req.Messages[0].Content == "empty" {
			fmt.Fprint(w, `{"id":"1","choices":[]}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Generate(context.Background(), "empty")
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMEmptyResponse))

	_, err = c.Generate(context.Background(), "fail")
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMRequestFailed))
}

func TestOpenAIClient_Stream(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req capturedRequest) {
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"公平", "", "竞争"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	c := newTestClient(t, srv.URL)

	ch, err := c.Stream(context.Background(), []Message{User("写一句话")})
	require.NoError(t, err)

	var pieces []string
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		pieces = append(pieces, chunk.Content)
	}
	assert.Equal(t, []string{"公平", "竞争"}, pieces)
}

func TestCollect(t *testing.T) {
	ch := make(chan StreamChunk, 3)
	ch <- StreamChunk{Content: "a"}
	ch <- StreamChunk{Content: "b"}
	ch <- StreamChunk{Err: fmt.Errorf("cut")}
	close(ch)
	out, err := Collect(ch)
	assert.Equal(t, "ab", out)
	assert.EqualError(t, err, "cut")
}

func TestMockGenerator(t *testing.T) {
	m := &MockGenerator{ChatFunc: func(_ context.Context, msgs []Message) (string, error) {
		return "echo:" + msgs[len(msgs)-1].Content, nil
	}}
	ch, err := m.Stream(context.Background(), []Message{User("x")})
	require.NoError(t, err)
	out, err := Collect(ch)
	require.NoError(t, err)
	assert.Equal(t, "echo:x", out)
	assert.Len(t, m.Calls(), 1)
	assert.Equal(t, "mock", m.Model())
}

//Personal.AI order the ending
