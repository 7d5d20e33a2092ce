package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

type predictRequest struct {
	Sentence string `json:"sentence"`
}

type predictResponse struct {
	Label      *int     `json:"label"`
	Confidence *float64 `json:"confidence"`
}

// HTTPTransport posts {"sentence": s} to {base}/predict and probes
// {base}/health.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, errors.Newf(errors.ErrCodeValidation, "classifier: endpoint %q is not an http url", baseURL)
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (t *HTTPTransport) Predict(ctx context.Context, sentence string) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Sentence: sentence})
	if err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeSerialization, "classifier: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: http predict failed")
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, errors.New(errors.ErrCodeClassifierUnavailable, "classifier: http predict failed").
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, raw))
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeClassifierBadResponse, "classifier: decode response")
	}
	return Prediction{Label: out.Label, Confidence: out.Confidence}, nil
}

func (t *HTTPTransport) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: build health request")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: health check failed")
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeClassifierUnavailable, "classifier: health returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

//Personal.AI order the ending
