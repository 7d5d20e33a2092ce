// Package worker turns review requests consumed from Kafka into pipeline
// reviews.
package worker

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Message outcomes counted in worker_messages_total.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusFailed  = "failed"
)

// Reviewer analyzes chunks and saves the report.
type Reviewer interface {
	Review(ctx context.Context, chunks []types.Chunk, requestID string) (types.ReviewReport, types.ReviewCompleted, error)
}

type Handler struct {
	reviewer Reviewer
	timeout  time.Duration
	logger   logging.Logger
	metrics  *prometheus.ReviewMetrics
	now      func() time.Time
}

// NewHandler builds the request handler. A zero timeout leaves the consumer
// context as is.
func NewHandler(reviewer Reviewer, timeout time.Duration, logger logging.Logger, metrics *prometheus.ReviewMetrics) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		reviewer: reviewer,
		timeout:  timeout,
		logger:   logger.Named("review_worker"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Handle is a kafka.MessageHandler. A malformed request is logged and
// acknowledged since redelivery cannot fix it. A failed review returns the
// error so the consumer retries and eventually dead letters the message.
func (h *Handler) Handle(ctx context.Context, msg *kafka.Message) error {
	req, chunks, err := DecodeRequest(msg, h.now())
	if err != nil {
		h.metrics.RecordMessage(StatusInvalid)
		h.logger.Error("review request rejected",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return nil
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	log := h.logger.With(logging.String("request_id", req.RequestID))
	log.Info("review request received", logging.Int("chunks", len(chunks)))
	start := time.Now()
	report, done, err := h.reviewer.Review(ctx, chunks, req.RequestID)
	if err != nil {
		h.metrics.RecordMessage(StatusFailed)
		log.Error("review failed", logging.Err(err))
		return err
	}
	h.metrics.RecordMessage(StatusOK)
	log.Info("review completed",
		logging.String("run_id", report.RunID),
		logging.Int("findings", len(report.Findings)),
		logging.String("risk_level", report.RiskLevel),
		logging.String("report", done.ReportArtifact),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// DecodeRequest reads a ReviewRequested envelope. Free text becomes a single
// user-input chunk; otherwise the request must carry chunks. A request
// without an id takes the message key, then the event id.
func DecodeRequest(msg *kafka.Message, now time.Time) (types.ReviewRequest, []types.Chunk, error) {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return types.ReviewRequest{}, nil, err
	}
	if env.EventType != kafka.EventReviewRequested {
		return types.ReviewRequest{}, nil, errors.New(errors.ErrCodeValidation, "unexpected event type").WithDetail(env.EventType)
	}
	var req types.ReviewRequest
	if err := env.DecodePayload(&req); err != nil {
		return types.ReviewRequest{}, nil, err
	}

	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}
	if req.RequestID == "" {
		req.RequestID = env.EventID
	}

	text := strings.TrimSpace(req.Text)
	switch {
	case text != "" && len(req.Chunks) > 0:
		return req, nil, errors.New(errors.ErrCodeValidation, "request carries both text and chunks").WithDetail(req.RequestID)
	case text != "":
		submitted := req.Submitted
		if submitted.IsZero() {
			submitted = now
		}
		return req, []types.Chunk{chunkstore.UserInputChunk(text, submitted)}, nil
	case len(req.Chunks) > 0:
		return req, req.Chunks, nil
	default:
		return req, nil, errors.New(errors.ErrCodeValidation, "request carries neither text nor chunks").WithDetail(req.RequestID)
	}
}

//Personal.AI order the ending
