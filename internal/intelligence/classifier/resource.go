// Package classifier is the sentence-level violation classifier. The model
// itself runs out of process; this package owns the connection to it as a
// resource with an explicit Load, Predict, Close lifecycle.
package classifier

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// Transport names accepted in classifier.transport.
const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

// Prediction is one classifier answer. A nil Label or Confidence means the
// service had no usable prediction for the sentence.
type Prediction struct {
	Label      *int
	Confidence *float64
}

// Usable reports whether both fields are set.
func (p Prediction) Usable() bool { return p.Label != nil && p.Confidence != nil }

// Predictor classifies one sentence.
type Predictor interface {
	Predict(ctx context.Context, sentence string) (Prediction, error)
}

// Transport is one wire binding of the classifier service.
type Transport interface {
	Predictor
	Health(ctx context.Context) error
	Close() error
}

const (
	stateUnloaded int32 = iota
	stateReady
	stateClosed
)

// Resource guards a Transport with the load state. Predict is safe for
// concurrent use once Load has returned nil.
type Resource struct {
	transport   Transport
	healthCheck bool
	logger      logging.Logger

	state     atomic.Int32
	loadMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

var _ Predictor = (*Resource)(nil)

// NewResource wraps t. With healthCheck set, Load fails unless the service
// reports itself healthy.
func NewResource(t Transport, healthCheck bool, logger logging.Logger) *Resource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resource{transport: t, healthCheck: healthCheck, logger: logger.Named("classifier")}
}

// New builds the transport named in cfg and wraps it. The resource still has
// to be loaded.
func New(cfg config.ClassifierConfig, logger logging.Logger) (*Resource, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "classifier: endpoint is required")
	}
	var (
		t   Transport
		err error
	)
	switch strings.ToLower(cfg.Transport) {
	case TransportGRPC, "":
		t, err = NewGRPCTransport(cfg.Endpoint, cfg.Timeout)
	case TransportHTTP:
		t, err = NewHTTPTransport(cfg.Endpoint, cfg.Timeout)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "classifier: unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	return NewResource(t, cfg.HealthCheck, logger), nil
}

// Load makes the resource ready. It is idempotent while ready and fails
// after Close.
func (r *Resource) Load(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	switch r.state.Load() {
	case stateReady:
		return nil
	case stateClosed:
		return errors.New(errors.ErrCodeClassifierClosed, "classifier: resource is closed")
	}
	if r.healthCheck {
		if err := r.transport.Health(ctx); err != nil {
			r.logger.Error("classifier health check failed", logging.Err(err))
			return errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: service is not serving")
		}
	}
	r.state.Store(stateReady)
	r.logger.Info("classifier ready", logging.Bool("health_checked", r.healthCheck))
	return nil
}

// Ready reports whether Load succeeded and Close has not been called.
func (r *Resource) Ready() bool { return r.state.Load() == stateReady }

func (r *Resource) Predict(ctx context.Context, sentence string) (Prediction, error) {
	switch r.state.Load() {
	case stateUnloaded:
		return Prediction{}, errors.New(errors.ErrCodeClassifierNotLoaded, "classifier: Predict before Load")
	case stateClosed:
		return Prediction{}, errors.New(errors.ErrCodeClassifierClosed, "classifier: resource is closed")
	}
	return r.transport.Predict(ctx, sentence)
}

// Close releases the transport. Later calls return the first result.
func (r *Resource) Close() error {
	r.closeOnce.Do(func() {
		r.state.Store(stateClosed)
		r.closeErr = r.transport.Close()
	})
	return r.closeErr
}

// Func adapts a function to Predictor.
type Func func(ctx context.Context, sentence string) (Prediction, error)

func (f Func) Predict(ctx context.Context, sentence string) (Prediction, error) { return f(ctx, sentence) }

// Of builds a usable Prediction.
func Of(label int, confidence float64) Prediction {
	return Prediction{Label: &label, Confidence: &confidence}
}

//Personal.AI order the ending
