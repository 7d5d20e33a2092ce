package classifier

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

const (
	// ServiceName is the gRPC service and the health-check service name.
	ServiceName = "fairreview.classifier.v1.Classifier"
	// PredictMethod is the full method name of the unary predict call.
	PredictMethod = "/" + ServiceName + "/Predict"
)

// GRPCTransport calls the classifier with google.protobuf.Struct messages:
// {"sentence": s} in, {"label": n|null, "confidence": x|null} out.
type GRPCTransport struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

var _ Transport = (*GRPCTransport)(nil)

// NewGRPCTransport creates a lazily connecting client for target. Extra
// dial options are appended after the insecure transport credentials.
func NewGRPCTransport(target string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCTransport, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: create grpc client")
	}
	return &GRPCTransport{conn: conn, timeout: timeout}, nil
}

func (t *GRPCTransport) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout > 0 {
		return context.WithTimeout(ctx, t.timeout)
	}
	return context.WithCancel(ctx)
}

func (t *GRPCTransport) Predict(ctx context.Context, sentence string) (Prediction, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := structpb.NewStruct(map[string]interface{}{"sentence": sentence})
	if err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeSerialization, "classifier: encode request")
	}
	resp := &structpb.Struct{}
	if err := t.conn.Invoke(ctx, PredictMethod, req, resp); err != nil {
		return Prediction{}, errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: grpc predict failed")
	}
	return predictionFromStruct(resp)
}

func (t *GRPCTransport) Health(ctx context.Context) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	resp, err := healthpb.NewHealthClient(t.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeClassifierUnavailable, "classifier: health check failed")
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return errors.Newf(errors.ErrCodeClassifierUnavailable, "classifier: service status %s", resp.GetStatus())
	}
	return nil
}

func (t *GRPCTransport) Close() error { return t.conn.Close() }

func predictionFromStruct(s *structpb.Struct) (Prediction, error) {
	var p Prediction
	fields := s.GetFields()
	if v, ok := fields["label"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_NumberValue:
			label := int(k.NumberValue)
			p.Label = &label
		case *structpb.Value_NullValue, nil:
		default:
			return Prediction{}, errors.New(errors.ErrCodeClassifierBadResponse, "classifier: label is not a number")
		}
	}
	if v, ok := fields["confidence"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_NumberValue:
			conf := k.NumberValue
			p.Confidence = &conf
		case *structpb.Value_NullValue, nil:
		default:
			return Prediction{}, errors.New(errors.ErrCodeClassifierBadResponse, "classifier: confidence is not a number")
		}
	}
	return p, nil
}

//Personal.AI order the ending
