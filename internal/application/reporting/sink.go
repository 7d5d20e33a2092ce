// Package reporting persists the merged findings of a review run: local JSON
// and text artifacts always, object storage, an event and database rows when
// configured.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Publisher targets used in logs and metrics.
const (
	TargetObjectStore = "minio"
	TargetEvents      = "kafka"
	TargetDatabase    = "postgres"
)

// ArtifactUploader stores a local file under a key.
type ArtifactUploader interface {
	UploadFile(ctx context.Context, bucket, objectKey, path string) (*minio.UploadResult, error)
}

// EventPublisher emits the completion event.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// FindingStore persists a run and its findings.
type FindingStore interface {
	Save(ctx context.Context, report types.ReviewReport, done types.ReviewCompleted) error
}

// Options wires the optional publishers. Nil collaborators are skipped.
type Options struct {
	OutputDir      string
	Uploader       ArtifactUploader
	Bucket         string
	Events         EventPublisher
	CompletedTopic string
	Store          FindingStore
}

// Sink writes review artifacts.
type Sink struct {
	opts    Options
	now     func() time.Time
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

func NewSink(opts Options, logger logging.Logger, metrics *prometheus.ReviewMetrics) *Sink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultSinkOutputDir
	}
	if opts.CompletedTopic == "" {
		opts.CompletedTopic = kafka.TopicReviewCompleted
	}
	return &Sink{opts: opts, now: time.Now, logger: logger.Named("sink"), metrics: metrics}
}

// Save writes violation_results_<ts>.json and violation_report_<ts>.txt and
// then runs each configured publisher. Only a local write failure is
// returned; publisher failures are logged and counted.
func (s *Sink) Save(ctx context.Context, report types.ReviewReport, requestID string) (types.ReviewCompleted, error) {
	now := s.now()
	ts := now.Format(TimestampLayout)
	findings := report.Findings
	if findings == nil {
		findings = []types.ViolationFinding{}
	}

	if err := os.MkdirAll(s.opts.OutputDir, 0o755); err != nil {
		return types.ReviewCompleted{}, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "create output directory").WithDetail(s.opts.OutputDir)
	}

	jsonPath := filepath.Join(s.opts.OutputDir, "violation_results_"+ts+".json")
	raw, err := encodeFindings(findings)
	if err != nil {
		return types.ReviewCompleted{}, errors.Wrap(err, errors.ErrCodeSerialization, "encode findings")
	}
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return types.ReviewCompleted{}, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "write findings").WithDetail(jsonPath)
	}
	s.logger.Info("findings saved", logging.String("path", jsonPath), logging.Int("findings", len(findings)))

	reportPath := filepath.Join(s.opts.OutputDir, "violation_report_"+ts+".txt")
	text, err := RenderText(report, now)
	if err != nil {
		return types.ReviewCompleted{}, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "render report")
	}
	if err := os.WriteFile(reportPath, []byte(text), 0o644); err != nil {
		return types.ReviewCompleted{}, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "write report").WithDetail(reportPath)
	}
	s.logger.Info("report saved", logging.String("path", reportPath))

	done := types.ReviewCompleted{
		RunID:          report.RunID,
		RequestID:      requestID,
		FindingCount:   len(findings),
		RiskLevel:      report.RiskLevel,
		JSONArtifact:   jsonPath,
		ReportArtifact: reportPath,
		CompletedAt:    now,
	}
	done = s.upload(ctx, done)
	s.persist(ctx, report, done)
	s.publish(ctx, done)
	return done, nil
}

// encodeFindings writes an indented array with <, > and & kept verbatim.
func encodeFindings(findings []types.ViolationFinding) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(findings); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// upload replaces the artifact paths with object keys once both are stored.
func (s *Sink) upload(ctx context.Context, done types.ReviewCompleted) types.ReviewCompleted {
	if s.opts.Uploader == nil {
		return done
	}
	prefix := done.RunID
	if prefix == "" {
		prefix = done.CompletedAt.Format(TimestampLayout)
	}
	keys := make([]string, 0, 2)
	for _, path := range []string{done.JSONArtifact, done.ReportArtifact} {
		key := prefix + "/" + filepath.Base(path)
		if _, err := s.opts.Uploader.UploadFile(ctx, s.opts.Bucket, key, path); err != nil {
			s.failed(TargetObjectStore, done.RunID, err)
			return done
		}
		keys = append(keys, s.opts.Bucket+"/"+key)
	}
	done.JSONArtifact, done.ReportArtifact = keys[0], keys[1]
	return done
}

func (s *Sink) persist(ctx context.Context, report types.ReviewReport, done types.ReviewCompleted) {
	if s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.Save(ctx, report, done); err != nil {
		s.failed(TargetDatabase, done.RunID, err)
	}
}

func (s *Sink) publish(ctx context.Context, done types.ReviewCompleted) {
	if s.opts.Events == nil {
		return
	}
	key := done.RequestID
	if key == "" {
		key = done.RunID
	}
	if err := s.opts.Events.PublishEvent(ctx, s.opts.CompletedTopic, kafka.EventReviewCompleted, key, done); err != nil {
		s.failed(TargetEvents, done.RunID, err)
	}
}

func (s *Sink) failed(target, runID string, err error) {
	s.metrics.RecordSinkPublishError(target)
	s.logger.Error("sink publish failed", logging.String("target", target), logging.String("run_id", runID), logging.Err(err))
}

//Personal.AI order the ending
