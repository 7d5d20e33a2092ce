// Package repositories holds the PostgreSQL persistence of review runs.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// RunRecord is a stored review run without its findings.
type RunRecord struct {
	RunID              string
	RequestID          string
	TotalSentences     int
	ViolatingSentences int
	RiskLevel          string
	FindingCount       int
	JSONArtifact       string
	ReportArtifact     string
	StartedAt          time.Time
	FinishedAt         time.Time
}

var findingColumns = []string{
	"run_id", "position", "violation_sentence", "violation_type", "confidence", "basis",
	"suggestion", "source", "file_name", "file_path", "parent_chapter", "paragraph_context", "label_id",
}

type ReviewRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func NewReviewRepository(pool *pgxpool.Pool, logger logging.Logger) *ReviewRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReviewRepository{pool: pool, logger: logger.Named("review_repo")}
}

// Save stores the run and its findings in one transaction. Saving the same
// run twice replaces its findings.
func (r *ReviewRepository) Save(ctx context.Context, report review.ReviewReport, done review.ReviewCompleted) error {
	err := postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, ctx context.Context) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO review_runs (
				run_id, request_id, total_sentences, violating_sentences, risk_level,
				finding_count, json_artifact, report_artifact, started_at, finished_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (run_id) DO UPDATE SET
				request_id = EXCLUDED.request_id,
				total_sentences = EXCLUDED.total_sentences,
				violating_sentences = EXCLUDED.violating_sentences,
				risk_level = EXCLUDED.risk_level,
				finding_count = EXCLUDED.finding_count,
				json_artifact = EXCLUDED.json_artifact,
				report_artifact = EXCLUDED.report_artifact,
				started_at = EXCLUDED.started_at,
				finished_at = EXCLUDED.finished_at`,
			report.RunID, done.RequestID, report.TotalSentences, report.ViolatingSentences, report.RiskLevel,
			len(report.Findings), done.JSONArtifact, done.ReportArtifact, report.StartedAt, report.FinishedAt)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert review run")
		}

		if _, err := tx.Exec(ctx, `DELETE FROM review_findings WHERE run_id = $1`, report.RunID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "clear review findings")
		}
		if len(report.Findings) == 0 {
			return nil
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"review_findings"}, findingColumns, pgx.CopyFromRows(FindingRows(report.RunID, report.Findings)))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "copy review findings")
		}
		r.logger.Debug("findings stored", logging.String("run_id", report.RunID), logging.Int64("rows", n))
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkPublishFailed, "persist review run").WithDetail(report.RunID)
	}
	return nil
}

// FindingRows lays findings out in findingColumns order. Positions start
// at 0 and keep the report order.
func FindingRows(runID string, findings []review.ViolationFinding) [][]interface{} {
	rows := make([][]interface{}, len(findings))
	for i, f := range findings {
		var label interface{}
		if f.LabelID != nil {
			label = int32(*f.LabelID)
		}
		rows[i] = []interface{}{
			runID, int32(i), f.ViolationSentence, f.ViolationType, f.Confidence, f.Basis,
			f.Suggestion, f.Source, f.FileName, f.FilePath, f.ParentChapter, f.ParagraphContext, label,
		}
	}
	return rows
}

// GetRun returns the stored run or an ErrCodeNotFound error.
func (r *ReviewRepository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var rec RunRecord
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, request_id, total_sentences, violating_sentences, risk_level,
			finding_count, json_artifact, report_artifact, started_at, finished_at
		FROM review_runs WHERE run_id = $1`, runID).Scan(
		&rec.RunID, &rec.RequestID, &rec.TotalSentences, &rec.ViolatingSentences, &rec.RiskLevel,
		&rec.FindingCount, &rec.JSONArtifact, &rec.ReportArtifact, &rec.StartedAt, &rec.FinishedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("review run not found").WithDetail(runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query review run")
	}
	return &rec, nil
}

// ListFindings returns a run's findings in report order.
func (r *ReviewRepository) ListFindings(ctx context.Context, runID string) ([]review.ViolationFinding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT violation_sentence, violation_type, confidence, basis, suggestion, source,
			file_name, file_path, parent_chapter, paragraph_context, label_id
		FROM review_findings WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query review findings")
	}
	defer rows.Close()

	out := []review.ViolationFinding{}
	for rows.Next() {
		var (
			f     review.ViolationFinding
			label *int32
		)
		if err := rows.Scan(&f.ViolationSentence, &f.ViolationType, &f.Confidence, &f.Basis, &f.Suggestion, &f.Source,
			&f.FileName, &f.FilePath, &f.ParentChapter, &f.ParagraphContext, &label); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan review finding")
		}
		if label != nil {
			v := int(*label)
			f.LabelID = &v
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate review findings")
	}
	return out, nil
}

// CountByType aggregates findings of runs finished since the given time.
func (r *ReviewRepository) CountByType(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.violation_type, COUNT(*)
		FROM review_findings f JOIN review_runs r ON r.run_id = f.run_id
		WHERE r.finished_at >= $1
		GROUP BY f.violation_type`, since)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "count findings by type")
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan finding count")
		}
		out[t] = n
	}
	return out, rows.Err()
}

//Personal.AI order the ending
