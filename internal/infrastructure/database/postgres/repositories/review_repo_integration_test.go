//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// startPostgres launches a PostgreSQL 16 container, applies the embedded
// migrations and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "fairreview_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/fairreview_test?sslmode=disable", host, port.Port())
	require.NoError(t, postgres.RunMigrations(dsn, ""))
	require.NoError(t, postgres.RunMigrations(dsn, ""), "second run has no change")

	version, dirty, err := postgres.MigrationStatus(dsn, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.False(t, dirty)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func sampleReport() review.ReviewReport {
	label := 28
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return review.ReviewReport{
		RunID: "run-42",
		Findings: []review.ViolationFinding{
			{ViolationSentence: "投标人须在本地注册设立分支机构。", ViolationType: "限定本地注册", Confidence: 0.81, Source: review.SourceClassifier, FileName: "a.docx", LabelID: &label},
			{ViolationSentence: "评优需本地落户", ViolationType: "排斥外地经营者", Confidence: 0.7, Source: review.SourceJudge, ParagraphContext: "评优..."},
		},
		TotalSentences:     4,
		ViolatingSentences: 2,
		RiskLevel:          review.RiskMedium,
		StartedAt:          start,
		FinishedAt:         start.Add(time.Minute),
	}
}

func TestReviewRepository_SaveAndRead(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewReviewRepository(pool, nil)
	ctx := context.Background()

	report := sampleReport()
	done := review.ReviewCompleted{RunID: report.RunID, RequestID: "req-7", JSONArtifact: "reports/x.json", ReportArtifact: "reports/x.txt"}
	require.NoError(t, repo.Save(ctx, report, done))

	run, err := repo.GetRun(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, "req-7", run.RequestID)
	assert.Equal(t, 2, run.FindingCount)
	assert.Equal(t, review.RiskMedium, run.RiskLevel)
	assert.True(t, run.StartedAt.Equal(report.StartedAt))

	findings, err := repo.ListFindings(ctx, "run-42")
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, report.Findings[0].ViolationSentence, findings[0].ViolationSentence)
	require.NotNil(t, findings[0].LabelID)
	assert.Equal(t, 28, *findings[0].LabelID)
	assert.Nil(t, findings[1].LabelID)

	counts, err := repo.CountByType(ctx, report.StartedAt)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"限定本地注册": 1, "排斥外地经营者": 1}, counts)

	report.Findings = report.Findings[:1]
	require.NoError(t, repo.Save(ctx, report, done))
	findings, err = repo.ListFindings(ctx, "run-42")
	require.NoError(t, err)
	assert.Len(t, findings, 1, "resaving replaces findings")

	_, err = repo.GetRun(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestWithTransaction_RollsBack(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	err := postgres.WithTransaction(ctx, pool, func(tx pgx.Tx, ctx context.Context) error {
		_, err := tx.Exec(ctx, `INSERT INTO review_runs (run_id, started_at, finished_at) VALUES ('tmp', NOW(), NOW())`)
		require.NoError(t, err)

		inner := postgres.WithTransaction(ctx, pool, func(tx pgx.Tx, ctx context.Context) error {
			_, err := tx.Exec(ctx, `INSERT INTO review_runs (run_id, started_at, finished_at) VALUES ('inner', NOW(), NOW())`)
			require.NoError(t, err)
			return fmt.Errorf("abort inner")
		})
		assert.Error(t, inner)
		return fmt.Errorf("abort outer")
	})
	require.Error(t, err)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM review_runs`).Scan(&n))
	assert.Zero(t, n)
}

//Personal.AI order the ending
