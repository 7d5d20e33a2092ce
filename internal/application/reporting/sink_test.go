package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

var fixedNow = time.Date(2026, 5, 4, 13, 2, 3, 0, time.Local)

type uploaderFunc func(ctx context.Context, bucket, key, path string) (*minio.UploadResult, error)

func (f uploaderFunc) UploadFile(ctx context.Context, bucket, key, path string) (*minio.UploadResult, error) {
	return f(ctx, bucket, key, path)
}

type recordingEvents struct {
	topic, eventType, key string
	payload               interface{}
	err                   error
}

func (r *recordingEvents) PublishEvent(_ context.Context, topic, eventType, key string, payload interface{}) error {
	r.topic, r.eventType, r.key, r.payload = topic, eventType, key, payload
	return r.err
}

type storeFunc func(ctx context.Context, report types.ReviewReport, done types.ReviewCompleted) error

func (f storeFunc) Save(ctx context.Context, report types.ReviewReport, done types.ReviewCompleted) error {
	return f(ctx, report, done)
}

func testReport() types.ReviewReport {
	label := 28
	return types.ReviewReport{
		RunID: "run-1",
		Findings: []types.ViolationFinding{
			{ViolationSentence: "甲句。", ViolationType: "类型一", Confidence: 0.81, Basis: "依据一", Suggestion: "建议一", Source: types.SourceClassifier, FileName: "a.docx", FilePath: "/in/a.docx", ParentChapter: "第一章 总则", LabelID: &label},
			{ViolationSentence: "乙句", ViolationType: "类型二", Confidence: 1, Basis: "依据二", Suggestion: "建议二", Source: types.SourceJudge, FileName: "b.docx", FilePath: "/in/b.docx", ParentChapter: "第二章"},
			{ViolationSentence: "丙句", ViolationType: "类型三", Confidence: 0, Basis: "无明确依据", Suggestion: "无具体建议", Source: types.SourceJudge, FileName: "a.docx", FilePath: "/in/a.docx", ParentChapter: "第三章"},
		},
		TotalSentences:     10,
		ViolatingSentences: 3,
		RiskLevel:          types.RiskMedium,
	}
}

func newTestSink(t *testing.T, opts Options) (*Sink, string) {
	t.Helper()
	dir := t.TempDir()
	opts.OutputDir = dir
	s := NewSink(opts, nil, nil)
	s.now = func() time.Time { return fixedNow }
	return s, dir
}

func TestSink_WritesArtifacts(t *testing.T) {
	s, dir := newTestSink(t, Options{})

	done, err := s.Save(context.Background(), testReport(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "violation_results_20260504130203.json"), done.JSONArtifact)
	assert.Equal(t, filepath.Join(dir, "violation_report_20260504130203.txt"), done.ReportArtifact)
	assert.Equal(t, 3, done.FindingCount)
	assert.Equal(t, "req-1", done.RequestID)

	raw, err := os.ReadFile(done.JSONArtifact)
	require.NoError(t, err)
	var findings []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &findings))
	require.Len(t, findings, 3)
	assert.Equal(t, "甲句。", findings[0]["violation_sentence"])
	assert.Contains(t, string(raw), "\n  {", "indented")

	text, err := os.ReadFile(done.ReportArtifact)
	require.NoError(t, err)
	report := string(text)
	assert.True(t, strings.HasPrefix(report, "# 公平竞争审查违规分析报告\n生成时间：2026-05-04 13:02:03\n总结果条数：3\n分析来源：BERT句子级分析 + LLM段落级分析\n风险等级：中风险\n运行ID：run-1\n\n## 文件：a.docx\n"))
	assert.Contains(t, report, "## 文件：a.docx\n文件路径：/in/a.docx\n章节：第一章 总则\n结果条数：2\n\n### 结果 1\n- 违规句子：甲句。\n")
	assert.Contains(t, report, "### 结果 2\n- 违规句子：丙句\n- 违规类型：类型三\n- 置信度：0.0\n")
	assert.Contains(t, report, "## 文件：b.docx\n文件路径：/in/b.docx\n章节：第二章\n结果条数：1\n\n### 结果 1\n- 违规句子：乙句\n- 违规类型：类型二\n- 置信度：1.0\n- 依据：依据二\n- 修改建议：建议二\n- 分析来源："+types.SourceJudge+"\n\n")
	assert.Less(t, strings.Index(report, "a.docx"), strings.Index(report, "b.docx"))
	assert.True(t, strings.HasSuffix(report, "\n\n"))
}

func TestSink_EmptyFindings(t *testing.T) {
	s, _ := newTestSink(t, Options{})
	done, err := s.Save(context.Background(), types.ReviewReport{RunID: "r", RiskLevel: types.RiskNone}, "")
	require.NoError(t, err)

	raw, err := os.ReadFile(done.JSONArtifact)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	text, err := os.ReadFile(done.ReportArtifact)
	require.NoError(t, err)
	assert.Contains(t, string(text), "总结果条数：0\n")
	assert.NotContains(t, string(text), "## 文件")
}

func TestSink_FindingsKeepMarkupVerbatim(t *testing.T) {
	s, _ := newTestSink(t, Options{})
	report := types.ReviewReport{RunID: "r", Findings: []types.ViolationFinding{
		{ViolationSentence: "规模<50人&注册资本>100万", ViolationType: "类型", Source: types.SourceJudge, FileName: "a.docx"},
	}}
	done, err := s.Save(context.Background(), report, "")
	require.NoError(t, err)

	raw, err := os.ReadFile(done.JSONArtifact)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"规模<50人&注册资本>100万"`)
	assert.NotContains(t, string(raw), `\u003c`)
	assert.False(t, strings.HasSuffix(string(raw), "\n"))
}

func TestSink_Publishers(t *testing.T) {
	var uploaded []string
	uploader := uploaderFunc(func(_ context.Context, bucket, key, path string) (*minio.UploadResult, error) {
		_, err := os.Stat(path)
		require.NoError(t, err)
		uploaded = append(uploaded, bucket+"/"+key)
		return &minio.UploadResult{Bucket: bucket, ObjectKey: key}, nil
	})
	events := &recordingEvents{}
	var stored types.ReviewCompleted
	store := storeFunc(func(_ context.Context, report types.ReviewReport, done types.ReviewCompleted) error {
		assert.Len(t, report.Findings, 3)
		stored = done
		return nil
	})

	s, _ := newTestSink(t, Options{Uploader: uploader, Bucket: "reports", Events: events, Store: store})
	done, err := s.Save(context.Background(), testReport(), "req-9")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"reports/run-1/violation_results_20260504130203.json",
		"reports/run-1/violation_report_20260504130203.txt",
	}, uploaded)
	assert.Equal(t, "reports/run-1/violation_results_20260504130203.json", done.JSONArtifact)
	assert.Equal(t, done, stored)
	assert.Equal(t, kafka.TopicReviewCompleted, events.topic)
	assert.Equal(t, kafka.EventReviewCompleted, events.eventType)
	assert.Equal(t, "req-9", events.key)
	assert.Equal(t, done, events.payload)
}

func TestSink_PublisherFailuresAreIsolated(t *testing.T) {
	metrics, collector := testutil.NewTestMetrics(t)
	logger := testutil.NewMockLogger()
	events := &recordingEvents{err: errors.New("broker down")}
	s := NewSink(Options{
		OutputDir: t.TempDir(),
		Uploader: uploaderFunc(func(context.Context, string, string, string) (*minio.UploadResult, error) {
			return nil, errors.New("minio down")
		}),
		Bucket: "reports",
		Events: events,
		Store:  storeFunc(func(context.Context, types.ReviewReport, types.ReviewCompleted) error { return errors.New("db down") }),
	}, logger, metrics)

	done, err := s.Save(context.Background(), testReport(), "")
	require.NoError(t, err)
	assert.Contains(t, done.JSONArtifact, "violation_results_", "local path kept")
	assert.Equal(t, "run-1", events.key, "run id keys the event without a request id")

	out := testutil.ScrapeMetrics(t, collector)
	for _, target := range []string{TargetObjectStore, TargetEvents, TargetDatabase} {
		assert.Contains(t, out, `test_sink_publish_errors_total{target="`+target+`"} 1`)
	}
	assert.Equal(t, 3, logger.Count("error"))
}

func TestSink_LocalWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewSink(Options{OutputDir: filepath.Join(blocker, "sub")}, nil, nil)
	_, err := s.Save(context.Background(), testReport(), "")
	assert.Error(t, err)
}

func TestGroupByFile(t *testing.T) {
	groups := GroupByFile(testReport().Findings)
	require.Len(t, groups, 2)
	assert.Equal(t, "a.docx", groups[0].FileName)
	assert.Equal(t, "第一章 总则", groups[0].Chapter)
	assert.Len(t, groups[0].Findings, 2)
	assert.Empty(t, GroupByFile(nil))
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "0.81", FormatConfidence(0.81))
	assert.Equal(t, "1.0", FormatConfidence(1))
	assert.Equal(t, "0.0", FormatConfidence(0))
	assert.Equal(t, "0.123", FormatConfidence(0.123))
}

//Personal.AI order the ending
