// Package review runs the dual-channel compliance analysis: a sentence
// classifier and a retrieval-grounded generative judge run concurrently over
// the same input and their findings are merged deterministically.
package review

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/hybrid"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/intent"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/taxonomy"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Channel names used in logs and metrics.
const (
	ChannelClassifier = "classifier"
	ChannelJudge      = "judge"
)

// DefaultClassifierThreshold is the minimum classifier confidence kept.
const DefaultClassifierThreshold = 0.05

// Retriever finds the reference clauses for the judge.
type Retriever interface {
	Retrieve(ctx context.Context, query string, hints types.RetrievalHints, opts hybrid.Options) []types.ScoredChunk
}

// Options tunes the analyzer.
type Options struct {
	ClassifierThreshold     float64
	IncludeNoViolationLabel bool
	MinSentenceRunes        int
	ChapterFilterFromHints  bool
	// Judge is the retrieval used to ground each paragraph.
	Judge hybrid.Options
}

// DefaultOptions keeps predictions at or above 0.05, drops label 0 and
// grounds the judge on the top 5 of 20 candidates.
func DefaultOptions() Options {
	judge := hybrid.DefaultOptions()
	judge.FinalK = 5
	return Options{
		ClassifierThreshold: DefaultClassifierThreshold,
		MinSentenceRunes:    DefaultMinSentenceRunes,
		Judge:               judge,
	}
}

// OptionsFromConfig maps the analyzer and retrieval sections.
func OptionsFromConfig(a config.AnalyzerConfig, r config.RetrievalConfig) Options {
	o := DefaultOptions()
	o.ClassifierThreshold = a.ClassifierThreshold
	o.IncludeNoViolationLabel = a.IncludeNoViolationLabel
	if a.MinSentenceRunes > 0 {
		o.MinSentenceRunes = a.MinSentenceRunes
	}
	if a.JudgeCandidateSize > 0 {
		o.Judge.CandidateSize = a.JudgeCandidateSize
	}
	if a.JudgeFinalK > 0 {
		o.Judge.FinalK = a.JudgeFinalK
	}
	o.Judge.VectorWeight = r.VectorWeight
	o.Judge.BM25Weight = r.BM25Weight
	o.ChapterFilterFromHints = r.ChapterFilterFromHints
	return o
}

// Result is the merged output of one analysis.
type Result struct {
	Findings           []types.ViolationFinding
	TotalSentences     int
	ViolatingSentences int
}

// Analyzer is safe for concurrent use when its collaborators are.
type Analyzer struct {
	classifier classifier.Predictor
	normalizer intent.Normalizer
	retriever  Retriever
	gen        llm.Generator
	opts       Options
	logger     logging.Logger
	metrics    *prometheus.ReviewMetrics
}

func NewAnalyzer(
	predictor classifier.Predictor,
	normalizer intent.Normalizer,
	retriever Retriever,
	gen llm.Generator,
	opts Options,
	logger logging.Logger,
	metrics *prometheus.ReviewMetrics,
) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Analyzer{
		classifier: predictor,
		normalizer: normalizer,
		retriever:  retriever,
		gen:        gen,
		opts:       opts,
		logger:     logger.Named("analyzer"),
		metrics:    metrics,
	}
}

// Analyze runs both channels over every chunk and waits for both before
// merging. A channel that fails midway still contributes what it produced.
func (a *Analyzer) Analyze(ctx context.Context, chunks []types.Chunk) Result {
	start := time.Now()
	tasks := BuildTasks(chunks, a.opts.MinSentenceRunes, a.logger)
	if len(tasks) == 0 {
		a.logger.Warn("no task to analyze")
		return Result{Findings: []types.ViolationFinding{}}
	}

	total := 0
	for _, t := range tasks {
		total += len(t.Sentences)
	}

	var fromClassifier, fromJudge []types.ViolationFinding
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.runChannel(ChannelClassifier, func() { a.classifierChannel(gctx, tasks, &fromClassifier) })
		return nil
	})
	g.Go(func() error {
		a.runChannel(ChannelJudge, func() { a.judgeChannel(gctx, tasks, &fromJudge) })
		return nil
	})
	_ = g.Wait()

	a.metrics.RecordFindings(ChannelClassifier, len(fromClassifier))
	a.metrics.RecordFindings(ChannelJudge, len(fromJudge))

	merged := Merge(fromClassifier, fromJudge)
	res := Result{
		Findings:           merged,
		TotalSentences:     total,
		ViolatingSentences: CountViolatingSentences(merged, total),
	}
	a.metrics.RecordAnalysis(time.Since(start), total)
	a.logger.Info("analysis merged",
		logging.Int("paragraphs", len(tasks)),
		logging.Int("sentences", total),
		logging.Int("classifier_findings", len(fromClassifier)),
		logging.Int("judge_findings", len(fromJudge)),
		logging.Int("merged", len(merged)))
	return res
}

// Review analyzes chunks and wraps the result as a report.
func (a *Analyzer) Review(ctx context.Context, chunks []types.Chunk) types.ReviewReport {
	started := time.Now()
	res := a.Analyze(ctx, chunks)
	report := types.ReviewReport{
		RunID:              uuid.NewString(),
		Findings:           res.Findings,
		TotalSentences:     res.TotalSentences,
		ViolatingSentences: res.ViolatingSentences,
		StartedAt:          started,
		FinishedAt:         time.Now(),
	}
	report.RiskLevel = types.RiskLevel(report.ViolationRate())
	return report
}

// runChannel turns a panic inside a channel into a logged channel failure.
func (a *Analyzer) runChannel(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.metrics.RecordChannelFailure(name)
			a.logger.Error("analysis channel aborted",
				logging.String("channel", name),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}

func (a *Analyzer) classifierChannel(ctx context.Context, tasks []Task, out *[]types.ViolationFinding) {
	if a.classifier == nil {
		a.logger.Warn("no classifier configured, sentence channel skipped")
		return
	}
	a.logger.Info("classifier channel started", logging.Int("paragraphs", len(tasks)))
	for _, t := range tasks {
		for _, s := range t.Sentences {
			if ctx.Err() != nil {
				a.metrics.RecordChannelFailure(ChannelClassifier)
				a.logger.Warn("classifier channel cancelled", logging.Err(ctx.Err()))
				return
			}
			p, err := a.classifier.Predict(ctx, s)
			if err != nil {
				a.logger.Error("classifier prediction failed", logging.Preview("sentence", s, 50), logging.Err(err))
				continue
			}
			if f, ok := a.classifierFinding(s, p, t.Metadata); ok {
				*out = append(*out, f)
			}
		}
	}
	a.logger.Info("classifier channel done", logging.Int("findings", len(*out)))
}

// classifierFinding applies the threshold and label policy to one prediction.
func (a *Analyzer) classifierFinding(sentence string, p classifier.Prediction, meta types.ChunkMetadata) (types.ViolationFinding, bool) {
	if !p.Usable() {
		return types.ViolationFinding{}, false
	}
	label, conf := *p.Label, *p.Confidence
	if conf < a.opts.ClassifierThreshold {
		return types.ViolationFinding{}, false
	}
	if label == taxonomy.NoViolation && !a.opts.IncludeNoViolationLabel {
		return types.ViolationFinding{}, false
	}

	violationType := taxonomy.Name(label)
	if !strings.HasSuffix(sentence, "。") && !strings.HasSuffix(sentence, "！") && !strings.HasSuffix(sentence, "？") {
		sentence += "。"
	}
	return types.ViolationFinding{
		ViolationSentence: sentence,
		ViolationType:     violationType,
		Confidence:        round3(conf),
		Basis:             fmt.Sprintf("BERT模型预测（类别ID：%d，置信度：%.3f）", label, conf),
		Suggestion:        fmt.Sprintf("参考「%s」相关条款进一步核查", violationType),
		Source:            types.SourceClassifier,
		FileName:          orDefault(meta.FileName, types.UnknownFile),
		FilePath:          orDefault(meta.FilePath, types.UnknownPath),
		ParentChapter:     orDefault(meta.ParentChapterTitle, types.UnknownChapter),
		LabelID:           &label,
	}, true
}

func (a *Analyzer) judgeChannel(ctx context.Context, tasks []Task, out *[]types.ViolationFinding) {
	a.logger.Info("judge channel started", logging.Int("paragraphs", len(tasks)))
	for _, t := range tasks {
		if ctx.Err() != nil {
			a.metrics.RecordChannelFailure(ChannelJudge)
			a.logger.Warn("judge channel cancelled", logging.Err(ctx.Err()))
			return
		}
		*out = append(*out, a.JudgeParagraph(ctx, t)...)
	}
	a.logger.Info("judge channel done", logging.Int("findings", len(*out)))
}

// JudgeParagraph grounds one paragraph on retrieved clauses and asks the
// generator for findings. Any failure yields no finding.
func (a *Analyzer) JudgeParagraph(ctx context.Context, t Task) []types.ViolationFinding {
	out := []types.ViolationFinding{}
	if a.gen == nil {
		return out
	}

	query := IntentQuery(t.Paragraph)
	var hints types.RetrievalHints
	retrievalQuery := query
	if a.normalizer != nil {
		res := a.normalizer.Normalize(ctx, query)
		if strings.TrimSpace(res.NormalizedQuery) != "" {
			retrievalQuery = res.NormalizedQuery
		}
		hints = intent.HintsFrom(res, a.opts.ChapterFilterFromHints)
	}

	var basis []types.ScoredChunk
	if a.retriever != nil {
		basis = a.retriever.Retrieve(ctx, retrievalQuery, hints, a.opts.Judge)
	}

	raw, err := a.gen.Generate(ctx, JudgePrompt(t.Paragraph, basis))
	if err != nil {
		a.logger.Error("judge generation failed", logging.Preview("paragraph", t.Paragraph, 50), logging.Err(err))
		return out
	}
	parsed := llm.ParseObjectOrArray[map[string]interface{}](raw)
	if !parsed.Ok {
		a.metrics.RecordJSONFallback("judge")
		a.logger.Error("judge response is not JSON",
			logging.Preview("paragraph", t.Paragraph, 50),
			logging.Preview("response", raw, 100),
			logging.Err(parsed.Err))
		return out
	}

	for _, obj := range parsed.Value {
		if obj == nil {
			continue
		}
		out = append(out, judgeFinding(obj, t))
	}
	a.logger.Debug("paragraph judged", logging.Preview("paragraph", t.Paragraph, 50), logging.Int("findings", len(out)))
	return out
}

func judgeFinding(obj map[string]interface{}, t Task) types.ViolationFinding {
	str := func(key, def string) string {
		if v, ok := obj[key].(string); ok {
			return v
		}
		return def
	}
	conf := 0.0
	if v, ok := obj["confidence"].(float64); ok {
		conf = math.Min(math.Max(v, 0), 1)
	}
	return types.ViolationFinding{
		ViolationSentence: str("violation_sentence", ""),
		ViolationType:     str("violation_type", "未明确违规类型"),
		Confidence:        round3(conf),
		Basis:             str("basis", "无明确依据"),
		Suggestion:        str("suggestion", "无具体建议"),
		Source:            str("source", types.SourceJudge),
		FileName:          orDefault(t.Metadata.FileName, types.UnknownFile),
		FilePath:          orDefault(t.Metadata.FilePath, types.UnknownPath),
		ParentChapter:     orDefault(t.Metadata.ParentChapterTitle, types.UnknownChapter),
		ParagraphContext:  truncateRunes(t.Paragraph, contextRunes) + "...",
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

//Personal.AI order the ending
