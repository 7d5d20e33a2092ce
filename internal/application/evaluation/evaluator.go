package evaluation

import (
	"context"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/taxonomy"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Metadata of the candidate added from the classifier prediction.
const (
	ClassifierSource  = "BERT"
	ClassifierChapter = "模型预测"
)

const previewRunes = 160

// Searcher normalizes a query and runs hybrid retrieval.
type Searcher interface {
	Search(ctx context.Context, query string) (types.IntentResult, []types.ScoredChunk, error)
}

type Candidate struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Chapter string  `json:"chapter"`
	Preview string  `json:"preview"`
	content string
}

// RowResult is the outcome for one sample. Rank is 0 on a miss.
type RowResult struct {
	Sample        Sample      `json:"sample"`
	Query         string      `json:"query"`
	TrueStatement string      `json:"true_statement"`
	Rank          int         `json:"rank"`
	Reason        string      `json:"reason,omitempty"`
	Candidates    []Candidate `json:"candidates"`
}

func (r RowResult) Hit() bool { return r.Rank > 0 }

// ReciprocalRank is 1/Rank, or 0 on a miss.
func (r RowResult) ReciprocalRank() float64 {
	if r.Rank == 0 {
		return 0
	}
	return 1 / float64(r.Rank)
}

// Report aggregates a run. Accuracy equals HitAtK since every sample has a
// single relevant rule.
type Report struct {
	Samples  int         `json:"samples"`
	K        int         `json:"k"`
	HitAtK   float64     `json:"hit_at_k"`
	MRR      float64     `json:"mrr"`
	Accuracy float64     `json:"accuracy"`
	Rows     []RowResult `json:"rows"`
}

// Misses returns the rows without a hit, in input order.
func (r Report) Misses() []RowResult {
	out := make([]RowResult, 0)
	for _, row := range r.Rows {
		if !row.Hit() {
			out = append(out, row)
		}
	}
	return out
}

type Evaluator struct {
	searcher  Searcher
	predictor classifier.Predictor
	k         int
	logger    logging.Logger
}

// NewEvaluator scores the top k results. A non-nil predictor adds the rule
// text of its predicted label as one extra candidate.
func NewEvaluator(searcher Searcher, predictor classifier.Predictor, k int, logger logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if k <= 0 {
		k = 3
	}
	return &Evaluator{searcher: searcher, predictor: predictor, k: k, logger: logger.Named("evaluation")}
}

func (e *Evaluator) K() int { return e.k }

// Run evaluates every sample. A search error aborts the run.
func (e *Evaluator) Run(ctx context.Context, samples []Sample) (Report, error) {
	rep := Report{K: e.k, Rows: make([]RowResult, 0, len(samples))}
	var hits int
	var sumRR float64
	for _, s := range samples {
		row, err := e.EvaluateRow(ctx, s)
		if err != nil {
			return rep, err
		}
		rep.Rows = append(rep.Rows, row)
		if row.Hit() {
			hits++
		}
		sumRR += row.ReciprocalRank()
	}
	rep.Samples = len(rep.Rows)
	if rep.Samples > 0 {
		rep.HitAtK = float64(hits) / float64(rep.Samples)
		rep.MRR = sumRR / float64(rep.Samples)
		rep.Accuracy = rep.HitAtK
	}
	e.logger.Info("evaluation done",
		logging.Int("samples", rep.Samples),
		logging.Int("k", e.k),
		logging.Float64("hit_at_k", rep.HitAtK),
		logging.Float64("mrr", rep.MRR))
	return rep, nil
}

// EvaluateRow retrieves for one sample and finds the first candidate whose
// normalized content contains the normalized rule text of the label.
func (e *Evaluator) EvaluateRow(ctx context.Context, s Sample) (RowResult, error) {
	row := RowResult{Sample: s, Candidates: []Candidate{}}
	statement, ok := taxonomy.Lookup(s.Label)
	if !ok {
		row.Reason = "unknown_label"
		return row, nil
	}
	row.TrueStatement = statement

	intent, hits, err := e.searcher.Search(ctx, s.Text)
	if err != nil {
		return row, err
	}
	row.Query = intent.NormalizedQuery
	if strings.TrimSpace(row.Query) == "" {
		row.Query = s.Text
	}
	for i, h := range hits {
		row.Candidates = append(row.Candidates, Candidate{
			Rank:    i + 1,
			Score:   h.Score,
			Source:  orDefault(h.Chunk.Metadata.FileName, types.UnknownFile),
			Chapter: orDefault(h.Chunk.Metadata.ParentChapterTitle, types.UnknownChapter),
			Preview: preview(h.Chunk.Content),
			content: h.Chunk.Content,
		})
	}
	e.mergePrediction(ctx, &row)

	want := NormalizeText(statement)
	if want == "" {
		return row, nil
	}
	for _, c := range row.Candidates {
		if strings.Contains(NormalizeText(c.content), want) {
			row.Rank = c.Rank
			break
		}
	}
	return row, nil
}

// mergePrediction appends the predicted rule unless a candidate already has
// the same normalized content. Classifier failures leave the row unchanged.
func (e *Evaluator) mergePrediction(ctx context.Context, row *RowResult) {
	if e.predictor == nil {
		return
	}
	p, err := e.predictor.Predict(ctx, row.Sample.Text)
	if err != nil {
		e.logger.Debug("classifier merge skipped", logging.Int("row", row.Sample.Row), logging.Err(err))
		return
	}
	if !p.Usable() {
		return
	}
	stmt, ok := taxonomy.Lookup(*p.Label)
	if !ok || strings.TrimSpace(stmt) == "" {
		return
	}
	norm := NormalizeText(stmt)
	for _, c := range row.Candidates {
		if NormalizeText(c.content) == norm {
			return
		}
	}
	row.Candidates = append(row.Candidates, Candidate{
		Rank:    len(row.Candidates) + 1,
		Score:   1.0,
		Source:  ClassifierSource,
		Chapter: ClassifierChapter,
		Preview: preview(stmt),
		content: stmt,
	})
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

//Personal.AI order the ending
