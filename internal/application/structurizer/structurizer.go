// Package structurizer turns policy documents into clause-level chunks: it
// finds chapter boundaries, asks the text generator to split each chapter
// into minimal clauses and attaches per-chapter metadata.
package structurizer

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// DefaultLongChapterWarnThreshold is the chapter length, in runes, above
// which a warning is logged.
const DefaultLongChapterWarnThreshold = 3000

var (
	chapterPattern   = regexp.MustCompile(`第[一二三四五六七八九十百\d]+章(?:[\s　]+[\x{4e00}-\x{9fa5}]+)?`)
	clausePattern    = regexp.MustCompile(`第[一二三四五六七八九十百\d]+条`)
	paragraphPattern = regexp.MustCompile(`\n\n`)
)

// Structurizer is safe for concurrent use as long as the generator is.
type Structurizer struct {
	gen           llm.Generator
	warnThreshold int
	logger        logging.Logger
	metrics       *prometheus.ReviewMetrics
}

func New(gen llm.Generator, cfg config.StructurizerConfig, logger logging.Logger, metrics *prometheus.ReviewMetrics) *Structurizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	threshold := cfg.LongChapterWarnThreshold
	if threshold <= 0 {
		threshold = DefaultLongChapterWarnThreshold
	}
	return &Structurizer{gen: gen, warnThreshold: threshold, logger: logger.Named("structurizer"), metrics: metrics}
}

// Process structurizes one document. min_chunk_id starts at 1.
func (s *Structurizer) Process(ctx context.Context, doc review.Document) []review.Chunk {
	next := 1
	return s.process(ctx, doc, &next)
}

// ProcessBatch structurizes docs in order. min_chunk_id keeps increasing
// across documents, so it is unique within the batch.
func (s *Structurizer) ProcessBatch(ctx context.Context, docs []review.Document) []review.Chunk {
	next := 1
	out := make([]review.Chunk, 0)
	for _, d := range docs {
		if ctx.Err() != nil {
			s.logger.Warn("structurization cancelled", logging.Int("documents_done", len(out)))
			break
		}
		out = append(out, s.process(ctx, d, &next)...)
	}
	s.logger.Info("batch structurized", logging.Int("documents", len(docs)), logging.Int("chunks", len(out)))
	return out
}

func (s *Structurizer) process(ctx context.Context, doc review.Document, next *int) []review.Chunk {
	log := s.logger.With(logging.String("file", doc.Name))
	log.Info("structurizing document", logging.Int("runes", utf8.RuneCountInString(doc.Text)))

	chapters := ChapterBoundaries(doc.Text)
	if len(chapters) == 0 {
		log.Warn("document produced no chapter")
		return []review.Chunk{}
	}

	out := make([]review.Chunk, 0, len(chapters))
	for i, ch := range chapters {
		if n := utf8.RuneCountInString(ch.Text); n > s.warnThreshold {
			log.Warn("long chapter", logging.String("chapter", ch.Title), logging.Int("runes", n))
		}

		meta := s.ExtractMetadata(ctx, ch)
		units := s.SplitClauses(ctx, ch)
		if len(units) == 0 {
			log.Warn("chapter produced no clause, skipped", logging.String("chapter", ch.Title))
			continue
		}

		for _, u := range units {
			out = append(out, review.Chunk{
				Content: u,
				Metadata: review.ChunkMetadata{
					FileName:           doc.Name,
					FilePath:           doc.Path,
					ParentChapterTitle: ch.Title,
					ParentChapterID:    i + 1,
					MinChunkID:         *next,
					DocumentType:       meta.DocumentType,
					Authority:          meta.Authority,
					PolicyType:         chunkstore.ExtractPolicyType(u),
				},
			})
			*next++
		}
	}
	log.Info("document structurized", logging.Int("chapters", len(chapters)), logging.Int("chunks", len(out)))
	return out
}

// ChapterBoundaries splits text at chapter headings. Without any heading it
// splits at blank lines and names segment i "段落i", counting segments
// before empty ones are dropped.
func ChapterBoundaries(text string) []review.ChapterBoundary {
	matches := chapterPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return paragraphBoundaries(text)
	}

	out := make([]review.ChapterBoundary, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, review.ChapterBoundary{
			Title: strings.TrimSpace(text[m[0]:m[1]]),
			Text:  strings.TrimSpace(text[m[0]:end]),
		})
	}
	return out
}

func paragraphBoundaries(text string) []review.ChapterBoundary {
	splits := []int{0}
	for _, m := range paragraphPattern.FindAllStringIndex(text, -1) {
		splits = append(splits, m[1])
	}
	splits = append(splits, len(text))

	out := make([]review.ChapterBoundary, 0, len(splits)-1)
	for i := 0; i+1 < len(splits); i++ {
		seg := strings.TrimSpace(text[splits[i]:splits[i+1]])
		if seg == "" {
			continue
		}
		out = append(out, review.ChapterBoundary{Title: "段落" + strconv.Itoa(i+1), Text: seg})
	}
	return out
}

// SplitClauses asks the generator for the chapter's minimal clauses. Any
// failure degrades to FallbackSplit.
func (s *Structurizer) SplitClauses(ctx context.Context, ch review.ChapterBoundary) []string {
	raw, err := s.gen.Chat(ctx, clauseSplitMessages(ch))
	if err != nil {
		s.metrics.RecordJSONFallback("clause_split")
		s.logger.Error("clause split failed, using clause markers", logging.String("chapter", ch.Title), logging.Err(err))
		return FallbackSplit(ch.Text)
	}

	res := decodeClauses(raw)
	if !res.Ok {
		s.metrics.RecordJSONFallback("clause_split")
		s.logger.Error("clause split response unusable, using clause markers",
			logging.String("chapter", ch.Title), logging.Preview("response", raw, 100), logging.Err(res.Err))
		return FallbackSplit(ch.Text)
	}
	s.logger.Debug("chapter split", logging.String("chapter", ch.Title), logging.Int("clauses", len(res.Value)))
	return res.Value
}

func decodeClauses(raw string) llm.JSONResult[[]string] {
	parsed := llm.ParseJSON[[]interface{}](raw, nil)
	if !parsed.Ok {
		return llm.Fallback[[]string](nil, raw, parsed.Err)
	}
	if parsed.Value == nil {
		return llm.Fallback[[]string](nil, raw, errors.New(errors.ErrCodeClauseSplitFailed, "structurizer: clause list is null"))
	}
	out := make([]string, 0, len(parsed.Value))
	for _, v := range parsed.Value {
		str, ok := v.(string)
		if !ok {
			return llm.Fallback[[]string](nil, raw, errors.New(errors.ErrCodeClauseSplitFailed, "structurizer: clause entry is not a string"))
		}
		if t := strings.TrimSpace(str); t != "" {
			out = append(out, t)
		}
	}
	return llm.Ok(out, raw)
}

// FallbackSplit cuts text at 第N条 markers, discarding anything before the
// first marker. Without markers it splits at blank lines.
func FallbackSplit(text string) []string {
	matches := clausePattern.FindAllStringIndex(text, -1)
	out := make([]string, 0)
	if len(matches) == 0 {
		for _, p := range strings.Split(text, "\n\n") {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if t := strings.TrimSpace(text[m[0]:end]); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ExtractMetadata asks the generator for the chapter record. Missing fields
// become "无"; any failure gives an all-"无" record. Chapter is always the
// detected title.
func (s *Structurizer) ExtractMetadata(ctx context.Context, ch review.ChapterBoundary) review.ClauseMetadata {
	out := review.EmptyClauseMetadata()
	out.Chapter = ch.Title

	raw, err := s.gen.Chat(ctx, metadataMessages(ch))
	if err != nil {
		s.metrics.RecordJSONFallback("chapter_metadata")
		s.logger.Error("chapter metadata extraction failed", logging.String("chapter", ch.Title), logging.Err(err))
		return out
	}
	parsed := llm.ParseJSON[map[string]interface{}](raw, nil)
	if !parsed.Ok || parsed.Value == nil {
		s.metrics.RecordJSONFallback("chapter_metadata")
		s.logger.Error("chapter metadata response unusable",
			logging.String("chapter", ch.Title), logging.Preview("response", raw, 100), logging.Err(parsed.Err))
		return out
	}

	obj := parsed.Value
	field := func(key string) string {
		if v, ok := obj[key].(string); ok {
			return v
		}
		return review.NoneValue
	}
	out.DocumentType = field("document_type")
	out.Clause = field("clause")
	out.EffectiveDate = field("effective_date")
	out.Authority = field("authority")
	out.Exception = field("exception")
	return out
}

//Personal.AI order the ending
