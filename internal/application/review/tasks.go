package review

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// DefaultMinSentenceRunes is the length a trimmed sentence must exceed to be
// classified.
const DefaultMinSentenceRunes = 5

var (
	sentenceDelimiters = regexp.MustCompile(`[。；;！!?？]`)
	nonWordPattern     = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9]`)
)

// Task is one non-empty input chunk with its candidate sentences.
type Task struct {
	Paragraph string
	Sentences []string
	Metadata  types.ChunkMetadata
}

// BuildTasks trims every chunk, drops empty ones and splits the rest into
// sentences longer than minRunes.
func BuildTasks(chunks []types.Chunk, minRunes int, logger logging.Logger) []Task {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	tasks := make([]Task, 0, len(chunks))
	for _, c := range chunks {
		paragraph := strings.TrimSpace(c.Content)
		if paragraph == "" {
			logger.Warn("empty paragraph skipped", logging.String("file", c.Metadata.FileName))
			continue
		}
		tasks = append(tasks, Task{Paragraph: paragraph, Sentences: SplitSentences(paragraph, minRunes), Metadata: c.Metadata})
	}
	return tasks
}

// SplitSentences cuts text at sentence-final punctuation and keeps trimmed
// pieces longer than minRunes.
func SplitSentences(text string, minRunes int) []string {
	out := make([]string, 0)
	for _, s := range sentenceDelimiters.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minRunes {
			out = append(out, s)
		}
	}
	return out
}

// StripSentence removes everything except Han characters, ASCII letters and
// digits.
func StripSentence(s string) string {
	return nonWordPattern.ReplaceAllString(s, "")
}

type dedupKey struct {
	sentence      string
	violationType string
}

func keyOf(f types.ViolationFinding) dedupKey {
	return dedupKey{sentence: StripSentence(f.ViolationSentence), violationType: strings.TrimSpace(f.ViolationType)}
}

// Merge concatenates the classifier findings and then the judge findings and
// keeps the first finding per (stripped sentence, trimmed type). On a
// collision the classifier finding therefore wins.
func Merge(classifierFindings, judgeFindings []types.ViolationFinding) []types.ViolationFinding {
	seen := make(map[dedupKey]struct{}, len(classifierFindings)+len(judgeFindings))
	out := make([]types.ViolationFinding, 0, len(classifierFindings)+len(judgeFindings))
	for _, group := range [][]types.ViolationFinding{classifierFindings, judgeFindings} {
		for _, f := range group {
			k := keyOf(f)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// CountViolatingSentences is the number of distinct non-empty stripped
// sentences among findings, capped at total.
func CountViolatingSentences(findings []types.ViolationFinding, total int) int {
	distinct := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		if s := StripSentence(f.ViolationSentence); s != "" {
			distinct[s] = struct{}{}
		}
	}
	if len(distinct) > total {
		return total
	}
	return len(distinct)
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

//Personal.AI order the ending
