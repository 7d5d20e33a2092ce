// Package review holds the data types shared by every stage of the
// compliance review pipeline: chunks, retrieval results and findings.
package review

import (
	"time"
)

// Metadata sentinels used when a source did not provide a value.
const (
	UnknownFile    = "未知文件"
	UnknownPath    = "未知路径"
	UnknownChapter = "未知章节"
	OtherPolicy    = "其他政策"
	NoneValue      = "无"

	UserInputFile    = "用户纯文本输入"
	UserInputPath    = "无本地文件路径"
	UserInputChapter = "用户输入内容"
)

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	FileName           string `json:"file_name"`
	FilePath           string `json:"file_path"`
	ParentChapterTitle string `json:"parent_chapter_title"`
	ParentChapterID    int    `json:"parent_chapter_id,omitempty"`
	MinChunkID         int    `json:"min_chunk_id,omitempty"`
	DocumentType       string `json:"document_type,omitempty"`
	Authority          string `json:"authority,omitempty"`
	PolicyType         string `json:"policy_type,omitempty"`
	InputTime          string `json:"input_time,omitempty"`
}

// Chunk is the atomic retrievable unit: one clause of a policy document.
type Chunk struct {
	Content  string        `json:"page_content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Document is a raw source handed to the structurizer.
type Document struct {
	Name string
	Path string
	Text string
}

// ChapterBoundary is a detected chapter span. It never leaves the structurizer.
type ChapterBoundary struct {
	Title string
	Text  string
}

// ClauseMetadata is the per-chapter record extracted by the text generator.
type ClauseMetadata struct {
	DocumentType  string `json:"document_type"`
	Chapter       string `json:"chapter"`
	Clause        string `json:"clause"`
	EffectiveDate string `json:"effective_date"`
	Authority     string `json:"authority"`
	Exception     string `json:"exception"`
}

// EmptyClauseMetadata returns the record used when extraction fails.
func EmptyClauseMetadata() ClauseMetadata {
	return ClauseMetadata{
		DocumentType:  NoneValue,
		Chapter:       NoneValue,
		Clause:        NoneValue,
		EffectiveDate: NoneValue,
		Authority:     NoneValue,
		Exception:     NoneValue,
	}
}

// IntentResult is the normalized form of a retrieval query. It is always
// well-formed; failures collapse to the raw query with empty lists.
type IntentResult struct {
	NormalizedQuery string   `json:"normalized_query"`
	Keywords        []string `json:"keywords"`
	ChapterHints    []string `json:"chapter_hints"`
}

// FallbackIntent is the safe default for query.
func FallbackIntent(query string) IntentResult {
	return IntentResult{NormalizedQuery: query, Keywords: []string{}, ChapterHints: []string{}}
}

// RetrievalHints steers the hybrid retriever's lexical channel.
type RetrievalHints struct {
	Keywords          []string
	TargetChapters    []string
	NeedChapterFilter bool
}

// ScoredChunk is the output unit of every retriever. For vector stores Score
// is a distance (lower is closer); everywhere else higher is better.
type ScoredChunk struct {
	Score float64 `json:"score"`
	Chunk Chunk   `json:"chunk"`
}

// RetrievalCandidate is an intermediate of hybrid fusion keyed by content
// fingerprint.
type RetrievalCandidate struct {
	Key         uint64
	Chunk       Chunk
	VectorScore float64
	BM25Score   float64
}

// Finding sources.
const (
	SourceClassifier = "BERT句子级分析"
	SourceJudge      = "LLM段落级分析（火山引擎Ark）"
	SourceSummary    = "BERT句子级分析 + LLM段落级分析"
)

// ViolationFinding is one detected compliance issue.
type ViolationFinding struct {
	ViolationSentence string  `json:"violation_sentence"`
	ViolationType     string  `json:"violation_type"`
	Confidence        float64 `json:"confidence"`
	Basis             string  `json:"basis"`
	Suggestion        string  `json:"suggestion"`
	Source            string  `json:"source"`
	FileName          string  `json:"file_name"`
	FilePath          string  `json:"file_path"`
	ParentChapter     string  `json:"parent_chapter"`
	ParagraphContext  string  `json:"paragraph_context"`
	LabelID           *int    `json:"label_id,omitempty"`
}

// Risk levels derived from the share of violating sentences.
const (
	RiskNone   = "无风险"
	RiskLow    = "低风险"
	RiskMedium = "中风险"
	RiskHigh   = "高风险"
)

// RiskLevel maps a violation rate in [0, 1] to a level.
func RiskLevel(rate float64) string {
	switch {
	case rate <= 0:
		return RiskNone
	case rate <= 0.2:
		return RiskLow
	case rate <= 0.5:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ReviewReport is one finished analysis run.
type ReviewReport struct {
	RunID              string             `json:"run_id"`
	Findings           []ViolationFinding `json:"findings"`
	TotalSentences     int                `json:"total_sentences"`
	ViolatingSentences int                `json:"violating_sentences"`
	RiskLevel          string             `json:"risk_level"`
	StartedAt          time.Time          `json:"started_at"`
	FinishedAt         time.Time          `json:"finished_at"`
}

// ViolationRate is ViolatingSentences / TotalSentences, or 0 with no sentences.
func (r ReviewReport) ViolationRate() float64 {
	if r.TotalSentences == 0 {
		return 0
	}
	return float64(r.ViolatingSentences) / float64(r.TotalSentences)
}

// ReviewRequest is the payload of a review-requested event.
type ReviewRequest struct {
	RequestID string    `json:"request_id"`
	Text      string    `json:"text,omitempty"`
	Chunks    []Chunk   `json:"chunks,omitempty"`
	Submitted time.Time `json:"submitted_at"`
}

// ReviewCompleted is the payload of a review-completed event.
type ReviewCompleted struct {
	RunID          string    `json:"run_id"`
	RequestID      string    `json:"request_id,omitempty"`
	FindingCount   int       `json:"finding_count"`
	RiskLevel      string    `json:"risk_level"`
	JSONArtifact   string    `json:"json_artifact"`
	ReportArtifact string    `json:"report_artifact"`
	CompletedAt    time.Time `json:"completed_at"`
}

//Personal.AI order the ending
