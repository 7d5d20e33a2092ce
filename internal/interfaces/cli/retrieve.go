package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// RetrievedChunk is one ranked hit of the retrieve command.
type RetrievedChunk struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	File    string  `json:"file"`
	Chapter string  `json:"chapter"`
	Content string  `json:"content"`
}

// RetrieveResult is the output of the retrieve command.
type RetrieveResult struct {
	Query  string             `json:"query"`
	Intent types.IntentResult `json:"intent"`
	Hits   []RetrievedChunk   `json:"hits"`
}

func newRetrieveResult(query string, intent types.IntentResult, hits []types.ScoredChunk) RetrieveResult {
	out := RetrieveResult{Query: query, Intent: intent, Hits: make([]RetrievedChunk, 0, len(hits))}
	for i, h := range hits {
		md := h.Chunk.Metadata
		out.Hits = append(out.Hits, RetrievedChunk{
			Rank:    i + 1,
			Score:   h.Score,
			File:    orDefault(md.FileName, types.UnknownFile),
			Chapter: orDefault(md.ParentChapterTitle, types.UnknownChapter),
			Content: h.Chunk.Content,
		})
	}
	return out
}

func (r RetrieveResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "query: %s\n", r.Query)
	fmt.Fprintf(&sb, "normalized: %s\n", r.Intent.NormalizedQuery)
	if len(r.Intent.Keywords) > 0 {
		fmt.Fprintf(&sb, "keywords: %s\n", strings.Join(r.Intent.Keywords, ", "))
	}
	if len(r.Intent.ChapterHints) > 0 {
		fmt.Fprintf(&sb, "chapter hints: %s\n", strings.Join(r.Intent.ChapterHints, ", "))
	}
	if len(r.Hits) == 0 {
		sb.WriteString("no matching clause found\n")
		return sb.String()
	}
	for _, h := range r.Hits {
		fmt.Fprintf(&sb, "\n#%d score=%.4f %s / %s\n%s\n", h.Rank, h.Score, h.File, h.Chapter, h.Content)
	}
	return sb.String()
}

func (r RetrieveResult) TableHeaders() []string {
	return []string{"Rank", "Score", "File", "Chapter", "Content"}
}

func (r RetrieveResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		rows = append(rows, []string{
			fmt.Sprintf("%d", h.Rank),
			fmt.Sprintf("%.4f", h.Score),
			h.File,
			truncate(h.Chapter, 20),
			truncate(h.Content, 40),
		})
	}
	return rows
}

// NewRetrieveCmd creates the retrieve command.
func NewRetrieveCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Normalize a query and run hybrid retrieval over the clause index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New(errors.ErrCodeValidation, "query must not be empty")
			}
			if topK < 0 {
				return errors.Newf(errors.ErrCodeValidation, "--top-k must be positive, got %d", topK)
			}
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				if topK > 0 {
					c.Config.Retrieval.FinalK = topK
					if c.Config.Retrieval.CandidateSize < topK {
						c.Config.Retrieval.CandidateSize = topK
					}
				}
				intent, hits, err := p.Search(ctx, query)
				if err != nil {
					return err
				}
				return PrintResult(cmd, newRetrieveResult(query, intent, hits))
			})
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of clauses to return (default retrieval.final_k)")
	return cmd
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

//Personal.AI order the ending
