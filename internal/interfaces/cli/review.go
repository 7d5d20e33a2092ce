package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/application/reporting"
	"github.com/turtacn/FairReview-Intelligence/internal/application/structurizer"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// ReviewOutput is the output of the review command.
type ReviewOutput struct {
	Report    types.ReviewReport    `json:"report"`
	Completed types.ReviewCompleted `json:"completed"`
}

func (o ReviewOutput) String() string {
	r := o.Report
	var sb strings.Builder
	fmt.Fprintf(&sb, "运行ID：%s\n", r.RunID)
	fmt.Fprintf(&sb, "风险等级：%s\n", r.RiskLevel)
	fmt.Fprintf(&sb, "句子数：%d，违规句子数：%d\n", r.TotalSentences, r.ViolatingSentences)
	fmt.Fprintf(&sb, "结果条数：%d\n", len(r.Findings))
	for i, f := range r.Findings {
		fmt.Fprintf(&sb, "\n### 结果 %d\n", i+1)
		fmt.Fprintf(&sb, "- 违规句子：%s\n", f.ViolationSentence)
		fmt.Fprintf(&sb, "- 违规类型：%s\n", f.ViolationType)
		fmt.Fprintf(&sb, "- 置信度：%s\n", reporting.FormatConfidence(f.Confidence))
		fmt.Fprintf(&sb, "- 依据：%s\n", f.Basis)
		fmt.Fprintf(&sb, "- 修改建议：%s\n", f.Suggestion)
		fmt.Fprintf(&sb, "- 分析来源：%s\n", f.Source)
	}
	fmt.Fprintf(&sb, "\n结果文件：%s\n报告文件：%s\n", o.Completed.JSONArtifact, o.Completed.ReportArtifact)
	return sb.String()
}

func (o ReviewOutput) TableHeaders() []string {
	return []string{"#", "Type", "Confidence", "Source", "File", "Sentence"}
}

func (o ReviewOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Report.Findings))
	for i, f := range o.Report.Findings {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncate(f.ViolationType, 24),
			reporting.FormatConfidence(f.Confidence),
			truncate(f.Source, 12),
			f.FileName,
			truncate(f.ViolationSentence, 30),
		})
	}
	return rows
}

type reviewOptions struct {
	text      string
	file      string
	chunks    string
	requestID string
}

// NewReviewCmd creates the review command. Exactly one of --text, --file or
// --chunks selects the input.
func NewReviewCmd() *cobra.Command {
	o := &reviewOptions{}
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review text or documents against the fair-competition rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				chunks, err := o.load(time.Now())
				if err != nil {
					return err
				}
				report, done, err := p.Review(ctx, chunks, o.requestID)
				if err != nil {
					return err
				}
				return PrintResult(cmd, ReviewOutput{Report: report, Completed: done})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.text, "text", "", "policy text to review")
	f.StringVar(&o.file, "file", "", "document to review (.docx, .txt, .md)")
	f.StringVar(&o.chunks, "chunks", "", "chunk store JSON to review clause by clause")
	f.StringVar(&o.requestID, "request-id", "", "request id recorded with the results")
	return cmd
}

func (o *reviewOptions) validate() error {
	set := 0
	for _, v := range []string{o.text, o.file, o.chunks} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New(errors.ErrCodeValidation, "exactly one of --text, --file or --chunks is required")
	}
	return nil
}

func (o *reviewOptions) load(now time.Time) ([]types.Chunk, error) {
	switch {
	case strings.TrimSpace(o.text) != "":
		return []types.Chunk{chunkstore.UserInputChunk(o.text, now)}, nil
	case o.chunks != "":
		return chunkstore.Load(o.chunks)
	}

	doc, err := structurizer.LoadDocument(o.file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document has no text").WithDetail(o.file)
	}
	chunk := chunkstore.UserInputChunk(doc.Text, now)
	chunk.Metadata.FileName = doc.Name
	chunk.Metadata.FilePath = doc.Path
	if abs, err := filepath.Abs(doc.Path); err == nil {
		chunk.Metadata.FilePath = abs
	}
	return []types.Chunk{chunk}, nil
}

//Personal.AI order the ending
