package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/FairReview-Intelligence/internal/application/evaluation"
	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// minEvalCandidates is the smallest fused candidate pool used during evaluation.
const minEvalCandidates = 20

type evalOptions struct {
	file         string
	k            int
	limit        int
	textCol      string
	labelCol     string
	showErrors   bool
	showResults  bool
	disableMerge bool
}

// NewEvalCmd creates the eval command, which reports hit@K and MRR of hybrid
// retrieval over a labelled xlsx workbook.
func NewEvalCmd() *cobra.Command {
	o := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate retrieval quality on a labelled xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.k < 1 {
				return errors.Newf(errors.ErrCodeValidation, "--k must be >= 1, got %d", o.k)
			}
			if o.limit < 0 {
				return errors.Newf(errors.ErrCodeValidation, "--limit must be >= 0, got %d", o.limit)
			}
			samples, err := evaluation.LoadSamples(o.file, o.textCol, o.labelCol, o.limit)
			if err != nil {
				return err
			}
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				c.Config.Retrieval.FinalK = o.k
				c.Config.Retrieval.CandidateSize = o.k
				if c.Config.Retrieval.CandidateSize < minEvalCandidates {
					c.Config.Retrieval.CandidateSize = minEvalCandidates
				}

				var predictor classifier.Predictor
				if !o.disableMerge {
					pred, err := p.Classifier(ctx)
					if err != nil {
						c.Logger.Warn("classifier unavailable, evaluating retrieval only", logging.Err(err))
					} else {
						predictor = pred
					}
				}

				rep, err := evaluation.NewEvaluator(p, predictor, o.k, c.Logger).Run(ctx, samples)
				if err != nil {
					return err
				}
				if c.OutputFormat == OutputJSON {
					return printJSON(cmd, rep)
				}
				evaluation.WriteText(cmd.OutOrStdout(), rep, o.showResults, o.showErrors)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.file, "file", "", "xlsx workbook with text and label columns (required)")
	f.IntVar(&o.k, "k", 3, "top-K cutoff")
	f.IntVar(&o.limit, "limit", 0, "evaluate only the first N rows (0 means all)")
	f.StringVar(&o.textCol, "text-col", evaluation.DefaultTextColumn, "text column header")
	f.StringVar(&o.labelCol, "label-col", evaluation.DefaultLabelColumn, "label column header")
	f.BoolVar(&o.showErrors, "show-errors", false, "print missed cases")
	f.BoolVar(&o.showResults, "show-results", false, "print the candidates of every row")
	f.BoolVar(&o.disableMerge, "disable-merge-classifier", false, "do not add the classifier-predicted rule as a candidate")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

//Personal.AI order the ending
