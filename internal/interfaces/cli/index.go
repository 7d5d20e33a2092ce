package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// NewStructurizeCmd creates the structurize command. Without arguments it
// reads structurizer.input_dir.
func NewStructurizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structurize [dir|file]...",
		Short: "Split policy documents into chapter chunks and save the chunk store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				paths := args
				if len(paths) == 0 {
					if c.Config.Structurizer.InputDir == "" {
						return errors.New(errors.ErrCodeValidation, "no input given and structurizer.input_dir is empty")
					}
					paths = []string{c.Config.Structurizer.InputDir}
				}
				start := time.Now()
				chunks, err := p.Structurize(ctx, paths...)
				if err != nil {
					return err
				}
				c.Logger.Info("structurize completed",
					logging.Int("chunks", len(chunks)),
					logging.Duration("elapsed", time.Since(start)))
				if c.OutputFormat == OutputJSON {
					return printJSON(cmd, map[string]interface{}{
						"chunk_store": c.Config.ChunkStore.Path,
						"chunks":      len(chunks),
					})
				}
				PrintSuccess(cmd, fmt.Sprintf("%d chunks saved to %s", len(chunks), c.Config.ChunkStore.Path))
				return nil
			})
		},
	}
}

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or load the vector index over the chunk store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				force := force || c.Config.Vector.ForceRecreate
				if err := p.BuildIndex(ctx, force); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("vector index ready (backend=%s, rebuilt=%t)", c.Config.Vector.Backend, force))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild the index even when a persisted one exists")
	return cmd
}

//Personal.AI order the ending
