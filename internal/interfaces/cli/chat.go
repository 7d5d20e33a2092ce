package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/FairReview-Intelligence/internal/application/pipeline"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// NewChatCmd creates the chat command. A prompt of "-" is read from stdin.
func NewChatCmd() *cobra.Command {
	var (
		stream bool
		system string
	)
	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Send a prompt directly to the configured LLM",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd, args)
			if err != nil {
				return err
			}
			messages := []llm.Message{llm.User(prompt)}
			if system != "" {
				messages = append([]llm.Message{llm.System(system)}, messages...)
			}
			return withPipeline(cmd, func(ctx context.Context, c *CLIContext, p *pipeline.Pipeline) error {
				gen, err := p.Generator(ctx)
				if err != nil {
					return err
				}
				if !stream {
					reply, err := gen.Chat(ctx, messages)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), reply)
					return nil
				}
				ch, err := gen.Stream(ctx, messages)
				if err != nil {
					return err
				}
				return writeStream(cmd.OutOrStdout(), ch)
			})
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	cmd.Flags().StringVar(&system, "system", "", "optional system prompt")
	return cmd
}

// writeStream copies deltas to w as they arrive and ends the output with a
// newline. The first stream error is returned after what was received.
func writeStream(w io.Writer, ch <-chan llm.StreamChunk) error {
	for chunk := range ch {
		if chunk.Err != nil {
			fmt.Fprintln(w)
			return chunk.Err
		}
		fmt.Fprint(w, chunk.Content)
	}
	fmt.Fprintln(w)
	return nil
}

func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeValidation, "read prompt from stdin")
		}
		prompt = string(raw)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New(errors.ErrCodeValidation, "prompt must not be empty")
	}
	return prompt, nil
}

//Personal.AI order the ending
