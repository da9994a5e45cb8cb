package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/bailian-loader/internal/llm"
)

func newChatCmd() *cobra.Command {
	var (
		flags         loaderFlags
		systemMessage string
		stream        bool
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat <prompt>...",
		Short: "Send a single prompt to a Bailian model",
		Long: `Load a Bailian model client and send one prompt to it.

The prompt is the space-joined arguments. With --stream the reply is printed
as it arrives.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			req := flags.request(cmd, cfg)
			client, err := flags.newLoader(cfg).Load(ctx, req)
			if err != nil {
				return err
			}

			chatReq := llm.ChatRequest{
				Model:         req.ModelName,
				SystemMessage: systemMessage,
				UserMessage:   strings.Join(args, " "),
				Temperature:   req.Temperature,
			}

			out := cmd.OutOrStdout()
			if stream {
				return streamChat(ctx, out, client, chatReq)
			}

			resp, err := client.ChatCompletion(ctx, chatReq)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, resp.Content)
			slog.Debug("chat complete", "model", req.ModelName)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&systemMessage, "system", "", "System prompt")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the reply")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout (e.g. 30s, 2m). 0 means no timeout")

	return cmd
}

func streamChat(ctx context.Context, out io.Writer, client llm.Client, req llm.ChatRequest) error {
	sr, err := client.ChatCompletionStream(ctx, req)
	if err != nil {
		return err
	}
	defer sr.Close()

	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("stream interrupted: %w", err)
		}
		_, _ = fmt.Fprint(out, chunk)
	}
	_, _ = fmt.Fprintln(out)
	return nil
}
