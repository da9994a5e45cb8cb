package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var flags loaderFlags

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to your DashScope API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := flags.newLoader(cfg).Load(ctx, flags.request(cmd, cfg))
			if err != nil {
				return err
			}

			models, err := client.ListModels(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				_, _ = fmt.Fprintln(out, "No models available.")
				return nil
			}
			for _, m := range models {
				_, _ = fmt.Fprintln(out, m.ID)
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
