package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/bailian-loader/internal/loader"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bailian",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "bailian version %s\n", rootCmd.Version)
			_, _ = fmt.Fprintf(out, "  commit:   %s\n", buildCommit)
			_, _ = fmt.Fprintf(out, "  built:    %s\n", buildDate)
			_, _ = fmt.Fprintf(out, "  endpoint: %s\n", loader.DefaultBaseURL)
		},
	}
}
