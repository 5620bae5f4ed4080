package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheusHen/streamchat/streamchat/transcript"
)

func transcriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <file>",
		Short: "Print a recorded conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := transcript.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading transcript %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(out, e.Format())
			}
			return nil
		},
	}
}
