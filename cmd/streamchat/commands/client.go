package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clientCmd connects to a listening peer and runs the chat as the initiator.
func clientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client <address>",
		Short: "Connect to a peer and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := args[0]

			peer, err := newPeer()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[CLIENT] Connecting to %s (%s)...\n", addr, cfg.Transport)
			printParams(out)

			sess, err := peer.Dial(cmd.Context(), addr)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", addr, err)
			}
			fmt.Fprintln(out, "[CLIENT] Connected!")
			return runChat(cmd, sess)
		},
	}
}
