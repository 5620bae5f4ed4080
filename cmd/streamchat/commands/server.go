package commands

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
)

// serverCmd waits for exactly one peer, then runs the chat as the responder.
func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server <port>",
		Short: "Listen for a peer and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[0], err)
			}
			addr := net.JoinHostPort("0.0.0.0", strconv.FormatUint(port, 10))

			peer, err := newPeer()
			if err != nil {
				return err
			}
			if err := peer.Listen(addr); err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			defer peer.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[SERVER] Listening on %s (%s)\n", peer.ListenAddr(), cfg.Transport)
			printParams(out)

			sess, err := peer.Accept(cmd.Context())
			if err != nil {
				return fmt.Errorf("key exchange: %w", err)
			}
			// one peer per run
			_ = peer.Close()
			fmt.Fprintln(out, "[CLIENT] Connected")
			return runChat(cmd, sess)
		},
	}
}
