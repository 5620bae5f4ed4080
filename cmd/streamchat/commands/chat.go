package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TheusHen/streamchat/streamchat"
	"github.com/TheusHen/streamchat/streamchat/chat"
	"github.com/TheusHen/streamchat/streamchat/crypto"
	"github.com/TheusHen/streamchat/streamchat/session"
	"github.com/TheusHen/streamchat/streamchat/transcript"
	"github.com/TheusHen/streamchat/streamchat/transport"
)

func newPeer() (*streamchat.Peer, error) {
	t, err := transport.ByName(cfg.Transport)
	if err != nil {
		return nil, err
	}
	return streamchat.NewPeer(t, session.HandshakeOptions{Params: cfg.DH.Params()}), nil
}

func printParams(out io.Writer) {
	params := cfg.DH.Params()
	fmt.Fprintln(out, "[DH] Using DH parameters:")
	fmt.Fprintf(out, "     p = %s (64-bit prime - public)\n", crypto.FormatHexGrouped(params.P))
	fmt.Fprintf(out, "     g = %d (generator - public)\n", params.G)
}

// runChat owns sess from here on and closes it when the conversation ends.
func runChat(cmd *cobra.Command, sess *session.Session) error {
	defer sess.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[DH] Shared secret fingerprint: %s\n", sess.Fingerprint())

	var opts []chat.Option
	if cfg.Transcript != "" {
		w, err := transcript.Create(cfg.Transcript)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "runChat",
					"path":     cfg.Transcript,
					"error":    err.Error(),
				}).Warn("Failed to finish transcript")
			}
		}()
		opts = append(opts, chat.WithRecorder(w))
	}

	return chat.New(sess, cmd.InOrStdin(), out, opts...).Run(cmd.Context())
}
