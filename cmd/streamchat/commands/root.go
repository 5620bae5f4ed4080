package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TheusHen/streamchat/streamchat/config"
)

const defaultConfigPath = "streamchat.yaml"

var (
	configPath     string
	transportName  string
	logLevel       string
	transcriptPath string

	cfg config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "streamchat",
		Short:         "Stream cipher chat with Diffie-Hellman key generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			optional := !cmd.Flags().Changed("config")
			if path == "" {
				path = defaultConfigPath
			}
			loaded, err := config.Load(path, optional)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				loaded.Transport = transportName
			}
			if cmd.Flags().Changed("log-level") {
				loaded.LogLevel = logLevel
			}
			if cmd.Flags().Changed("transcript") {
				loaded.Transcript = transcriptPath
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			if err := loaded.ApplyLogging(); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default ./"+defaultConfigPath+" if present)")
	root.PersistentFlags().StringVarP(&transportName, "transport", "t", "", "stream transport: tcp, quic or ws (default tcp)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	root.PersistentFlags().StringVar(&transcriptPath, "transcript", "", "record the conversation to this lz4 file")

	root.AddCommand(serverCmd(), clientCmd(), transcriptCmd())
	return root
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
