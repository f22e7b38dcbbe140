package main

import (
	"context"
	"strings"

	"github.com/danmuck/plotwire/internal/config"
	"github.com/danmuck/plotwire/internal/logging"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type rootOptions struct {
	configPath string
	address    string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "plotctl",
		Short:         "Publish numeric data and plot commands to a visualization process",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if lvl, ok := logging.ParseLevel(opts.logLevel); ok {
				zerolog.SetGlobalLevel(lvl)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.toml or .yaml)")
	cmd.PersistentFlags().StringVar(&opts.address, "address", "", "channel address, overrides the config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error|off)")

	cmd.AddCommand(newSendCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newListenCommand(opts))
	cmd.AddCommand(newDumpCommand(opts))
	cmd.AddCommand(newInitCommand())
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(o.configPath) != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(o.address); v != "" {
		cfg.Session.Address = v
	}
	return cfg, config.Validate(cfg)
}

// openSession opens a session and arranges for the exit sentinel to be sent
// when the process leaves through atexit.
func openSession(ctx context.Context, cfg session.Config, logger zerolog.Logger) (*session.Session, error) {
	sess, err := session.Open(ctx, cfg, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	atexit.Register(func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("session close")
		}
	})
	return sess, nil
}
