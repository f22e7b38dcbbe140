package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/plotwire/internal/launch"
	"github.com/danmuck/plotwire/internal/observability"
	"github.com/danmuck/plotwire/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		addr     string
		noLaunch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept batches over HTTP and publish them on the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if noLaunch {
				cfg.Session.Launch = launch.Config{}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := observability.ServiceLogger(log.Logger, "plotctl-serve", cfg.Server.Node)
			sess, err := openSession(ctx, cfg.Session, logger)
			if err != nil {
				return err
			}
			defer sess.Close()
			return server.New(sess, cfg.Server, logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "HTTP listen address, overrides the config file")
	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not spawn the consumer; assume it is already running")
	return cmd
}
