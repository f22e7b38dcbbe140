package main

import (
	"fmt"
	"time"

	"github.com/danmuck/plotwire/internal/launch"
	"github.com/danmuck/plotwire/internal/observability"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/danmuck/plotwire/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type pendingBatch struct {
	path  string
	req   server.BatchRequest
	items []session.Item
}

func newSendCommand(root *rootOptions) *cobra.Command {
	var (
		noLaunch bool
		hold     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <batch.toml>...",
		Short: "Open a session and publish one batch per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if noLaunch {
				cfg.Session.Launch = launch.Config{}
			}

			// Validate every file before binding anything.
			reqs := make([]pendingBatch, 0, len(args))
			for _, path := range args {
				req, err := loadBatchFile(path)
				if err != nil {
					return err
				}
				items, err := req.Items()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				reqs = append(reqs, pendingBatch{path: path, req: req, items: items})
			}

			logger := observability.ServiceLogger(log.Logger, "plotctl-send", cfg.Server.Node)
			sess, err := openSession(cmd.Context(), cfg.Session, logger)
			if err != nil {
				return err
			}
			for _, r := range reqs {
				for _, c := range r.req.Commands {
					sess.Push(c)
				}
				if r.req.Raw != "" {
					sess.Raw(r.req.Raw)
				}
				if err := sess.Send(r.items...); err != nil {
					return err
				}
				cmd.Printf("sent %s (%d items)\n", r.path, len(r.items))
			}
			if hold > 0 {
				time.Sleep(hold)
			}
			return sess.Close()
		},
	}
	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not spawn the consumer; assume it is already running")
	cmd.Flags().DurationVar(&hold, "hold", 0, "keep the consumer running this long before sending exit")
	return cmd
}
