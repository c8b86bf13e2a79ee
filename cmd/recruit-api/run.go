package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/psyeval/recruitment/internal/api_server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ops server (metrics and health)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, s, teardown := setup()
		defer teardown()

		zap.S().Info("Starting ops server")
		defer zap.S().Info("Ops server stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		if err := ensureSchema(ctx, cfg, db, s); err != nil {
			zap.S().Errorw("running migrations", "error", err)
			return err
		}

		listener, err := newListener(cfg.Service.OpsAddress)
		if err != nil {
			zap.S().Errorw("creating listener", "error", err)
			return err
		}

		return apiserver.New(s, listener).Run(ctx)
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
