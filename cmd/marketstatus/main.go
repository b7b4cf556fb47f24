package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(ctx).Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(ctx context.Context) *cobra.Command {
	serve := serveCmd(ctx)

	root := &cobra.Command{
		Use:           "marketstatus",
		Short:         "Live order book tips and price impact for Bittrex markets",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve)
	root.AddCommand(snapshotCmd(ctx))

	return root
}

func loadConfig() (config.Config, log.Logger, error) {
	cfg, err := config.Load()
	logger := log.New(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return cfg, logger, err
	}
	return cfg, logger, nil
}
