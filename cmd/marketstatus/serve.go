package main

import (
	"context"
	"errors"
	"time"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/gateway"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/pkg/market"
	"github.com/demigunkan/marketstatus/pkg/router"
	"github.com/demigunkan/marketstatus/pkg/syncer"
	"github.com/demigunkan/marketstatus/sdk/bittrex"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sync order books from the feed and serve queries over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			reg := metrics.Init(logger)

			opts := bittrex.OptionsFromConfig(cfg)
			rest := bittrex.New(opts, logger)
			feed := bittrex.NewFeed(opts, logger)

			workers := make([]*market.Worker, 0, cfg.Workers)
			units := make([]router.Unit, 0, cfg.Workers)
			for i := 0; i < cfg.Workers; i++ {
				w := market.NewWorker(i, cfg.Pairs, rest, feed, logger)
				workers = append(workers, w)
				units = append(units, w)
			}

			r := router.New(units, workers[0].Market().Supported, logger)
			srv := gateway.New(cfg, r, synced(workers[0].Market()), reg, logger)

			g, gctx := errgroup.WithContext(ctx)
			for _, w := range workers {
				g.Go(func() error { return w.Run(gctx) })
			}
			g.Go(func() error { return r.Run(gctx) })
			g.Go(func() error { return feed.Run(gctx, channels(cfg.Pairs)) })
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			logger.Info().Int("workers", cfg.Workers).Strs("pairs", cfg.PairNames()).Msg("marketstatus started")
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				logger.Error().Err(err).Msg("marketstatus stopped")
			}
			return err
		},
	}
}

func channels(pairs []config.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, string(bittrex.OrderbookChannel(p.Pair, p.Depth)))
	}
	return out
}

// synced reports readiness once every book of m has been initialized.
func synced(m *market.Market) func() bool {
	return func() bool {
		for _, pair := range m.Pairs() {
			if m.Syncer(pair).State().Phase != syncer.PhaseSynced {
				return false
			}
		}
		return true
	}
}
