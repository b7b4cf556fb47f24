package main

import (
	"context"
	"fmt"

	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/demigunkan/marketstatus/pkg/orderbook"
	"github.com/demigunkan/marketstatus/pkg/price"
	"github.com/demigunkan/marketstatus/sdk/bittrex"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func snapshotCmd(ctx context.Context) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "snapshot <pair>",
		Short: "Fetch one REST snapshot and print its tips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			pair := args[0]

			if depth <= 0 {
				depth = 25
				for _, p := range cfg.Pairs {
					if p.Pair == pair {
						depth = p.Depth
					}
				}
			}

			snapshot, err := bittrex.New(bittrex.OptionsFromConfig(cfg), logger).Snapshot(ctx, pair, depth)
			if err != nil {
				return err
			}

			book := orderbook.New(pair, depth)
			if err := book.Init(snapshot.Bid, snapshot.Ask); err != nil {
				return err
			}

			tips := price.GetTips(book)
			out, err := json.MarshalIndent(struct {
				CurrencyPair string      `json:"currencyPair"`
				Sequence     int64       `json:"sequence"`
				Depth        int         `json:"depth"`
				Bid          types.Level `json:"bid"`
				Ask          types.Level `json:"ask"`
			}{pair, snapshot.Sequence, depth, tips.Bid, tips.Ask}, "", "  ")
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "ladder depth (defaults to the configured depth for the pair, else 25)")

	return cmd
}
