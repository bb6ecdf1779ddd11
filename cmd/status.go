package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const statusGracePeriod = 10 * time.Second

func getStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status [config-file]",
		Args:  cobra.ExactArgs(1),
		Short: "Streams every configured asset briefly and reports which ones failed to produce a price",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfigFromFlags(args[0], "")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), statusGracePeriod)
			defer cancel()
			trapSignal(cancel, logger)

			feeds := make(map[types.Asset]*feeder.Feed, len(cfg.Assets))
			for _, assetCfg := range cfg.ExpectedAssets() {
				fcfg := feeder.DefaultConfig()
				fcfg.Aggregator = cfg.AggregatorConfig()
				fcfg.Runner = cfg.RunnerConfig()
				fcfg.Endpoints = cfg.ProviderEndpointsMap()

				f, err := feeder.New(logger, assetCfg, cfg.VenuesFor(assetCfg), fcfg)
				if err != nil {
					return fmt.Errorf("failed to build feed for %s: %w", assetCfg, err)
				}
				feeds[assetCfg] = f
				f.Start(ctx)
			}
			defer func() {
				for _, f := range feeds {
					f.Stop()
				}
			}()

			<-ctx.Done()

			var downtime []string
			for asset, f := range feeds {
				if _, ok := f.GetPrice(); !ok {
					downtime = append(downtime, string(asset))
				}
			}

			if len(downtime) == 0 {
				fmt.Println("No downtime detected")
				return nil
			}
			fmt.Println("Assets with no viable price after grace period:", downtime)
			return nil
		},
	}

	return statusCmd
}
