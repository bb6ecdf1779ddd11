package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const reportWarmup = 10 * time.Second

// getReportCmd streams every configured asset just long enough for the
// aggregator to publish one report, then prints that snapshot and exits.
// Unlike serve, it never opens the HTTP facade.
func getReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report [config-file]",
		Args:  cobra.ExactArgs(1),
		Short: "Streams every configured asset briefly and prints a one-shot price snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfigFromFlags(args[0], "")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), reportWarmup)
			defer cancel()
			trapSignal(cancel, logger)

			assets := cfg.ExpectedAssets()
			feeds := make(map[types.Asset]*feeder.Feed, len(assets))
			for _, assetCfg := range assets {
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

			snapshot := make(map[types.Asset]*types.PriceReport, len(feeds))
			for asset, f := range feeds {
				report, ok := f.GetReport()
				if !ok {
					snapshot[asset] = nil
					continue
				}
				snapshot[asset] = report
			}

			out, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	return reportCmd
}
