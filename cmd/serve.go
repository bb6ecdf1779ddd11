package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
	v1 "github.com/ojo-network/refprice-feeder/router/v1"
)

func getServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [config-file]",
		Args:  cobra.ExactArgs(1),
		Short: "Streams every configured asset's venues and serves the HTTP facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfigFromFlags(args[0], "")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			trapSignal(cancel, logger)

			feeds := make(map[types.Asset]*feeder.Feed, len(cfg.Assets))
			for _, assetCfg := range cfg.ExpectedAssets() {
				fcfg := feeder.DefaultConfig()
				fcfg.Aggregator = cfg.AggregatorConfig()
				fcfg.Runner = cfg.RunnerConfig()
				fcfg.Endpoints = cfg.ProviderEndpointsMap()
				fcfg.EnableOracleProbe = fcfg.Probe.ChainlinkAPIKey != "" || cfg.Monitor.Enabled

				f, err := feeder.New(logger, assetCfg, cfg.VenuesFor(assetCfg), fcfg)
				if err != nil {
					return fmt.Errorf("failed to build feed for %s: %w", assetCfg, err)
				}
				feeds[assetCfg] = f
			}

			for asset, f := range feeds {
				logger.Info().Str("asset", string(asset)).Msg("starting feed")
				f.Start(ctx)
			}
			defer func() {
				for _, f := range feeds {
					f.Stop()
				}
			}()

			facade := v1.NewAssetFacade(feeds)
			router := v1.New(logger, cfg, facade)

			muxRouter := mux.NewRouter()
			router.RegisterRoutes(muxRouter, v1.APIPathPrefix)

			writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
			if err != nil {
				return fmt.Errorf("failed to parse write timeout: %w", err)
			}
			readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
			if err != nil {
				return fmt.Errorf("failed to parse read timeout: %w", err)
			}

			srv := &http.Server{
				Addr:         cfg.Server.ListenAddr,
				Handler:      muxRouter,
				WriteTimeout: writeTimeout,
				ReadTimeout:  readTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("starting HTTP server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			}
		},
	}

	return serveCmd
}
