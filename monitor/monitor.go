package monitor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const verifyInterval = 1 * time.Minute

// Start runs the alerting loop standalone (outside of `serve`): it loads
// cfg from the sample config path, starts one Feed per configured asset,
// and verifies each against CoinMarketCap on verifyInterval, notifying
// Slack of any new or resolved incident.
func Start() {
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())

	userInterrupt := make(chan os.Signal, 1)
	signal.Notify(userInterrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-userInterrupt
		logger.Info().Msg("user interrupt")
		cancel()
	}()

	cfg, err := config.LoadConfigFromFlags(config.SampleNodeConfigPath, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	feeds := make(map[types.Asset]*feeder.Feed, len(cfg.Assets))
	for _, asset := range cfg.ExpectedAssets() {
		fcfg := feeder.DefaultConfig()
		fcfg.Aggregator = cfg.AggregatorConfig()
		fcfg.Runner = cfg.RunnerConfig()
		fcfg.Endpoints = cfg.ProviderEndpointsMap()

		f, err := feeder.New(logger, asset, cfg.VenuesFor(asset), fcfg)
		if err != nil {
			logger.Fatal().Err(err).Str("asset", string(asset)).Msg("failed to build feed")
		}
		f.Start(ctx)
		feeds[asset] = f
	}
	defer func() {
		for _, f := range feeds {
			f.Stop()
		}
	}()

	slackClient := NewSlackClient(&cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(verifyInterval):
			priceErrors := VerifyPrices(&cfg, feeds)
			slackClient.Notify(priceErrors)
		}
	}
}
