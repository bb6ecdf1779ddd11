package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/monitor"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// TestPriceAccuracy streams every configured asset live and checks the
// resulting PriceReport against CoinMarketCap's quote, failing on any
// FeedDegraded or critical-divergence incident VerifyPrices surfaces.
func TestPriceAccuracy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	logger := getLogger()
	cfg, err := config.LoadConfigFromFlags(
		fmt.Sprintf("../../%s", config.SampleNodeConfigPath),
		"../../",
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feeds := make(map[types.Asset]*feeder.Feed, len(cfg.Assets))
	for _, asset := range cfg.ExpectedAssets() {
		fcfg := feeder.DefaultConfig()
		fcfg.Aggregator = cfg.AggregatorConfig()
		fcfg.Runner = cfg.RunnerConfig()
		fcfg.Endpoints = cfg.ProviderEndpointsMap()

		f, err := feeder.New(logger, asset, cfg.VenuesFor(asset), fcfg)
		require.NoError(t, err)
		f.Start(ctx)
		feeds[asset] = f
	}
	defer func() {
		for _, f := range feeds {
			f.Stop()
		}
	}()

	time.Sleep(60 * time.Second)

	priceErrors := monitor.VerifyPrices(&cfg, feeds)
	for _, pe := range priceErrors {
		t.Log(pe.Message)
		if pe.ErrorType == monitor.FEED_DEVIATED_PRICE ||
			pe.ErrorType == monitor.FEED_MISSING_PRICE ||
			pe.ErrorType == monitor.FEED_DEGRADED {
			t.Errorf("%s: %s", pe.Asset, pe.Message)
		}
	}
}

func getLogger() zerolog.Logger {
	logWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	logLvl := zerolog.DebugLevel
	zerolog.SetGlobalLevel(logLvl)
	return zerolog.New(logWriter).Level(logLvl).With().Timestamp().Logger()
}
