package monitor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func newUnstartedFeed(t *testing.T, asset types.Asset) *feeder.Feed {
	t.Helper()
	f, err := feeder.New(zerolog.Nop(), asset, []types.Venue{types.VenueBinance, types.VenueCoinbase}, feeder.DefaultConfig())
	require.NoError(t, err)
	return f
}

func TestVerifyPrices_MissingCoinMarketCapKeyReportsAPIDown(t *testing.T) {
	cfg := &config.Config{
		Assets: []config.AssetConfig{{Asset: "BTC", Venues: []string{"binance", "coinbase"}}},
	}
	feeds := map[types.Asset]*feeder.Feed{types.AssetBTC: newUnstartedFeed(t, types.AssetBTC)}

	errs := VerifyPrices(cfg, feeds)

	var sawAPIDown bool
	for _, e := range errs {
		if e.ErrorType == API_DOWN {
			sawAPIDown = true
		}
	}
	require.True(t, sawAPIDown)
}

func TestVerifyPrices_FeedWithNoReportIsMissingPrice(t *testing.T) {
	cfg := &config.Config{
		Assets: []config.AssetConfig{{Asset: "BTC", Venues: []string{"binance", "coinbase"}}},
	}
	feeds := map[types.Asset]*feeder.Feed{types.AssetBTC: newUnstartedFeed(t, types.AssetBTC)}

	errs := VerifyPrices(cfg, feeds)

	var sawMissing bool
	for _, e := range errs {
		if e.ErrorType == FEED_MISSING_PRICE && e.Asset == "BTC" {
			sawMissing = true
		}
	}
	require.True(t, sawMissing)
}

func TestVerifyPrices_SkipsAssetsWithoutAFeed(t *testing.T) {
	cfg := &config.Config{
		Assets: []config.AssetConfig{{Asset: "ETH", Venues: []string{"kraken"}}},
	}
	errs := VerifyPrices(cfg, map[types.Asset]*feeder.Feed{})

	for _, e := range errs {
		require.NotEqual(t, "ETH", e.Asset)
	}
}
