package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ojo-network/refprice-feeder/oracle/provider"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func validConfig() Config {
	return Config{
		Assets: []AssetConfig{
			{Asset: "BTC", Venues: []string{"binance", "coinbase"}},
		},
	}
}

func TestConfig_ValidateAccepts(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfig_ValidateRejectsEmptyAssets(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsUnsupportedAsset(t *testing.T) {
	cfg := validConfig()
	cfg.Assets[0].Asset = "DOGE"
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsDuplicateAsset(t *testing.T) {
	cfg := validConfig()
	cfg.Assets = append(cfg.Assets, AssetConfig{Asset: "BTC", Venues: []string{"kraken"}})
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsAssetWithNoVenues(t *testing.T) {
	cfg := validConfig()
	cfg.Assets[0].Venues = nil
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsUnknownVenue(t *testing.T) {
	cfg := validConfig()
	cfg.Assets[0].Venues = []string{"not-a-real-venue"}
	require.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsNegativeThresholds(t *testing.T) {
	cfg := validConfig()
	cfg.Thresholds.MaxDeviationPct = -1
	require.Error(t, cfg.Validate())
}

func TestConfig_SetDefaultsFillsZeroValues(t *testing.T) {
	cfg := validConfig()
	cfg.setDefaults()

	require.Equal(t, defaultListenAddr, cfg.Server.ListenAddr)
	require.NotZero(t, cfg.Thresholds.MaxStalenessMs)
	require.NotZero(t, cfg.Thresholds.MinSources)
	require.NotZero(t, cfg.Timeouts.ReconnectBackoff)
	require.Equal(t, 20, cfg.Timeouts.PingIntervalSec)
}

func TestConfig_SetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddr = "127.0.0.1:9999"
	cfg.Thresholds.MinSources = 7
	cfg.setDefaults()

	require.Equal(t, "127.0.0.1:9999", cfg.Server.ListenAddr)
	require.Equal(t, 7, cfg.Thresholds.MinSources)
}

func TestConfig_AggregatorConfigMirrorsThresholds(t *testing.T) {
	cfg := validConfig()
	cfg.Thresholds.MinSources = 4
	cfg.Thresholds.MaxDeviationPct = 1.5

	agg := cfg.AggregatorConfig()
	require.Equal(t, 4, agg.MinSources)
	require.Equal(t, 1.5, agg.MaxDeviationPct)
}

func TestConfig_RunnerConfigConvertsSecondsToDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Timeouts.ConnectTimeoutSec = 5
	cfg.Timeouts.PingIntervalSec = 45
	cfg.Timeouts.ReconnectDelaySec = 1.5
	cfg.Timeouts.MaxReconnectDelaySec = 30
	cfg.Timeouts.ReconnectBackoff = 2.0

	runnerCfg := cfg.RunnerConfig()
	require.Equal(t, 5*1e9, float64(runnerCfg.ConnectTimeout))
	require.Equal(t, 45*1e9, float64(runnerCfg.PingInterval))
	require.Equal(t, 10*1e9, float64(runnerCfg.PingTimeout))
	require.Equal(t, 1.5*1e9, float64(runnerCfg.InitialBackoff))
	require.Equal(t, 30*1e9, float64(runnerCfg.MaxBackoff))
	require.Equal(t, 2.0, runnerCfg.BackoffMultiplier)
}

func TestConfig_VenuesForKnownAndUnknownAsset(t *testing.T) {
	cfg := validConfig()
	venues := cfg.VenuesFor(types.AssetBTC)
	require.Equal(t, []types.Venue{types.VenueBinance, types.VenueCoinbase}, venues)

	require.Nil(t, cfg.VenuesFor(types.AssetETH))
}

func TestConfig_ExpectedAssets(t *testing.T) {
	cfg := validConfig()
	cfg.Assets = append(cfg.Assets, AssetConfig{Asset: "ETH", Venues: []string{"kraken"}})

	require.Equal(t, []types.Asset{types.AssetBTC, types.AssetETH}, cfg.ExpectedAssets())
}

func TestConfig_ProviderEndpointsMapKeyedByName(t *testing.T) {
	cfg := validConfig()
	cfg.ProviderEndpoints = []provider.Endpoint{
		{Name: types.VenueBinance, Rest: "https://example.com/binance"},
		{Name: types.VenueKraken, Websocket: "wss://example.com/kraken"},
	}

	endpoints := cfg.ProviderEndpointsMap()
	require.Equal(t, "https://example.com/binance", endpoints[types.VenueBinance].Rest)
	require.Equal(t, "wss://example.com/kraken", endpoints[types.VenueKraken].Websocket)
}
