package feeder

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func TestNew_RejectsUnsupportedAsset(t *testing.T) {
	_, err := New(zerolog.Nop(), types.Asset("DOGE"), []types.Venue{types.VenueBinance, types.VenueCoinbase}, DefaultConfig())
	require.Error(t, err)
}

func TestNew_RejectsEmptyVenueList(t *testing.T) {
	_, err := New(zerolog.Nop(), types.AssetBTC, nil, DefaultConfig())
	require.Error(t, err)
}

func TestNew_RejectsUnknownVenue(t *testing.T) {
	_, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.Venue("not-a-venue")}, DefaultConfig())
	require.Error(t, err)
}

func TestNew_RejectsDuplicateVenue(t *testing.T) {
	_, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueBinance}, DefaultConfig())
	require.Error(t, err)
}

func TestNew_RejectsMinSourcesExceedingVenueCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregator.MinSources = 5
	_, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, cfg)
	require.Error(t, err)
}

func TestNew_RejectsNonPositiveMaxStalenessOrDeviation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregator.MaxStalenessMs = 0
	_, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Aggregator.MaxDeviationPct = 0
	_, err = New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, cfg)
	require.Error(t, err)
}

func TestNew_ValidConstructionNeverDialsAnything(t *testing.T) {
	f, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestFeed_GetPriceFalseBeforeAnyReport(t *testing.T) {
	f, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, DefaultConfig())
	require.NoError(t, err)

	_, ok := f.GetPrice()
	require.False(t, ok)

	_, ok = f.GetDivergence()
	require.False(t, ok)

	_, ok = f.GetConfidence()
	require.False(t, ok)

	_, ok = f.GetReport()
	require.False(t, ok)
}

func TestFeed_GetOracleSignalFalseWithoutProbe(t *testing.T) {
	f, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, DefaultConfig())
	require.NoError(t, err)

	_, ok := f.GetOracleSignal()
	require.False(t, ok)
}

func TestFeed_FeedStatsCoversEveryVenueBeforeStart(t *testing.T) {
	venues := []types.Venue{types.VenueBinance, types.VenueCoinbase, types.VenueKraken}
	f, err := New(zerolog.Nop(), types.AssetBTC, venues, DefaultConfig())
	require.NoError(t, err)

	stats := f.FeedStats()
	require.Len(t, stats, len(venues))
	for _, s := range stats {
		require.False(t, s.Connected)
		require.Zero(t, s.MessageCount)
	}
}

func TestFeed_StopWithoutStartIsSafe(t *testing.T) {
	f, err := New(zerolog.Nop(), types.AssetBTC, []types.Venue{types.VenueBinance, types.VenueCoinbase}, DefaultConfig())
	require.NoError(t, err)

	require.NotPanics(t, func() { f.Stop() })
}
