package provider

import (
	"time"

	sdkerrors "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// NewAdapter builds the VenueAdapter for venue from a static
// venue-to-constructor table: no dynamic code loading, every venue is a
// compiled-in tagged variant. pingInterval is the configured keepalive
// cadence (a non-positive value falls back to each adapter's 20s
// default); KuCoin treats it only as a seed, since its own preflight
// response supersedes it on every connect.
func NewAdapter(venue types.Venue, logger zerolog.Logger, endpoint Endpoint, asset types.Asset, pingInterval time.Duration) (VenueAdapter, error) {
	assets := []types.Asset{asset}

	switch venue {
	case types.VenueBinance:
		return NewBinanceAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueCoinbase:
		return NewCoinbaseAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueKraken:
		return NewKrakenAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueOKX:
		return NewOKXAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueBybit:
		return NewBybitAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueGemini:
		return NewGeminiAdapter(logger, endpoint, asset, pingInterval), nil
	case types.VenueKuCoin:
		return NewKuCoinAdapter(logger, endpoint, assets, pingInterval), nil
	case types.VenueGateIO:
		return NewGateIOAdapter(logger, endpoint, assets, pingInterval), nil
	default:
		return nil, sdkerrors.Wrapf(types.ErrUnknownVenue, "%s", venue)
	}
}
