package v1

import (
	feeder "github.com/ojo-network/refprice-feeder"
	"github.com/ojo-network/refprice-feeder/oracle"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// AssetFacade adapts a set of per-asset Feed instances to the Facade
// interface the router depends on, so main never has to teach the HTTP
// layer about feeder.Feed directly.
type AssetFacade struct {
	feeds map[types.Asset]*feeder.Feed
}

var _ Facade = (*AssetFacade)(nil)

// NewAssetFacade builds a Facade over feeds, keyed by asset.
func NewAssetFacade(feeds map[types.Asset]*feeder.Feed) *AssetFacade {
	return &AssetFacade{feeds: feeds}
}

func (a *AssetFacade) GetPrice(asset types.Asset) (float64, bool) {
	f, ok := a.feeds[asset]
	if !ok {
		return 0, false
	}
	return f.GetPrice()
}

func (a *AssetFacade) GetReport(asset types.Asset) (*types.PriceReport, bool) {
	f, ok := a.feeds[asset]
	if !ok {
		return nil, false
	}
	return f.GetReport()
}

func (a *AssetFacade) FeedStats(asset types.Asset) ([]FeedStat, bool) {
	f, ok := a.feeds[asset]
	if !ok {
		return nil, false
	}
	stats := f.FeedStats()
	out := make([]FeedStat, len(stats))
	for i, s := range stats {
		out[i] = FeedStat{
			Venue:          s.Venue,
			Connected:      s.Connected,
			LastPrice:      s.LastPrice,
			AgeMs:          s.AgeMs,
			MessageCount:   s.MessageCount,
			ErrorCount:     s.ErrorCount,
			ReconnectCount: s.ReconnectCount,
		}
	}
	return out, true
}

func (a *AssetFacade) GetOracleSignal(asset types.Asset) (oracle.OracleSignal, bool) {
	f, ok := a.feeds[asset]
	if !ok {
		return oracle.OracleSignal{}, false
	}
	return f.GetOracleSignal()
}
