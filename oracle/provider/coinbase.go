package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const coinbaseWSHost = "ws-feed.exchange.coinbase.com"

var _ VenueAdapter = (*CoinbaseAdapter)(nil)

// CoinbaseAdapter streams Coinbase's "ticker" channel. Coinbase is a
// subscribe-after-connect venue: the channel and product IDs are sent in a
// frame immediately after the socket opens.
//
// REF: https://docs.cloud.coinbase.com/exchange/docs/websocket-channels#ticker-channel
type CoinbaseAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	products     map[string]types.Asset // e.g. "BTC-USD" -> AssetBTC
	symbols      []string
	pingInterval time.Duration
}

type coinbaseSubscribeMsg struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// coinbaseTicker covers the fields this feed consumes; Coinbase's ticker
// channel carries many more that are irrelevant here.
type coinbaseTicker struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
}

type coinbaseErrorMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// NewCoinbaseAdapter builds an adapter for the given assets. Coinbase
// quotes this feed's assets in USD. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewCoinbaseAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *CoinbaseAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = coinbaseWSHost
	}
	products := make(map[string]types.Asset, len(assets))
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "-USD"
		products[sym] = a
		symbols = append(symbols, sym)
	}
	return &CoinbaseAdapter{
		logger:       logger.With().Str("venue", string(types.VenueCoinbase)).Logger(),
		endpoint:     endpoint,
		products:     products,
		symbols:      symbols,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *CoinbaseAdapter) Venue() types.Venue { return types.VenueCoinbase }

func (a *CoinbaseAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.endpoint.Websocket, nil
}

func (a *CoinbaseAdapter) SubscribeMessages() ([][]byte, error) {
	msg := coinbaseSubscribeMsg{
		Type:       "subscribe",
		ProductIDs: a.symbols,
		Channels:   []string{"ticker"},
	}
	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return [][]byte{bz}, nil
}

func (a *CoinbaseAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	switch probe.Type {
	case "subscriptions":
		return types.Snapshot{}, OutcomeAck, nil
	case "error":
		var errMsg coinbaseErrorMsg
		_ = json.Unmarshal(raw, &errMsg)
		a.logger.Error().Str("reason", errMsg.Reason).Msg("coinbase error frame")
		return types.Snapshot{}, OutcomeUnknown, nil
	case "ticker":
		var t coinbaseTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			return types.Snapshot{}, OutcomeUnknown, err
		}
		asset, ok := a.products[strings.ToUpper(t.ProductID)]
		if !ok {
			return types.Snapshot{}, OutcomeIgnored, nil
		}
		snap, err := types.NewSnapshot(
			types.VenueCoinbase, asset, types.QuoteUSD,
			t.Price, t.BestBid, t.BestAsk,
			nowMs(),
		)
		if err != nil {
			return types.Snapshot{}, OutcomeUnknown, err
		}
		return snap, OutcomeSnapshot, nil
	default:
		return types.Snapshot{}, OutcomeIgnored, nil
	}
}

func (a *CoinbaseAdapter) KeepAlive() []byte {
	return nil
}

func (a *CoinbaseAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
