package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const bybitWSHost = "stream.bybit.com/v5/public/spot"

var _ VenueAdapter = (*BybitAdapter)(nil)

// BybitAdapter streams Bybit v5's spot "tickers" topic.
//
// REF: https://bybit-exchange.github.io/docs/v5/websocket/public/ticker
type BybitAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	symbols      map[string]types.Asset // "BTCUSDT" -> AssetBTC
	topics       []string
	pingInterval time.Duration
}

type bybitSubscribeMsg struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitTickerData struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Bid1Price string `json:"bid1Price"`
	Ask1Price string `json:"ask1Price"`
}

type bybitEnvelope struct {
	Op      string          `json:"op"`
	Success *bool           `json:"success"`
	Topic   string          `json:"topic"`
	Data    bybitTickerData `json:"data"`
}

// NewBybitAdapter builds an adapter for the given assets. Bybit quotes
// this feed's assets in USDT. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewBybitAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *BybitAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = bybitWSHost
	}
	symbols := make(map[string]types.Asset, len(assets))
	topics := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "USDT"
		symbols[sym] = a
		topics = append(topics, "tickers."+sym)
	}
	return &BybitAdapter{
		logger:       logger.With().Str("venue", string(types.VenueBybit)).Logger(),
		endpoint:     endpoint,
		symbols:      symbols,
		topics:       topics,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *BybitAdapter) Venue() types.Venue { return types.VenueBybit }

func (a *BybitAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.endpoint.Websocket, nil
}

func (a *BybitAdapter) SubscribeMessages() ([][]byte, error) {
	bz, err := json.Marshal(bybitSubscribeMsg{Op: "subscribe", Args: a.topics})
	if err != nil {
		return nil, err
	}
	return [][]byte{bz}, nil
}

func (a *BybitAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var env bybitEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	if env.Op == "subscribe" || env.Op == "pong" {
		if env.Success != nil && !*env.Success {
			return types.Snapshot{}, OutcomeUnknown, nil
		}
		return types.Snapshot{}, OutcomeAck, nil
	}
	if env.Topic == "" {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	asset, ok := a.symbols[env.Data.Symbol]
	if !ok {
		return types.Snapshot{}, OutcomeIgnored, nil
	}
	if env.Data.LastPrice == "" {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	snap, err := types.NewSnapshot(
		types.VenueBybit, asset, types.QuoteUSDT,
		env.Data.LastPrice, env.Data.Bid1Price, env.Data.Ask1Price,
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (a *BybitAdapter) KeepAlive() []byte {
	bz, _ := json.Marshal(map[string]string{"op": "ping"})
	return bz
}

func (a *BybitAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
