package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const krakenWSHost = "ws.kraken.com/v2"

var _ VenueAdapter = (*KrakenAdapter)(nil)

// KrakenAdapter streams Kraken's v2 "ticker" channel.
//
// REF: https://docs.kraken.com/api/docs/websocket-v2/ticker
type KrakenAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	symbols      map[string]types.Asset // "BTC/USD" -> AssetBTC
	pairs        []string
	pingInterval time.Duration
}

type krakenSubscribeParams struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

type krakenSubscribeMsg struct {
	Method string                `json:"method"`
	Params krakenSubscribeParams `json:"params"`
}

type krakenTickerData struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type krakenEnvelope struct {
	Channel string             `json:"channel"`
	Type    string             `json:"type"`
	Method  string             `json:"method"`
	Success bool               `json:"success"`
	Data    []krakenTickerData `json:"data"`
}

// NewKrakenAdapter builds an adapter for the given assets. Kraken quotes
// this feed's assets in USD. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewKrakenAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *KrakenAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = krakenWSHost
	}
	symbols := make(map[string]types.Asset, len(assets))
	pairs := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "/USD"
		symbols[sym] = a
		pairs = append(pairs, sym)
	}
	return &KrakenAdapter{
		logger:       logger.With().Str("venue", string(types.VenueKraken)).Logger(),
		endpoint:     endpoint,
		symbols:      symbols,
		pairs:        pairs,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *KrakenAdapter) Venue() types.Venue { return types.VenueKraken }

func (a *KrakenAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.endpoint.Websocket, nil
}

func (a *KrakenAdapter) SubscribeMessages() ([][]byte, error) {
	bz, err := json.Marshal(krakenSubscribeMsg{
		Method: "subscribe",
		Params: krakenSubscribeParams{Channel: "ticker", Symbol: a.pairs},
	})
	if err != nil {
		return nil, err
	}
	return [][]byte{bz}, nil
}

func (a *KrakenAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var env krakenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	if env.Method == "subscribe" {
		if !env.Success {
			return types.Snapshot{}, OutcomeUnknown, nil
		}
		return types.Snapshot{}, OutcomeAck, nil
	}
	if env.Channel == "heartbeat" {
		return types.Snapshot{}, OutcomeHeartbeat, nil
	}
	if env.Channel != "ticker" || len(env.Data) == 0 {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	d := env.Data[0]
	asset, ok := a.symbols[d.Symbol]
	if !ok {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	snap, err := types.NewSnapshot(
		types.VenueKraken, asset, types.QuoteUSD,
		formatDecimal(d.Last), formatDecimal(d.Bid), formatDecimal(d.Ask),
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (a *KrakenAdapter) KeepAlive() []byte {
	return nil
}

func (a *KrakenAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
