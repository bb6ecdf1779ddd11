package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const geminiWSHost = "api.gemini.com"

var _ VenueAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter streams Gemini's per-symbol market data feed. Gemini is a
// stream-URL venue: each symbol gets its own connection, so a single
// GeminiAdapter instance handles exactly one asset; FeedRunner is given one
// adapter per asset for this venue. The feed mixes trade, change and
// auction events on the same socket; only "trade" events carry a price.
//
// REF: https://docs.gemini.com/websocket-api/#market-data-version-2
type GeminiAdapter struct {
	logger       zerolog.Logger
	host         string
	asset        types.Asset
	symbol       string // e.g. "btcusd"
	pingInterval time.Duration
}

type geminiEvent struct {
	Type  string `json:"type"`
	Price string `json:"price"`
}

type geminiMessage struct {
	Type   string        `json:"type"`
	Symbol string        `json:"symbol"`
	Events []geminiEvent `json:"events"`
}

// NewGeminiAdapter builds an adapter for a single asset. Gemini quotes
// this feed's assets in USD. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewGeminiAdapter(logger zerolog.Logger, endpoint Endpoint, asset types.Asset, pingInterval time.Duration) *GeminiAdapter {
	host := endpoint.Websocket
	if host == "" {
		host = geminiWSHost
	}
	return &GeminiAdapter{
		logger:       logger.With().Str("venue", string(types.VenueGemini)).Str("asset", string(asset)).Logger(),
		host:         host,
		asset:        asset,
		symbol:       strings.ToLower(string(asset)) + "usd",
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *GeminiAdapter) Venue() types.Venue { return types.VenueGemini }

func (a *GeminiAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.host + "/v2/marketdata/" + a.symbol, nil
}

func (a *GeminiAdapter) SubscribeMessages() ([][]byte, error) {
	return nil, nil
}

func (a *GeminiAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var msg geminiMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	switch msg.Type {
	case "subscription_ack":
		return types.Snapshot{}, OutcomeAck, nil
	case "heartbeat":
		return types.Snapshot{}, OutcomeHeartbeat, nil
	case "update":
		for _, ev := range msg.Events {
			if ev.Type != "trade" || ev.Price == "" {
				continue
			}
			snap, err := types.NewSnapshot(
				types.VenueGemini, a.asset, types.QuoteUSD,
				ev.Price, "", "",
				nowMs(),
			)
			if err != nil {
				return types.Snapshot{}, OutcomeUnknown, err
			}
			return snap, OutcomeSnapshot, nil
		}
		return types.Snapshot{}, OutcomeIgnored, nil
	default:
		return types.Snapshot{}, OutcomeIgnored, nil
	}
}

func (a *GeminiAdapter) KeepAlive() []byte {
	return nil
}

func (a *GeminiAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
