package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const (
	binanceWSHost = "stream.binance.com:9443"
	binanceWSPath = "/stream"
)

var _ VenueAdapter = (*BinanceAdapter)(nil)

// BinanceAdapter streams Binance's combined ticker channel. Binance is a
// stream-URL venue: the subscription is encoded entirely in the connect
// URL, so SubscribeMessages is a no-op.
//
// REF: https://binance-docs.github.io/apidocs/spot/en/#individual-symbol-ticker-streams
type BinanceAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	symbols      map[string]types.Asset // lowercased stream symbol -> asset
	pingInterval time.Duration
}

// binanceTicker is the per-symbol 24hr ticker payload. Binance's combined
// stream wraps this in {"stream":"...","data":{...}}. c is the last traded
// price; b/a are the best bid/ask, carried through as Snapshot's optional
// bid/ask rather than used to derive price.
type binanceTicker struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	BidPrice  string `json:"b"`
	AskPrice  string `json:"a"`
}

type binanceStreamEnvelope struct {
	Stream string        `json:"stream"`
	Data   binanceTicker `json:"data"`
}

// NewBinanceAdapter builds an adapter for the given assets. Binance quotes
// this feed's assets in USDT. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewBinanceAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *BinanceAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = binanceWSHost
	}
	symbols := make(map[string]types.Asset, len(assets))
	for _, a := range assets {
		symbols[strings.ToLower(string(a))+"usdt"] = a
	}
	return &BinanceAdapter{
		logger:       logger.With().Str("venue", string(types.VenueBinance)).Logger(),
		endpoint:     endpoint,
		symbols:      symbols,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *BinanceAdapter) Venue() types.Venue { return types.VenueBinance }

func (a *BinanceAdapter) DialURL(_ context.Context) (string, error) {
	streams := make([]string, 0, len(a.symbols))
	for sym := range a.symbols {
		streams = append(streams, sym+"@ticker")
	}
	u := url.URL{
		Scheme:   "wss",
		Host:     a.endpoint.Websocket,
		Path:     binanceWSPath,
		RawQuery: "streams=" + strings.Join(streams, "/"),
	}
	return u.String(), nil
}

func (a *BinanceAdapter) SubscribeMessages() ([][]byte, error) {
	return nil, nil
}

func (a *BinanceAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var env binanceStreamEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.Snapshot{}, OutcomeUnknown, fmt.Errorf("failed to parse binance frame: %w", err)
	}
	if env.Data.Symbol == "" {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	asset, ok := a.symbols[strings.ToLower(env.Data.Symbol)]
	if !ok {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	snap, err := types.NewSnapshot(
		types.VenueBinance, asset, types.QuoteUSDT,
		env.Data.LastPrice, env.Data.BidPrice, env.Data.AskPrice,
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (a *BinanceAdapter) KeepAlive() []byte {
	return nil
}

func (a *BinanceAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
