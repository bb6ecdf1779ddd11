package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const gateioWSHost = "api.gateio.ws/ws/v4/"

var _ VenueAdapter = (*GateIOAdapter)(nil)

// GateIOAdapter streams Gate.io's spot "spot.tickers" channel.
//
// REF: https://www.gate.io/docs/developers/apiv4/ws/en/#tickers-channel
type GateIOAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	symbols      map[string]types.Asset // "BTC_USDT" -> AssetBTC
	pairs        []string
	pingInterval time.Duration
}

type gateioSubscribeMsg struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

type gateioTickerResult struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
	HighestBid   string `json:"highest_bid"`
	LowestAsk    string `json:"lowest_ask"`
}

type gateioError struct {
	Message string `json:"message"`
}

type gateioEnvelope struct {
	Time    int64              `json:"time"`
	Channel string             `json:"channel"`
	Event   string             `json:"event"`
	Error   *gateioError       `json:"error"`
	Result  gateioTickerResult `json:"result"`
}

// NewGateIOAdapter builds an adapter for the given assets. Gate.io quotes
// this feed's assets in USDT. pingInterval configures the keepalive
// cadence; a non-positive value falls back to 20s.
func NewGateIOAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *GateIOAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = gateioWSHost
	}
	symbols := make(map[string]types.Asset, len(assets))
	pairs := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "_USDT"
		symbols[sym] = a
		pairs = append(pairs, sym)
	}
	return &GateIOAdapter{
		logger:       logger.With().Str("venue", string(types.VenueGateIO)).Logger(),
		endpoint:     endpoint,
		symbols:      symbols,
		pairs:        pairs,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *GateIOAdapter) Venue() types.Venue { return types.VenueGateIO }

func (a *GateIOAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.endpoint.Websocket, nil
}

func (a *GateIOAdapter) SubscribeMessages() ([][]byte, error) {
	bz, err := json.Marshal(gateioSubscribeMsg{
		Time:    nowMs() / 1000,
		Channel: "spot.tickers",
		Event:   "subscribe",
		Payload: a.pairs,
	})
	if err != nil {
		return nil, err
	}
	return [][]byte{bz}, nil
}

func (a *GateIOAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var env gateioEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	if env.Error != nil {
		return types.Snapshot{}, OutcomeUnknown, nil
	}
	if env.Event == "subscribe" {
		return types.Snapshot{}, OutcomeAck, nil
	}
	if env.Channel != "spot.tickers" || env.Event != "update" {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	asset, ok := a.symbols[env.Result.CurrencyPair]
	if !ok {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	snap, err := types.NewSnapshot(
		types.VenueGateIO, asset, types.QuoteUSDT,
		env.Result.Last, env.Result.HighestBid, env.Result.LowestAsk,
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (a *GateIOAdapter) KeepAlive() []byte {
	bz, _ := json.Marshal(gateioSubscribeMsg{Time: nowMs() / 1000, Channel: "spot.ping"})
	return bz
}

func (a *GateIOAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
