package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const (
	okxWSHost = "ws.okx.com:8443"
	okxWSPath = "/ws/v5/public"
)

var _ VenueAdapter = (*OKXAdapter)(nil)

// OKXAdapter streams OKX v5's "tickers" channel.
//
// REF: https://www.okx.com/docs-v5/en/#websocket-api-public-channel-tickers-channel
type OKXAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	instIDs      map[string]types.Asset // "BTC-USDT" -> AssetBTC
	symbols      []string
	pingInterval time.Duration
}

type okxSubscriptionTopic struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscriptionMsg struct {
	Op   string                 `json:"op"`
	Args []okxSubscriptionTopic `json:"args"`
}

type okxTickerData struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
}

type okxTickerResponse struct {
	Arg struct {
		Channel string `json:"channel"`
	} `json:"arg"`
	Event string          `json:"event"`
	Data  []okxTickerData `json:"data"`
}

// NewOKXAdapter builds an adapter for the given assets. OKX quotes this
// feed's assets in USDT. pingInterval configures the keepalive cadence; a
// non-positive value falls back to 20s.
func NewOKXAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *OKXAdapter {
	if endpoint.Websocket == "" {
		endpoint.Websocket = okxWSHost
	}
	instIDs := make(map[string]types.Asset, len(assets))
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "-USDT"
		instIDs[sym] = a
		symbols = append(symbols, sym)
	}
	return &OKXAdapter{
		logger:       logger.With().Str("venue", string(types.VenueOKX)).Logger(),
		endpoint:     endpoint,
		instIDs:      instIDs,
		symbols:      symbols,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

func (a *OKXAdapter) Venue() types.Venue { return types.VenueOKX }

func (a *OKXAdapter) DialURL(_ context.Context) (string, error) {
	return "wss://" + a.endpoint.Websocket + okxWSPath, nil
}

func (a *OKXAdapter) SubscribeMessages() ([][]byte, error) {
	args := make([]okxSubscriptionTopic, 0, len(a.symbols))
	for _, sym := range a.symbols {
		args = append(args, okxSubscriptionTopic{Channel: "tickers", InstID: sym})
	}
	bz, err := json.Marshal(okxSubscriptionMsg{Op: "subscribe", Args: args})
	if err != nil {
		return nil, err
	}
	return [][]byte{bz}, nil
}

func (a *OKXAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var resp okxTickerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	if resp.Event == "subscribe" {
		return types.Snapshot{}, OutcomeAck, nil
	}
	if resp.Event == "error" {
		return types.Snapshot{}, OutcomeUnknown, nil
	}
	if resp.Arg.Channel != "tickers" || len(resp.Data) == 0 {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	d := resp.Data[0]
	asset, ok := a.instIDs[d.InstID]
	if !ok {
		return types.Snapshot{}, OutcomeIgnored, nil
	}

	snap, err := types.NewSnapshot(
		types.VenueOKX, asset, types.QuoteUSDT,
		d.Last, d.BidPx, d.AskPx,
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (a *OKXAdapter) KeepAlive() []byte {
	return []byte("ping")
}

func (a *OKXAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
