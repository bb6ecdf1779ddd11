package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const kucoinBulletPublicURL = "https://api.kucoin.com/api/v1/bullet-public"

var _ VenueAdapter = (*KuCoinAdapter)(nil)

// KuCoinAdapter streams KuCoin's spot "market/ticker" topic. KuCoin is a
// preflight venue: DialURL performs a REST POST to bullet-public to obtain
// a one-time token, the server's preferred endpoint and its ping interval,
// before it can compose the websocket URL.
//
// REF: https://www.kucoin.com/docs/websocket/basic-info/apply-connect-token/public-channel-no-authentication-required
type KuCoinAdapter struct {
	logger       zerolog.Logger
	endpoint     Endpoint
	httpClient   *http.Client
	symbols      map[string]types.Asset // "BTC-USDT" -> AssetBTC
	topics       []string
	pingInterval time.Duration
}

type kucoinBulletResponse struct {
	Code string `json:"code"`
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint     string `json:"endpoint"`
			PingInterval int64  `json:"pingInterval"`
		} `json:"instanceServers"`
	} `json:"data"`
}

type kucoinSubscribeMsg struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Response bool   `json:"response"`
}

type kucoinTickerData struct {
	Price   string `json:"price"`
	BestBid string `json:"bestBid"`
	BestAsk string `json:"bestAsk"`
}

type kucoinMessage struct {
	Type  string           `json:"type"`
	Topic string           `json:"topic"`
	Data  kucoinTickerData `json:"data"`
}

// NewKuCoinAdapter builds an adapter for the given assets. KuCoin quotes
// this feed's assets in USDT. pingInterval seeds the initial cadence (a
// non-positive value falls back to 20s) but is overridden by the
// server-specified value returned from the preflight on every (re)connect.
func NewKuCoinAdapter(logger zerolog.Logger, endpoint Endpoint, assets []types.Asset, pingInterval time.Duration) *KuCoinAdapter {
	symbols := make(map[string]types.Asset, len(assets))
	topics := make([]string, 0, len(assets))
	for _, a := range assets {
		sym := string(a) + "-USDT"
		symbols[sym] = a
		topics = append(topics, "/market/ticker:"+sym)
	}
	return &KuCoinAdapter{
		logger:       logger.With().Str("venue", string(types.VenueKuCoin)).Logger(),
		endpoint:     endpoint,
		httpClient:   newDefaultHTTPClient(),
		symbols:      symbols,
		topics:       topics,
		pingInterval: resolvePingInterval(pingInterval),
	}
}

// DialURL performs the bullet-public preflight and composes the derived
// URL with the one-time connect token. The FeedRunner calls this fresh on
// every (re)connect, since KuCoin tokens are single-use.
func (a *KuCoinAdapter) DialURL(ctx context.Context) (string, error) {
	restHost := a.endpoint.Rest
	if restHost == "" {
		restHost = kucoinBulletPublicURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, restHost, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("kucoin preflight request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkHTTPStatus(resp); err != nil {
		return "", fmt.Errorf("kucoin preflight: %w", err)
	}

	var bullet kucoinBulletResponse
	if err := json.NewDecoder(resp.Body).Decode(&bullet); err != nil {
		return "", fmt.Errorf("kucoin preflight decode: %w", err)
	}
	if bullet.Code != "200000" || len(bullet.Data.InstanceServers) == 0 {
		return "", fmt.Errorf("kucoin preflight returned code %s", bullet.Code)
	}

	server := bullet.Data.InstanceServers[0]
	if server.PingInterval > 0 {
		a.pingInterval = time.Duration(server.PingInterval) * time.Millisecond
	}

	return fmt.Sprintf("%s?token=%s", server.Endpoint, bullet.Data.Token), nil
}

func (a *KuCoinAdapter) Venue() types.Venue { return types.VenueKuCoin }

func (a *KuCoinAdapter) SubscribeMessages() ([][]byte, error) {
	msgs := make([][]byte, 0, len(a.topics))
	for i, topic := range a.topics {
		bz, err := json.Marshal(kucoinSubscribeMsg{
			ID: int64(i + 1), Type: "subscribe", Topic: topic, Response: true,
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, bz)
	}
	return msgs, nil
}

func (a *KuCoinAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	var msg kucoinMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}

	switch msg.Type {
	case "ack":
		return types.Snapshot{}, OutcomeAck, nil
	case "pong":
		return types.Snapshot{}, OutcomeHeartbeat, nil
	case "message":
		const prefix = "/market/ticker:"
		if len(msg.Topic) <= len(prefix) {
			return types.Snapshot{}, OutcomeIgnored, nil
		}
		sym := msg.Topic[len(prefix):]
		asset, ok := a.symbols[sym]
		if !ok {
			return types.Snapshot{}, OutcomeIgnored, nil
		}
		snap, err := types.NewSnapshot(
			types.VenueKuCoin, asset, types.QuoteUSDT,
			msg.Data.Price, msg.Data.BestBid, msg.Data.BestAsk,
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

func (a *KuCoinAdapter) KeepAlive() []byte {
	bz, _ := json.Marshal(map[string]interface{}{"id": time.Now().UnixNano(), "type": "ping"})
	return bz
}

func (a *KuCoinAdapter) PingInterval() time.Duration {
	return a.pingInterval
}
