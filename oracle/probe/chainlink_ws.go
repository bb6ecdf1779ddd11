package probe

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const chainlinkStreamsHost = "wss://ws.chain.link/v1/stream"

var _ OracleProbe = (*ChainlinkWSProbe)(nil)

// ChainlinkWSProbe streams Chainlink Data Streams prices over a
// credentialed websocket. It is selected only when both CHAINLINK_API_KEY
// and CHAINLINK_API_SECRET are configured; otherwise RESTPollProbe is
// used instead.
type ChainlinkWSProbe struct {
	asset  string
	apiKey string
	secret string

	mtx         sync.RWMutex
	running     bool
	stopCh      chan struct{}
	price       decimal.Decimal
	timestampMs int64
	hasPrice    bool
}

type chainlinkStreamReport struct {
	FeedID      string `json:"feedID"`
	Price       string `json:"price"`
	ObservedAts int64  `json:"observationsTimestamp"`
}

type chainlinkStreamMessage struct {
	Report chainlinkStreamReport `json:"report"`
}

// NewChainlinkWSProbe builds a probe for one asset, authenticated with
// apiKey/secret.
func NewChainlinkWSProbe(asset, apiKey, secret string) *ChainlinkWSProbe {
	return &ChainlinkWSProbe{asset: asset, apiKey: apiKey, secret: secret}
}

func (p *ChainlinkWSProbe) Start(ctx context.Context) {
	p.mtx.Lock()
	if p.running {
		p.mtx.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mtx.Unlock()

	go p.streamLoop(ctx)
}

func (p *ChainlinkWSProbe) Stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

func (p *ChainlinkWSProbe) Price() (float64, int64, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	if !p.hasPrice {
		return 0, 0, false
	}
	f, _ := p.price.Float64()
	return f, p.timestampMs, true
}

// streamLoop reconnects with a fixed short backoff; this probe is
// advisory (the signal degrades to "not configured" on the facade if it
// never observes a price), so it does not need FeedRunner's full state
// machine.
func (p *ChainlinkWSProbe) streamLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}

		if err := p.runOnce(ctx); err != nil {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			}
		}
	}
}

func (p *ChainlinkWSProbe) runOnce(ctx context.Context) error {
	header := map[string][]string{
		"Authorization":   {p.apiKey},
		"X-Authorization": {p.secret},
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, chainlinkStreamsHost, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stopCh:
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg chainlinkStreamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Report.Price == "" {
			continue
		}

		price, err := decimal.NewFromString(msg.Report.Price)
		if err != nil {
			continue
		}

		p.mtx.Lock()
		p.price = price
		p.timestampMs = time.Now().UnixMilli()
		p.hasPrice = true
		p.mtx.Unlock()
	}
}
