package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const cryptoCompareURL = "https://min-api.cryptocompare.com/data/pricemultifull"

var _ OracleProbe = (*RESTPollProbe)(nil)

// RESTPollProbe fetches asset's USD price from CryptoCompare's public
// endpoint on a fixed cadence. It is the fallback oracle source used when
// no Chainlink credentials are configured.
type RESTPollProbe struct {
	asset    string
	interval time.Duration
	client   *http.Client
	baseURL  string // overridden in tests to point at an httptest server

	mtx         sync.RWMutex
	running     bool
	stopCh      chan struct{}
	price       decimal.Decimal
	timestampMs int64
	hasPrice    bool
}

// NewRESTPollProbe builds a probe for one asset (e.g. "BTC").
func NewRESTPollProbe(asset string, interval time.Duration) *RESTPollProbe {
	if interval <= 0 {
		interval = 1000 * time.Millisecond
	}
	return &RESTPollProbe{
		asset:    asset,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		baseURL:  cryptoCompareURL,
	}
}

func (p *RESTPollProbe) Start(ctx context.Context) {
	p.mtx.Lock()
	if p.running {
		p.mtx.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mtx.Unlock()

	go p.pollLoop(ctx)
}

func (p *RESTPollProbe) Stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

func (p *RESTPollProbe) Price() (float64, int64, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	if !p.hasPrice {
		return 0, 0, false
	}
	f, _ := p.price.Float64()
	return f, p.timestampMs, true
}

func (p *RESTPollProbe) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

type cryptoCompareResponse struct {
	RAW map[string]struct {
		USD struct {
			Price float64 `json:"PRICE"`
		} `json:"USD"`
	} `json:"RAW"`
}

func (p *RESTPollProbe) fetch(ctx context.Context) {
	url := fmt.Sprintf("%s?fsyms=%s&tsyms=USD", p.baseURL, p.asset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	var result cryptoCompareResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return
	}
	data, ok := result.RAW[p.asset]
	if !ok {
		return
	}

	p.mtx.Lock()
	p.price = decimal.NewFromFloat(data.USD.Price)
	p.timestampMs = time.Now().UnixMilli()
	p.hasPrice = true
	p.mtx.Unlock()
}
