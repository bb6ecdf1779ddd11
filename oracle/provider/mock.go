package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

var _ VenueAdapter = (*MockAdapter)(nil)

// MockAdapter is a VenueAdapter test double. Rather than speaking any
// exchange's wire protocol, its HandleMessage parses plain
// "asset|quote|price|bid|ask" frames, letting FeedRunner and registry tests
// drive deterministic price sequences without a live exchange.
type MockAdapter struct {
	logger zerolog.Logger
	venue  types.Venue

	mtx        sync.Mutex
	queue      [][]byte
	failDial   bool
	subscribed [][]byte
}

// NewMockAdapter returns a MockAdapter for the given venue.
func NewMockAdapter(logger zerolog.Logger, venue types.Venue) *MockAdapter {
	return &MockAdapter{
		logger: logger.With().Str("venue", string(venue)).Logger(),
		venue:  venue,
	}
}

// Push formats a frame in HandleMessage's format and appends it to an
// internal queue that only Drain reads; HandleMessage does not consume it.
func (m *MockAdapter) Push(asset types.Asset, quote types.QuoteUnit, price, bid, ask float64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.queue = append(m.queue, []byte(fmt.Sprintf(
		"%s|%s|%v|%v|%v", asset, quote, price, bid, ask,
	)))
}

// FailNextDial makes the next DialURL call return an error, to exercise
// FeedRunner's backoff path.
func (m *MockAdapter) FailNextDial() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.failDial = true
}

func (m *MockAdapter) Venue() types.Venue { return m.venue }

func (m *MockAdapter) DialURL(_ context.Context) (string, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.failDial {
		m.failDial = false
		return "", fmt.Errorf("mock dial failure for %s", m.venue)
	}
	return "mock://" + string(m.venue), nil
}

func (m *MockAdapter) SubscribeMessages() ([][]byte, error) {
	return m.subscribed, nil
}

func (m *MockAdapter) HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error) {
	parts := strings.Split(string(raw), "|")
	if len(parts) != 5 {
		return types.Snapshot{}, OutcomeUnknown, fmt.Errorf("malformed mock frame %q", raw)
	}
	for _, p := range parts[2:] {
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return types.Snapshot{}, OutcomeUnknown, fmt.Errorf("malformed mock frame %q: %w", raw, err)
		}
	}

	snap, err := types.NewSnapshot(
		m.venue, types.Asset(parts[0]), types.QuoteUnit(parts[1]),
		parts[2], parts[3], parts[4],
		nowMs(),
	)
	if err != nil {
		return types.Snapshot{}, OutcomeUnknown, err
	}
	return snap, OutcomeSnapshot, nil
}

func (m *MockAdapter) KeepAlive() []byte {
	return nil
}

func (m *MockAdapter) PingInterval() time.Duration {
	return 0
}

// Drain pops and returns all frames queued by Push.
func (m *MockAdapter) Drain() [][]byte {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := m.queue
	m.queue = nil
	return out
}
