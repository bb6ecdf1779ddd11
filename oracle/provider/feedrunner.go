package provider

import (
	"context"
	"math"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
	pfsync "github.com/ojo-network/refprice-feeder/pkg/sync"
)

// RunnerState is the FeedRunner's lifecycle state.
type RunnerState int

const (
	StateIdle RunnerState = iota
	StateConnecting
	StateSubscribing
	StateStreaming
	StateBackoff
	StateStopped
)

// RunnerConfig carries the connection tunables: connect timeout, keepalive
// cadence, backoff policy and the parse-error threshold that forces a
// reconnect even though the socket itself is healthy.
type RunnerConfig struct {
	ConnectTimeout      time.Duration
	PingInterval        time.Duration
	PingTimeout         time.Duration
	InitialBackoff      time.Duration
	MaxBackoff          time.Duration
	BackoffMultiplier   float64
	MaxParseErrorStreak int
}

// DefaultRunnerConfig returns the default connection timeouts and backoff
// policy (connect 5s, ping 20s, ping-response 10s, initial backoff 1000ms,
// backoff multiplier 1.5, ceiling 30000ms).
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ConnectTimeout:      5 * time.Second,
		PingInterval:        20 * time.Second,
		PingTimeout:         10 * time.Second,
		InitialBackoff:      1000 * time.Millisecond,
		MaxBackoff:          30000 * time.Millisecond,
		BackoffMultiplier:   1.5,
		MaxParseErrorStreak: 20,
	}
}

// dialer abstracts gorilla/websocket's dial/write/read/close surface so
// FeedRunner's state machine can be exercised without opening a real
// socket in tests.
type dialer interface {
	Dial(ctx context.Context, url string) (conn, error)
}

type conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return gorillaConn{c}, nil
}

type gorillaConn struct{ *websocket.Conn }

func (g gorillaConn) WriteMessage(messageType int, data []byte) error {
	return g.Conn.WriteMessage(messageType, data)
}

// FeedRunner drives one VenueAdapter through IDLE -> CONNECTING ->
// SUBSCRIBING -> STREAMING -> (BACKOFF -> CONNECTING)* -> STOPPED and
// publishes every parsed Snapshot into the shared fanout channel.
type FeedRunner struct {
	adapter VenueAdapter
	logger  zerolog.Logger
	cfg     RunnerConfig
	state   *types.FeedState
	out     chan<- types.Snapshot
	closer  *pfsync.Closer

	dial dialer

	currentBackoff time.Duration
	parseErrStreak int
}

// NewFeedRunner builds a runner for adapter, publishing accepted snapshots
// into out. out is never closed by the runner; the registry owns it.
func NewFeedRunner(adapter VenueAdapter, logger zerolog.Logger, cfg RunnerConfig, out chan<- types.Snapshot) *FeedRunner {
	return &FeedRunner{
		adapter:        adapter,
		logger:         logger.With().Str("venue", string(adapter.Venue())).Logger(),
		cfg:            cfg,
		state:          types.NewFeedState(),
		out:            out,
		closer:         pfsync.NewCloser(),
		dial:           gorillaDialer{},
		currentBackoff: cfg.InitialBackoff,
	}
}

// State returns a read-only clone of the runner's health.
func (r *FeedRunner) State() types.FeedStateSnapshot {
	return r.state.Clone()
}

// Stop signals the runner to exit its loop and closes any open socket on
// the next suspension point. Idempotent.
func (r *FeedRunner) Stop() {
	r.closer.Close()
}

// Run drives the state machine until Stop is called or ctx is cancelled.
// It never returns an error: all failures are absorbed into backoff and
// FeedState, per the "never crash the process" contract.
func (r *FeedRunner) Run(ctx context.Context) {
	state := StateConnecting
	for {
		select {
		case <-r.closer.Done():
			r.state.SetConnected(false)
			return
		case <-ctx.Done():
			r.state.SetConnected(false)
			return
		default:
		}

		switch state {
		case StateConnecting:
			c, err := r.connect(ctx)
			if err != nil {
				r.logger.Warn().Err(err).Msg("connect failed")
				TelemetryFailure(r.adapter.Venue(), MessageTypeUnknown)
				state = StateBackoff
				continue
			}
			state = r.subscribeAndStream(ctx, c)
		case StateBackoff:
			if r.sleepBackoff(ctx) {
				return
			}
			state = StateConnecting
		case StateStopped:
			return
		}
	}
}

func (r *FeedRunner) connect(ctx context.Context) (conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()

	url, err := r.adapter.DialURL(dialCtx)
	if err != nil {
		return nil, sdkerrors.Wrapf(types.ErrPreflight, "%s: %v", r.adapter.Venue(), err)
	}

	c, err := r.dial.Dial(dialCtx, url)
	if err != nil {
		return nil, sdkerrors.Wrapf(types.ErrWebsocketDial, "%s: %v", r.adapter.Venue(), err)
	}
	return c, nil
}

// subscribeAndStream sends the adapter's subscribe frames (if any), then
// loops reading frames until a terminal condition returns BACKOFF. The
// socket is always closed before returning.
func (r *FeedRunner) subscribeAndStream(ctx context.Context, c conn) RunnerState {
	defer c.Close()

	msgs, err := r.adapter.SubscribeMessages()
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to build subscribe messages")
		return StateBackoff
	}
	for _, m := range msgs {
		if err := c.WriteMessage(websocket.TextMessage, m); err != nil {
			r.logger.Warn().Err(err).Msg("subscribe send failed")
			return StateBackoff
		}
	}
	telemetryWebsocketSubscribe(r.adapter.Venue(), len(msgs))

	r.state.SetConnected(true)
	r.parseErrStreak = 0

	pingInterval := r.adapter.PingInterval()
	lastPing := time.Now()
	missedPings := 0

	for {
		select {
		case <-r.closer.Done():
			return StateStopped
		case <-ctx.Done():
			return StateStopped
		default:
		}

		if pingInterval > 0 && time.Since(lastPing) >= pingInterval {
			if err := r.sendKeepAlive(c); err != nil {
				missedPings++
				if missedPings >= 2 {
					r.logger.Warn().Msg("missed two keepalive pings")
					return StateBackoff
				}
			}
			lastPing = time.Now()
		}

		_ = c.SetReadDeadline(time.Now().Add(r.cfg.PingTimeout))
		_, raw, err := c.ReadMessage()
		if err != nil {
			r.logger.Warn().Err(err).Msg("read error")
			telemetryWebsocketReconnect(r.adapter.Venue())
			r.state.RecordReconnect(r.currentBackoff.Milliseconds())
			return StateBackoff
		}

		snap, outcome, err := r.adapter.HandleMessage(raw)
		switch outcome {
		case OutcomeSnapshot:
			if err != nil {
				r.recordParseError()
				continue
			}
			r.parseErrStreak = 0
			r.currentBackoff = r.cfg.InitialBackoff
			r.state.RecordSnapshot(snap)
			telemetryWebsocketMessage(r.adapter.Venue(), MessageTypeSnapshot)
			select {
			case r.out <- snap:
			default:
				// bounded fanout channel full: this snapshot is dropped and
				// the snapshots already queued are kept; FeedState above
				// still holds it as the venue's latest.
			}
		case OutcomeAck:
			telemetryWebsocketMessage(r.adapter.Venue(), MessageTypeAck)
		case OutcomeHeartbeat:
			telemetryWebsocketMessage(r.adapter.Venue(), MessageTypeHeartbeat)
			missedPings = 0
		case OutcomeIgnored:
		default:
			r.recordParseError()
			if r.parseErrStreak > r.cfg.MaxParseErrorStreak {
				r.logger.Warn().Int("streak", r.parseErrStreak).Msg("parse error threshold exceeded")
				return StateBackoff
			}
		}
	}
}

func (r *FeedRunner) recordParseError() {
	r.parseErrStreak++
	r.state.RecordError()
	TelemetryFailure(r.adapter.Venue(), MessageTypeUnknown)
}

func (r *FeedRunner) sendKeepAlive(c conn) error {
	ka := r.adapter.KeepAlive()
	if ka == nil {
		return c.WriteMessage(websocket.PingMessage, nil)
	}
	return c.WriteMessage(websocket.TextMessage, ka)
}

// sleepBackoff waits current_backoff_ms (or until stop/ctx-cancel) and
// advances the backoff per the 1.5x-until-30s policy. Returns true if the
// runner should exit entirely (stop/cancel observed during the wait).
func (r *FeedRunner) sleepBackoff(ctx context.Context) bool {
	wait := r.currentBackoff
	r.currentBackoff = time.Duration(math.Min(
		float64(r.cfg.MaxBackoff),
		float64(r.currentBackoff)*r.cfg.BackoffMultiplier,
	))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return false
	case <-r.closer.Done():
		return true
	case <-ctx.Done():
		return true
	}
}
