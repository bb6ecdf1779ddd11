package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const (
	defaultTimeout = 10 * time.Second
)

// ParseOutcome classifies the result of handing one raw websocket frame to
// an adapter. A FeedRunner uses this to decide whether a frame advances the
// feed's health (Snapshot), is silently expected (Ack/Heartbeat) or counts
// against the parse-error threshold (Unknown).
type ParseOutcome int

const (
	// OutcomeSnapshot means the frame parsed into a usable price Snapshot.
	OutcomeSnapshot ParseOutcome = iota
	// OutcomeAck means the frame was a subscribe/auth acknowledgement.
	OutcomeAck
	// OutcomeHeartbeat means the frame was a venue-level ping/pong or
	// heartbeat message, distinct from the websocket control-frame ping.
	OutcomeHeartbeat
	// OutcomeIgnored means the frame is a known, uninteresting message
	// type (e.g. an order book delta this feed doesn't consume).
	OutcomeIgnored
	// OutcomeUnknown means the frame did not match any known shape.
	OutcomeUnknown
)

// VenueAdapter is the per-exchange implementation a FeedRunner drives. An
// adapter owns no goroutines and no socket; the runner owns the connection
// lifecycle and calls into the adapter for everything exchange-specific.
type VenueAdapter interface {
	// Venue returns the adapter's venue tag.
	Venue() types.Venue

	// DialURL returns the websocket URL to connect to. Some venues
	// (KuCoin) require a REST preflight call to obtain a token that must
	// be embedded in the URL; DialURL performs that preflight if needed.
	DialURL(ctx context.Context) (string, error)

	// SubscribeMessages returns the frames to send immediately after
	// connecting in order to subscribe to this adapter's assets. Venues
	// that encode the subscription in the stream URL itself (Binance)
	// return an empty slice.
	SubscribeMessages() ([][]byte, error)

	// HandleMessage parses one raw frame. On OutcomeSnapshot it returns
	// a populated Snapshot; on any other outcome the Snapshot is zero.
	HandleMessage(raw []byte) (types.Snapshot, ParseOutcome, error)

	// KeepAlive returns the application-level keepalive frame to send on
	// PingInterval, or nil if the venue relies solely on websocket
	// control-frame pings.
	KeepAlive() []byte

	// PingInterval is how often KeepAlive (or, if nil, a control-frame
	// ping) should be sent. Zero disables application-level keepalive.
	PingInterval() time.Duration
}

// Endpoint defines an override setting in config for the hardcoded rest
// and websocket api endpoints of a venue.
type Endpoint struct {
	Name      types.Venue `toml:"name" mapstructure:"name"`
	Rest      string      `toml:"rest" mapstructure:"rest"`
	Websocket string      `toml:"websocket" mapstructure:"websocket"`
	APIKey    string      `toml:"apikey" mapstructure:"apikey"`
}

// preventRedirect avoids any redirect in the http.Client; the request call
// will not return an error, but a valid response with redirect response code.
func preventRedirect(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}

func newDefaultHTTPClient() *http.Client {
	return newHTTPClientWithTimeout(defaultTimeout)
}

func newHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: preventRedirect,
	}
}

// nowMs returns the current unix time in milliseconds.
func nowMs() int64 {
	return time.Now().UnixMilli()
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}
