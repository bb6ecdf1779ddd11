package probe

import (
	"context"
	"time"
)

// OracleProbe supplies an independent reference price with its own
// timestamp, for comparison against this feed's PriceReport via
// oracle.ComputeOracleSignal. Implementations poll or stream; either way
// Price is non-blocking and always returns the last observation.
type OracleProbe interface {
	// Start begins fetching prices in the background. Non-blocking.
	Start(ctx context.Context)
	// Stop halts fetching. Idempotent.
	Stop()
	// Price returns the last observed (price, timestamp_ms) and whether
	// any observation has occurred yet.
	Price() (price float64, timestampMs int64, ok bool)
}

// Config selects and parameterizes a probe.
type Config struct {
	ChainlinkAPIKey    string
	ChainlinkAPISecret string
	RESTPollInterval   time.Duration
}

// DefaultConfig returns the default REST-polling cadence (1000ms).
func DefaultConfig() Config {
	return Config{RESTPollInterval: 1000 * time.Millisecond}
}

// New selects a ChainlinkWSProbe when both CHAINLINK_API_KEY and
// CHAINLINK_API_SECRET are present, otherwise a RESTPollProbe.
func New(asset string, cfg Config) OracleProbe {
	if cfg.ChainlinkAPIKey != "" && cfg.ChainlinkAPISecret != "" {
		return NewChainlinkWSProbe(asset, cfg.ChainlinkAPIKey, cfg.ChainlinkAPISecret)
	}
	return NewRESTPollProbe(asset, cfg.RESTPollInterval)
}
