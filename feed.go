// Package feeder exposes the public facade for the reference-price core:
// Feed aggregates one asset's price across a set of venues and optionally
// compares it against an on-chain oracle.
package feeder

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ojo-network/refprice-feeder/oracle"
	"github.com/ojo-network/refprice-feeder/oracle/probe"
	"github.com/ojo-network/refprice-feeder/oracle/provider"
	"github.com/ojo-network/refprice-feeder/oracle/types"
	pfsync "github.com/ojo-network/refprice-feeder/pkg/sync"
)

// Config parameterizes a Feed. Zero-value fields are not defaulted: New
// rejects a zero MinSources, MaxStalenessMs or MaxDeviationPct, so start
// from DefaultConfig.
type Config struct {
	Aggregator oracle.AggregatorConfig
	Runner     provider.RunnerConfig
	Probe      probe.Config
	Endpoints  map[types.Venue]provider.Endpoint

	// EnableOracleProbe turns on the oracle-signal comparison. It
	// requires a non-empty Probe config or relies on the
	// CHAINLINK_API_KEY/CHAINLINK_API_SECRET environment gate.
	EnableOracleProbe bool
}

// DefaultConfig returns the default thresholds and timeouts.
func DefaultConfig() Config {
	return Config{
		Aggregator: oracle.DefaultAggregatorConfig(),
		Runner:     provider.DefaultRunnerConfig(),
		Probe:      probeConfigFromEnv(),
	}
}

func probeConfigFromEnv() probe.Config {
	cfg := probe.DefaultConfig()
	cfg.ChainlinkAPIKey = os.Getenv("CHAINLINK_API_KEY")
	cfg.ChainlinkAPISecret = os.Getenv("CHAINLINK_API_SECRET")
	return cfg
}

// FeedStat is one venue's entry in FeedStats().
type FeedStat struct {
	Venue          types.Venue
	Connected      bool
	LastPrice      float64
	AgeMs          int64
	MessageCount   int64
	ErrorCount     int64
	ReconnectCount int64
}

// Feed is the public facade: New(asset, venues[], config) -> Feed.
type Feed struct {
	logger zerolog.Logger
	asset  types.Asset
	cfg    Config

	registry   *oracle.Registry
	aggregator *oracle.Aggregator
	probe      probe.OracleProbe

	closer *pfsync.Closer
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New validates cfg and venues, then builds a Feed. All validation
// happens before any I/O: an invalid asset, empty venue list, unknown
// venue tag, or non-positive threshold fails here, never at Start.
func New(logger zerolog.Logger, asset types.Asset, venues []types.Venue, cfg Config) (*Feed, error) {
	if err := validateNewFeedArgs(asset, venues, cfg); err != nil {
		return nil, err
	}

	adapters := make(map[types.Venue]provider.VenueAdapter, len(venues))
	for _, v := range venues {
		endpoint := cfg.Endpoints[v]
		adapter, err := provider.NewAdapter(v, logger, endpoint, asset, cfg.Runner.PingInterval)
		if err != nil {
			return nil, err
		}
		adapters[v] = adapter
	}

	registry := oracle.NewRegistry(logger, adapters, venues, cfg.Runner)
	aggregator := oracle.NewAggregator(logger, asset, cfg.Aggregator)

	var oracleProbe probe.OracleProbe
	if cfg.EnableOracleProbe {
		oracleProbe = probe.New(string(asset), cfg.Probe)
	}

	return &Feed{
		logger:     logger.With().Str("asset", string(asset)).Logger(),
		asset:      asset,
		cfg:        cfg,
		registry:   registry,
		aggregator: aggregator,
		probe:      oracleProbe,
		closer:     pfsync.NewCloser(),
	}, nil
}

func validateNewFeedArgs(asset types.Asset, venues []types.Venue, cfg Config) error {
	if _, ok := types.SupportedAssets[asset]; !ok {
		return fmt.Errorf("%w: unsupported asset %s", types.ErrConfigInvalid, asset)
	}
	if len(venues) == 0 {
		return fmt.Errorf("%w: empty venue list", types.ErrConfigInvalid)
	}
	seen := make(map[types.Venue]struct{}, len(venues))
	for _, v := range venues {
		if _, ok := types.SupportedVenues[v]; !ok {
			return fmt.Errorf("%w: unknown venue %s", types.ErrUnknownVenue, v)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: duplicate venue %s", types.ErrConfigInvalid, v)
		}
		seen[v] = struct{}{}
	}
	if cfg.Aggregator.MinSources < 1 {
		return fmt.Errorf("%w: min_sources must be >= 1", types.ErrConfigInvalid)
	}
	if cfg.Aggregator.MinSources > len(venues) {
		return fmt.Errorf("%w: min_sources %d exceeds venue count %d", types.ErrConfigInvalid, cfg.Aggregator.MinSources, len(venues))
	}
	if cfg.Aggregator.MaxStalenessMs <= 0 {
		return fmt.Errorf("%w: max_staleness_ms must be positive", types.ErrConfigInvalid)
	}
	if cfg.Aggregator.MaxDeviationPct <= 0 {
		return fmt.Errorf("%w: max_deviation_pct must be positive", types.ErrConfigInvalid)
	}
	return nil
}

// Start launches every FeedRunner and the aggregator. Non-blocking,
// idempotent.
func (f *Feed) Start(ctx context.Context) {
	if f.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	f.group = f.registry.StartAll(runCtx)
	go f.aggregator.Run(runCtx, f.registry.Fanout())
	if f.probe != nil {
		f.probe.Start(runCtx)
	}
}

// Stop signals every runner and the aggregator to exit and waits for
// termination. Idempotent.
func (f *Feed) Stop() {
	f.closer.Close()
	if f.cancel == nil {
		return
	}
	f.registry.StopAll()
	if f.probe != nil {
		f.probe.Stop()
	}
	f.cancel()
	if f.group != nil {
		_ = f.group.Wait()
	}
}

// GetPrice returns the latest accepted price, or false if no report has
// ever been published or the report is stale beyond 2x MaxStalenessMs.
func (f *Feed) GetPrice() (float64, bool) {
	r := f.currentReport()
	if r == nil {
		return 0, false
	}
	return r.Price, true
}

// GetDivergence returns the latest report's divergence_pct.
func (f *Feed) GetDivergence() (float64, bool) {
	r := f.currentReport()
	if r == nil {
		return 0, false
	}
	return r.DivergencePct, true
}

// GetConfidence returns the latest report's confidence.
func (f *Feed) GetConfidence() (float64, bool) {
	r := f.currentReport()
	if r == nil {
		return 0, false
	}
	return r.Confidence, true
}

// GetReport returns the latest report in full, applying the same
// staleness rule as GetPrice.
func (f *Feed) GetReport() (*types.PriceReport, bool) {
	r := f.currentReport()
	return r, r != nil
}

// currentReport applies the facade's conservative staleness rule: a
// report older than 2x MaxStalenessMs is treated as absent rather than
// returned stale.
func (f *Feed) currentReport() *types.PriceReport {
	r := f.aggregator.Report()
	if r == nil {
		return nil
	}
	now := time.Now().UnixMilli()
	if now-r.GeneratedAtMs > 2*f.cfg.Aggregator.MaxStalenessMs {
		return nil
	}
	return r
}

// GetOracleSignal returns the current LONG/SHORT/NEUTRAL comparison
// against the configured oracle probe, or false if no probe is
// configured or it has not yet observed a price.
func (f *Feed) GetOracleSignal() (oracle.OracleSignal, bool) {
	if f.probe == nil {
		return oracle.OracleSignal{}, false
	}
	oraclePrice, _, ok := f.probe.Price()
	if !ok {
		return oracle.OracleSignal{}, false
	}
	price, ok := f.GetPrice()
	if !ok {
		return oracle.OracleSignal{}, false
	}
	return oracle.ComputeOracleSignal(price, oraclePrice), true
}

// FeedStats returns per-venue health, venue-ordered for deterministic
// output.
func (f *Feed) FeedStats() []FeedStat {
	states := f.registry.FeedStates()
	venues := f.registry.Venues()

	out := make([]FeedStat, 0, len(venues))
	now := time.Now().UnixMilli()
	for _, v := range venues {
		s := states[v]
		stat := FeedStat{
			Venue:          v,
			Connected:      s.Connected,
			MessageCount:   s.MessageCount,
			ErrorCount:     s.ErrorCount,
			ReconnectCount: s.ReconnectCount,
		}
		if s.LastSnapshot != nil {
			stat.LastPrice = s.LastSnapshot.Price
			stat.AgeMs = now - s.LastSnapshot.TimestampMs
		}
		out = append(out, stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}
