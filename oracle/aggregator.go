package oracle

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/oracle/types"
	"github.com/ojo-network/refprice-feeder/util"
)

// AggregatorConfig holds the aggregation thresholds: staleness,
// deviation, minimum source count, and the spread/divergence bands that
// drive confidence.
type AggregatorConfig struct {
	MaxStalenessMs        int64
	MaxDeviationPct       float64
	MinSources            int
	TightSpreadPct        float64
	DivergenceWarningPct  float64
	DivergenceCriticalPct float64
}

// DefaultAggregatorConfig returns the default aggregation thresholds.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MaxStalenessMs:        2000,
		MaxDeviationPct:       1.0,
		MinSources:            2,
		TightSpreadPct:        0.1,
		DivergenceWarningPct:  0.3,
		DivergenceCriticalPct: 0.5,
	}
}

// Aggregator consumes snapshots fanned in from every venue's FeedRunner,
// keeps the latest-per-venue view, and recomputes a PriceReport on every
// arrival. It is the sole writer of the published report; reads are
// lock-free via atomic.Pointer (single-writer, many-reader).
type Aggregator struct {
	logger zerolog.Logger
	asset  types.Asset
	cfg    AggregatorConfig

	latest map[types.Venue]types.Snapshot

	report atomic.Pointer[types.PriceReport]
}

// NewAggregator builds an Aggregator for one asset.
func NewAggregator(logger zerolog.Logger, asset types.Asset, cfg AggregatorConfig) *Aggregator {
	return &Aggregator{
		logger: logger.With().Str("asset", string(asset)).Logger(),
		asset:  asset,
		cfg:    cfg,
		latest: make(map[types.Venue]types.Snapshot),
	}
}

// Report returns the most recently published report, or nil if no
// aggregation has ever succeeded.
func (a *Aggregator) Report() *types.PriceReport {
	return a.report.Load()
}

// Run consumes snapshots for this asset from fanout until ctx is
// cancelled. Snapshots for other assets are ignored (a single fanout
// channel may serve multiple per-asset Aggregators sharing one Registry).
func (a *Aggregator) Run(ctx context.Context, fanout <-chan types.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-fanout:
			if !ok {
				return
			}
			if snap.Asset != a.asset {
				continue
			}
			a.latest[snap.Venue] = snap
			a.recompute(time.Now().UnixMilli())
		}
	}
}

// recompute runs the nine-step aggregation algorithm against the
// latest-per-venue snapshots held by the aggregator and, on success,
// publishes a new PriceReport. nowMs is threaded through explicitly so
// tests can drive the clock.
func (a *Aggregator) recompute(nowMs int64) {
	// 1. Gather: drop snapshots older than MaxStalenessMs.
	fresh := make([]types.Snapshot, 0, len(a.latest))
	for _, snap := range a.latest {
		if snap.AgeMs(nowMs) <= a.cfg.MaxStalenessMs {
			fresh = append(fresh, snap)
		}
	}

	// 2. Segregate by quote unit.
	var usdSet, usdtSet []types.Snapshot
	for _, snap := range fresh {
		switch snap.QuoteUnit {
		case types.QuoteUSD:
			usdSet = append(usdSet, snap)
		case types.QuoteUSDT:
			usdtSet = append(usdtSet, snap)
		}
	}

	// 3. USDT premium.
	premiumPct := 0.0
	if len(usdSet) > 0 && len(usdtSet) > 0 {
		usdMed := util.Median(pricesOf(usdSet))
		usdtMed := util.Median(pricesOf(usdtSet))
		premiumPct = (usdtMed - usdMed) / usdMed * 100
	}

	// 4. Normalize.
	type normalized struct {
		venue types.Venue
		price float64
	}
	normed := make([]normalized, 0, len(fresh))
	for _, snap := range usdSet {
		normed = append(normed, normalized{snap.Venue, snap.Price})
	}
	for _, snap := range usdtSet {
		normed = append(normed, normalized{snap.Venue, snap.Price / (1 + premiumPct/100)})
	}

	if len(normed) == 0 {
		return
	}

	// 5. Outlier rejection vs the pre-reduction median.
	allPrices := make([]float64, len(normed))
	for i, n := range normed {
		allPrices[i] = n.price
	}
	m0 := util.Median(allPrices)

	remaining := make([]normalized, 0, len(normed))
	var rejected []types.Venue
	for _, n := range normed {
		devPct := math.Abs(n.price-m0) / m0 * 100
		if devPct > a.cfg.MaxDeviationPct {
			rejected = append(rejected, n.venue)
			continue
		}
		remaining = append(remaining, n)
	}

	// 6. Abort check.
	if len(remaining) < a.cfg.MinSources {
		a.logger.Warn().
			Int("remaining", len(remaining)).
			Int("min_sources", a.cfg.MinSources).
			Msg("insufficient venues to publish a report")
		return
	}

	// 7. Reduce.
	remainingPrices := make([]float64, len(remaining))
	sourcesUsed := make([]types.Venue, len(remaining))
	for i, n := range remaining {
		remainingPrices[i] = n.price
		sourcesUsed[i] = n.venue
	}
	price := util.Median(remainingPrices)

	// 8. Statistics and confidence mapping.
	minP, maxP := remainingPrices[0], remainingPrices[0]
	for _, p := range remainingPrices[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	divergencePct := (maxP - minP) / price * 100

	spreadPct := 0.0
	if len(remainingPrices) >= 2 {
		spreadPct = util.SampleStandardDeviation(remainingPrices) / price * 100
	}
	confidence := a.confidenceFor(spreadPct)

	sort.Slice(sourcesUsed, func(i, j int) bool { return sourcesUsed[i] < sourcesUsed[j] })

	// 9. Publish.
	report := types.NewPriceReport(
		a.asset, price, sourcesUsed, divergencePct, confidence, premiumPct, nowMs,
	)
	a.report.Store(&report)

	if len(rejected) > 0 {
		a.logger.Debug().
			Interface("rejected_venues", rejected).
			Msg("outliers rejected from this tick")
	}
	if divergencePct >= a.cfg.DivergenceWarningPct {
		a.logger.Warn().
			Float64("divergence_pct", divergencePct).
			Msg("divergence above advisory threshold")
	}
}

// confidenceFor maps spread_pct to confidence via a piecewise-linear
// ramp between the tight-spread and critical-divergence thresholds.
func (a *Aggregator) confidenceFor(spreadPct float64) float64 {
	if spreadPct <= a.cfg.TightSpreadPct {
		return 1.0
	}
	if spreadPct >= a.cfg.DivergenceCriticalPct {
		return 0.5
	}
	span := a.cfg.DivergenceCriticalPct - a.cfg.TightSpreadPct
	confidence := 1.0 - (spreadPct-a.cfg.TightSpreadPct)/span*0.5
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}

func pricesOf(snaps []types.Snapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.Price
	}
	return out
}
