package oracle

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ojo-network/refprice-feeder/oracle/provider"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// fanoutBufferPerVenue is the per-venue slack in the shared fanout
// channel, bounding it to at least 2x the venue count for any venue
// count.
const fanoutBufferPerVenue = 2

// Registry holds the set of active FeedRunners and the single channel
// they fan snapshots into. Venue order is preserved from construction for
// deterministic logging, though aggregation itself is order-independent.
type Registry struct {
	logger  zerolog.Logger
	venues  []types.Venue
	runners map[types.Venue]*provider.FeedRunner
	fanout  chan types.Snapshot
}

// NewRegistry builds a Registry from venue -> VenueAdapter, with a
// fanout channel sized to 2x the number of venues.
func NewRegistry(
	logger zerolog.Logger,
	adapters map[types.Venue]provider.VenueAdapter,
	venueOrder []types.Venue,
	cfg provider.RunnerConfig,
) *Registry {
	fanout := make(chan types.Snapshot, len(venueOrder)*fanoutBufferPerVenue)

	runners := make(map[types.Venue]*provider.FeedRunner, len(venueOrder))
	for _, v := range venueOrder {
		adapter := adapters[v]
		runners[v] = provider.NewFeedRunner(adapter, logger, cfg, fanout)
	}

	return &Registry{
		logger:  logger,
		venues:  venueOrder,
		runners: runners,
		fanout:  fanout,
	}
}

// Fanout returns the channel the aggregator should consume from.
func (reg *Registry) Fanout() <-chan types.Snapshot {
	return reg.fanout
}

// StartAll launches every runner concurrently. It returns immediately;
// runners keep running in the background until StopAll is called or ctx
// is cancelled. The returned errgroup's Wait blocks until every runner has
// exited (which normally only happens on shutdown, since runners never
// return on their own).
func (reg *Registry) StartAll(ctx context.Context) *errgroup.Group {
	g, gctx := errgroup.WithContext(ctx)
	for _, v := range reg.venues {
		runner := reg.runners[v]
		g.Go(func() error {
			runner.Run(gctx)
			return nil
		})
	}
	return g
}

// StopAll signals every runner to stop. It does not block; callers should
// wait on the errgroup returned by StartAll to confirm termination.
func (reg *Registry) StopAll() {
	for _, v := range reg.venues {
		reg.runners[v].Stop()
	}
}

// FeedStates returns a snapshot of every runner's health keyed by venue
// (use Venues for the order), grounding the facade's feed_stats() operation.
func (reg *Registry) FeedStates() map[types.Venue]types.FeedStateSnapshot {
	out := make(map[types.Venue]types.FeedStateSnapshot, len(reg.venues))
	for _, v := range reg.venues {
		out[v] = reg.runners[v].State()
	}
	return out
}

// Venues returns the registry's venue tags in insertion order.
func (reg *Registry) Venues() []types.Venue {
	return reg.venues
}
