package types

import (
	"fmt"
	"strconv"
)

// Snapshot is an immutable record of one tick received from one venue. It is
// shared-immutable: once constructed it is never mutated, so any number of
// goroutines may hold a reference to the same Snapshot for read.
type Snapshot struct {
	Venue       Venue
	Asset       Asset
	QuoteUnit   QuoteUnit
	Price       float64
	Bid         float64
	Ask         float64
	HasBidAsk   bool
	TimestampMs int64
}

// NewSnapshot parses the venue's decimal-string fields into a Snapshot.
// Venues transmit numeric fields as decimal strings; bid/ask are optional
// and omitted entirely (empty string) when a venue's frame doesn't carry
// them. Price must be positive and, when both are present, bid must not
// exceed ask.
func NewSnapshot(
	venue Venue,
	asset Asset,
	quote QuoteUnit,
	priceStr, bidStr, askStr string,
	timestampMs int64,
) (Snapshot, error) {
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse price %q: %w", priceStr, err)
	}
	if price <= 0 {
		return Snapshot{}, fmt.Errorf("price must be positive, got %v", price)
	}

	snap := Snapshot{
		Venue:       venue,
		Asset:       asset,
		QuoteUnit:   quote,
		Price:       price,
		TimestampMs: timestampMs,
	}

	if bidStr == "" || askStr == "" {
		return snap, nil
	}

	bid, err := strconv.ParseFloat(bidStr, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse bid %q: %w", bidStr, err)
	}
	ask, err := strconv.ParseFloat(askStr, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse ask %q: %w", askStr, err)
	}
	if bid > ask {
		return Snapshot{}, fmt.Errorf("bid %v exceeds ask %v", bid, ask)
	}

	snap.Bid, snap.Ask, snap.HasBidAsk = bid, ask, true
	return snap, nil
}

// AgeMs returns how old the snapshot is relative to nowMs.
func (s Snapshot) AgeMs(nowMs int64) int64 {
	return nowMs - s.TimestampMs
}
