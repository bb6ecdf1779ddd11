package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// PriceReport is the published result of one aggregation tick for one
// asset. It is immutable once constructed and safe to share across
// goroutines via atomic.Pointer.
type PriceReport struct {
	Asset           Asset
	Price           float64
	SourcesUsed     []Venue // sorted lexicographically, for hash stability
	SourceCount     int
	DivergencePct   float64
	Confidence      float64
	USDTPremiumPct  float64
	GeneratedAtMs   int64
	IntegrityHash   string
}

// NewPriceReport builds a PriceReport and stamps it with a SHA-256
// integrity hash over its canonical string form, so any two processes
// that computed the same inputs can cheaply confirm they agree.
// sourcesUsed must already be sorted lexicographically by the caller.
func NewPriceReport(
	asset Asset,
	price float64,
	sourcesUsed []Venue,
	divergencePct, confidence, usdtPremiumPct float64,
	generatedAtMs int64,
) PriceReport {
	r := PriceReport{
		Asset:          asset,
		Price:          price,
		SourcesUsed:    sourcesUsed,
		SourceCount:    len(sourcesUsed),
		DivergencePct:  divergencePct,
		Confidence:     confidence,
		USDTPremiumPct: usdtPremiumPct,
		GeneratedAtMs:  generatedAtMs,
	}
	r.IntegrityHash = r.computeHash()
	return r
}

// canonicalString renders the report's fields in the fixed order and
// decimal precision (8 fractional digits) mandated for the integrity
// hash, so the hash is stable across processes and languages.
func (r PriceReport) canonicalString() string {
	sources := make([]string, len(r.SourcesUsed))
	for i, v := range r.SourcesUsed {
		sources[i] = string(v)
	}

	return fmt.Sprintf(
		"%s|%.8f|%s|%d|%.8f|%.8f|%.8f|%d",
		r.Asset, r.Price, strings.Join(sources, ","), r.SourceCount,
		r.DivergencePct, r.Confidence, r.USDTPremiumPct, r.GeneratedAtMs,
	)
}

func (r PriceReport) computeHash() string {
	sum := sha256.Sum256([]byte(r.canonicalString()))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity recomputes the hash and reports whether it still matches
// IntegrityHash, i.e. whether the report's fields have not been tampered
// with since construction.
func (r PriceReport) VerifyIntegrity() bool {
	return r.IntegrityHash == r.computeHash()
}
