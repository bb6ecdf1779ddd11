package provider

import (
	"strconv"
	"time"
)

// formatDecimal renders a float64 as the shortest decimal string that
// round-trips, for venues (Kraken v2) that transmit numeric ticker fields as
// JSON numbers rather than strings; types.NewSnapshot always re-parses it.
func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// defaultPingInterval is the keepalive cadence adapters fall back to when
// the caller passes a non-positive configured interval.
const defaultPingInterval = 20 * time.Second

// resolvePingInterval returns d if positive, else defaultPingInterval.
func resolvePingInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultPingInterval
	}
	return d
}
