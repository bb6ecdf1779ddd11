package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeOracleSignal_Neutral(t *testing.T) {
	sig := ComputeOracleSignal(30000, 30000)
	require.Equal(t, SignalNeutral, sig.Label)
	require.Equal(t, 0.0, sig.DivergenceBps)
	require.Equal(t, 0.0, sig.Strength)
}

func TestComputeOracleSignal_LongAboveThreshold(t *testing.T) {
	// 30018 vs 30000 is 6bps above, past the 5bps threshold.
	sig := ComputeOracleSignal(30018, 30000)
	require.Equal(t, SignalLong, sig.Label)
	require.InDelta(t, 6.0, sig.DivergenceBps, 1e-6)
}

func TestComputeOracleSignal_ShortBelowThreshold(t *testing.T) {
	sig := ComputeOracleSignal(29982, 30000)
	require.Equal(t, SignalShort, sig.Label)
	require.InDelta(t, -6.0, sig.DivergenceBps, 1e-6)
}

func TestComputeOracleSignal_WithinThresholdIsNeutral(t *testing.T) {
	// 3bps is inside the 5bps band in both directions.
	require.Equal(t, SignalNeutral, ComputeOracleSignal(30009, 30000).Label)
	require.Equal(t, SignalNeutral, ComputeOracleSignal(29991, 30000).Label)
}

func TestComputeOracleSignal_StrengthSaturatesAtCap(t *testing.T) {
	// 50bps is exactly the cap: strength must be 1.0, not clipped short.
	atCap := ComputeOracleSignal(30150, 30000)
	require.InDelta(t, 1.0, atCap.Strength, 1e-9)

	// Far beyond the cap must still clamp to 1.0, not overshoot.
	beyondCap := ComputeOracleSignal(33000, 30000)
	require.Equal(t, 1.0, beyondCap.Strength)
}

func TestComputeOracleSignal_StrengthScalesLinearlyBelowCap(t *testing.T) {
	// 25bps is half of the 50bps cap, so strength should be ~0.5.
	sig := ComputeOracleSignal(30075, 30000)
	require.InDelta(t, 0.5, sig.Strength, 1e-6)
}
