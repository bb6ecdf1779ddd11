package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsChainlinkWhenCredentialsPresent(t *testing.T) {
	p := New("BTC", Config{ChainlinkAPIKey: "key", ChainlinkAPISecret: "secret"})

	_, ok := p.(*ChainlinkWSProbe)
	require.True(t, ok)
}

func TestNew_FallsBackToRESTPollWithoutCredentials(t *testing.T) {
	p := New("BTC", Config{})

	_, ok := p.(*RESTPollProbe)
	require.True(t, ok)
}

func TestNew_FallsBackToRESTPollWithPartialCredentials(t *testing.T) {
	_, ok := New("BTC", Config{ChainlinkAPIKey: "key"}).(*RESTPollProbe)
	require.True(t, ok)

	_, ok = New("BTC", Config{ChainlinkAPISecret: "secret"}).(*RESTPollProbe)
	require.True(t, ok)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 1000*time.Millisecond, cfg.RESTPollInterval)
}

func TestChainlinkWSProbe_PriceUnsetByDefault(t *testing.T) {
	p := NewChainlinkWSProbe("BTC", "key", "secret")

	_, _, ok := p.Price()
	require.False(t, ok)
}

func TestChainlinkWSProbe_StopIsIdempotentWithoutStart(t *testing.T) {
	p := NewChainlinkWSProbe("BTC", "key", "secret")
	require.NotPanics(t, func() {
		p.Stop()
		p.Stop()
	})
}
