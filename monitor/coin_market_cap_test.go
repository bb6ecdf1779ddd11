package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCoinMarketCapPrices_RequiresAPIKey(t *testing.T) {
	_, err := GetCoinMarketCapPrices([]string{"BTC"}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "coinmarketcapApiKey")
}
