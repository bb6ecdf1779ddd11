package provider

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func TestGeminiAdapter_DialURL(t *testing.T) {
	adapter := NewGeminiAdapter(zerolog.Nop(), Endpoint{}, types.AssetBTC, 0)

	url, err := adapter.DialURL(nil)
	require.NoError(t, err)
	require.Equal(t, "wss://"+geminiWSHost+"/v2/marketdata/btcusd", url)
}

func TestGeminiAdapter_SubscribeMessagesIsNoop(t *testing.T) {
	adapter := NewGeminiAdapter(zerolog.Nop(), Endpoint{}, types.AssetBTC, 0)

	msgs, err := adapter.SubscribeMessages()
	require.NoError(t, err)
	require.Nil(t, msgs)
}

func TestGeminiAdapter_HandleMessage(t *testing.T) {
	adapter := NewGeminiAdapter(zerolog.Nop(), Endpoint{}, types.AssetBTC, 0)

	t.Run("subscription ack", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"subscription_ack"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeAck, outcome)
	})

	t.Run("heartbeat", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"heartbeat"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeHeartbeat, outcome)
	})

	t.Run("trade update", func(t *testing.T) {
		raw := []byte(`{"type":"update","symbol":"BTCUSD","events":[{"type":"trade","price":"30000.5"}]}`)

		snap, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeSnapshot, outcome)
		require.Equal(t, types.AssetBTC, snap.Asset)
		require.Equal(t, types.QuoteUSD, snap.QuoteUnit)
		require.Equal(t, 30000.5, snap.Price)
	})

	t.Run("update with only change events is ignored", func(t *testing.T) {
		raw := []byte(`{"type":"update","symbol":"BTCUSD","events":[{"type":"change"}]}`)

		_, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("unknown type is ignored", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"auction_open"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("malformed frame errors", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`not json`))
		require.Error(t, err)
		require.Equal(t, OutcomeUnknown, outcome)
	})
}
