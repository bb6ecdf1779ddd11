package provider

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func TestCoinbaseAdapter_DialURL(t *testing.T) {
	adapter := NewCoinbaseAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC}, 0)

	url, err := adapter.DialURL(nil)
	require.NoError(t, err)
	require.Equal(t, "wss://"+coinbaseWSHost, url)
}

func TestCoinbaseAdapter_SubscribeMessages(t *testing.T) {
	adapter := NewCoinbaseAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC, types.AssetETH}, 0)

	msgs, err := adapter.SubscribeMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var sub coinbaseSubscribeMsg
	require.NoError(t, json.Unmarshal(msgs[0], &sub))
	require.Equal(t, "subscribe", sub.Type)
	require.ElementsMatch(t, []string{"BTC-USD", "ETH-USD"}, sub.ProductIDs)
	require.Equal(t, []string{"ticker"}, sub.Channels)
}

func TestCoinbaseAdapter_HandleMessage(t *testing.T) {
	adapter := NewCoinbaseAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC}, 0)

	t.Run("subscriptions ack", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"subscriptions"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeAck, outcome)
	})

	t.Run("error frame", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"error","reason":"bad product"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeUnknown, outcome)
	})

	t.Run("valid ticker", func(t *testing.T) {
		raw := []byte(`{"type":"ticker","product_id":"BTC-USD","price":"30000.5","best_bid":"29999.5","best_ask":"30001.5"}`)

		snap, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeSnapshot, outcome)
		require.Equal(t, types.AssetBTC, snap.Asset)
		require.Equal(t, types.QuoteUSD, snap.QuoteUnit)
		require.Equal(t, 30000.5, snap.Price)
	})

	t.Run("unconfigured product is ignored", func(t *testing.T) {
		raw := []byte(`{"type":"ticker","product_id":"ETH-USD","price":"1900"}`)

		_, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("unknown type is ignored", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"heartbeat"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("malformed frame errors", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`not json`))
		require.Error(t, err)
		require.Equal(t, OutcomeUnknown, outcome)
	})
}
