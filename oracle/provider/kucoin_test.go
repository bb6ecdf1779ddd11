package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

func TestKuCoinAdapter_DialURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "200000",
			"data": {
				"token": "abc123",
				"instanceServers": [{"endpoint": "wss://ws-api.kucoin.com/endpoint", "pingInterval": 18000}]
			}
		}`))
	}))
	defer srv.Close()

	adapter := NewKuCoinAdapter(zerolog.Nop(), Endpoint{Rest: srv.URL}, []types.Asset{types.AssetBTC}, 0)

	url, err := adapter.DialURL(context.Background())
	require.NoError(t, err)
	require.Equal(t, "wss://ws-api.kucoin.com/endpoint?token=abc123", url)
	require.Equal(t, 18*time.Second, adapter.PingInterval())
}

func TestKuCoinAdapter_DialURLRejectsBadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"400001","data":{}}`))
	}))
	defer srv.Close()

	adapter := NewKuCoinAdapter(zerolog.Nop(), Endpoint{Rest: srv.URL}, []types.Asset{types.AssetBTC}, 0)

	_, err := adapter.DialURL(context.Background())
	require.Error(t, err)
}

func TestKuCoinAdapter_SubscribeMessages(t *testing.T) {
	adapter := NewKuCoinAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC, types.AssetETH}, 0)

	msgs, err := adapter.SubscribeMessages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	var sub kucoinSubscribeMsg
	require.NoError(t, json.Unmarshal(msgs[0], &sub))
	require.Equal(t, "subscribe", sub.Type)
	require.True(t, sub.Response)
}

func TestKuCoinAdapter_HandleMessage(t *testing.T) {
	adapter := NewKuCoinAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC}, 0)

	t.Run("ack", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"ack"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeAck, outcome)
	})

	t.Run("pong", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`{"type":"pong"}`))
		require.NoError(t, err)
		require.Equal(t, OutcomeHeartbeat, outcome)
	})

	t.Run("valid ticker message", func(t *testing.T) {
		raw := []byte(`{"type":"message","topic":"/market/ticker:BTC-USDT","data":{"price":"30000.5","bestBid":"29999.5","bestAsk":"30001.5"}}`)

		snap, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeSnapshot, outcome)
		require.Equal(t, types.AssetBTC, snap.Asset)
		require.Equal(t, types.QuoteUSDT, snap.QuoteUnit)
		require.Equal(t, 30000.5, snap.Price)
	})

	t.Run("unconfigured symbol is ignored", func(t *testing.T) {
		raw := []byte(`{"type":"message","topic":"/market/ticker:ETH-USDT","data":{"price":"1900"}}`)

		_, outcome, err := adapter.HandleMessage(raw)
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("malformed frame errors", func(t *testing.T) {
		_, outcome, err := adapter.HandleMessage([]byte(`not json`))
		require.Error(t, err)
		require.Equal(t, OutcomeUnknown, outcome)
	})
}

func TestKuCoinAdapter_KeepAlive(t *testing.T) {
	adapter := NewKuCoinAdapter(zerolog.Nop(), Endpoint{}, []types.Asset{types.AssetBTC}, 0)

	var ping map[string]interface{}
	require.NoError(t, json.Unmarshal(adapter.KeepAlive(), &ping))
	require.Equal(t, "ping", ping["type"])
}
