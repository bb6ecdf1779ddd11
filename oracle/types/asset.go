package types

import "encoding/json"

// Asset is a supported reference-price base symbol, e.g. "BTC".
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetSOL Asset = "SOL"
	AssetXRP Asset = "XRP"
)

// SupportedAssets is the exhaustive set of assets the core can price.
var SupportedAssets = map[Asset]struct{}{
	AssetBTC: {},
	AssetETH: {},
	AssetSOL: {},
	AssetXRP: {},
}

// String implements the Stringer interface.
func (a Asset) String() string {
	return string(a)
}

func (a Asset) MarshalText() (text []byte, err error) {
	type noMethod Asset
	return json.Marshal(noMethod(a))
}

func (a *Asset) UnmarshalText(text []byte) error {
	type noMethod Asset
	return json.Unmarshal(text, (*noMethod)(a))
}

// QuoteUnit is the settlement currency of a venue's pair.
type QuoteUnit string

const (
	QuoteUSD  QuoteUnit = "USD"
	QuoteUSDT QuoteUnit = "USDT"
)

func (q QuoteUnit) String() string {
	return string(q)
}
