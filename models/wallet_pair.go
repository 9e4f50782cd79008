package models

// AssetBalance is the free/locked split of one asset.
type AssetBalance struct {
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// WalletPair maps the two traded assets to their balances. In REAL mode it
// is refreshed from pushed account events; in TEST mode it holds a fixed
// placeholder.
type WalletPair map[string]AssetBalance

// NewWalletPair returns a wallet with both traded assets zeroed.
func NewWalletPair(baseAsset string, quoteAsset string) WalletPair {
	return WalletPair{
		baseAsset:  {},
		quoteAsset: {},
	}
}

// Free returns the free balance of asset, zero if unknown.
func (w WalletPair) Free(asset string) float64 {
	return w[asset].Free
}

// Locked returns the locked balance of asset, zero if unknown.
func (w WalletPair) Locked(asset string) float64 {
	return w[asset].Locked
}
