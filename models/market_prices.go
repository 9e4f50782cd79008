package models

// MarketPrices caches the latest market view, refreshed every tick from the
// feed snapshot. It is never persisted as ground truth.
type MarketPrices struct {
	LastPrice float64 `json:"lastPrice"`
	AskPrice  float64 `json:"askPrice"`
	BidPrice  float64 `json:"bidPrice"`
}
