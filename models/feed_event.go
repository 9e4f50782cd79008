package models

import "time"

// Candle is one kline of the live window.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// CandleBatch is the latest bounded candle window, most recent first.
type CandleBatch struct {
	Interval string
	Candles  []Candle
}

// Empty reports whether the window has no candles yet.
func (b *CandleBatch) Empty() bool {
	return b == nil || len(b.Candles) == 0
}

// LastPrice is the close of the most recent candle.
func (b *CandleBatch) LastPrice() float64 {
	if b.Empty() {
		return 0
	}
	return b.Candles[0].Close
}

// ExecutionReport mirrors an order update pushed on the account stream.
type ExecutionReport struct {
	OrderID      int64
	Side         OrderSide
	Status       OrderStatusType
	Quantity     float64
	FillQuantity float64
	FillPrice    float64
}

// BalanceUpdate carries the account balances pushed on the account stream.
// EventTime increases monotonically and is used for de-duplication.
type BalanceUpdate struct {
	EventTime int64
	Balances  map[string]AssetBalance
}

// FeedEvent is one immutable update published by the market feed on the
// per-symbol channel. Exactly one payload pointer is set. Sequence increases
// monotonically per feed.
type FeedEvent struct {
	Sequence int64
	Candles  *CandleBatch
	Depth    *MarketDepth
	Report   *ExecutionReport
	Balance  *BalanceUpdate
}
