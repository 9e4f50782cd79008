package models

// OrderIntent is the strategy's verdict for one side of a position. Type
// WAIT means stand down and cancel anything outstanding; any placeable type
// asks the trader to place or replace the order. Placement selects the wire
// order type used when the intent reaches the gateway.
type OrderIntent struct {
	Type           OrderType
	Placement      OrderType
	Price          float64
	StopPrice      float64
	StopLimitPrice float64
	Description    string
}

// Wait is the no-action intent.
func Wait() OrderIntent {
	return OrderIntent{Type: OrderTypeWait}
}

// IndicatorSet is the named indicator values recomputed each tick from the
// candle window and consumed by the strategy conditions.
type IndicatorSet struct {
	MACD           float64
	MACDSignal     float64
	MACDHist       float64
	PrevMACD       float64
	PrevMACDSignal float64
	RSI            float64
	SMA50          float64
}
