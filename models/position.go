package models

import "time"

// Position holds the bookkeeping for one traded side of a market. A spot
// trader only has the long position; a margin trader has one long and one
// short, with only one of them ever inside a round trip at a time.
//
// The position is mutated exclusively by the owning trader's tick loop.
type Position struct {
	// Direction is which side of the market this position trades.
	Direction MarketDirection `json:"direction"`

	// CanOrder gates order placement; external risk checks may clear it.
	CanOrder bool `json:"canOrder"`

	// Price fields of the last placed order, quantized to the tick size.
	Price          float64 `json:"price"`
	StopPrice      float64 `json:"stopPrice"`
	StopLimitPrice float64 `json:"stopLimitPrice"`

	// CurrencyLeft is the quote currency still allocated to this position.
	CurrencyLeft float64 `json:"currencyLeft"`

	// TokensHolding is the quantity currently held or borrowed.
	TokensHolding float64 `json:"tokensHolding"`

	// BuyTime is when the entry order filled; zero outside a round trip.
	BuyTime time.Time `json:"buyTime"`

	OrderID          *int64      `json:"orderId,omitempty"`
	OrderStatus      OrderStatus `json:"orderStatus"`
	OrderSide        OrderSide   `json:"orderSide"`
	OrderType        OrderType   `json:"orderType"`
	OrderDescription string      `json:"orderDescription"`

	// MarketType is pinned to Direction when a BUY entry is placed and
	// cleared when the round trip completes. While set on one position of a
	// margin pair, the other position is not evaluated.
	MarketType *MarketDirection `json:"orderMarketType,omitempty"`

	MarketStatus MarketStatus `json:"marketStatus"`

	// Loan bookkeeping, set only between a short entry borrow and its repay.
	LoanCost float64 `json:"loanCost"`
	LoanID   *int64  `json:"loanId,omitempty"`
}

// NewPosition returns a position ready for its first entry.
func NewPosition(direction MarketDirection, allocatedCurrency float64) *Position {
	return &Position{
		Direction:    direction,
		CanOrder:     true,
		CurrencyLeft: allocatedCurrency,
		OrderSide:    BUY,
		OrderType:    OrderTypeWait,
		MarketStatus: MarketStatusTrading,
	}
}

// HasOrder reports whether an order is outstanding on the exchange.
func (p *Position) HasOrder() bool {
	return p.OrderID != nil
}

// Engaged reports whether the position is inside a round trip or actively
// working an entry, which excludes the opposite position from trading.
func (p *Position) Engaged() bool {
	if p.OrderSide == SELL || p.MarketType != nil {
		return true
	}
	return p.OrderType != OrderTypeWait && p.OrderType != OrderTypeComplete
}

// ResetOrder clears the order fields after a completed order. The order
// type is left at COMPLETE so the next trade-manager pass re-evaluates the
// conditions from a clean slate.
func (p *Position) ResetOrder() {
	p.Price = 0
	p.StopPrice = 0
	p.StopLimitPrice = 0
	p.OrderID = nil
	p.OrderStatus = OrderStatusNone
	p.OrderDescription = ""
	p.OrderType = OrderTypeComplete
}

// PinMarketType marks the position's direction for the round trip being
// entered.
func (p *Position) PinMarketType() {
	direction := p.Direction
	p.MarketType = &direction
}

// Clone returns a deep copy, used for snapshots and change detection.
func (p *Position) Clone() *Position {
	clone := *p
	if p.OrderID != nil {
		id := *p.OrderID
		clone.OrderID = &id
	}
	if p.MarketType != nil {
		direction := *p.MarketType
		clone.MarketType = &direction
	}
	if p.LoanID != nil {
		id := *p.LoanID
		clone.LoanID = &id
	}
	return &clone
}
