package models

// OrderSide separates the two legs of a round trip.
type OrderSide string

// OrderStatus is the local lifecycle of the single outstanding order of a
// position. Locked means a partial fill is unresolved and blocks any
// replace or cancel until the order settles.
type OrderStatus string

// OrderType is the intent the strategy produced for the current side.
type OrderType string

// OrderStatusType is the status an exchange reports for an order.
type OrderStatusType string

// MarketDirection tags a position as long or short.
type MarketDirection string

// MarketStatus is the trading status of one position.
type MarketStatus string

const (
	BUY  OrderSide = "BUY"
	SELL OrderSide = "SELL"

	OrderStatusNone   OrderStatus = ""
	OrderStatusPlaced OrderStatus = "PLACED"
	OrderStatusLocked OrderStatus = "LOCKED"

	OrderTypeWait          OrderType = "WAIT"
	OrderTypeSignal        OrderType = "SIGNAL"
	OrderTypeMarket        OrderType = "MARKET"
	OrderTypeLimit         OrderType = "LIMIT"
	OrderTypeStopLoss      OrderType = "STOP_LOSS"
	OrderTypeStopLossLimit OrderType = "STOP_LOSS_LIMIT"
	OrderTypeOCOLimit      OrderType = "OCO_LIMIT"
	OrderTypeComplete      OrderType = "COMPLETE"

	OrderStatusTypeNew             OrderStatusType = "NEW"
	OrderStatusTypePartiallyFilled OrderStatusType = "PARTIALLY_FILLED"
	OrderStatusTypeFilled          OrderStatusType = "FILLED"
	OrderStatusTypeCanceled        OrderStatusType = "CANCELED"
	OrderStatusTypePendingCancel   OrderStatusType = "PENDING_CANCEL"
	OrderStatusTypeRejected        OrderStatusType = "REJECTED"
	OrderStatusTypeExpired         OrderStatusType = "EXPIRED"

	MarketDirectionLong  MarketDirection = "LONG"
	MarketDirectionShort MarketDirection = "SHORT"

	MarketStatusTrading       MarketStatus = "TRADING"
	MarketStatusCompleteTrade MarketStatus = "COMPLETE_TRADE"
)

// Opposite returns the other leg of the round trip.
func (s OrderSide) Opposite() OrderSide {
	if s == BUY {
		return SELL
	}
	return BUY
}

// Placeable reports whether the type can be handed to the gateway. WAIT and
// COMPLETE are trader-internal states, never wire order types.
func (t OrderType) Placeable() bool {
	switch t {
	case OrderTypeSignal, OrderTypeMarket, OrderTypeLimit, OrderTypeStopLoss,
		OrderTypeStopLossLimit, OrderTypeOCOLimit:
		return true
	}
	return false
}

// OrderRequest is a placement handed to the order gateway.
type OrderRequest struct {
	TradingType    TradingType
	Symbol         string
	Side           OrderSide
	Type           OrderType
	Quantity       float64
	Price          float64
	StopPrice      float64
	StopLimitPrice float64
	TimeInForce    string
}

// Fill is a single execution reported inside a placement ack.
type Fill struct {
	Price    float64
	Quantity float64
}

// OrderResult is the gateway's ack for a successful placement.
type OrderResult struct {
	OrderID       int64
	ClientOrderID string
	Price         float64
	Fills         []Fill
	// TestQuantity is the synthetic quantity returned for paper orders.
	TestQuantity float64
}

// FillPrice returns the first executed price if the ack carried fills,
// otherwise the ack price.
func (r OrderResult) FillPrice() float64 {
	if len(r.Fills) > 0 && r.Fills[0].Price != 0 {
		return r.Fills[0].Price
	}
	return r.Price
}
