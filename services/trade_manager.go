package services

import (
	"context"
	"fmt"

	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// tradeManager asks the strategy for the next intent on position and keeps
// the outstanding order in sync with it.
func (t *Trader) tradeManager(position *models.Position) {
	if position.OrderStatus == models.OrderStatusLocked {
		return
	}
	if position.OrderSide == models.BUY && t.state == models.StateForcePreventBuy {
		return
	}

	var intent models.OrderIntent
	if position.OrderSide == models.BUY {
		intent = t.strategy.EntryIntent(position.Clone(), t.indicators, t.prices)
	} else {
		intent = t.strategy.ExitIntent(position.Clone(), t.indicators, t.prices)
	}

	if intent.Type == models.OrderTypeWait {
		t.standDown(position)
		return
	}
	if !intent.Type.Placeable() {
		helpers.Logger.Warnln(fmt.Sprintf("%s: order type %s is not available",
			t.configuration.PrintPair(), intent.Type))
		return
	}

	intent.Price = QuantizePrice(intent.Price, t.rules.TickSizeDigits)
	intent.StopPrice = QuantizePrice(intent.StopPrice, t.rules.TickSizeDigits)
	intent.StopLimitPrice = QuantizePrice(intent.StopLimitPrice, t.rules.TickSizeDigits)

	// a repeated identical signal at an unchanged price is a no-op
	if position.OrderType == intent.Type && position.Price == intent.Price {
		return
	}

	t.placeOrder(position, intent)
}

// standDown cancels whatever order is outstanding and returns the position
// to the idle state. A buy side stand down also unpins the market type.
func (t *Trader) standDown(position *models.Position) {
	if position.OrderType == models.OrderTypeWait && !position.HasOrder() &&
		position.OrderStatus == models.OrderStatusNone {
		return
	}
	if position.HasOrder() {
		t.cancelOrder(position)
	}
	position.OrderID = nil
	position.OrderStatus = models.OrderStatusNone
	position.OrderType = models.OrderTypeWait
	position.OrderDescription = ""
	if position.OrderSide == models.BUY {
		position.MarketType = nil
	}
}

func (t *Trader) cancelOrder(position *models.Position) bool {
	var err error
	if position.OrderType == models.OrderTypeOCOLimit {
		err = t.gateway.CancelOCOOrder(context.Background(), t.configuration.Symbol)
	} else {
		err = t.gateway.CancelOrder(context.Background(), t.configuration.TradingType,
			t.configuration.Symbol, *position.OrderID)
	}
	if err != nil {
		t.handleGatewayError(err)
		return false
	}
	return true
}

func (t *Trader) placeOrder(position *models.Position, intent models.OrderIntent) {
	quantity, err := t.orderQuantity(position)
	if err != nil {
		t.handleGatewayError(err)
		return
	}
	if quantity <= 0 {
		helpers.Logger.Warnln(fmt.Sprintf("%s: computed zero quantity for %s %s order",
			t.configuration.PrintPair(), position.Direction, position.OrderSide))
		return
	}

	referencePrice := intent.Price
	if referencePrice == 0 {
		referencePrice = t.prices.LastPrice
	}
	if t.rules.MinNotional > 0 && quantity*referencePrice < t.rules.MinNotional {
		helpers.Logger.Warnln(fmt.Sprintf("%s: order of %.8f at %.8f below the minimum notional",
			t.configuration.PrintPair(), quantity, referencePrice))
		return
	}

	// short entries borrow first so the loan is on the books before the
	// order can possibly fill
	if position.Direction == models.MarketDirectionShort && position.OrderSide == models.BUY &&
		position.LoanID == nil && t.configuration.RunType == models.RunTypeReal {
		tranID, err := t.gateway.Borrow(context.Background(), t.configuration.BaseAsset, quantity)
		if err != nil {
			t.handleGatewayError(err)
			return
		}
		position.LoanID = &tranID
		position.LoanCost = quantity
		helpers.Logger.Infoln(fmt.Sprintf("%s: borrowed %.8f %s (loan %d)",
			t.configuration.PrintPair(), quantity, t.configuration.BaseAsset, tranID))
	}

	// replace means cancel first, then place
	if position.HasOrder() {
		if !t.cancelOrder(position) {
			return
		}
		position.OrderID = nil
		position.OrderStatus = models.OrderStatusNone
	}

	request := models.OrderRequest{
		TradingType:    t.configuration.TradingType,
		Symbol:         t.configuration.Symbol,
		Side:           t.exchangeSide(position),
		Type:           intent.Placement,
		Quantity:       quantity,
		Price:          intent.Price,
		StopPrice:      intent.StopPrice,
		StopLimitPrice: intent.StopLimitPrice,
		TimeInForce:    timeInForce(intent.Placement),
	}
	result, err := t.gateway.PlaceOrder(context.Background(), request)
	if err != nil {
		t.handleGatewayError(err)
		return
	}

	orderPrice := result.FillPrice()
	if orderPrice == 0 {
		orderPrice = intent.Price
	}
	if t.configuration.RunType == models.RunTypeTest && intent.Placement == models.OrderTypeMarket {
		orderPrice = t.prices.LastPrice
	}

	position.Price = orderPrice
	position.StopPrice = intent.StopPrice
	position.StopLimitPrice = intent.StopLimitPrice
	position.OrderType = intent.Type
	position.OrderStatus = models.OrderStatusPlaced
	position.OrderDescription = intent.Description
	if position.OrderSide == models.BUY {
		position.PinMarketType()
	}

	if t.configuration.RunType == models.RunTypeReal {
		orderID := result.OrderID
		position.OrderID = &orderID
	} else if position.OrderSide == models.BUY {
		position.TokensHolding = result.TestQuantity
	}

	helpers.Logger.Infoln(fmt.Sprintf("%s: placed %s %s %s order, %.8f at %.8f (%s)",
		t.configuration.PrintPair(), position.Direction, position.OrderSide, intent.Type,
		quantity, orderPrice, intent.Description))
}

// exchangeSide maps the position side to the side sent to the exchange.
// Short round trips invert: the entry sells borrowed tokens, the exit buys
// them back.
func (t *Trader) exchangeSide(position *models.Position) models.OrderSide {
	if position.Direction == models.MarketDirectionShort {
		return position.OrderSide.Opposite()
	}
	return position.OrderSide
}

func timeInForce(placement models.OrderType) string {
	switch placement {
	case models.OrderTypeLimit, models.OrderTypeStopLossLimit, models.OrderTypeOCOLimit:
		return "GTC"
	}
	return ""
}

// handleGatewayError maps a failed gateway call to the runtime state that
// deals with it. The gateway has already retried transient failures.
func (t *Trader) handleGatewayError(err error) {
	gatewayErr, ok := models.AsGatewayError(err)
	if !ok {
		helpers.Logger.Errorln(fmt.Sprintf("%s: gateway error: %s", t.configuration.PrintPair(), err.Error()))
		return
	}
	switch gatewayErr.Kind {
	case models.GatewayInsufficientBalance:
		helpers.Logger.Warnln(fmt.Sprintf("%s: insufficient balance, pausing until it recovers",
			t.configuration.PrintPair()))
		t.state = models.StatePauseInsufBalance
	case models.GatewayStaleOrder:
		helpers.Logger.Warnln(fmt.Sprintf("%s: stale order reference, scheduling resynchronization",
			t.configuration.PrintPair()))
		t.state = models.StateCheckOrders
	case models.GatewayRateLimited, models.GatewayNetworkError:
		helpers.Logger.Warnln(fmt.Sprintf("%s: gateway unavailable: %s",
			t.configuration.PrintPair(), gatewayErr.Message))
	default:
		helpers.Logger.Errorln(fmt.Sprintf("%s: order rejected (%d): %s",
			t.configuration.PrintPair(), gatewayErr.Code, gatewayErr.Message))
	}
}
