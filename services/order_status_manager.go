package services

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// orderStatusManager checks whether the order tracked by position has been
// executed and, if so, settles the trade and flips the position side.
func (t *Trader) orderStatusManager(position *models.Position) {
	var report *models.ExecutionReport

	if t.configuration.RunType == models.RunTypeReal {
		report = t.report
		if report == nil {
			return
		}
		if !t.reportMatches(position, report) {
			return
		}
	} else if position.OrderStatus != models.OrderStatusPlaced {
		return
	}

	done, fillPrice, fillQuantity := t.checkActiveTrade(position, report)
	if !done {
		return
	}

	// consume the report so it cannot re-trigger on a later tick
	t.report = nil
	t.completeTrade(position, fillPrice, fillQuantity)
}

// reportMatches accepts a report that carries the order id this position
// placed. A fill with no local order id on the long buy side is also
// accepted: it represents a position opened before this process started.
// Anything else is logged and left alone.
func (t *Trader) reportMatches(position *models.Position, report *models.ExecutionReport) bool {
	if position.HasOrder() && report.OrderID == *position.OrderID {
		return true
	}
	if !position.HasOrder() && position.OrderStatus == models.OrderStatusNone &&
		position.OrderSide == models.BUY && position.Direction == models.MarketDirectionLong &&
		report.Side == models.BUY {
		helpers.Logger.Warnln(fmt.Sprintf("%s: adopting fill for externally placed order %d",
			t.configuration.PrintPair(), report.OrderID))
		return true
	}
	if position == t.longPosition {
		helpers.Logger.Debugln(fmt.Sprintf("%s: ignoring execution report for unknown order %d",
			t.configuration.PrintPair(), report.OrderID))
	}
	return false
}

func (t *Trader) checkActiveTrade(position *models.Position, report *models.ExecutionReport) (bool, float64, float64) {
	if t.configuration.RunType == models.RunTypeReal {
		return t.checkReportedFill(position, report)
	}
	if !t.testFillReached(position) {
		return false, 0, 0
	}
	return true, position.Price, position.TokensHolding
}

func (t *Trader) checkReportedFill(position *models.Position, report *models.ExecutionReport) (bool, float64, float64) {
	if report.Side != t.exchangeSide(position) {
		return false, 0, 0
	}

	switch report.Status {
	case models.OrderStatusTypePartiallyFilled:
		if position.OrderStatus != models.OrderStatusLocked {
			position.OrderStatus = models.OrderStatusLocked
			helpers.Logger.Infoln(fmt.Sprintf("%s: order %d partially filled, locked until completion",
				t.configuration.PrintPair(), report.OrderID))
		}
		return false, 0, 0

	case models.OrderStatusTypeFilled:
		fillPrice := report.FillPrice
		if fillPrice == 0 {
			fillPrice = position.Price
		}
		fillQuantity := report.FillQuantity
		if fillQuantity == 0 {
			fillQuantity = report.Quantity
		}
		if position.OrderSide == models.BUY && !t.fillConfirmedByWallet(position, fillPrice, fillQuantity) {
			return false, 0, 0
		}
		return true, fillPrice, fillQuantity
	}

	return false, 0, 0
}

// fillConfirmedByWallet honors an entry fill only once the balance push has
// caught up with it. Guards against duplicate or out-of-order user stream
// events crediting a position that does not exist yet.
func (t *Trader) fillConfirmedByWallet(position *models.Position, fillPrice float64, fillQuantity float64) bool {
	if position.Direction == models.MarketDirectionShort {
		return t.walletPair.Free(t.configuration.QuoteAsset) >= fillQuantity*fillPrice
	}
	return t.walletPair.Free(t.configuration.BaseAsset) >= fillQuantity
}

// testFillReached simulates execution against the last traded price. Limit
// style orders fill on the favorable crossing, stops trigger on the adverse
// one, market orders fill immediately.
func (t *Trader) testFillReached(position *models.Position) bool {
	switch position.OrderType {
	case models.OrderTypeSignal, models.OrderTypeMarket:
		return true
	}

	long := position.Direction == models.MarketDirectionLong
	buying := position.OrderSide == models.BUY
	below := buying == long
	if position.OrderType == models.OrderTypeStopLoss || position.OrderType == models.OrderTypeStopLossLimit {
		below = !below
	}
	if below {
		return t.prices.LastPrice <= position.Price
	}
	return t.prices.LastPrice >= position.Price
}

func (t *Trader) completeTrade(position *models.Position, fillPrice float64, fillQuantity float64) {
	side := position.OrderSide
	record := models.TradeRecord{
		Time:        time.Now(),
		Price:       fillPrice,
		Quantity:    fillQuantity,
		Description: position.OrderDescription,
		Side:        side,
		Direction:   position.Direction,
	}
	if err := t.recorder.Append(record); err != nil {
		helpers.Logger.Warnln(fmt.Sprintf("%s: trade record rejected: %s",
			t.configuration.PrintPair(), err.Error()))
	}

	if side == models.BUY {
		position.Price = fillPrice
		position.TokensHolding = fillQuantity
		position.BuyTime = record.Time
		position.CurrencyLeft = 0
		helpers.Logger.Infoln(fmt.Sprintf("%s: %s entry filled at %.8f, holding %.8f",
			t.configuration.PrintPair(), position.Direction, fillPrice, fillQuantity))
	} else {
		t.settleRoundTrip(position, record)
	}

	position.OrderSide = side.Opposite()
	position.ResetOrder()
}

// settleRoundTrip closes the buy/sell pair: repays any margin loan, records
// the outcome and rearms the position for the next entry.
func (t *Trader) settleRoundTrip(position *models.Position, exit models.TradeRecord) {
	entry, ok := t.recorder.LastBuy()
	if !ok {
		entry = models.TradeRecord{Price: position.Price, Quantity: exit.Quantity,
			Side: models.BUY, Direction: position.Direction}
	}

	if position.Direction == models.MarketDirectionShort && position.LoanCost > 0 {
		if t.configuration.RunType == models.RunTypeReal {
			if err := t.gateway.Repay(context.Background(), t.configuration.BaseAsset, position.LoanCost); err != nil {
				helpers.Logger.Errorln(fmt.Sprintf("%s: error repaying loan of %.8f %s: %s",
					t.configuration.PrintPair(), position.LoanCost, t.configuration.BaseAsset, err.Error()))
			}
		}
		position.LoanCost = 0
		position.LoanID = nil
	}

	outcome := roundTripOutcome(entry, exit)
	t.recorder.RecordRoundTrip(position.Direction, entry, exit, outcome)

	position.MarketStatus = models.MarketStatusCompleteTrade
	position.MarketType = nil
	position.TokensHolding = 0
	position.CurrencyLeft = t.allocatedCurrency
	position.BuyTime = time.Time{}

	helpers.Logger.Infoln(fmt.Sprintf("%s: %s round trip closed at %.8f, outcome %.8f %s",
		t.configuration.PrintPair(), position.Direction, exit.Price, outcome, t.configuration.QuoteAsset))
}
