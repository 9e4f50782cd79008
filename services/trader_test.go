package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

type feedMock struct {
	events chan models.FeedEvent
}

func (fm *feedMock) Start() error                    { return nil }
func (fm *feedMock) Stop()                           {}
func (fm *feedMock) Events() <-chan models.FeedEvent { return fm.events }
func (fm *feedMock) push(event models.FeedEvent)     { fm.events <- event }

type scriptedStrategy struct {
	entryLong  models.OrderIntent
	entryShort models.OrderIntent
	exitLong   models.OrderIntent
	exitShort  models.OrderIntent
}

func newScriptedStrategy() *scriptedStrategy {
	return &scriptedStrategy{
		entryLong:  models.Wait(),
		entryShort: models.Wait(),
		exitLong:   models.Wait(),
		exitShort:  models.Wait(),
	}
}

func (ss *scriptedStrategy) EntryIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	if position.Direction == models.MarketDirectionLong {
		return ss.entryLong
	}
	return ss.entryShort
}

func (ss *scriptedStrategy) ExitIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	if position.Direction == models.MarketDirectionLong {
		return ss.exitLong
	}
	return ss.exitShort
}

type gatewayMock struct {
	mu        sync.Mutex
	calls     []string
	placed    []models.OrderRequest
	canceled  []int64
	nextOrder int64

	placeErr  error
	cancelErr error
	statusErr error
	status    models.OrderStatusType

	borrowed map[string]float64
	debt     float64
}

func newGatewayMock() *gatewayMock {
	return &gatewayMock{
		status:   models.OrderStatusTypeNew,
		borrowed: map[string]float64{},
	}
}

func (gm *gatewayMock) record(call string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.calls = append(gm.calls, call)
}

func (gm *gatewayMock) PlaceOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error) {
	gm.record("PlaceOrder")
	if gm.placeErr != nil {
		return models.OrderResult{}, gm.placeErr
	}
	gm.nextOrder++
	gm.placed = append(gm.placed, request)
	return models.OrderResult{
		OrderID:      gm.nextOrder,
		Price:        request.Price,
		TestQuantity: request.Quantity,
	}, nil
}

func (gm *gatewayMock) CancelOrder(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) error {
	gm.record("CancelOrder")
	if gm.cancelErr != nil {
		return gm.cancelErr
	}
	gm.canceled = append(gm.canceled, orderID)
	return nil
}

func (gm *gatewayMock) CancelOCOOrder(ctx context.Context, symbol string) error {
	gm.record("CancelOCOOrder")
	return gm.cancelErr
}

func (gm *gatewayMock) GetOrderStatus(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) (models.OrderStatusType, error) {
	gm.record("GetOrderStatus")
	if gm.statusErr != nil {
		return "", gm.statusErr
	}
	return gm.status, nil
}

func (gm *gatewayMock) Borrow(ctx context.Context, asset string, amount float64) (int64, error) {
	gm.record("Borrow")
	gm.borrowed[asset] += amount
	return 77, nil
}

func (gm *gatewayMock) Repay(ctx context.Context, asset string, amount float64) error {
	gm.record("Repay")
	gm.borrowed[asset] -= amount
	return nil
}

func (gm *gatewayMock) GetMarginDebt(ctx context.Context, asset string) (float64, error) {
	gm.record("GetMarginDebt")
	return gm.debt, nil
}

func (gm *gatewayMock) GetBalance(ctx context.Context, asset string) (models.AssetBalance, error) {
	gm.record("GetBalance")
	return models.AssetBalance{Free: 1000}, nil
}

func newTestTrader(t *testing.T, configuration models.Configuration, gateway *gatewayMock) (*Trader, *feedMock, *scriptedStrategy) {
	t.Helper()
	feed := &feedMock{events: make(chan models.FeedEvent, 64)}
	strategy := newScriptedStrategy()
	recorder := NewTradeRecorderService(configuration.Symbol, t.TempDir(), nil)
	trader := NewTrader(configuration, models.Rules{LotSizeDigits: 4, TickSizeDigits: 2}, 1000,
		gateway, feed, strategy, recorder, nil)
	trader.positionInterval = 0
	trader.state = models.StateRun
	return trader, feed, strategy
}

func candleBatch(closes ...float64) *models.CandleBatch {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, closePrice := range closes {
		candles[len(closes)-1-i] = models.Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   closePrice,
			High:   closePrice,
			Low:    closePrice,
			Close:  closePrice,
			Volume: 1,
		}
	}
	return &models.CandleBatch{Interval: "1h", Candles: candles}
}

func pushMarket(feed *feedMock, lastPrice float64) {
	feed.push(models.FeedEvent{Candles: candleBatch(lastPrice-2, lastPrice+1, lastPrice)})
	feed.push(models.FeedEvent{Depth: &models.MarketDepth{
		Asks: []models.PriceLevel{{Price: lastPrice + 1, Quantity: 10}},
		Bids: []models.PriceLevel{{Price: lastPrice - 1, Quantity: 10}},
	}})
}

func limitIntent(price float64, description string) models.OrderIntent {
	return models.OrderIntent{
		Type:        models.OrderTypeLimit,
		Placement:   models.OrderTypeLimit,
		Price:       price,
		Description: description,
	}
}

func signalIntent(price float64, description string) models.OrderIntent {
	return models.OrderIntent{
		Type:        models.OrderTypeSignal,
		Placement:   models.OrderTypeMarket,
		Price:       price,
		Description: description,
	}
}

func testConfiguration() models.Configuration {
	return models.NewConfiguration(models.TradingTypeSpot, models.RunTypeTest, "ETH", "EUR", "1h")
}

func realConfiguration(tradingType models.TradingType) models.Configuration {
	return models.NewConfiguration(tradingType, models.RunTypeReal, "ETH", "EUR", "1h")
}

func TestRepeatedSignalDoesNotReplaceOrder(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, testConfiguration(), gateway)

	strategy.entryLong = limitIntent(100.456, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()

	assert.Len(t, gateway.placed, 1)
	assert.Equal(t, 100.46, trader.longPosition.Price)
	assert.Equal(t, models.OrderStatusPlaced, trader.longPosition.OrderStatus)
	assert.Equal(t, models.OrderTypeLimit, trader.longPosition.OrderType)

	// identical intent on the next ticks is a no-op
	trader.tick()
	trader.tick()
	assert.Len(t, gateway.placed, 1)

	// a different price replaces the order
	strategy.entryLong = limitIntent(101.0, "long limit entry")
	trader.tick()
	assert.Len(t, gateway.placed, 2)
	assert.Equal(t, 101.0, trader.longPosition.Price)
}

func TestLongLimitEntryFillsOnFavorableCrossing(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, testConfiguration(), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	assert.Equal(t, models.BUY, trader.longPosition.OrderSide)

	// still above the limit price, no fill
	trader.tick()
	assert.Equal(t, models.BUY, trader.longPosition.OrderSide)

	// crossing below fills the entry and flips the side
	strategy.entryLong = models.Wait()
	pushMarket(feed, 99)
	trader.tick()

	position := trader.longPosition
	assert.Equal(t, models.SELL, position.OrderSide)
	assert.Equal(t, models.OrderTypeWait, position.OrderType)
	assert.True(t, position.TokensHolding > 0)
	assert.Equal(t, 0.0, position.CurrencyLeft)
	assert.False(t, position.BuyTime.IsZero())

	records := trader.recorder.Records()
	assert.Len(t, records, 1)
	assert.Equal(t, models.BUY, records[0].Side)
	assert.Equal(t, 100.0, records[0].Price)
}

func TestRoundTripOutcomeAndRearm(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, testConfiguration(), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 99)
	trader.tick()
	trader.tick()
	assert.Equal(t, models.SELL, trader.longPosition.OrderSide)
	boughtQuantity := trader.longPosition.TokensHolding
	assert.Equal(t, TruncateQuantity(1000.0/98.0, 4), boughtQuantity)

	strategy.entryLong = models.Wait()
	strategy.exitLong = signalIntent(110, "long exit signal")
	pushMarket(feed, 110)
	trader.tick()
	assert.Equal(t, models.OrderStatusPlaced, trader.longPosition.OrderStatus)

	// market orders fill on the next pass
	trader.tick()

	position := trader.longPosition
	assert.Equal(t, models.BUY, position.OrderSide)
	assert.Equal(t, models.MarketStatusCompleteTrade, position.MarketStatus)
	assert.Nil(t, position.MarketType)
	assert.Equal(t, 0.0, position.TokensHolding)
	assert.Equal(t, 1000.0, position.CurrencyLeft)
	assert.True(t, position.BuyTime.IsZero())

	records := trader.recorder.Records()
	assert.Len(t, records, 2)
	assert.Equal(t, models.SELL, records[1].Side)
	assert.Equal(t, boughtQuantity, records[1].Quantity)
	assert.InDelta(t, (110.0-100.0)*boughtQuantity, roundTripOutcome(records[0], records[1]), 1e-9)

	// the completed status is observable for exactly one tick
	strategy.exitLong = models.Wait()
	trader.tick()
	assert.Equal(t, models.MarketStatusTrading, position.MarketStatus)
}

func TestWaitIntentCancelsOutstandingOrder(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeSpot), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	assert.True(t, trader.longPosition.HasOrder())
	assert.NotNil(t, trader.longPosition.MarketType)

	strategy.entryLong = models.Wait()
	trader.tick()

	position := trader.longPosition
	assert.Len(t, gateway.canceled, 1)
	assert.False(t, position.HasOrder())
	assert.Equal(t, models.OrderStatusNone, position.OrderStatus)
	assert.Equal(t, models.OrderTypeWait, position.OrderType)
	assert.Nil(t, position.MarketType)
}

func TestInsufficientBalancePausesAndResumes(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeSpot), gateway)

	gateway.placeErr = models.NewGatewayError(models.GatewayInsufficientBalance, -2010, "insufficient balance")
	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	assert.Equal(t, models.StatePauseInsufBalance, trader.State())

	// paused: no placement attempts
	attempts := len(gateway.calls)
	trader.tick()
	assert.Equal(t, attempts, len(gateway.calls))

	// a balance push above the allocation resumes trading
	gateway.placeErr = nil
	feed.push(models.FeedEvent{Balance: &models.BalanceUpdate{
		EventTime: 1,
		Balances: map[string]models.AssetBalance{
			"EUR": {Free: 2000},
		},
	}})
	trader.tick()
	assert.Equal(t, models.StateRun, trader.State())
	assert.Len(t, gateway.placed, 1)
}

func TestShortEntryBorrowsBeforePlacing(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeMargin), gateway)

	strategy.entryShort = limitIntent(100, "short limit entry")
	pushMarket(feed, 95)
	trader.tick()

	position := trader.shortPosition
	assert.True(t, position.HasOrder())
	assert.NotNil(t, position.LoanID)
	assert.Equal(t, int64(77), *position.LoanID)
	assert.Equal(t, position.LoanCost, gateway.borrowed["ETH"])

	borrowIndex, placeIndex := -1, -1
	for i, call := range gateway.calls {
		if call == "Borrow" && borrowIndex < 0 {
			borrowIndex = i
		}
		if call == "PlaceOrder" && placeIndex < 0 {
			placeIndex = i
		}
	}
	assert.True(t, borrowIndex >= 0)
	assert.True(t, placeIndex >= 0)
	assert.Less(t, borrowIndex, placeIndex)

	// the short entry reaches the exchange as a sell
	assert.Equal(t, models.SELL, gateway.placed[0].Side)
}

func TestMarginPositionsAreMutuallyExclusive(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeMargin), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	strategy.entryShort = limitIntent(100, "short limit entry")
	pushMarket(feed, 105)
	trader.tick()

	// the long position engaged first, the short one sat out
	assert.Len(t, gateway.placed, 1)
	assert.True(t, trader.longPosition.HasOrder())
	assert.False(t, trader.shortPosition.HasOrder())
	assert.Nil(t, trader.shortPosition.LoanID)
}

func TestStaleOrderTriggersResynchronization(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeSpot), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	assert.Len(t, gateway.placed, 1)

	// the replace cancel hits an order the exchange no longer knows
	gateway.cancelErr = models.NewGatewayError(models.GatewayStaleOrder, -2011, "unknown order sent")
	strategy.entryLong = limitIntent(101, "long limit entry")
	trader.tick()
	assert.Equal(t, models.StateCheckOrders, trader.State())
	assert.Len(t, gateway.placed, 1)

	// the next tick resynchronizes, drops the ghost order and replaces it
	gateway.cancelErr = nil
	gateway.statusErr = models.NewGatewayError(models.GatewayStaleOrder, -2013, "order does not exist")
	trader.tick()
	assert.Equal(t, models.StateRun, trader.State())
	assert.Len(t, gateway.placed, 2)
	assert.Equal(t, 101.0, trader.longPosition.Price)
}

func TestRealFillWaitsForWalletConfirmation(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeSpot), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	orderID := *trader.longPosition.OrderID

	report := &models.ExecutionReport{
		OrderID:      orderID,
		Side:         models.BUY,
		Status:       models.OrderStatusTypeFilled,
		Quantity:     5,
		FillQuantity: 5,
		FillPrice:    100,
	}

	// fill report before the balance push: not honored yet
	feed.push(models.FeedEvent{Report: report})
	trader.tick()
	assert.Equal(t, models.BUY, trader.longPosition.OrderSide)

	// once the wallet shows the tokens the fill goes through
	feed.push(models.FeedEvent{Balance: &models.BalanceUpdate{
		EventTime: 2,
		Balances: map[string]models.AssetBalance{
			"ETH": {Free: 5},
		},
	}})
	trader.tick()
	assert.Equal(t, models.SELL, trader.longPosition.OrderSide)
	assert.Equal(t, 5.0, trader.longPosition.TokensHolding)
}

func TestPartialFillLocksTheOrder(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, realConfiguration(models.TradingTypeSpot), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 105)
	trader.tick()
	orderID := *trader.longPosition.OrderID

	feed.push(models.FeedEvent{Report: &models.ExecutionReport{
		OrderID:      orderID,
		Side:         models.BUY,
		Status:       models.OrderStatusTypePartiallyFilled,
		Quantity:     5,
		FillQuantity: 2,
		FillPrice:    100,
	}})
	// a changed signal must not cancel or replace a partially filled order
	strategy.entryLong = limitIntent(101, "long limit entry")
	trader.tick()

	assert.Equal(t, models.OrderStatusLocked, trader.longPosition.OrderStatus)
	assert.Len(t, gateway.placed, 1)
	assert.Empty(t, gateway.canceled)
}

func TestForcePreventBuyBlocksEntriesButNotExits(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, testConfiguration(), gateway)

	// open a round trip first
	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 99)
	trader.tick()
	trader.tick()
	assert.Equal(t, models.SELL, trader.longPosition.OrderSide)

	trader.state = models.StateForcePreventBuy
	strategy.exitLong = signalIntent(110, "long exit signal")
	pushMarket(feed, 110)
	trader.tick()
	trader.tick()

	// the exit still went through and closed the round trip
	assert.Equal(t, models.BUY, trader.longPosition.OrderSide)

	// but no new entry is placed while buys are prevented
	placements := len(gateway.placed)
	strategy.entryLong = limitIntent(100, "long limit entry")
	trader.tick()
	assert.Len(t, gateway.placed, placements)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	gateway := newGatewayMock()
	trader, feed, strategy := newTestTrader(t, testConfiguration(), gateway)

	strategy.entryLong = limitIntent(100, "long limit entry")
	pushMarket(feed, 99)
	trader.tick()
	trader.tick()
	assert.Equal(t, models.SELL, trader.longPosition.OrderSide)

	snapshot := trader.Snapshot()

	restored, _, _ := newTestTrader(t, testConfiguration(), gateway)
	restored.Restore(&snapshot)

	assert.Equal(t, models.SELL, restored.longPosition.OrderSide)
	assert.Equal(t, trader.longPosition.TokensHolding, restored.longPosition.TokensHolding)
	assert.Len(t, restored.recorder.Records(), 1)

	// the snapshot is a deep copy, mutating it does not touch the trader
	snapshot.LongPosition.TokensHolding = 0
	assert.NotEqual(t, 0.0, trader.longPosition.TokensHolding)
}
