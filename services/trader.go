package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/interfaces"
	"gitlab.com/aoterocom/AOMarginbot/models"
	"gitlab.com/aoterocom/AOMarginbot/strategies/indicators"
)

// Trader runs the unattended trading loop for a single market. It owns all
// mutable position state: the feed pushes immutable snapshots through a
// channel and every decision happens inside the tick, under one mutex.
type Trader struct {
	configuration models.Configuration
	rules         models.Rules

	gateway  interfaces.OrderGateway
	feed     interfaces.MarketFeed
	strategy interfaces.Strategy
	recorder *TradeRecorderService
	cache    *CacheService

	allocatedCurrency float64

	longPosition  *models.Position
	shortPosition *models.Position

	walletPair models.WalletPair
	prices     models.MarketPrices
	indicators models.IndicatorSet
	candles    *models.CandleBatch
	depth      *models.MarketDepth
	report     *models.ExecutionReport

	state            models.RuntimeState
	forceSell        bool
	lastBalanceEvent int64
	lastUpdateTime   time.Time
	lastSnapshotTime time.Time

	tickInterval     time.Duration
	positionInterval time.Duration
	snapshotInterval time.Duration

	mu sync.Mutex
}

func NewTrader(configuration models.Configuration, rules models.Rules, allocatedCurrency float64,
	gateway interfaces.OrderGateway, feed interfaces.MarketFeed, strategy interfaces.Strategy,
	recorder *TradeRecorderService, cache *CacheService) *Trader {

	t := &Trader{
		configuration:     configuration,
		rules:             rules,
		gateway:           gateway,
		feed:              feed,
		strategy:          strategy,
		recorder:          recorder,
		cache:             cache,
		allocatedCurrency: allocatedCurrency,
		longPosition:      models.NewPosition(models.MarketDirectionLong, allocatedCurrency),
		walletPair:        models.NewWalletPair(configuration.BaseAsset, configuration.QuoteAsset),
		state:             models.StateSetup,
		tickInterval:      2 * time.Second,
		positionInterval:  800 * time.Millisecond,
		snapshotInterval:  30 * time.Second,
	}
	if configuration.TradingType == models.TradingTypeMargin {
		t.shortPosition = models.NewPosition(models.MarketDirectionShort, allocatedCurrency)
	}
	return t
}

// Restore resumes from a persisted snapshot. Must be called before Start.
// The runtime state itself is not carried over: a restarted process always
// goes through SETUP again.
func (t *Trader) Restore(snapshot *TraderSnapshot) {
	if snapshot == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if snapshot.LongPosition != nil {
		t.longPosition = snapshot.LongPosition.Clone()
	}
	if t.shortPosition != nil && snapshot.ShortPosition != nil {
		t.shortPosition = snapshot.ShortPosition.Clone()
	}
	t.recorder.Restore(snapshot.TradeRecords)
	if len(snapshot.WalletPair) > 0 {
		walletPair := models.WalletPair{}
		for asset, balance := range snapshot.WalletPair {
			walletPair[asset] = balance
		}
		t.walletPair = walletPair
	}
	t.forceSell = snapshot.StateData.ForceSell
	t.lastBalanceEvent = snapshot.StateData.LastBalanceEvent
	helpers.Logger.Infoln(fmt.Sprintf("%s: restored cached trader state", t.configuration.PrintPair()))
}

// Start blocks until the feed has delivered the first candle window and
// depth snapshot, then launches the trading loop in its own goroutine.
func (t *Trader) Start() {
	helpers.Logger.Infoln(fmt.Sprintf("Started %s trader on %s (%s)",
		t.configuration.TradingType, t.configuration.PrintPair(), t.configuration.RunType))
	t.setState(models.StateSetup)
	t.seedTestWallet()
	t.waitForData()
	go t.run()
}

// seedTestWallet fills the wallet with the paper gateway placeholder
// balances. Test runs never receive balance pushes.
func (t *Trader) seedTestWallet() {
	if t.configuration.RunType != models.RunTypeTest {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, asset := range []string{t.configuration.BaseAsset, t.configuration.QuoteAsset} {
		if balance, err := t.gateway.GetBalance(context.Background(), asset); err == nil {
			t.walletPair[asset] = balance
		}
	}
}

func (t *Trader) waitForData() {
	for t.State() != models.StateStop {
		t.mu.Lock()
		t.drainFeed()
		ready := !t.candles.Empty() && !t.depth.Empty()
		t.mu.Unlock()
		if ready {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (t *Trader) run() {
	for t.State() != models.StateStop {
		t.tick()
		time.Sleep(t.tickInterval)
	}
	helpers.Logger.Infoln(fmt.Sprintf("%s trader stopped", t.configuration.PrintPair()))
}

func (t *Trader) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			helpers.Logger.Errorln(fmt.Sprintf("%s: recovered from tick failure: %v",
				t.configuration.PrintPair(), r))
		}
	}()

	t.drainFeed()
	if t.candles.Empty() || t.depth.Empty() {
		return
	}

	t.indicators = indicators.Compute(t.candles)
	t.refreshPrices()

	if t.state == models.StatePauseInsufBalance &&
		t.walletPair.Free(t.configuration.QuoteAsset) > t.allocatedCurrency {
		helpers.Logger.Infoln(fmt.Sprintf("%s: balance restored, resuming", t.configuration.PrintPair()))
		t.state = models.StateRun
	}

	if t.state == models.StateCheckOrders {
		t.resyncOrders()
		t.state = models.StateRun
	}

	if !t.state.Suspended() {
		for _, position := range t.positions() {
			if position.MarketStatus == models.MarketStatusCompleteTrade {
				// kept observable for one tick after the round trip closed
				position.MarketStatus = models.MarketStatusTrading
			}
			if t.excluded(position) {
				continue
			}
			if t.report != nil || t.configuration.RunType == models.RunTypeTest {
				t.orderStatusManager(position)
			}
			if position.CanOrder && position.MarketStatus == models.MarketStatusTrading &&
				(t.state == models.StateRun || t.state == models.StateForcePreventBuy) {
				t.tradeManager(position)
			}
			if t.positionInterval > 0 {
				time.Sleep(t.positionInterval)
			}
		}
	}

	t.lastUpdateTime = time.Now()

	if t.state == models.StateSetup {
		t.state = models.StateRun
	}

	if t.cache != nil && time.Since(t.lastSnapshotTime) >= t.snapshotInterval {
		if err := t.cache.Save(t.snapshotLocked()); err != nil {
			helpers.Logger.Errorln(fmt.Sprintf("%s: error saving trader cache: %s",
				t.configuration.PrintPair(), err.Error()))
		} else {
			t.lastSnapshotTime = time.Now()
		}
	}
}

func (t *Trader) drainFeed() {
	for {
		select {
		case event := <-t.feed.Events():
			t.applyFeedEvent(event)
		default:
			return
		}
	}
}

func (t *Trader) applyFeedEvent(event models.FeedEvent) {
	switch {
	case event.Candles != nil:
		t.candles = event.Candles
	case event.Depth != nil:
		t.depth = event.Depth
	case event.Report != nil:
		t.report = event.Report
	case event.Balance != nil:
		if t.configuration.RunType != models.RunTypeReal {
			return
		}
		if event.Balance.EventTime == t.lastBalanceEvent {
			return
		}
		t.updateWallets(event.Balance)
	}
}

// updateWallets rebuilds the wallet pair from a balance push. Assets missing
// from the push reset to zero, matching what the exchange reports.
func (t *Trader) updateWallets(update *models.BalanceUpdate) {
	walletPair := models.NewWalletPair(t.configuration.BaseAsset, t.configuration.QuoteAsset)
	for asset, balance := range update.Balances {
		if asset == t.configuration.BaseAsset || asset == t.configuration.QuoteAsset {
			walletPair[asset] = balance
		}
	}
	t.walletPair = walletPair
	t.lastBalanceEvent = update.EventTime
}

func (t *Trader) refreshPrices() {
	t.prices = models.MarketPrices{
		LastPrice: t.candles.LastPrice(),
		AskPrice:  t.depth.LowerAskPrice(),
		BidPrice:  t.depth.HigherBidPrice(),
	}
}

func (t *Trader) positions() []*models.Position {
	if t.shortPosition != nil {
		return []*models.Position{t.longPosition, t.shortPosition}
	}
	return []*models.Position{t.longPosition}
}

// excluded reports whether position must sit out this tick. On margin, at
// most one direction may hold an open round trip at a time.
func (t *Trader) excluded(position *models.Position) bool {
	if t.configuration.TradingType != models.TradingTypeMargin {
		return false
	}
	other := t.shortPosition
	if position == t.shortPosition {
		other = t.longPosition
	}
	return other != nil && other.Engaged()
}

// resyncOrders reconciles local order bookkeeping against the exchange
// after a stale order error.
func (t *Trader) resyncOrders() {
	helpers.Logger.Warnln(fmt.Sprintf("%s: resynchronizing orders with the exchange", t.configuration.PrintPair()))
	for _, position := range t.positions() {
		if !position.HasOrder() {
			position.OrderStatus = models.OrderStatusNone
			if position.OrderType.Placeable() {
				position.OrderType = models.OrderTypeWait
			}
			continue
		}
		status, err := t.gateway.GetOrderStatus(context.Background(), t.configuration.TradingType,
			t.configuration.Symbol, *position.OrderID)
		if err != nil {
			helpers.Logger.Warnln(fmt.Sprintf("%s: dropping unknown order %d: %s",
				t.configuration.PrintPair(), *position.OrderID, err.Error()))
			position.ResetOrder()
			position.OrderType = models.OrderTypeWait
			continue
		}
		switch status {
		case models.OrderStatusTypeCanceled, models.OrderStatusTypeExpired, models.OrderStatusTypeRejected:
			position.ResetOrder()
			position.OrderType = models.OrderTypeWait
		case models.OrderStatusTypePartiallyFilled:
			position.OrderStatus = models.OrderStatusLocked
		default:
			position.OrderStatus = models.OrderStatusPlaced
		}
	}
}

// State returns the current runtime state.
func (t *Trader) State() models.RuntimeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trader) setState(state models.RuntimeState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// Suspend pauses decision making while keeping the feed and bookkeeping
// alive. Resume returns the trader to normal operation.
func (t *Trader) Suspend() {
	t.setState(models.StateForceStandby)
}

func (t *Trader) Resume() {
	t.setState(models.StateRun)
}

// SetForceSell makes the next exit liquidate the full current holding
// instead of the recorded entry quantity.
func (t *Trader) SetForceSell(force bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forceSell = force
}

// Stop prevents new entries, waits for any open round trip to close, then
// halts the loop. It blocks until the trader has fully stopped.
func (t *Trader) Stop() {
	t.setState(models.StateForcePreventBuy)
	for {
		t.mu.Lock()
		halted := t.state == models.StateStop
		open := false
		for _, position := range t.positions() {
			if position.OrderSide == models.SELL {
				open = true
			}
		}
		t.mu.Unlock()
		if halted {
			return
		}
		if !open {
			break
		}
		time.Sleep(time.Second)
	}

	t.mu.Lock()
	for _, position := range t.positions() {
		if position.HasOrder() {
			t.cancelOrder(position)
		}
	}
	t.mu.Unlock()
	t.setState(models.StateStop)
}

// Halt stops the loop without waiting for open round trips to close.
func (t *Trader) Halt() {
	t.setState(models.StateStop)
}

// Snapshot returns a deep copy of the trader state for persistence and
// observability.
func (t *Trader) Snapshot() TraderSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Trader) snapshotLocked() TraderSnapshot {
	walletPair := models.WalletPair{}
	for asset, balance := range t.walletPair {
		walletPair[asset] = balance
	}
	snapshot := TraderSnapshot{
		Configuration: t.configuration,
		Rules:         t.rules,
		MarketPrices:  t.prices,
		WalletPair:    walletPair,
		LongPosition:  t.longPosition.Clone(),
		TradeRecords:  t.recorder.Records(),
		StateData: StateData{
			RuntimeState:      t.state,
			AllocatedCurrency: t.allocatedCurrency,
			ForceSell:         t.forceSell,
			LastBalanceEvent:  t.lastBalanceEvent,
			LastUpdateTime:    t.lastUpdateTime,
		},
	}
	if t.shortPosition != nil {
		snapshot.ShortPosition = t.shortPosition.Clone()
	}
	return snapshot
}
