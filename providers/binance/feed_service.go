package binance

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

const (
	candleWindowSize  = 500
	depthLevels       = "20"
	feedBufferSize    = 256
	keepaliveInterval = 30 * time.Minute
)

// BinanceFeedService streams candles, partial depth and user data events
// for one symbol into a buffered channel of immutable snapshots. Each
// websocket monitor reconnects on its own with exponential backoff.
type BinanceFeedService struct {
	binanceClient *binance.Client
	symbol        string
	interval      string
	userStream    bool

	events   chan models.FeedEvent
	sequence int64

	mu      sync.Mutex
	candles []models.Candle

	done chan struct{}
}

// NewBinanceFeedService wires a feed for symbol at the given candle
// interval. userStream enables the execution report and balance monitors,
// only real runs need them.
func NewBinanceFeedService(client *binance.Client, symbol string, interval string, userStream bool) *BinanceFeedService {
	return &BinanceFeedService{
		binanceClient: client,
		symbol:        symbol,
		interval:      interval,
		userStream:    userStream,
		events:        make(chan models.FeedEvent, feedBufferSize),
		done:          make(chan struct{}),
	}
}

func (fs *BinanceFeedService) Events() <-chan models.FeedEvent {
	return fs.events
}

// Start backfills the candle window over REST, then launches the websocket
// monitors.
func (fs *BinanceFeedService) Start() error {
	if err := fs.backfill(); err != nil {
		return err
	}

	go fs.monitor("kline", fs.serveKlines)
	go fs.monitor("depth", fs.serveDepth)
	if fs.userStream {
		go fs.monitor("user data", fs.serveUserData)
	}
	return nil
}

func (fs *BinanceFeedService) Stop() {
	close(fs.done)
}

func (fs *BinanceFeedService) stopped() bool {
	select {
	case <-fs.done:
		return true
	default:
		return false
	}
}

func (fs *BinanceFeedService) backfill() error {
	klines, err := fs.binanceClient.NewKlinesService().
		Symbol(fs.symbol).Interval(fs.interval).Limit(candleWindowSize).Do(context.Background())
	if err != nil {
		return mapError(err)
	}

	fs.mu.Lock()
	fs.candles = fs.candles[:0]
	for _, kline := range klines {
		fs.candles = append(fs.candles, models.Candle{
			Time:   time.Unix(kline.OpenTime/1000, 0),
			Open:   parseFloat(kline.Open),
			High:   parseFloat(kline.High),
			Low:    parseFloat(kline.Low),
			Close:  parseFloat(kline.Close),
			Volume: parseFloat(kline.Volume),
		})
	}
	batch := fs.batchLocked()
	fs.mu.Unlock()

	fs.publish(models.FeedEvent{Candles: batch})
	helpers.Logger.Infoln(fmt.Sprintf("%s: backfilled %d candles", fs.symbol, len(batch.Candles)))
	return nil
}

// monitor keeps a websocket serve function alive, reconnecting with
// exponential backoff until the feed stops.
func (fs *BinanceFeedService) monitor(name string, serve func() (chan struct{}, chan struct{}, error)) {
	wait := &backoff.Backoff{Min: time.Second, Max: time.Minute, Factor: 2, Jitter: true}
	for !fs.stopped() {
		doneC, stopC, err := serve()
		if err != nil {
			duration := wait.Duration()
			helpers.Logger.Warnln(fmt.Sprintf("%s: %s stream connect failed (%s), retrying in %s",
				fs.symbol, name, err.Error(), duration))
			time.Sleep(duration)
			continue
		}
		wait.Reset()
		select {
		case <-doneC:
			helpers.Logger.Warnln(fmt.Sprintf("%s: %s stream disconnected, reconnecting", fs.symbol, name))
		case <-fs.done:
			close(stopC)
			return
		}
	}
}

func (fs *BinanceFeedService) serveKlines() (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(fs.symbol, fs.interval, fs.handleKline, fs.handleStreamError)
}

func (fs *BinanceFeedService) serveDepth() (chan struct{}, chan struct{}, error) {
	return binance.WsPartialDepthServe(fs.symbol, depthLevels, fs.handleDepth, fs.handleStreamError)
}

func (fs *BinanceFeedService) serveUserData() (chan struct{}, chan struct{}, error) {
	listenKey, err := fs.binanceClient.NewStartUserStreamService().Do(context.Background())
	if err != nil {
		return nil, nil, mapError(err)
	}
	go fs.keepalive(listenKey)
	return binance.WsUserDataServe(listenKey, fs.handleUserData, fs.handleStreamError)
}

func (fs *BinanceFeedService) keepalive(listenKey string) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := fs.binanceClient.NewKeepaliveUserStreamService().
				ListenKey(listenKey).Do(context.Background())
			if err != nil {
				helpers.Logger.Warnln(fmt.Sprintf("%s: listen key keepalive failed: %s",
					fs.symbol, err.Error()))
			}
		case <-fs.done:
			return
		}
	}
}

func (fs *BinanceFeedService) handleKline(event *binance.WsKlineEvent) {
	candle := models.Candle{
		Time:   time.Unix(event.Kline.StartTime/1000, 0),
		Open:   parseFloat(event.Kline.Open),
		High:   parseFloat(event.Kline.High),
		Low:    parseFloat(event.Kline.Low),
		Close:  parseFloat(event.Kline.Close),
		Volume: parseFloat(event.Kline.Volume),
	}

	fs.mu.Lock()
	last := len(fs.candles) - 1
	if last >= 0 && fs.candles[last].Time.Equal(candle.Time) {
		fs.candles[last] = candle
	} else {
		fs.candles = append(fs.candles, candle)
		if len(fs.candles) > candleWindowSize {
			fs.candles = fs.candles[len(fs.candles)-candleWindowSize:]
		}
	}
	batch := fs.batchLocked()
	fs.mu.Unlock()

	fs.publish(models.FeedEvent{Candles: batch})
}

// batchLocked snapshots the window most recent first.
func (fs *BinanceFeedService) batchLocked() *models.CandleBatch {
	candles := make([]models.Candle, len(fs.candles))
	for i, candle := range fs.candles {
		candles[len(fs.candles)-1-i] = candle
	}
	return &models.CandleBatch{Interval: fs.interval, Candles: candles}
}

func (fs *BinanceFeedService) handleDepth(event *binance.WsPartialDepthEvent) {
	depth := &models.MarketDepth{}
	for _, bid := range event.Bids {
		depth.Bids = append(depth.Bids, models.PriceLevel{
			Price:    parseFloat(bid.Price),
			Quantity: parseFloat(bid.Quantity),
		})
	}
	for _, ask := range event.Asks {
		depth.Asks = append(depth.Asks, models.PriceLevel{
			Price:    parseFloat(ask.Price),
			Quantity: parseFloat(ask.Quantity),
		})
	}
	fs.publish(models.FeedEvent{Depth: depth})
}

func (fs *BinanceFeedService) handleUserData(event *binance.WsUserDataEvent) {
	switch event.Event {
	case binance.UserDataEventTypeExecutionReport:
		if event.OrderUpdate.Symbol != fs.symbol {
			return
		}
		fs.publish(models.FeedEvent{Report: executionReport(event.OrderUpdate)})
	case binance.UserDataEventTypeOutboundAccountPosition:
		balances := models.WalletPair{}
		for _, update := range event.AccountUpdate.WsAccountUpdates {
			balances[update.Asset] = models.AssetBalance{
				Free:   parseFloat(update.Free),
				Locked: parseFloat(update.Locked),
			}
		}
		fs.publish(models.FeedEvent{Balance: &models.BalanceUpdate{
			EventTime: event.Time,
			Balances:  balances,
		}})
	}
}

func executionReport(update binance.WsOrderUpdate) *models.ExecutionReport {
	filledQuantity := parseFloat(update.FilledVolume)
	fillPrice := parseFloat(update.LatestPrice)
	if filledQuantity > 0 {
		if filledQuoteVolume := parseFloat(update.FilledQuoteVolume); filledQuoteVolume > 0 {
			fillPrice = filledQuoteVolume / filledQuantity
		}
	}
	return &models.ExecutionReport{
		OrderID:      update.Id,
		Side:         models.OrderSide(update.Side),
		Status:       models.OrderStatusType(update.Status),
		Quantity:     parseFloat(update.Volume),
		FillQuantity: filledQuantity,
		FillPrice:    fillPrice,
	}
}

func (fs *BinanceFeedService) handleStreamError(err error) {
	helpers.Logger.Warnln(fmt.Sprintf("%s: stream error: %s", fs.symbol, err.Error()))
}

// publish hands the event to the trader without ever blocking a websocket
// handler. When the buffer is full the oldest snapshot is dropped, a newer
// one always supersedes it.
func (fs *BinanceFeedService) publish(event models.FeedEvent) {
	if fs.stopped() {
		return
	}
	event.Sequence = atomic.AddInt64(&fs.sequence, 1)
	for {
		select {
		case fs.events <- event:
			return
		default:
			select {
			case <-fs.events:
			default:
			}
		}
	}
}
