package indicators

import (
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// Compute derives the named indicator values from the latest candle window.
// The window is most-recent-first as delivered by the feed.
func Compute(batch *models.CandleBatch) models.IndicatorSet {
	set := models.IndicatorSet{}
	if batch.Empty() {
		return set
	}

	series := Series(batch)
	closePrices := techan.NewClosePriceIndicator(series)
	macd := techan.NewMACDIndicator(closePrices, 12, 26)
	macdHist := techan.NewMACDHistogramIndicator(macd, 9)
	signal := techan.NewEMAIndicator(macd, 9)
	rsi := techan.NewRelativeStrengthIndexIndicator(closePrices, 14)
	sma50 := techan.NewSimpleMovingAverage(closePrices, 50)

	lastIndex := len(series.Candles) - 1
	set.MACD = macd.Calculate(lastIndex).Float()
	set.MACDSignal = signal.Calculate(lastIndex).Float()
	set.MACDHist = macdHist.Calculate(lastIndex).Float()
	set.RSI = rsi.Calculate(lastIndex).Float()
	set.SMA50 = sma50.Calculate(lastIndex).Float()

	if lastIndex > 0 {
		set.PrevMACD = macd.Calculate(lastIndex - 1).Float()
		set.PrevMACDSignal = signal.Calculate(lastIndex - 1).Float()
	}

	return set
}

// Series converts a most-recent-first candle batch into a techan time
// series in chronological order.
func Series(batch *models.CandleBatch) *techan.TimeSeries {
	series := techan.NewTimeSeries()

	interval, err := helpers.IntervalToDuration(batch.Interval)
	if err != nil {
		interval = time.Minute
	}

	for i := len(batch.Candles) - 1; i >= 0; i-- {
		c := batch.Candles[i]
		period := techan.NewTimePeriod(c.Time, interval)
		candle := techan.NewCandle(period)
		candle.OpenPrice = big.NewDecimal(c.Open)
		candle.ClosePrice = big.NewDecimal(c.Close)
		candle.MaxPrice = big.NewDecimal(c.High)
		candle.MinPrice = big.NewDecimal(c.Low)
		candle.Volume = big.NewDecimal(c.Volume)
		series.AddCandle(candle)
	}

	return series
}
