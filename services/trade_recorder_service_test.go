package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

func TestRecordRoundTripWritesOrderLog(t *testing.T) {
	dir := t.TempDir()
	recorder := NewTradeRecorderService("ETHEUR", dir, nil)

	buyTime := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	buy := models.TradeRecord{
		Time: buyTime, Price: 100, Quantity: 2,
		Description: "long limit entry", Side: models.BUY, Direction: models.MarketDirectionLong,
	}
	sell := models.TradeRecord{
		Time: buyTime.Add(time.Hour), Price: 110, Quantity: 2,
		Description: "long exit signal", Side: models.SELL, Direction: models.MarketDirectionLong,
	}

	recorder.RecordRoundTrip(models.MarketDirectionLong, buy, sell, 20)

	content, err := os.ReadFile(filepath.Join(dir, "order_ETHEUR_log.txt"))
	assert.Nil(t, err)
	assert.Equal(t,
		"2022-03-01 10:00:00, 100.00000000, 2.00000000, long limit entry, "+
			"2022-03-01 11:00:00, 110.00000000, 2.00000000, long exit signal, 20.00000000\n",
		string(content))
}

func TestRestoreRebuildsOutcomes(t *testing.T) {
	recorder := NewTradeRecorderService("ETHEUR", t.TempDir(), nil)

	recorder.Restore([]models.TradeRecord{
		{Price: 100, Quantity: 1, Side: models.BUY, Direction: models.MarketDirectionLong},
		{Price: 110, Quantity: 1, Side: models.SELL, Direction: models.MarketDirectionLong},
		{Price: 120, Quantity: 1, Side: models.BUY, Direction: models.MarketDirectionLong},
	})

	assert.Len(t, recorder.Records(), 3)
	assert.Equal(t, []float64{10}, recorder.outcomes)

	lastBuy, ok := recorder.LastBuy()
	assert.True(t, ok)
	assert.Equal(t, 120.0, lastBuy.Price)
}

func TestRoundTripOutcomeInvertsForShorts(t *testing.T) {
	longBuy := models.TradeRecord{Price: 100, Direction: models.MarketDirectionLong}
	longSell := models.TradeRecord{Price: 110, Quantity: 2, Direction: models.MarketDirectionLong}
	assert.Equal(t, 20.0, roundTripOutcome(longBuy, longSell))

	// a short enters selling high and exits buying low
	shortEntry := models.TradeRecord{Price: 110, Direction: models.MarketDirectionShort}
	shortExit := models.TradeRecord{Price: 100, Quantity: 2, Direction: models.MarketDirectionShort}
	assert.Equal(t, 20.0, roundTripOutcome(shortEntry, shortExit))
}
