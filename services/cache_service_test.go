package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

func TestCacheSaveAndLoad(t *testing.T) {
	cache, err := NewCacheService(t.TempDir())
	assert.Nil(t, err)

	configuration := models.NewConfiguration(models.TradingTypeMargin, models.RunTypeReal, "ETH", "EUR", "1h")
	position := models.NewPosition(models.MarketDirectionLong, 1000)
	position.OrderSide = models.SELL
	position.TokensHolding = 2.5
	orderID := int64(42)
	position.OrderID = &orderID

	snapshot := TraderSnapshot{
		Configuration: configuration,
		Rules:         models.Rules{LotSizeDigits: 4, TickSizeDigits: 2, MinNotional: 10},
		LongPosition:  position,
		ShortPosition: models.NewPosition(models.MarketDirectionShort, 1000),
		TradeRecords: []models.TradeRecord{
			{Price: 100, Quantity: 2.5, Side: models.BUY, Direction: models.MarketDirectionLong},
		},
		StateData: StateData{RuntimeState: models.StateRun, AllocatedCurrency: 1000},
	}

	assert.Nil(t, cache.Save(snapshot))

	loaded, err := cache.Load(configuration.Symbol)
	assert.Nil(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, models.SELL, loaded.LongPosition.OrderSide)
	assert.Equal(t, 2.5, loaded.LongPosition.TokensHolding)
	assert.Equal(t, int64(42), *loaded.LongPosition.OrderID)
	assert.Equal(t, models.MarketDirectionShort, loaded.ShortPosition.Direction)
	assert.Len(t, loaded.TradeRecords, 1)
	assert.Equal(t, 1000.0, loaded.StateData.AllocatedCurrency)
}

func TestCacheLoadMissingSymbol(t *testing.T) {
	cache, err := NewCacheService(t.TempDir())
	assert.Nil(t, err)

	loaded, err := cache.Load("ETHEUR")
	assert.Nil(t, err)
	assert.Nil(t, loaded)
}
