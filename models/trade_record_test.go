package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeRecorderAlternation(t *testing.T) {
	recorder := NewTradeRecorder()

	// the first record must be a BUY
	assert.NotNil(t, recorder.Append(TradeRecord{Side: SELL}))
	assert.Equal(t, 0, recorder.Len())

	assert.Nil(t, recorder.Append(TradeRecord{Side: BUY, Price: 100}))
	assert.NotNil(t, recorder.Append(TradeRecord{Side: BUY, Price: 101}))
	assert.Nil(t, recorder.Append(TradeRecord{Side: SELL, Price: 110}))
	assert.NotNil(t, recorder.Append(TradeRecord{Side: SELL, Price: 111}))
	assert.Equal(t, 2, recorder.Len())
}

func TestTradeRecorderLastBuy(t *testing.T) {
	recorder := NewTradeRecorder()

	_, ok := recorder.LastBuy()
	assert.False(t, ok)

	assert.Nil(t, recorder.Append(TradeRecord{Side: BUY, Price: 100, Quantity: 2}))
	assert.Nil(t, recorder.Append(TradeRecord{Side: SELL, Price: 110, Quantity: 2}))
	assert.Nil(t, recorder.Append(TradeRecord{Side: BUY, Price: 105, Quantity: 3}))

	lastBuy, ok := recorder.LastBuy()
	assert.True(t, ok)
	assert.Equal(t, 105.0, lastBuy.Price)
	assert.Equal(t, 3.0, lastBuy.Quantity)
}

func TestRecordsReturnsACopy(t *testing.T) {
	recorder := NewTradeRecorder()
	assert.Nil(t, recorder.Append(TradeRecord{Side: BUY, Price: 100}))

	records := recorder.Records()
	records[0].Price = 0

	fresh := recorder.Records()
	assert.Equal(t, 100.0, fresh[0].Price)
}
