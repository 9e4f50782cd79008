package models

import (
	"fmt"
	"time"
)

// TradeRecord is one completed order, appended by the trader when a fill
// resolves. Records are immutable once appended.
type TradeRecord struct {
	Time        time.Time       `json:"time"`
	Price       float64         `json:"price"`
	Quantity    float64         `json:"quantity"`
	Description string          `json:"description"`
	Side        OrderSide       `json:"side"`
	Direction   MarketDirection `json:"direction"`
}

// TradeRecorder is the append-only record of completed orders for one
// market. Sides alternate strictly BUY, SELL, BUY, ... starting from BUY; an
// append violating the alternation is refused.
type TradeRecorder struct {
	records []TradeRecord
}

// NewTradeRecorder returns an empty recorder.
func NewTradeRecorder() *TradeRecorder {
	return &TradeRecorder{}
}

// Restore replaces the record list, used when resuming from a snapshot.
func (tr *TradeRecorder) Restore(records []TradeRecord) {
	tr.records = append([]TradeRecord(nil), records...)
}

// Append adds a completed order to the record.
func (tr *TradeRecorder) Append(record TradeRecord) error {
	if len(tr.records) == 0 {
		if record.Side != BUY {
			return fmt.Errorf("trade record must start with a BUY, got %s", record.Side)
		}
	} else if last := tr.records[len(tr.records)-1]; last.Side == record.Side {
		return fmt.Errorf("trade record sides must alternate, got %s twice", record.Side)
	}
	tr.records = append(tr.records, record)
	return nil
}

// Records returns a copy of the record list.
func (tr *TradeRecorder) Records() []TradeRecord {
	return append([]TradeRecord(nil), tr.records...)
}

// Len is the number of recorded orders.
func (tr *TradeRecorder) Len() int {
	return len(tr.records)
}

// LastBuy returns the most recent BUY record.
func (tr *TradeRecorder) LastBuy() (TradeRecord, bool) {
	for i := len(tr.records) - 1; i >= 0; i-- {
		if tr.records[i].Side == BUY {
			return tr.records[i], true
		}
	}
	return TradeRecord{}, false
}
