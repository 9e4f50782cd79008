package database

import (
	"time"

	"gorm.io/gorm"
)

// RoundTrip is one completed BUY/SELL pair with its realized outcome.
type RoundTrip struct {
	gorm.Model
	Symbol          string
	Direction       string
	BuyTime         time.Time
	BuyPrice        float64
	BuyQuantity     float64
	BuyDescription  string
	SellTime        time.Time
	SellPrice       float64
	SellQuantity    float64
	SellDescription string
	Outcome         float64
	Fee             float64
}
