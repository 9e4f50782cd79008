package models

// PriceLevel is one order book level.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// MarketDepth is an immutable top-of-book snapshot published by the feed.
type MarketDepth struct {
	Asks []PriceLevel `json:"asks"`
	Bids []PriceLevel `json:"bids"`
}

// Empty reports whether either side of the book is missing.
func (d *MarketDepth) Empty() bool {
	return d == nil || len(d.Asks) == 0 || len(d.Bids) == 0
}

// LowerAskPrice is the best ask.
func (d *MarketDepth) LowerAskPrice() float64 {
	if len(d.Asks) == 0 {
		return 0
	}
	return d.Asks[0].Price
}

// HigherBidPrice is the best bid.
func (d *MarketDepth) HigherBidPrice() float64 {
	if len(d.Bids) == 0 {
		return 0
	}
	return d.Bids[0].Price
}

// Spread is the ask/bid gap at the top of the book.
func (d *MarketDepth) Spread() float64 {
	return d.LowerAskPrice() - d.HigherBidPrice()
}

// CenterPrice is the book midpoint.
func (d *MarketDepth) CenterPrice() float64 {
	return d.LowerAskPrice() - d.Spread()/2
}
