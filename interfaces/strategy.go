package interfaces

import "gitlab.com/aoterocom/AOMarginbot/models"

type (
	// Strategy produces entry and exit intents for a position. Both
	// functions are pure over their inputs: the trader calls EntryIntent
	// while the position's order side is BUY and ExitIntent while it is
	// SELL, and acts on the returned intent.
	Strategy interface {
		EntryIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent
		ExitIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent
	}
)
