package strategies

import (
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// MACDStrategy is the stock condition set: enter a long when the MACD line
// rises above its signal line with a positive histogram, exit on the
// opposite crossing. Short conditions are the mirror image. Entries and
// exits are emitted as SIGNAL intents executed as market orders priced off
// the book so the trader's debounce has a stable reference price.
type MACDStrategy struct{}

func NewMACDStrategy() *MACDStrategy {
	return &MACDStrategy{}
}

func (s *MACDStrategy) EntryIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	if position.Direction == models.MarketDirectionLong {
		if indicators.MACDHist > 0 && indicators.MACD > indicators.PrevMACD &&
			indicators.MACD > indicators.MACDSignal {
			return models.OrderIntent{
				Type:        models.OrderTypeSignal,
				Placement:   models.OrderTypeMarket,
				Price:       prices.BidPrice,
				Description: "long entry signal",
			}
		}
		return models.Wait()
	}

	if indicators.MACDHist < 0 && indicators.MACD < indicators.PrevMACD &&
		indicators.MACD < indicators.MACDSignal {
		return models.OrderIntent{
			Type:        models.OrderTypeSignal,
			Placement:   models.OrderTypeMarket,
			Price:       prices.AskPrice,
			Description: "short entry signal",
		}
	}
	return models.Wait()
}

func (s *MACDStrategy) ExitIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	if position.Direction == models.MarketDirectionLong {
		if indicators.MACD < indicators.MACDSignal {
			return models.OrderIntent{
				Type:        models.OrderTypeSignal,
				Placement:   models.OrderTypeMarket,
				Price:       prices.AskPrice,
				Description: "long exit signal",
			}
		}
		return models.Wait()
	}

	if indicators.MACD > indicators.MACDSignal {
		return models.OrderIntent{
			Type:        models.OrderTypeSignal,
			Placement:   models.OrderTypeMarket,
			Price:       prices.BidPrice,
			Description: "short exit signal",
		}
	}
	return models.Wait()
}
