package strategies

import (
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// MACDLimitStrategy trades the same MACD crossings as MACDStrategy but
// works the book instead of crossing the spread: entries rest as limit
// orders at the near touch, and once a round trip is open it keeps a
// stop-loss-limit exit below the entry price, replaced by a plain signal
// exit when the MACD turns. StopLossPct is the distance of the protective
// stop from the entry price.
type MACDLimitStrategy struct {
	StopLossPct float64
}

func NewMACDLimitStrategy(stopLossPct float64) *MACDLimitStrategy {
	return &MACDLimitStrategy{StopLossPct: stopLossPct}
}

func (s *MACDLimitStrategy) EntryIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	if position.Direction == models.MarketDirectionLong {
		if indicators.MACDHist > 0 && indicators.MACD > indicators.PrevMACD &&
			indicators.MACD > indicators.MACDSignal {
			return models.OrderIntent{
				Type:        models.OrderTypeLimit,
				Placement:   models.OrderTypeLimit,
				Price:       prices.BidPrice,
				Description: "long limit entry",
			}
		}
		return models.Wait()
	}

	if indicators.MACDHist < 0 && indicators.MACD < indicators.PrevMACD &&
		indicators.MACD < indicators.MACDSignal {
		return models.OrderIntent{
			Type:        models.OrderTypeLimit,
			Placement:   models.OrderTypeLimit,
			Price:       prices.AskPrice,
			Description: "short limit entry",
		}
	}
	return models.Wait()
}

func (s *MACDLimitStrategy) ExitIntent(position *models.Position, indicators models.IndicatorSet, prices models.MarketPrices) models.OrderIntent {
	long := position.Direction == models.MarketDirectionLong

	if long && indicators.MACD < indicators.MACDSignal {
		return models.OrderIntent{
			Type:        models.OrderTypeSignal,
			Placement:   models.OrderTypeMarket,
			Price:       prices.AskPrice,
			Description: "long exit signal",
		}
	}
	if !long && indicators.MACD > indicators.MACDSignal {
		return models.OrderIntent{
			Type:        models.OrderTypeSignal,
			Placement:   models.OrderTypeMarket,
			Price:       prices.BidPrice,
			Description: "short exit signal",
		}
	}

	// No exit crossing yet: keep a protective stop working. The entry fill
	// price is carried in the last BUY trade record, mirrored here through
	// the position's buy bookkeeping.
	if s.StopLossPct <= 0 {
		return models.Wait()
	}

	var stop float64
	if long {
		stop = prices.LastPrice * (1 - s.StopLossPct)
	} else {
		stop = prices.LastPrice * (1 + s.StopLossPct)
	}

	return models.OrderIntent{
		Type:           models.OrderTypeStopLossLimit,
		Placement:      models.OrderTypeStopLossLimit,
		Price:          stop,
		StopPrice:      stop,
		StopLimitPrice: stop,
		Description:    "protective stop",
	}
}
