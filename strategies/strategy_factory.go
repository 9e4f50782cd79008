package strategies

import (
	"fmt"

	"gitlab.com/aoterocom/AOMarginbot/interfaces"
)

func StrategyFactory(strategyName string, stopLossPct float64) (interfaces.Strategy, error) {

	switch strategyName {
	case "MACDStrategy":
		return interfaces.Strategy(NewMACDStrategy()), nil
	case "MACDLimitStrategy":
		return interfaces.Strategy(NewMACDLimitStrategy(stopLossPct)), nil
	default:
		return nil, fmt.Errorf("%s is not a known strategy", strategyName)
	}

}
