package models

// TradingType selects the account the trader operates on.
type TradingType string

// RunType separates simulated runs from runs placing real orders.
type RunType string

// RuntimeState is the trader loop state. STOP is terminal and cooperative:
// the loop observes it at the top of a tick and exits after finishing the
// tick in flight.
type RuntimeState string

const (
	TradingTypeSpot   TradingType = "SPOT"
	TradingTypeMargin TradingType = "MARGIN"

	RunTypeTest RunType = "TEST"
	RunTypeReal RunType = "REAL"

	StateSetup             RuntimeState = "SETUP"
	StateRun               RuntimeState = "RUN"
	StateStandby           RuntimeState = "STANDBY"
	StateForceStandby      RuntimeState = "FORCE_STANDBY"
	StateForcePause        RuntimeState = "FORCE_PAUSE"
	StateForcePreventBuy   RuntimeState = "FORCE_PREVENT_BUY"
	StatePauseInsufBalance RuntimeState = "PAUSE_INSUF_BALANCE"
	StateCheckOrders       RuntimeState = "CHECK_ORDERS"
	StateStop              RuntimeState = "STOP"
)

// Suspended reports whether the position managers should be skipped this
// tick. The feed keeps flowing while suspended; only order management stops.
func (s RuntimeState) Suspended() bool {
	switch s {
	case StateStandby, StateForceStandby, StateForcePause:
		return true
	}
	return false
}

// Configuration is the immutable per-market setup of a trader.
type Configuration struct {
	TradingType TradingType `json:"tradingType"`
	RunType     RunType     `json:"runType"`
	BaseAsset   string      `json:"baseAsset"`
	QuoteAsset  string      `json:"quoteAsset"`
	Symbol      string      `json:"symbol"`
	Interval    string      `json:"interval"`
}

// NewConfiguration builds the configuration for one market. The exchange
// symbol is the base asset followed by the quote asset, BTCUSDT style.
func NewConfiguration(tradingType TradingType, runType RunType, baseAsset string, quoteAsset string, interval string) Configuration {
	return Configuration{
		TradingType: tradingType,
		RunType:     runType,
		BaseAsset:   baseAsset,
		QuoteAsset:  quoteAsset,
		Symbol:      baseAsset + quoteAsset,
		Interval:    interval,
	}
}

// PrintPair is the readable QUOTE-BASE form used in logs.
func (c Configuration) PrintPair() string {
	return c.QuoteAsset + "-" + c.BaseAsset
}
