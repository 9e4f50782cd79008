package models

// Rules are the exchange quantization constraints of one symbol, immutable
// after setup. LotSizeDigits bounds quantity decimals, TickSizeDigits bounds
// price decimals, MinNotional is the smallest allowed quantity*price.
type Rules struct {
	LotSizeDigits  int     `json:"lotSizeDigits"`
	TickSizeDigits int     `json:"tickSizeDigits"`
	MinNotional    float64 `json:"minNotional"`
}
