package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

// TruncateQuantity formats quantity as a decimal string and truncates the
// fractional part to digits places. Truncation, never rounding: a rounded-up
// quantity could exceed the wallet balance it was computed from.
func TruncateQuantity(quantity float64, digits int) float64 {
	if quantity <= 0 {
		return 0
	}
	formatted := strconv.FormatFloat(quantity, 'f', -1, 64)
	parts := strings.SplitN(formatted, ".", 2)
	if len(parts) == 1 || digits <= 0 {
		truncated, _ := strconv.ParseFloat(parts[0], 64)
		return truncated
	}
	fraction := parts[1]
	if len(fraction) > digits {
		fraction = fraction[:digits]
	}
	truncated, _ := strconv.ParseFloat(parts[0]+"."+fraction, 64)
	return truncated
}

// QuantizePrice formats price to the symbol's tick size precision.
func QuantizePrice(price float64, digits int) float64 {
	if digits < 0 {
		digits = 0
	}
	quantized, _ := strconv.ParseFloat(fmt.Sprintf("%.*f", digits, price), 64)
	return quantized
}

// orderQuantity computes the quantity for the order being placed on
// position. Entries spend the allocated quote currency at the bid; long
// exits sell back the recorded entry quantity (or the full holding under
// forced liquidation); short covers requery the margin debt fresh so accrued
// interest is not under-covered.
func (t *Trader) orderQuantity(position *models.Position) (float64, error) {
	var quantity float64

	switch {
	case position.OrderSide == models.BUY:
		if t.prices.BidPrice == 0 {
			return 0, nil
		}
		quantity = position.CurrencyLeft / t.prices.BidPrice

	case position.Direction == models.MarketDirectionLong:
		if t.forceSell {
			if t.configuration.RunType == models.RunTypeReal {
				quantity = t.walletPair.Free(t.configuration.BaseAsset)
			} else {
				quantity = position.TokensHolding
			}
		} else if record, ok := t.recorder.LastBuy(); ok {
			quantity = record.Quantity
		} else {
			quantity = position.TokensHolding
		}

	default: // short cover
		if t.configuration.RunType == models.RunTypeReal {
			debt, err := t.gateway.GetMarginDebt(context.Background(), t.configuration.BaseAsset)
			if err != nil {
				return 0, err
			}
			quantity = debt
		} else {
			quantity = position.TokensHolding
		}
	}

	return TruncateQuantity(quantity, t.rules.LotSizeDigits), nil
}
