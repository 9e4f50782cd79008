package interfaces

import (
	"context"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

// OrderGateway places and cancels orders and manages margin loans.
// Implementations retry transient network and rate-limit failures internally
// with a fixed backoff; whatever still fails comes back as a
// models.GatewayError classified by kind.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error)
	CancelOrder(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) error
	CancelOCOOrder(ctx context.Context, symbol string) error
	GetOrderStatus(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) (models.OrderStatusType, error)

	// Borrow applies for a margin loan and returns the transaction id.
	Borrow(ctx context.Context, asset string, amount float64) (int64, error)
	Repay(ctx context.Context, asset string, amount float64) error
	// GetMarginDebt queries borrowed plus accrued interest for the asset,
	// always fresh from the account, never from a cache.
	GetMarginDebt(ctx context.Context, asset string) (float64, error)

	GetBalance(ctx context.Context, asset string) (models.AssetBalance, error)
}
