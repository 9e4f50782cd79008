package paper

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

// Placeholder balance granted to every asset on a test run.
const placeholderFree = 1000.0

// PaperService is the order gateway for test runs. Orders are acknowledged
// locally and never reach an exchange, execution is simulated by the trader
// against the market feed.
type PaperService struct {
	mu         sync.Mutex
	nextOrder  int64
	nextTranID int64
	loans      map[string]float64
}

func NewPaperService() *PaperService {
	return &PaperService{
		nextOrder:  1,
		nextTranID: 1,
		loans:      map[string]float64{},
	}
}

func (ps *PaperService) PlaceOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	orderID := ps.nextOrder
	ps.nextOrder++
	return models.OrderResult{
		OrderID:       orderID,
		ClientOrderID: uuid.New().String(),
		Price:         request.Price,
		TestQuantity:  request.Quantity,
	}, nil
}

func (ps *PaperService) CancelOrder(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) error {
	return nil
}

func (ps *PaperService) CancelOCOOrder(ctx context.Context, symbol string) error {
	return nil
}

func (ps *PaperService) GetOrderStatus(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) (models.OrderStatusType, error) {
	return models.OrderStatusTypeNew, nil
}

func (ps *PaperService) Borrow(ctx context.Context, asset string, amount float64) (int64, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	tranID := ps.nextTranID
	ps.nextTranID++
	ps.loans[asset] += amount
	return tranID, nil
}

func (ps *PaperService) Repay(ctx context.Context, asset string, amount float64) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.loans[asset] -= amount
	if ps.loans[asset] < 0 {
		ps.loans[asset] = 0
	}
	return nil
}

func (ps *PaperService) GetMarginDebt(ctx context.Context, asset string) (float64, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.loans[asset], nil
}

// GetBalance hands out the fixed placeholder balance for any asset.
func (ps *PaperService) GetBalance(ctx context.Context, asset string) (models.AssetBalance, error) {
	return models.AssetBalance{Free: placeholderFree}, nil
}
