package binance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/jpillora/backoff"

	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// BinanceService implements the order gateway against the Binance spot and
// cross margin REST APIs.
type BinanceService struct {
	binanceClient *binance.Client
	maxAttempts   int
}

func NewBinanceService() *BinanceService {
	return &BinanceService{
		binanceClient: binance.NewClient(os.Getenv("apiKey"), os.Getenv("apiSecret")),
		maxAttempts:   3,
	}
}

func (bs *BinanceService) Client() *binance.Client {
	return bs.binanceClient
}

func (bs *BinanceService) PlaceOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error) {
	var result models.OrderResult
	err := bs.retry(func() error {
		var callErr error
		if request.TradingType == models.TradingTypeMargin {
			result, callErr = bs.placeMarginOrder(ctx, request)
		} else {
			result, callErr = bs.placeSpotOrder(ctx, request)
		}
		return callErr
	})
	return result, err
}

func (bs *BinanceService) placeSpotOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error) {
	service := bs.binanceClient.NewCreateOrderService().
		Symbol(request.Symbol).
		Side(binance.SideType(request.Side)).
		Type(binance.OrderType(request.Type)).
		Quantity(formatFloat(request.Quantity))
	if request.Price != 0 {
		service.Price(formatFloat(request.Price))
	}
	if request.StopPrice != 0 {
		service.StopPrice(formatFloat(request.StopPrice))
	}
	if request.TimeInForce != "" {
		service.TimeInForce(binance.TimeInForceType(request.TimeInForce))
	}
	response, err := service.Do(ctx)
	if err != nil {
		return models.OrderResult{}, mapError(err)
	}

	result := models.OrderResult{
		OrderID:       response.OrderID,
		ClientOrderID: response.ClientOrderID,
		Price:         parseFloat(response.Price),
	}
	for _, fill := range response.Fills {
		result.Fills = append(result.Fills, models.Fill{
			Price:    parseFloat(fill.Price),
			Quantity: parseFloat(fill.Quantity),
		})
	}
	return result, nil
}

func (bs *BinanceService) placeMarginOrder(ctx context.Context, request models.OrderRequest) (models.OrderResult, error) {
	service := bs.binanceClient.NewCreateMarginOrderService().
		Symbol(request.Symbol).
		Side(binance.SideType(request.Side)).
		Type(binance.OrderType(request.Type)).
		Quantity(formatFloat(request.Quantity))
	if request.Price != 0 {
		service.Price(formatFloat(request.Price))
	}
	if request.StopPrice != 0 {
		service.StopPrice(formatFloat(request.StopPrice))
	}
	if request.TimeInForce != "" {
		service.TimeInForce(binance.TimeInForceType(request.TimeInForce))
	}
	response, err := service.Do(ctx)
	if err != nil {
		return models.OrderResult{}, mapError(err)
	}
	return models.OrderResult{
		OrderID:       response.OrderID,
		ClientOrderID: response.ClientOrderID,
		Price:         parseFloat(response.Price),
	}, nil
}

func (bs *BinanceService) CancelOrder(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) error {
	return bs.retry(func() error {
		var err error
		if tradingType == models.TradingTypeMargin {
			_, err = bs.binanceClient.NewCancelMarginOrderService().
				Symbol(symbol).OrderID(orderID).Do(ctx)
		} else {
			_, err = bs.binanceClient.NewCancelOrderService().
				Symbol(symbol).OrderID(orderID).Do(ctx)
		}
		if err != nil {
			return mapError(err)
		}
		return nil
	})
}

// CancelOCOOrder cancels every resting order of the symbol. OCO legs share
// a list id, cancelling the open orders drops both.
func (bs *BinanceService) CancelOCOOrder(ctx context.Context, symbol string) error {
	return bs.retry(func() error {
		_, err := bs.binanceClient.NewCancelOpenOrdersService().Symbol(symbol).Do(ctx)
		if err != nil {
			return mapError(err)
		}
		return nil
	})
}

func (bs *BinanceService) GetOrderStatus(ctx context.Context, tradingType models.TradingType, symbol string, orderID int64) (models.OrderStatusType, error) {
	var status models.OrderStatusType
	err := bs.retry(func() error {
		if tradingType == models.TradingTypeMargin {
			order, err := bs.binanceClient.NewGetMarginOrderService().
				Symbol(symbol).OrderID(orderID).Do(ctx)
			if err != nil {
				return mapError(err)
			}
			status = models.OrderStatusType(order.Status)
			return nil
		}
		order, err := bs.binanceClient.NewGetOrderService().
			Symbol(symbol).OrderID(orderID).Do(ctx)
		if err != nil {
			return mapError(err)
		}
		status = models.OrderStatusType(order.Status)
		return nil
	})
	return status, err
}

func (bs *BinanceService) Borrow(ctx context.Context, asset string, amount float64) (int64, error) {
	var tranID int64
	err := bs.retry(func() error {
		response, err := bs.binanceClient.NewMarginLoanService().
			Asset(asset).Amount(formatFloat(amount)).Do(ctx)
		if err != nil {
			return mapError(err)
		}
		tranID = response.TranID
		return nil
	})
	return tranID, err
}

func (bs *BinanceService) Repay(ctx context.Context, asset string, amount float64) error {
	return bs.retry(func() error {
		_, err := bs.binanceClient.NewMarginRepayService().
			Asset(asset).Amount(formatFloat(amount)).Do(ctx)
		if err != nil {
			return mapError(err)
		}
		return nil
	})
}

// GetMarginDebt returns the outstanding borrowed amount plus accrued
// interest for asset on the cross margin account.
func (bs *BinanceService) GetMarginDebt(ctx context.Context, asset string) (float64, error) {
	var debt float64
	err := bs.retry(func() error {
		account, err := bs.binanceClient.NewGetMarginAccountService().Do(ctx)
		if err != nil {
			return mapError(err)
		}
		for _, userAsset := range account.UserAssets {
			if userAsset.Asset == asset {
				debt = parseFloat(userAsset.Borrowed) + parseFloat(userAsset.Interest)
				return nil
			}
		}
		debt = 0
		return nil
	})
	return debt, err
}

func (bs *BinanceService) GetBalance(ctx context.Context, asset string) (models.AssetBalance, error) {
	var balance models.AssetBalance
	err := bs.retry(func() error {
		account, err := bs.binanceClient.NewGetAccountService().Do(ctx)
		if err != nil {
			return mapError(err)
		}
		for _, accountBalance := range account.Balances {
			if accountBalance.Asset == asset {
				balance = models.AssetBalance{
					Free:   parseFloat(accountBalance.Free),
					Locked: parseFloat(accountBalance.Locked),
				}
				return nil
			}
		}
		balance = models.AssetBalance{}
		return nil
	})
	return balance, err
}

// GetRules fetches the symbol trading rules from the exchange info
// endpoint: lot and tick precision plus the minimum notional.
func (bs *BinanceService) GetRules(ctx context.Context, symbol string) (models.Rules, error) {
	var rules models.Rules
	err := bs.retry(func() error {
		info, err := bs.binanceClient.NewExchangeInfoService().Symbol(symbol).Do(ctx)
		if err != nil {
			return mapError(err)
		}
		for _, symbolInfo := range info.Symbols {
			if symbolInfo.Symbol != symbol {
				continue
			}
			if filter := symbolInfo.LotSizeFilter(); filter != nil {
				rules.LotSizeDigits = stepDigits(filter.StepSize)
			}
			if filter := symbolInfo.PriceFilter(); filter != nil {
				rules.TickSizeDigits = stepDigits(filter.TickSize)
			}
			if filter := symbolInfo.MinNotionalFilter(); filter != nil {
				rules.MinNotional = parseFloat(filter.MinNotional)
			}
			return nil
		}
		return models.NewGatewayError(models.GatewayRejected, 0,
			fmt.Sprintf("symbol %s not found in exchange info", symbol))
	})
	return rules, err
}

// retry re-runs transient failures with exponential backoff. Rejections and
// business errors come back immediately.
func (bs *BinanceService) retry(call func() error) error {
	wait := &backoff.Backoff{Min: 500 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}
	var err error
	for attempt := 0; attempt < bs.maxAttempts; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		gatewayErr, ok := models.AsGatewayError(err)
		if !ok || (gatewayErr.Kind != models.GatewayNetworkError && gatewayErr.Kind != models.GatewayRateLimited) {
			return err
		}
		duration := wait.Duration()
		helpers.Logger.Warnln(fmt.Sprintf("Binance call failed (%s), retrying in %s", err.Error(), duration))
		time.Sleep(duration)
	}
	return err
}

func mapError(err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return models.NewGatewayError(models.GatewayNetworkError, 0, err.Error())
	}
	switch apiErr.Code {
	case -2010:
		return models.NewGatewayError(models.GatewayInsufficientBalance, apiErr.Code, apiErr.Message)
	case -2011, -2013:
		return models.NewGatewayError(models.GatewayStaleOrder, apiErr.Code, apiErr.Message)
	case -1003, -1015:
		return models.NewGatewayError(models.GatewayRateLimited, apiErr.Code, apiErr.Message)
	}
	return models.NewGatewayError(models.GatewayRejected, apiErr.Code, apiErr.Message)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func parseFloat(value string) float64 {
	parsed, _ := strconv.ParseFloat(value, 64)
	return parsed
}

// stepDigits converts a filter step like "0.00100000" into the number of
// meaningful decimal places.
func stepDigits(step string) int {
	step = strings.TrimRight(step, "0")
	dot := strings.Index(step, ".")
	if dot < 0 {
		return 0
	}
	return len(step) - dot - 1
}
