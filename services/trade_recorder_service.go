package services

import (
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/aoterocom/AOMarginbot/database"
	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
)

// CommissionFee is the taker fee rate applied per executed order.
const CommissionFee = 0.00075

const orderLogTimeLayout = "2006-01-02 15:04:05"

// TradeRecorderService keeps the alternating buy/sell history for one
// symbol, appends one line per completed round trip to order_<SYMBOL>_log.txt
// and optionally persists the round trip through the database service.
type TradeRecorderService struct {
	symbol    string
	recorder  *models.TradeRecorder
	logPath   string
	dbService *database.DBService
	outcomes  []float64
}

func NewTradeRecorderService(symbol string, logDir string, dbService *database.DBService) *TradeRecorderService {
	return &TradeRecorderService{
		symbol:    symbol,
		recorder:  models.NewTradeRecorder(),
		logPath:   filepath.Join(logDir, fmt.Sprintf("order_%s_log.txt", symbol)),
		dbService: dbService,
	}
}

func (trs *TradeRecorderService) Append(record models.TradeRecord) error {
	return trs.recorder.Append(record)
}

func (trs *TradeRecorderService) Restore(records []models.TradeRecord) {
	trs.recorder.Restore(records)
	trs.outcomes = nil
	for i := 1; i < len(records); i++ {
		if records[i].Side == models.SELL && records[i-1].Side == models.BUY {
			trs.outcomes = append(trs.outcomes, roundTripOutcome(records[i-1], records[i]))
		}
	}
}

func (trs *TradeRecorderService) Records() []models.TradeRecord {
	return trs.recorder.Records()
}

func (trs *TradeRecorderService) LastBuy() (models.TradeRecord, bool) {
	return trs.recorder.LastBuy()
}

// RecordRoundTrip logs a closed buy/sell pair and its outcome. The log line
// format is fixed: any change breaks the downstream spreadsheet import.
func (trs *TradeRecorderService) RecordRoundTrip(direction models.MarketDirection, buy models.TradeRecord, sell models.TradeRecord, outcome float64) {
	trs.outcomes = append(trs.outcomes, outcome)

	line := fmt.Sprintf("%s, %.8f, %.8f, %s, %s, %.8f, %.8f, %s, %.8f\n",
		buy.Time.Format(orderLogTimeLayout), buy.Price, buy.Quantity, buy.Description,
		sell.Time.Format(orderLogTimeLayout), sell.Price, sell.Quantity, sell.Description,
		outcome)
	if err := trs.appendLogLine(line); err != nil {
		helpers.Logger.Errorln(fmt.Sprintf("%s: error writing order log: %s", trs.symbol, err.Error()))
	}

	if trs.dbService != nil {
		fee := sell.Price * sell.Quantity * CommissionFee
		trs.dbService.AddRoundTrip(trs.symbol, direction, buy, sell, outcome, fee)
	}

	helpers.Logger.Infoln(fmt.Sprintf("%s: closed trades %d, positive/negative ratio %.2f",
		trs.symbol, len(trs.outcomes), helpers.PositiveNegativeRatio(trs.outcomes)))
}

func (trs *TradeRecorderService) appendLogLine(line string) error {
	file, err := os.OpenFile(trs.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(line)
	return err
}

func roundTripOutcome(buy models.TradeRecord, sell models.TradeRecord) float64 {
	if buy.Direction == models.MarketDirectionShort {
		return (buy.Price - sell.Price) * sell.Quantity
	}
	return (sell.Price - buy.Price) * sell.Quantity
}
