package database

import (
	database "gitlab.com/aoterocom/AOMarginbot/database/models"
	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type DBService struct {
	DB *gorm.DB
}

func NewDBService(dbHost string, dbPort string, dbName string, dbUser string, dbPass string) (*DBService, error) {
	dsn := dbUser + ":" + dbPass + "@tcp(" + dbHost + ":" + dbPort + ")/" + dbName + "?charset=utf8mb4&parseTime=True&loc=Local"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	dbs := &DBService{
		DB: db,
	}

	err = dbs.DB.AutoMigrate(&database.RoundTrip{})
	if err != nil {
		return nil, err
	}

	return dbs, nil
}

// AddRoundTrip persists one completed round trip.
func (dbs *DBService) AddRoundTrip(symbol string, direction models.MarketDirection,
	buy models.TradeRecord, sell models.TradeRecord, outcome float64, fee float64) uint {

	dbRoundTrip := database.RoundTrip{
		Symbol:          symbol,
		Direction:       string(direction),
		BuyTime:         buy.Time,
		BuyPrice:        buy.Price,
		BuyQuantity:     buy.Quantity,
		BuyDescription:  buy.Description,
		SellTime:        sell.Time,
		SellPrice:       sell.Price,
		SellQuantity:    sell.Quantity,
		SellDescription: sell.Description,
		Outcome:         outcome,
		Fee:             fee,
	}

	result := dbs.DB.Create(&dbRoundTrip)
	if result.Error != nil {
		helpers.Logger.Errorln("error adding round trip to database: " + result.Error.Error())
	}
	return dbRoundTrip.ID
}

// CumulatedOutcome sums the recorded outcomes for a symbol.
func (dbs *DBService) CumulatedOutcome(symbol string) float64 {
	var total float64
	row := dbs.DB.Model(&database.RoundTrip{}).Where("symbol = ?", symbol).
		Select("COALESCE(SUM(outcome), 0)").Row()
	if err := row.Scan(&total); err != nil {
		helpers.Logger.Errorln("error reading cumulated outcome: " + err.Error())
	}
	return total
}
