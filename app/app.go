package app

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"gitlab.com/aoterocom/AOMarginbot/database"
	"gitlab.com/aoterocom/AOMarginbot/helpers"
	"gitlab.com/aoterocom/AOMarginbot/interfaces"
	"gitlab.com/aoterocom/AOMarginbot/models"
	"gitlab.com/aoterocom/AOMarginbot/providers/binance"
	"gitlab.com/aoterocom/AOMarginbot/providers/paper"
	"gitlab.com/aoterocom/AOMarginbot/services"
	"gitlab.com/aoterocom/AOMarginbot/strategies"
)

type App struct {
}

func init() {
	cwd, _ := os.Getwd()
	err := godotenv.Load(cwd + "/conf.env")
	if err != nil {
		log.Warnln("Error loading conf.env file", err)
	}
}

// Run builds the trader for the configured market and blocks until it is
// stopped by a signal.
func (a *App) Run(c *cli.Context) error {
	helpers.Logger.Infoln("🖖🏻 Margin Trader started")

	tradingType := models.TradingType(strings.ToUpper(envOr("tradingType", string(models.TradingTypeSpot))))
	runType := models.RunType(strings.ToUpper(envOr("runType", string(models.RunTypeTest))))
	baseAsset := os.Getenv("baseAsset")
	quoteAsset := os.Getenv("quoteAsset")
	interval := envOr("interval", "1h")
	configuration := models.NewConfiguration(tradingType, runType, baseAsset, quoteAsset, interval)

	allocatedCurrency, err := strconv.ParseFloat(os.Getenv("allocatedCurrency"), 64)
	if err != nil || allocatedCurrency <= 0 {
		helpers.Logger.Fatalln("error: couldn't initialize bot. No allocated currency set")
	}

	strategyName := c.String("strategy")
	if strategyName == "" {
		strategyName = envOr("strategy", "MACDStrategy")
	}
	stopLossPct, _ := strconv.ParseFloat(envOr("stopLossPct", "0.03"), 64)
	strategy, err := strategies.StrategyFactory(strategyName, stopLossPct)
	if err != nil {
		helpers.Logger.Fatalln(err.Error())
	}

	binanceService := binance.NewBinanceService()
	rules, err := binanceService.GetRules(context.Background(), configuration.Symbol)
	if err != nil {
		helpers.Logger.Fatalln("error fetching trading rules: " + err.Error())
	}

	var gateway interfaces.OrderGateway = binanceService
	if runType == models.RunTypeTest {
		gateway = paper.NewPaperService()
	}

	feed := binance.NewBinanceFeedService(binanceService.Client(), configuration.Symbol,
		interval, runType == models.RunTypeReal)

	var databaseService *database.DBService
	if enabled, _ := strconv.ParseBool(os.Getenv("enableDatabaseRecording")); enabled {
		databaseService, err = database.NewDBService(os.Getenv("databaseHost"), os.Getenv("databasePort"),
			os.Getenv("databaseName"), os.Getenv("databaseUser"), os.Getenv("databasePassword"))
		if err != nil {
			helpers.Logger.Fatalln("error connecting to the database: " + err.Error())
		}
	}

	cwd, _ := os.Getwd()
	recorder := services.NewTradeRecorderService(configuration.Symbol, envOr("logsPath", cwd), databaseService)
	cache, err := services.NewCacheService(envOr("cachePath", cwd+"/cache"))
	if err != nil {
		helpers.Logger.Fatalln("error preparing the cache directory: " + err.Error())
	}

	trader := services.NewTrader(configuration, rules, allocatedCurrency,
		gateway, feed, strategy, recorder, cache)

	snapshot, err := cache.Load(configuration.Symbol)
	if err != nil {
		helpers.Logger.Warnln("discarding unreadable trader cache: " + err.Error())
	} else {
		trader.Restore(snapshot)
	}

	if err := feed.Start(); err != nil {
		return err
	}
	trader.Start()

	a.handleSignals(trader)
	feed.Stop()

	if err := cache.Save(trader.Snapshot()); err != nil {
		helpers.Logger.Errorln("error saving trader cache: " + err.Error())
	}
	return nil
}

// handleSignals blocks until the trader is stopped. The first SIGINT or
// SIGTERM drains open trades before stopping, a second one halts right
// away. SIGUSR1 suspends decision making and SIGUSR2 resumes it.
func (a *App) handleSignals(trader *services.Trader) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(signals)

	done := make(chan struct{})
	stopping := false
	for {
		select {
		case sig := <-signals:
			switch sig {
			case syscall.SIGUSR1:
				helpers.Logger.Infoln("suspending trading")
				trader.Suspend()
			case syscall.SIGUSR2:
				helpers.Logger.Infoln("resuming trading")
				trader.Resume()
			default:
				if stopping {
					helpers.Logger.Warnln("halting without waiting for open trades")
					trader.Halt()
					continue
				}
				stopping = true
				helpers.Logger.Infoln("stop requested, closing open trades first")
				go func() {
					trader.Stop()
					close(done)
				}()
			}
		case <-done:
			return
		}
	}
}

func envOr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
