package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/aoterocom/AOMarginbot/models"
)

// TraderSnapshot is the persisted view of a running trader. A restarted
// process restores it to resume an in-flight round trip.
type TraderSnapshot struct {
	Configuration models.Configuration `json:"configuration"`
	Rules         models.Rules         `json:"rules"`
	MarketPrices  models.MarketPrices  `json:"marketPrices"`
	WalletPair    models.WalletPair    `json:"walletPair"`
	LongPosition  *models.Position     `json:"longPosition"`
	ShortPosition *models.Position     `json:"shortPosition,omitempty"`
	TradeRecords  []models.TradeRecord `json:"tradeRecords"`
	StateData     StateData            `json:"stateData"`
}

type StateData struct {
	RuntimeState      models.RuntimeState `json:"runtimeState"`
	AllocatedCurrency float64             `json:"allocatedCurrency"`
	ForceSell         bool                `json:"forceSell"`
	LastBalanceEvent  int64               `json:"lastBalanceEvent"`
	LastUpdateTime    time.Time           `json:"lastUpdateTime"`
}

// CacheService saves and loads trader snapshots as one JSON file per symbol.
type CacheService struct {
	dir string
}

func NewCacheService(dir string) (*CacheService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &CacheService{dir: dir}, nil
}

func (cs *CacheService) path(symbol string) string {
	return filepath.Join(cs.dir, fmt.Sprintf("trader_%s.json", symbol))
}

// Save writes the snapshot through a temp file and rename so a crash mid
// write never leaves a truncated cache behind.
func (cs *CacheService) Save(snapshot TraderSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	path := cs.path(snapshot.Configuration.Symbol)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load returns the snapshot for symbol, or nil when none has been saved.
func (cs *CacheService) Load(symbol string) (*TraderSnapshot, error) {
	data, err := os.ReadFile(cs.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snapshot TraderSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
