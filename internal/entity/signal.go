package entity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SignalTypeClusterBuy = "Cluster Buy"
	SignalStatusNew      = "new"
)

// Signal is a derived event consumed by dashboards and alerting.
// WindowBucket keeps at most one signal per ticker and type in each window.
type Signal struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Ticker            string         `gorm:"not null;uniqueIndex:idx_signals_ticker_type_bucket" json:"ticker"`
	SignalType        string         `gorm:"not null;uniqueIndex:idx_signals_ticker_type_bucket" json:"signal_type"`
	SignalDate        datatypes.Date `gorm:"not null;index" json:"signal_date"`
	SignalDescription string         `gorm:"type:text" json:"signal_description"`
	Status            string         `gorm:"not null" json:"status"`
	WindowBucket      int64          `gorm:"not null;uniqueIndex:idx_signals_ticker_type_bucket" json:"window_bucket"`
	Data              datatypes.JSON `json:"data"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}

// ClusterBuyData is stored in Signal.Data for cluster-buy signals.
type ClusterBuyData struct {
	WindowStart      string   `json:"window_start"`
	InsiderCount     int      `json:"insider_count"`
	Insiders         []string `json:"insiders"`
	TransactionCount int      `json:"transaction_count"`
	TotalValue       string   `json:"total_value"`
}
