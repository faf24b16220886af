package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionTypePurchase is the only transaction type this pipeline stores.
const TransactionTypePurchase = "Purchase"

// Form4Filing is one insider purchase taken from a Form 4 filing.
// SecFilingURL and TransactionIndex together identify the source transaction.
type Form4Filing struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Ticker           string          `gorm:"not null;index" json:"ticker"`
	InsiderName      string          `gorm:"not null" json:"insider_name"`
	InsiderRole      string          `json:"insider_role"`
	TransactionType  string          `gorm:"not null;index" json:"transaction_type"`
	TransactionDate  datatypes.Date  `gorm:"not null;index" json:"transaction_date"`
	SharesTransacted int64           `gorm:"not null" json:"shares_transacted"`
	PricePerShare    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"price_per_share"`
	TotalValue       decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_value"`
	SecFilingURL     string          `gorm:"not null;uniqueIndex:idx_form4_filings_url_tx" json:"sec_filing_url"`
	TransactionIndex int             `gorm:"not null;uniqueIndex:idx_form4_filings_url_tx" json:"transaction_index"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Form4Filing) TableName() string {
	return "form4_filings"
}
