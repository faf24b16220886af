package service

import (
	"fmt"
	"math"
	"strings"

	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/internal/ingestor/config"
	"golang-insider-scanner/internal/ingestor/dto"
	"golang-insider-scanner/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const purchaseCode = "P"

// maxStoredValue bounds price_per_share and total_value, stored as numeric(20,4).
var maxStoredValue = decimal.New(1, 16)

// RejectReason explains why a transaction was not turned into a row.
type RejectReason string

const (
	RejectNotPurchase       RejectReason = "not_purchase"
	RejectPlaceholderTicker RejectReason = "placeholder_ticker"
	RejectMissingFilingKey  RejectReason = "missing_filing_key"
	RejectMissingInsider    RejectReason = "missing_insider"
	RejectMissingAmounts    RejectReason = "missing_amounts"
	RejectNegativeAmounts   RejectReason = "negative_amounts"
	RejectAmountsOutOfRange RejectReason = "amounts_out_of_range"
	RejectInvalidDate       RejectReason = "invalid_transaction_date"
)

// Rejection is a discarded transaction. TransactionIndex is -1 when the whole filing was discarded.
type Rejection struct {
	TransactionIndex int
	Reason           RejectReason
}

// BuildFilingURL derives the public EDGAR URL of a filing, or "" when cik or accession is missing.
func BuildFilingURL(cik, accessionNo string) string {
	cik = strings.TrimSpace(cik)
	accessionNo = strings.TrimSpace(accessionNo)
	if cik == "" || accessionNo == "" {
		return ""
	}
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s.txt",
		cik, strings.ReplaceAll(accessionNo, "-", ""), accessionNo)
}

// DeriveInsiderRole joins the reporting owner's roles in fixed order.
func DeriveInsiderRole(rel dto.Relationship) string {
	var roles []string
	if rel.IsDirector {
		roles = append(roles, "Director")
	}
	if rel.IsOfficer {
		title := strings.TrimSpace(rel.OfficerTitle)
		if title == "" {
			title = "Officer"
		}
		roles = append(roles, title)
	}
	if rel.IsTenPercentOwner {
		roles = append(roles, "10% Owner")
	}
	if rel.IsOther {
		roles = append(roles, "Other")
	}
	if len(roles) == 0 {
		return "N/A"
	}
	return strings.Join(roles, ", ")
}

// NormalizeFiling flattens a filing into purchase rows.
// With PolicyFirstPurchase only the first valid purchase is returned and it takes
// transaction index 0, so the store keeps at most one row per filing.
func NormalizeFiling(filing dto.Filing, policy string) ([]entity.Form4Filing, []Rejection) {
	url := BuildFilingURL(string(filing.Issuer.CIK), filing.AccessionNo)
	if url == "" {
		return nil, []Rejection{{TransactionIndex: -1, Reason: RejectMissingFilingKey}}
	}

	var rows []entity.Form4Filing
	var rejections []Rejection
	reject := func(i int, reason RejectReason) {
		rejections = append(rejections, Rejection{TransactionIndex: i, Reason: reason})
	}

	ticker := strings.TrimSpace(filing.Issuer.TradingSymbol)
	insider := strings.TrimSpace(filing.ReportingOwner.Name)

	for i, tx := range filing.NonDerivativeTable.Transactions {
		if strings.TrimSpace(tx.Coding.Code) != purchaseCode {
			reject(i, RejectNotPurchase)
			continue
		}
		if utils.IsPlaceholderTicker(ticker) {
			reject(i, RejectPlaceholderTicker)
			continue
		}
		if insider == "" {
			reject(i, RejectMissingInsider)
			continue
		}

		shares, okShares := tx.Amounts.Shares.Float()
		price, okPrice := tx.Amounts.PricePerShare.Float()
		if !okShares || !okPrice {
			reject(i, RejectMissingAmounts)
			continue
		}
		if math.IsNaN(shares) || math.IsNaN(price) || math.IsInf(shares, 0) || math.IsInf(price, 0) {
			reject(i, RejectAmountsOutOfRange)
			continue
		}
		if shares < 0 || price < 0 {
			reject(i, RejectNegativeAmounts)
			continue
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit in int64
		if shares >= float64(math.MaxInt64) {
			reject(i, RejectAmountsOutOfRange)
			continue
		}

		date, ok := utils.ParseDate(tx.TransactionDate)
		if !ok {
			reject(i, RejectInvalidDate)
			continue
		}

		pricePerShare := decimal.NewFromFloat(price)
		totalValue := decimal.NewFromFloat(shares).Mul(pricePerShare)
		if pricePerShare.GreaterThanOrEqual(maxStoredValue) || totalValue.GreaterThanOrEqual(maxStoredValue) {
			reject(i, RejectAmountsOutOfRange)
			continue
		}

		row := entity.Form4Filing{
			Ticker:           ticker,
			InsiderName:      insider,
			InsiderRole:      DeriveInsiderRole(filing.ReportingOwner.Relationship),
			TransactionType:  entity.TransactionTypePurchase,
			TransactionDate:  datatypes.Date(utils.DateOf(date)),
			SharesTransacted: int64(shares),
			PricePerShare:    pricePerShare,
			TotalValue:       totalValue,
			SecFilingURL:     url,
			TransactionIndex: i,
		}

		if policy != config.PolicyAllPurchases {
			row.TransactionIndex = 0
			return []entity.Form4Filing{row}, rejections
		}
		rows = append(rows, row)
	}

	return rows, rejections
}
