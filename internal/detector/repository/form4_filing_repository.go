package repository

import (
	"context"
	"time"

	"golang-insider-scanner/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Form4FilingRepository reads stored insider purchases.
type Form4FilingRepository interface {
	ListPurchasesSince(ctx context.Context, since time.Time) ([]entity.Form4Filing, error)
}

type form4FilingRepository struct {
	db *gorm.DB
}

func NewForm4FilingRepository(db *gorm.DB) Form4FilingRepository {
	return &form4FilingRepository{db: db}
}

// ListPurchasesSince returns purchases with transaction_date on or after since,
// ordered by transaction date then id.
func (r *form4FilingRepository) ListPurchasesSince(ctx context.Context, since time.Time) ([]entity.Form4Filing, error) {
	var filings []entity.Form4Filing
	err := r.db.WithContext(ctx).
		Where("transaction_type = ? AND transaction_date >= ?", entity.TransactionTypePurchase, datatypes.Date(since)).
		Order("transaction_date asc, id asc").
		Find(&filings).Error
	if err != nil {
		return nil, err
	}
	return filings, nil
}
