package repository

import (
	"context"

	"golang-insider-scanner/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Form4FilingRepository stores normalized insider purchases.
type Form4FilingRepository interface {
	ExistsByFilingURL(ctx context.Context, url string) (bool, error)
	CreateIgnoreConflict(ctx context.Context, filing *entity.Form4Filing) (bool, error)
}

type form4FilingRepository struct {
	db *gorm.DB
}

func NewForm4FilingRepository(db *gorm.DB) Form4FilingRepository {
	return &form4FilingRepository{db: db}
}

// ExistsByFilingURL reports whether any transaction of the filing is already stored.
func (r *form4FilingRepository) ExistsByFilingURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Form4Filing{}).
		Where("sec_filing_url = ?", url).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIgnoreConflict inserts the row unless (sec_filing_url, transaction_index) exists.
// It returns false when the row was already present.
func (r *form4FilingRepository) CreateIgnoreConflict(ctx context.Context, filing *entity.Form4Filing) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sec_filing_url"}, {Name: "transaction_index"}},
		DoNothing: true,
	}).Create(filing)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
