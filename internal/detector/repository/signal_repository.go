package repository

import (
	"context"
	"time"

	"golang-insider-scanner/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignalRepository stores derived signals.
type SignalRepository interface {
	ExistsSince(ctx context.Context, ticker, signalType string, since time.Time) (bool, error)
	CreateIgnoreConflict(ctx context.Context, signal *entity.Signal) (bool, error)
}

type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

// ExistsSince reports whether a signal of signalType for ticker is dated on or after since.
func (r *signalRepository) ExistsSince(ctx context.Context, ticker, signalType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Signal{}).
		Where("ticker = ? AND signal_type = ? AND signal_date >= ?", ticker, signalType, datatypes.Date(since)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIgnoreConflict inserts the signal unless one exists for its (ticker, signal_type, window_bucket).
func (r *signalRepository) CreateIgnoreConflict(ctx context.Context, signal *entity.Signal) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "signal_type"}, {Name: "window_bucket"}},
		DoNothing: true,
	}).Create(signal)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
