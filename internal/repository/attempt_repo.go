package repository

import (
	"context"

	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
)

// AttemptRepository 刊登记录仓储
type AttemptRepository interface {
	Create(ctx context.Context, attempt *model.ListingAttempt) error
	ListByItem(ctx context.Context, itemID int64) ([]model.ListingAttempt, error)
	CountFailures(ctx context.Context, itemID int64) (int64, error)
}

type attemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepository 创建刊登记录仓储
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *model.ListingAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepo) ListByItem(ctx context.Context, itemID int64) ([]model.ListingAttempt, error) {
	var attempts []model.ListingAttempt
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("id DESC").Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepo) CountFailures(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ListingAttempt{}).
		Where("item_id = ? AND success = ?", itemID, false).
		Count(&n).Error
	return n, err
}
