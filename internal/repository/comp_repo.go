package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
)

// CompRepository 已成交 comp 缓存
type CompRepository interface {
	// FindFresh 查询 since 之后写入的缓存
	FindFresh(ctx context.Context, query string, since time.Time) ([]model.SoldListingRecord, error)
	// Replace 用新结果整体替换某个查询的缓存
	Replace(ctx context.Context, query string, records []model.SoldListingRecord) error
	// DeleteBefore 清理过期缓存，返回删除条数
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

type compRepo struct {
	db *gorm.DB
}

// NewCompRepository 创建 comp 缓存仓储
func NewCompRepository(db *gorm.DB) CompRepository {
	return &compRepo{db: db}
}

func (r *compRepo) FindFresh(ctx context.Context, query string, since time.Time) ([]model.SoldListingRecord, error) {
	var records []model.SoldListingRecord
	err := r.db.WithContext(ctx).
		Where("query = ? AND created_at >= ?", query, since).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

func (r *compRepo) Replace(ctx context.Context, query string, records []model.SoldListingRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("query = ?", query).Delete(&model.SoldListingRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]model.SoldListingRecord, len(records))
		for i, rec := range records {
			rec.ID = 0
			rec.Query = query
			rows[i] = rec
		}
		return tx.CreateInBatches(rows, 100).Error
	})
}

func (r *compRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&model.SoldListingRecord{})
	return result.RowsAffected, result.Error
}
