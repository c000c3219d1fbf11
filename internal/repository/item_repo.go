package repository

import (
	"context"

	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
)

// ==================== 仓储接口 ====================

// ItemRepository 库存商品仓储接口
type ItemRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	GetByID(ctx context.Context, id int64) (*model.InventoryItem, error)
	Update(ctx context.Context, item *model.InventoryItem) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ItemFilter) ([]model.InventoryItem, int64, error)

	// 刊登队列
	FindQueued(ctx context.Context, limit int) ([]*model.InventoryItem, error)
	// ClaimForPublish 仅当状态属于 from 时置为 publishing，返回是否抢到
	ClaimForPublish(ctx context.Context, id int64, from ...string) (bool, error)
}

// ItemFilter 商品过滤条件
type ItemFilter struct {
	AccountID int64
	Status    string
	Page      int
	PageSize  int
}

// ==================== 仓储实现 ====================

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository 创建库存商品仓储
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.InventoryItem{}).Where("id = ?", id).Updates(fields).Error
}

func (r *itemRepo) List(ctx context.Context, filter ItemFilter) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	query := r.db.WithContext(ctx).Model(&model.InventoryItem{})
	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := query.Order("id DESC").Offset(offset).Limit(filter.PageSize).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) FindQueued(ctx context.Context, limit int) ([]*model.InventoryItem, error) {
	var items []*model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ItemStatusQueued).
		Order("updated_at ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *itemRepo) ClaimForPublish(ctx context.Context, id int64, from ...string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", model.ItemStatusPublishing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
