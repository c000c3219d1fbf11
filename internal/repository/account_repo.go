package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
)

// AccountRepository 平台账号仓储
type AccountRepository interface {
	Create(ctx context.Context, account *model.MarketplaceAccount) error
	GetByID(ctx context.Context, id int64) (*model.MarketplaceAccount, error)
	// FindExpiringTokens 查询即将过期且有 refresh token 的账号
	FindExpiringTokens(ctx context.Context, within time.Duration) ([]model.MarketplaceAccount, error)
	UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateTokenStatus(ctx context.Context, id int64, status string) error
}

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓储
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, account *model.MarketplaceAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*model.MarketplaceAccount, error) {
	var account model.MarketplaceAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) FindExpiringTokens(ctx context.Context, within time.Duration) ([]model.MarketplaceAccount, error) {
	var accounts []model.MarketplaceAccount
	threshold := time.Now().Add(within)
	err := r.db.WithContext(ctx).
		Where("token_status <> ? AND refresh_token <> '' AND token_expires_at < ?", model.TokenStatusInvalid, threshold).
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	fields := map[string]interface{}{
		"access_token":     accessToken,
		"token_expires_at": expiresAt,
		"token_status":     model.TokenStatusValid,
	}
	// 部分授权服务器不轮换 refresh token
	if refreshToken != "" {
		fields["refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&model.MarketplaceAccount{}).Where("id = ?", id).Updates(fields).Error
}

func (r *accountRepo) UpdateTokenStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&model.MarketplaceAccount{}).Where("id = ?", id).Update("token_status", status).Error
}
