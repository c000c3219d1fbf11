package model

import "time"

// Token 状态常量
const (
	TokenStatusValid   = "valid"        // 有效
	TokenStatusExpired = "expired"      // 已过期
	TokenStatusInvalid = "auth_invalid" // 需重新授权
)

// MarketplaceAccount 卖家平台账号（OAuth 凭证）
type MarketplaceAccount struct {
	BaseModel
	Name          string `gorm:"size:100;not null" json:"name"`
	MarketplaceID string `gorm:"size:32;default:EBAY_US" json:"marketplace_id"`

	TokenStatus    string    `gorm:"index;size:20;default:auth_invalid" json:"token_status"`
	AccessToken    string    `gorm:"type:text" json:"-"`
	RefreshToken   string    `gorm:"type:text" json:"-"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

func (*MarketplaceAccount) TableName() string {
	return "marketplace_accounts"
}

// TokenUsable 授权有效且未过期
func (a *MarketplaceAccount) TokenUsable(now time.Time) bool {
	if a == nil || a.AccessToken == "" {
		return false
	}
	if a.TokenStatus != TokenStatusValid {
		return false
	}
	return a.TokenExpiresAt.IsZero() || now.Before(a.TokenExpiresAt)
}
