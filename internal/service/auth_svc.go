package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
)

// ==================== OAuth 刷新 ====================

// OAuthConfig 刷新 token 所需参数
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// AuthService 平台账号凭证管理
type AuthService struct {
	accountRepo repository.AccountRepository
	client      *resty.Client
	cfg         OAuthConfig
	now         func() time.Time
}

// NewAuthService client 需已配置超时
func NewAuthService(accountRepo repository.AccountRepository, client *resty.Client, cfg OAuthConfig) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		client:      client,
		cfg:         cfg,
		now:         time.Now,
	}
}

type tokenResp struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RefreshAccessToken 用 refresh token 换新的 access token
func (s *AuthService) RefreshAccessToken(ctx context.Context, account *model.MarketplaceAccount) error {
	if account.RefreshToken == "" {
		return fmt.Errorf("account %d has no refresh token", account.ID)
	}

	form := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": account.RefreshToken,
	}
	if len(s.cfg.Scopes) > 0 {
		form["scope"] = strings.Join(s.cfg.Scopes, " ")
	}

	var out tokenResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret).
		SetFormData(form).
		SetResult(&out).
		SetError(&out).
		Post(s.cfg.TokenURL)

	// A. 网络层错误
	if err != nil {
		return fmt.Errorf("refresh network error: %w", err)
	}

	// B. 授权服务器明确拒绝
	if resp.StatusCode() == 400 || resp.StatusCode() == 401 {
		if uerr := s.accountRepo.UpdateTokenStatus(ctx, account.ID, model.TokenStatusInvalid); uerr != nil {
			logrus.Warnf("[AuthService] 标记账号 %d 失效失败: %v", account.ID, uerr)
		}
		return fmt.Errorf("refresh denied: %d %s %s", resp.StatusCode(), out.Error, out.ErrorDescription)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("refresh failed: %d %s", resp.StatusCode(), resp.String())
	}
	if out.AccessToken == "" {
		return errors.New("refresh response has no access_token")
	}

	// C. 入库
	expiresAt := s.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	if err := s.accountRepo.UpdateToken(ctx, account.ID, out.AccessToken, out.RefreshToken, expiresAt); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	account.AccessToken = out.AccessToken
	if out.RefreshToken != "" {
		account.RefreshToken = out.RefreshToken
	}
	account.TokenExpiresAt = expiresAt
	account.TokenStatus = model.TokenStatusValid
	return nil
}

// RegisterAccount 保存授权得到的 refresh token，并立即换取 access token
// 换取失败时账号仍保留（状态为 auth_invalid），返回错误
func (s *AuthService) RegisterAccount(ctx context.Context, name, marketplaceID, refreshToken string) (*model.MarketplaceAccount, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is required")
	}
	account := &model.MarketplaceAccount{
		Name:          name,
		MarketplaceID: marketplaceID,
		RefreshToken:  refreshToken,
		TokenStatus:   model.TokenStatusInvalid,
	}
	if account.MarketplaceID == "" {
		account.MarketplaceID = "EBAY_US"
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.RefreshAccessToken(ctx, account); err != nil {
		return account, err
	}
	return account, nil
}

// GetAccount 查询账号
func (s *AuthService) GetAccount(ctx context.Context, id int64) (*model.MarketplaceAccount, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// RefreshAccount 手动刷新指定账号
func (s *AuthService) RefreshAccount(ctx context.Context, id int64) (*model.MarketplaceAccount, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshAccessToken(ctx, account); err != nil {
		return account, err
	}
	return account, nil
}

// Session 返回账号的凭证视图
func (s *AuthService) Session(accountID int64) *AccountSession {
	return &AccountSession{repo: s.accountRepo, accountID: accountID, now: s.now}
}

// ==================== AuthProvider 实现 ====================

// AccountSession 从数据库读取账号 token，每次调用都重新查询
type AccountSession struct {
	repo      repository.AccountRepository
	accountID int64
	now       func() time.Time
}

var _ AuthProvider = (*AccountSession)(nil)

func (s *AccountSession) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.CurrentAccessToken(ctx)
	return ok
}

func (s *AccountSession) CurrentAccessToken(ctx context.Context) (string, bool) {
	account, err := s.repo.GetByID(ctx, s.accountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("account_id", s.accountID).Warnf("[AuthService] 读取账号失败: %v", err)
		}
		return "", false
	}
	if !account.TokenUsable(s.now()) {
		return "", false
	}
	return account.AccessToken, true
}

// StaticTokenProvider 固定 token（CLI / 测试）
type StaticTokenProvider struct {
	Token string
}

var _ AuthProvider = StaticTokenProvider{}

func (p StaticTokenProvider) IsAuthenticated(context.Context) bool {
	return p.Token != ""
}

func (p StaticTokenProvider) CurrentAccessToken(context.Context) (string, bool) {
	return p.Token, p.Token != ""
}
