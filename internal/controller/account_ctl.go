package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ebay_lister_v1/internal/api/dto"
	"ebay_lister_v1/internal/model"
)

// AccountBackend 平台账号管理
type AccountBackend interface {
	RegisterAccount(ctx context.Context, name, marketplaceID, refreshToken string) (*model.MarketplaceAccount, error)
	GetAccount(ctx context.Context, id int64) (*model.MarketplaceAccount, error)
	RefreshAccount(ctx context.Context, id int64) (*model.MarketplaceAccount, error)
}

// AccountController 平台账号控制器
type AccountController struct {
	accounts AccountBackend
}

func NewAccountController(accounts AccountBackend) *AccountController {
	return &AccountController{accounts: accounts}
}

// Register 登记账号并换取 access token
// @Summary 登记平台账号（refresh token 换取 access token）
// @Tags Account
// @Accept json
// @Produce json
// @Param body body dto.RegisterAccountRequest true "账号信息"
// @Success 201 {object} model.MarketplaceAccount
// @Success 202 {object} model.MarketplaceAccount
// @Router /api/accounts [post]
func (ctrl *AccountController) Register(c *gin.Context) {
	var req dto.RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	account, err := ctrl.accounts.RegisterAccount(c.Request.Context(), req.Name, req.MarketplaceID, req.RefreshToken)
	if err != nil && account == nil {
		fail(c, err)
		return
	}
	if err != nil {
		// 账号已保存但授权失败
		c.JSON(http.StatusAccepted, gin.H{
			"code":    0,
			"message": "账号已保存，授权失败: " + err.Error(),
			"data":    account,
		})
		return
	}
	success(c, http.StatusCreated, account)
}

// Get 账号详情（不含 token）
// @Summary 获取账号详情
// @Tags Account
// @Param id path int true "账号ID"
// @Success 200 {object} model.MarketplaceAccount
// @Router /api/accounts/{id} [get]
func (ctrl *AccountController) Get(c *gin.Context) {
	id, ok := pathID(c, "无效的账号ID")
	if !ok {
		return
	}
	account, err := ctrl.accounts.GetAccount(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, account)
}

// Refresh 手动刷新 token
// @Summary 手动刷新账号 token
// @Tags Account
// @Param id path int true "账号ID"
// @Success 200 {object} model.MarketplaceAccount
// @Router /api/accounts/{id}/refresh [post]
func (ctrl *AccountController) Refresh(c *gin.Context) {
	id, ok := pathID(c, "无效的账号ID")
	if !ok {
		return
	}
	account, err := ctrl.accounts.RefreshAccount(c.Request.Context(), id)
	if err != nil && account == nil {
		fail(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "刷新失败: " + err.Error(),
			"data":    account,
		})
		return
	}
	success(c, http.StatusOK, account)
}
