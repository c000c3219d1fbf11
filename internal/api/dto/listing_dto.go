package dto

import (
	"time"

	"ebay_lister_v1/internal/model"
)

// ==================== 请求 DTO ====================

// ProductInput 商品识别信息
type ProductInput struct {
	ProductName string               `json:"product_name" binding:"required"`
	Brand       string               `json:"brand"`
	Model       string               `json:"model"`
	Category    string               `json:"category"`
	Size        string               `json:"size"`
	Color       string               `json:"color"`
	Condition   model.ConditionGrade `json:"condition" binding:"required"`
	Confidence  float64              `json:"confidence" binding:"omitempty,min=0,max=1"`
}

// ToProduct 转为模型
func (p ProductInput) ToProduct() model.IdentifiedProduct {
	return model.IdentifiedProduct{
		ProductName: p.ProductName,
		Brand:       p.Brand,
		Model:       p.Model,
		Category:    p.Category,
		Size:        p.Size,
		Color:       p.Color,
		Condition:   p.Condition,
		Confidence:  p.Confidence,
	}
}

// QuoteRequest 报价请求
// Comps 缺省(null)表示没有市场数据，[] 表示查过但没有成交
type QuoteRequest struct {
	Product ProductInput               `json:"product" binding:"required"`
	Comps   *[]model.SoldListingRecord `json:"comps"`
}

// CreateItemRequest 创建库存商品
type CreateItemRequest struct {
	AccountID int64        `json:"account_id" binding:"required"`
	Product   ProductInput `json:"product" binding:"required"`
	Quantity  int          `json:"quantity" binding:"omitempty,min=1"`
	Photos    []string     `json:"photos"`
}

// PublishRequest 刊登参数（可选覆盖）
type PublishRequest struct {
	Price    *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Quantity *int     `json:"quantity,omitempty" binding:"omitempty,min=1"`
}

// ListItemsRequest 商品列表
type ListItemsRequest struct {
	AccountID int64  `form:"account_id"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// ==================== 响应 DTO ====================

// QuoteResponse 报价结果
type QuoteResponse struct {
	Analysis       *model.CompAnalysis       `json:"analysis,omitempty"`
	Recommendation model.PriceRecommendation `json:"recommendation"`
	Content        model.ListingContent      `json:"content"`
}

// AppraiseResponse 估价结果
type AppraiseResponse struct {
	Item     *model.InventoryItem `json:"item"`
	Analysis *model.CompAnalysis  `json:"analysis,omitempty"`
}

// PublishResponse 刊登结果
type PublishResponse struct {
	Result   model.ListingResult   `json:"result"`
	Progress model.PublishProgress `json:"progress"`
	SKU      string                `json:"sku"`
	Images   int                   `json:"images_uploaded"`
}

// ProgressEvent SSE 进度事件
type ProgressEvent struct {
	ItemID    int64                `json:"item_id"`
	StepIndex int                  `json:"step_index"`
	StepLabel string               `json:"step_label"`
	Fraction  float64              `json:"fraction"`
	State     model.PipelineState  `json:"state"`
	Result    *model.ListingResult `json:"result,omitempty"`
	Time      time.Time            `json:"time"`
}

// Terminal 是否为最终事件
func (e ProgressEvent) Terminal() bool {
	return e.State == model.StateDone || e.State == model.StateFailed
}

// ==================== 账号 ====================

// RegisterAccountRequest 登记平台账号
type RegisterAccountRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	MarketplaceID string `json:"marketplace_id"`
	RefreshToken  string `json:"refresh_token" binding:"required"`
}
