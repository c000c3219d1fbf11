package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ==================== 刊登流水线 ====================

// PipelineState 刊登状态机状态
type PipelineState string

const (
	StateIdle                     PipelineState = "idle"
	StatePreparing                PipelineState = "preparing"
	StateUploadingImages          PipelineState = "uploading_images"
	StateRegisteringInventoryItem PipelineState = "registering_inventory_item"
	StateCreatingOffer            PipelineState = "creating_offer"
	StatePublishing               PipelineState = "publishing"
	StateDone                     PipelineState = "done"
	StateFailed                   PipelineState = "failed"
)

// PublishSteps 进度分母
const PublishSteps = 4

// PublishProgress 刊登进度快照
type PublishProgress struct {
	StepIndex int           `json:"step_index"`
	StepLabel string        `json:"step_label"`
	Fraction  float64       `json:"fraction"`
	State     PipelineState `json:"state"`
}

// NewPublishProgress 按步骤序号构造进度
func NewPublishProgress(step int, label string, state PipelineState) PublishProgress {
	return PublishProgress{
		StepIndex: step,
		StepLabel: label,
		Fraction:  float64(step) / PublishSteps,
		State:     state,
	}
}

// Terminal 是否已结束
func (p PublishProgress) Terminal() bool {
	return p.State == StateDone || p.State == StateFailed
}

// ListingPolicies 平台业务政策 ID
type ListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillment_policy_id"`
	PaymentPolicyID     string `json:"payment_policy_id"`
	ReturnPolicyID      string `json:"return_policy_id"`
}

// ListingDraft 单次刊登的完整草稿，交给流水线后不再修改
type ListingDraft struct {
	SKU                 string              `json:"sku"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	CategoryCode        string              `json:"category_code"`
	ConditionCode       string              `json:"condition_code"`
	Price               float64             `json:"price"`
	Currency            string              `json:"currency"`
	Quantity            int                 `json:"quantity"`
	Brand               string              `json:"brand"`
	ImageReferences     []string            `json:"image_references"`
	Aspects             map[string][]string `json:"aspects"`
	Policies            ListingPolicies     `json:"policies"`
	MarketplaceID       string              `json:"marketplace_id"`
	MerchantLocationKey string              `json:"merchant_location_key,omitempty"`
}

// ListingResult 刊登终态结果，每次尝试恰好生成一个
type ListingResult struct {
	Success      bool   `json:"success"`
	ListingID    string `json:"listing_id,omitempty"`
	ListingURL   string `json:"listing_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

// ==================== 库存商品 ====================

// 商品状态
const (
	ItemStatusDraft      = "draft"
	ItemStatusAppraised  = "appraised"
	ItemStatusQueued     = "queued"
	ItemStatusPublishing = "publishing"
	ItemStatusListed     = "listed"
	ItemStatusFailed     = "failed"
)

// InventoryItem 待刊登的实物商品
type InventoryItem struct {
	BaseModel
	AccountID int64 `gorm:"index;not null;comment:平台账号ID" json:"account_id"`

	// --- 识别结果 ---
	ProductName     string         `gorm:"size:255" json:"product_name"`
	Brand           string         `gorm:"size:100" json:"brand"`
	Model           string         `gorm:"size:100" json:"model"`
	Category        string         `gorm:"size:64;index" json:"category"`
	Size            string         `gorm:"size:32" json:"size"`
	Color           string         `gorm:"size:64" json:"color"`
	Condition       ConditionGrade `gorm:"size:32" json:"condition"`
	IdentConfidence float64        `gorm:"default:0" json:"ident_confidence"`

	// --- 照片与库存 ---
	Photos   StringSlice `gorm:"type:text;comment:照片存储引用(有序)" json:"photos"`
	Quantity int         `gorm:"default:1" json:"quantity"`

	// --- 定价与文案 ---
	QuickSalePrice   float64   `json:"quick_sale_price"`
	RealisticPrice   float64   `json:"realistic_price"`
	MaxProfitPrice   float64   `json:"max_profit_price"`
	CompetitionLevel string    `gorm:"size:20" json:"competition_level"`
	Strategy         string    `gorm:"size:20" json:"strategy"`
	Title            string    `gorm:"size:80" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	Keywords         TextArray `json:"keywords"`

	// --- 刊登状态 ---
	Status      string     `gorm:"size:20;index;default:draft" json:"status"`
	SKU         string     `gorm:"size:50;index" json:"sku"`
	ListingID   string     `gorm:"size:64;index" json:"listing_id"`
	ListingURL  string     `gorm:"size:255" json:"listing_url"`
	LastError   string     `gorm:"size:2048" json:"last_error"`
	PublishedAt *time.Time `json:"published_at"`
}

func (*InventoryItem) TableName() string {
	return "inventory_items"
}

// Product 转为定价输入
func (i *InventoryItem) Product() IdentifiedProduct {
	return IdentifiedProduct{
		ProductName: i.ProductName,
		Brand:       i.Brand,
		Model:       i.Model,
		Category:    i.Category,
		Size:        i.Size,
		Color:       i.Color,
		Condition:   i.Condition,
		Confidence:  i.IdentConfidence,
	}
}

// ApplyAppraisal 写入估价结果
func (i *InventoryItem) ApplyAppraisal(rec PriceRecommendation, content ListingContent) {
	i.QuickSalePrice = rec.QuickSalePrice
	i.RealisticPrice = rec.RealisticPrice
	i.MaxProfitPrice = rec.MaxProfitPrice
	i.CompetitionLevel = string(rec.CompetitionLevel)
	i.Strategy = string(rec.Strategy)
	i.Title = content.Title
	i.Description = content.Description
	i.Keywords = TextArray(content.Keywords)
	if i.Status == ItemStatusDraft || i.Status == ItemStatusFailed || i.Status == "" {
		i.Status = ItemStatusAppraised
	}
}

// CanPublish 检查是否可以发起刊登
func (i *InventoryItem) CanPublish() error {
	switch i.Status {
	case ItemStatusListed:
		return errors.New("item is already listed")
	case ItemStatusPublishing:
		return errors.New("item is being published")
	}
	if i.RealisticPrice <= 0 {
		return errors.New("item has not been appraised")
	}
	if !i.Condition.Valid() {
		return errors.New("item condition is missing")
	}
	return nil
}

// MarkListed 标记刊登成功
func (i *InventoryItem) MarkListed(sku string, result ListingResult, at time.Time) {
	i.Status = ItemStatusListed
	i.SKU = sku
	i.ListingID = result.ListingID
	i.ListingURL = result.ListingURL
	i.LastError = ""
	i.PublishedAt = &at
}

// MarkFailed 标记刊登失败
func (i *InventoryItem) MarkFailed(errMsg string) {
	i.Status = ItemStatusFailed
	i.LastError = errMsg
}

// ==================== 刊登记录 ====================

// ListingAttempt 每次刊登尝试的审计记录
type ListingAttempt struct {
	BaseModel
	ItemID         int64          `gorm:"index;not null" json:"item_id"`
	AccountID      int64          `gorm:"index" json:"account_id"`
	SKU            string         `gorm:"size:50;index" json:"sku"`
	OfferID        string         `gorm:"size:64" json:"offer_id"`
	ListingID      string         `gorm:"size:64" json:"listing_id"`
	ListingURL     string         `gorm:"size:255" json:"listing_url"`
	Success        bool           `gorm:"default:false;index" json:"success"`
	ErrorKind      string         `gorm:"size:32" json:"error_kind"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message"`
	FinalState     string         `gorm:"size:32" json:"final_state"`
	FinalStep      int            `json:"final_step"`
	ImagesUploaded int            `json:"images_uploaded"`
	ImagesTotal    int            `json:"images_total"`
	Price          float64        `json:"price"`
	Currency       string         `gorm:"size:3" json:"currency"`
	DraftSnapshot  datatypes.JSON `json:"draft_snapshot"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

func (*ListingAttempt) TableName() string {
	return "listing_attempts"
}
