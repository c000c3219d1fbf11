package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/pkg/ebay"
)

// ==================== 依赖接口 ====================

// AuthProvider 平台凭证来源，每次请求前重新读取
type AuthProvider interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentAccessToken(ctx context.Context) (string, bool)
}

// InventoryAPI 平台 Inventory 接口（*ebay.Client 实现）
type InventoryAPI interface {
	UploadImage(ctx context.Context, token string, data []byte) (string, error)
	PutInventoryItem(ctx context.Context, token, sku string, item *ebay.InventoryItemReq) error
	CreateOffer(ctx context.Context, token string, offer *ebay.OfferReq) (string, error)
	PublishOffer(ctx context.Context, token, offerID string) (string, error)
}

// ImageSource 按存储引用读取图片字节
type ImageSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ProgressFunc 进度回调，在流水线 goroutine 上同步调用
type ProgressFunc func(model.PublishProgress)

// ==================== 配置 ====================

// 步骤文案
const (
	labelPreparing       = "Preparing…"
	labelUploadingImages = "Uploading images…"
	labelCreatingItem    = "Creating inventory item…"
	labelCreatingOffer   = "Creating offer…"
	labelPublishing      = "Publishing listing…"
	labelCompleting      = "Completing listing…"
)

// DefaultMaxImages 单次刊登最多上传的图片数
const DefaultMaxImages = 12

// ListingCodes 分类 / 成色到平台代码的映射
type ListingCodes struct {
	Categories map[string]string
	Conditions map[string]string
}

// CategoryCode 未匹配时使用 "default"
func (c ListingCodes) CategoryCode(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if code, ok := c.Categories[key]; ok {
		return code
	}
	return c.Categories["default"]
}

func (c ListingCodes) ConditionCode(grade model.ConditionGrade) string {
	return c.Conditions[string(grade)]
}

// PipelineConfig 流水线参数
type PipelineConfig struct {
	MarketplaceID       string
	Currency            string
	ListingURLBase      string
	MerchantLocationKey string
	MaxImages           int
	// RequireImages 为 true 时一张图都没传成功即失败
	RequireImages bool
	Policies      model.ListingPolicies
	Codes         ListingCodes
}

// PublishInput 单次刊登输入
type PublishInput struct {
	Product   model.IdentifiedProduct
	Content   model.ListingContent
	Price     float64
	Quantity  int
	ImageRefs []string
	// SKU 为空时自动生成；重试时沿用旧 SKU
	SKU string
}

// PublishReport 刊登结果（总是非 nil）
type PublishReport struct {
	Result         model.ListingResult
	Progress       model.PublishProgress
	Draft          model.ListingDraft
	OfferID        string
	ImagesUploaded int
	ImagesTotal    int
	Err            *PublishError
	StartedAt      time.Time
	FinishedAt     time.Time
}

// ==================== 流水线 ====================

// PublishPipeline 五段式刊登状态机，严格顺序执行
// 实例无可变状态，可被多个 goroutine 同时使用
type PublishPipeline struct {
	api    InventoryAPI
	auth   AuthProvider
	images ImageSource
	cfg    PipelineConfig
	newSKU func() string
	now    func() time.Time
}

// NewPublishPipeline 创建刊登流水线
func NewPublishPipeline(api InventoryAPI, auth AuthProvider, images ImageSource, cfg PipelineConfig) *PublishPipeline {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = DefaultMaxImages
	}
	return &PublishPipeline{
		api:    api,
		auth:   auth,
		images: images,
		cfg:    cfg,
		newSKU: NewSKU,
		now:    time.Now,
	}
}

// WithSKUGenerator 替换 SKU 生成器
func (p *PublishPipeline) WithSKUGenerator(gen func() string) *PublishPipeline {
	cp := *p
	cp.newSKU = gen
	return &cp
}

// WithAuth 绑定账号凭证
func (p *PublishPipeline) WithAuth(auth AuthProvider) *PublishPipeline {
	cp := *p
	cp.auth = auth
	return &cp
}

// NewSKU 默认 SKU：EL- + 12 位大写十六进制
func NewSKU() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "EL-" + strings.ToUpper(id[:12])
}

// attempt 单次刊登的运行时状态，不跨调用共享
type attempt struct {
	p       *PublishPipeline
	ctx     context.Context
	observe ProgressFunc
	report  *PublishReport
	log     *logrus.Entry
}

// Publish 执行一次刊登
func (p *PublishPipeline) Publish(ctx context.Context, in PublishInput, observe ProgressFunc) *PublishReport {
	a := &attempt{
		p:       p,
		ctx:     ctx,
		observe: observe,
		report:  &PublishReport{StartedAt: p.now()},
		log:     logrus.WithField("component", "PublishPipeline"),
	}
	a.run(in)
	a.report.FinishedAt = p.now()
	return a.report
}

func (a *attempt) run(in PublishInput) {
	a.step(0, labelPreparing, model.StatePreparing)
	if !a.p.auth.IsAuthenticated(a.ctx) {
		a.fail(notAuthenticated(model.StatePreparing))
		return
	}

	// -------- 1. Preparing --------
	draft := a.p.buildDraft(in)
	a.report.Draft = draft
	a.log = a.log.WithField("sku", draft.SKU)

	// -------- 2. UploadingImages --------
	a.step(1, labelUploadingImages, model.StateUploadingImages)
	urls, perr := a.uploadImages(in.ImageRefs)
	if perr != nil {
		a.fail(perr)
		return
	}
	draft.ImageReferences = urls
	a.report.Draft = draft

	// -------- 3. RegisteringInventoryItem --------
	a.step(2, labelCreatingItem, model.StateRegisteringInventoryItem)
	token, perr := a.token(model.StateRegisteringInventoryItem)
	if perr != nil {
		a.fail(perr)
		return
	}
	if err := a.p.api.PutInventoryItem(a.ctx, token, draft.SKU, inventoryItemReq(draft)); err != nil {
		a.fail(classifyError(model.StateRegisteringInventoryItem, err))
		return
	}

	// -------- 4. CreatingOffer --------
	a.step(3, labelCreatingOffer, model.StateCreatingOffer)
	if token, perr = a.token(model.StateCreatingOffer); perr != nil {
		a.fail(perr)
		return
	}
	offerID, err := a.p.api.CreateOffer(a.ctx, token, offerReq(draft))
	if err != nil {
		a.fail(classifyError(model.StateCreatingOffer, err))
		return
	}
	a.report.OfferID = offerID

	// -------- 5. Publishing --------
	a.step(4, labelPublishing, model.StatePublishing)
	if token, perr = a.token(model.StatePublishing); perr != nil {
		a.fail(perr)
		return
	}
	listingID, err := a.p.api.PublishOffer(a.ctx, token, offerID)
	if err != nil {
		a.fail(classifyError(model.StatePublishing, err))
		return
	}

	a.report.Result = model.ListingResult{
		Success:    true,
		ListingID:  listingID,
		ListingURL: a.p.cfg.ListingURLBase + listingID,
	}
	a.step(4, labelCompleting, model.StateDone)
	a.log.WithField("listing_id", listingID).Info("[PublishPipeline] 刊登成功")
}

// step 在进入阶段、发起网络请求前上报进度
func (a *attempt) step(index int, label string, state model.PipelineState) {
	a.report.Progress = model.NewPublishProgress(index, label, state)
	if a.observe != nil {
		a.observe(a.report.Progress)
	}
}

func (a *attempt) fail(perr *PublishError) {
	a.report.Err = perr
	a.report.Result = model.ListingResult{
		Success:      false,
		ErrorMessage: perr.Error(),
		ErrorKind:    string(perr.Kind),
	}
	last := a.report.Progress
	a.step(last.StepIndex, last.StepLabel, model.StateFailed)
	a.log.WithFields(logrus.Fields{
		"stage": perr.Stage,
		"kind":  perr.Kind,
	}).Errorf("[PublishPipeline] 刊登失败: %s", perr.Message)
}

// token 每次请求前重新读取
func (a *attempt) token(stage model.PipelineState) (string, *PublishError) {
	token, ok := a.p.auth.CurrentAccessToken(a.ctx)
	if !ok || token == "" {
		return "", notAuthenticated(stage)
	}
	return token, nil
}

// uploadImages 逐张上传，单张失败跳过
func (a *attempt) uploadImages(refs []string) ([]string, *PublishError) {
	if len(refs) > a.p.cfg.MaxImages {
		refs = refs[:a.p.cfg.MaxImages]
	}
	a.report.ImagesTotal = len(refs)

	urls := make([]string, 0, len(refs))
	for i, ref := range refs {
		token, perr := a.token(model.StateUploadingImages)
		if perr != nil {
			return nil, perr
		}

		data, err := a.p.images.Fetch(a.ctx, ref)
		if err != nil {
			a.log.WithField("image", i).Warnf("[PublishPipeline] 读取图片失败，跳过: %v", err)
			continue
		}
		url, err := a.p.api.UploadImage(a.ctx, token, data)
		if err != nil {
			a.log.WithField("image", i).Warnf("[PublishPipeline] 上传图片失败，跳过: %v", err)
			continue
		}
		urls = append(urls, url)
	}
	a.report.ImagesUploaded = len(urls)

	if len(urls) == 0 && a.p.cfg.RequireImages {
		return nil, &PublishError{
			Kind:    ErrKindImageUploadFailed,
			Stage:   model.StateUploadingImages,
			Message: "no image was uploaded",
		}
	}
	return urls, nil
}

// ==================== 草稿构建 ====================

func (p *PublishPipeline) buildDraft(in PublishInput) model.ListingDraft {
	sku := in.SKU
	if sku == "" {
		sku = p.newSKU()
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	aspects := map[string][]string{}
	addAspect := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			aspects[name] = []string{value}
		}
	}
	addAspect("Brand", in.Product.Brand)
	addAspect("Model", in.Product.Model)
	addAspect("Size", in.Product.Size)
	addAspect("Color", in.Product.Color)

	return model.ListingDraft{
		SKU:                 sku,
		Title:               in.Content.Title,
		Description:         in.Content.Description,
		CategoryCode:        p.cfg.Codes.CategoryCode(in.Product.Category),
		ConditionCode:       p.cfg.Codes.ConditionCode(in.Product.Condition),
		Price:               in.Price,
		Currency:            p.cfg.Currency,
		Quantity:            qty,
		Brand:               in.Product.Brand,
		Aspects:             aspects,
		Policies:            p.cfg.Policies,
		MarketplaceID:       p.cfg.MarketplaceID,
		MerchantLocationKey: p.cfg.MerchantLocationKey,
	}
}

func inventoryItemReq(d model.ListingDraft) *ebay.InventoryItemReq {
	return &ebay.InventoryItemReq{
		Availability: ebay.Availability{
			ShipToLocationAvailability: ebay.ShipToLocationAvailability{Quantity: d.Quantity},
		},
		Condition: d.ConditionCode,
		Product: ebay.ProductInfo{
			Title:       d.Title,
			Description: d.Description,
			Brand:       d.Brand,
			Aspects:     d.Aspects,
			ImageURLs:   d.ImageReferences,
		},
	}
}

func offerReq(d model.ListingDraft) *ebay.OfferReq {
	return &ebay.OfferReq{
		SKU:                d.SKU,
		MarketplaceID:      d.MarketplaceID,
		Format:             ebay.FormatFixedPrice,
		AvailableQuantity:  d.Quantity,
		CategoryID:         d.CategoryCode,
		ListingDescription: d.Description,
		ListingPolicies: ebay.ListingPolicies{
			FulfillmentPolicyID: d.Policies.FulfillmentPolicyID,
			PaymentPolicyID:     d.Policies.PaymentPolicyID,
			ReturnPolicyID:      d.Policies.ReturnPolicyID,
		},
		PricingSummary: ebay.PricingSummary{
			Price: ebay.Amount{Value: FormatPrice(d.Price), Currency: d.Currency},
		},
		MerchantLocationKey: d.MerchantLocationKey,
	}
}
