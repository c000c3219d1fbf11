package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"ebay_lister_v1/internal/api/dto"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
)

// ==================== 外部服务依赖 ====================

// PhotoStore 照片存储
type PhotoStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// CompSource 已售 comp 来源
type CompSource interface {
	SoldComps(ctx context.Context, auth AuthProvider, query string) ([]model.SoldListingRecord, error)
}

// Identifier 照片识别
type Identifier interface {
	Identify(ctx context.Context, itemID int64, image []byte, mimeType string) (*model.IdentifiedProduct, error)
}

// ==================== 错误 ====================

var (
	ErrItemNotPublishable = errors.New("item is not publishable")
	ErrItemBusy           = errors.New("item is already being published")
	ErrNoPhotos           = errors.New("item has no photos")
)

// ==================== 服务实现 ====================

// ListingService 商品估价与刊登编排
type ListingService struct {
	itemRepo    repository.ItemRepository
	attemptRepo repository.AttemptRepository
	sessions    func(accountID int64) AuthProvider
	comps       CompSource
	photos      PhotoStore
	identifier  Identifier
	pipeline    *PublishPipeline

	aggregator *CompAggregator
	pricing    *PricingEngine
	content    *ContentGenerator

	// 进度订阅管理
	subscribers     map[int64][]chan dto.ProgressEvent
	subscriberMutex sync.RWMutex
}

// ListingDeps ListingService 依赖
type ListingDeps struct {
	Items      repository.ItemRepository
	Attempts   repository.AttemptRepository
	Sessions   func(accountID int64) AuthProvider
	Comps      CompSource
	Photos     PhotoStore
	Identifier Identifier
	Pipeline   *PublishPipeline
}

// NewListingService 创建刊登服务
func NewListingService(deps ListingDeps) *ListingService {
	return &ListingService{
		itemRepo:    deps.Items,
		attemptRepo: deps.Attempts,
		sessions:    deps.Sessions,
		comps:       deps.Comps,
		photos:      deps.Photos,
		identifier:  deps.Identifier,
		pipeline:    deps.Pipeline,
		aggregator:  NewCompAggregator(nil),
		pricing:     NewPricingEngine(),
		content:     NewContentGenerator(),
		subscribers: make(map[int64][]chan dto.ProgressEvent),
	}
}

// ==================== 进度订阅 ====================

// Subscribe 订阅商品刊登进度
func (s *ListingService) Subscribe(itemID int64) chan dto.ProgressEvent {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	ch := make(chan dto.ProgressEvent, 10)
	s.subscribers[itemID] = append(s.subscribers[itemID], ch)
	return ch
}

// Unsubscribe 取消订阅
func (s *ListingService) Unsubscribe(itemID int64, ch chan dto.ProgressEvent) {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	subs := s.subscribers[itemID]
	for i, sub := range subs {
		if sub == ch {
			s.subscribers[itemID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(s.subscribers[itemID]) == 0 {
		delete(s.subscribers, itemID)
	}
}

// notifyProgress 非阻塞推送，channel 满时丢弃
func (s *ListingService) notifyProgress(itemID int64, event dto.ProgressEvent) {
	s.subscriberMutex.RLock()
	defer s.subscriberMutex.RUnlock()

	for _, ch := range s.subscribers[itemID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// ==================== 报价 ====================

// Quote 纯计算报价，comps 为 nil 表示没有市场数据，空切片表示没有成交
func (s *ListingService) Quote(product model.IdentifiedProduct, comps []model.SoldListingRecord) *dto.QuoteResponse {
	var analysis *model.CompAnalysis
	if comps != nil {
		a := s.aggregator.Analyze(comps)
		analysis = &a
	}
	rec := s.pricing.Recommend(product, analysis)
	return &dto.QuoteResponse{
		Analysis:       analysis,
		Recommendation: rec,
		Content:        s.content.Compose(product, rec),
	}
}

// ==================== 商品 ====================

// CreateItem 创建库存商品
func (s *ListingService) CreateItem(ctx context.Context, req *dto.CreateItemRequest) (*model.InventoryItem, error) {
	if !req.Product.Condition.Valid() {
		return nil, fmt.Errorf("invalid condition %q", req.Product.Condition)
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	p := req.Product.ToProduct()
	item := &model.InventoryItem{
		AccountID:       req.AccountID,
		ProductName:     p.ProductName,
		Brand:           p.Brand,
		Model:           p.Model,
		Category:        p.Category,
		Size:            p.Size,
		Color:           p.Color,
		Condition:       p.Condition,
		IdentConfidence: p.Confidence,
		Photos:          model.StringSlice(req.Photos),
		Quantity:        qty,
		Status:          model.ItemStatusDraft,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *ListingService) GetItem(ctx context.Context, id int64) (*model.InventoryItem, error) {
	return s.itemRepo.GetByID(ctx, id)
}

func (s *ListingService) ListItems(ctx context.Context, req *dto.ListItemsRequest) ([]model.InventoryItem, int64, error) {
	return s.itemRepo.List(ctx, repository.ItemFilter{
		AccountID: req.AccountID,
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
}

// AddPhoto 上传照片并追加到商品
func (s *ListingService) AddPhoto(ctx context.Context, id int64, data []byte, filename, contentType string) (*model.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref, err := s.photos.Upload(ctx, data, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	item.Photos = append(item.Photos, ref)
	if err := s.itemRepo.UpdateFields(ctx, id, map[string]interface{}{"photos": item.Photos}); err != nil {
		return nil, err
	}
	return item, nil
}

// IdentifyItem 用第一张照片识别，覆盖非空字段
func (s *ListingService) IdentifyItem(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(item.Photos) == 0 {
		return nil, ErrNoPhotos
	}
	data, err := s.photos.Fetch(ctx, item.Photos[0])
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	p, err := s.identifier.Identify(ctx, id, data, http.DetectContentType(data))
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&item.ProductName, p.ProductName)
	set(&item.Brand, p.Brand)
	set(&item.Model, p.Model)
	set(&item.Category, p.Category)
	set(&item.Size, p.Size)
	set(&item.Color, p.Color)
	if p.Condition.Valid() {
		item.Condition = p.Condition
	}
	item.IdentConfidence = p.Confidence

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ==================== 估价 ====================

// Appraise comps → 统计 → 定价 → 文案，结果写回商品
func (s *ListingService) Appraise(ctx context.Context, id int64) (*dto.AppraiseResponse, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product := item.Product()

	var analysis *model.CompAnalysis
	records, err := s.comps.SoldComps(ctx, s.sessions(item.AccountID), product.SearchQuery())
	switch {
	case err == nil:
		a := s.aggregator.Analyze(records)
		analysis = &a
	case errors.Is(err, ErrMarketDataUnavailable):
		logrus.WithField("item_id", id).Info("[ListingService] 无市场数据，使用基准价")
	default:
		logrus.WithField("item_id", id).Warnf("[ListingService] 获取 comp 失败，使用基准价: %v", err)
	}

	rec := s.pricing.Recommend(product, analysis)
	item.ApplyAppraisal(rec, s.content.Compose(product, rec))
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("save appraisal: %w", err)
	}
	return &dto.AppraiseResponse{Item: item, Analysis: analysis}, nil
}

// ==================== 刊登 ====================

// Enqueue 加入刊登队列
func (s *ListingService) Enqueue(ctx context.Context, id int64) error {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := item.CanPublish(); err != nil {
		return fmt.Errorf("%w: %v", ErrItemNotPublishable, err)
	}
	return s.itemRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":     model.ItemStatusQueued,
		"last_error": "",
	})
}

// QueuedItems 待刊登商品
func (s *ListingService) QueuedItems(ctx context.Context, limit int) ([]*model.InventoryItem, error) {
	return s.itemRepo.FindQueued(ctx, limit)
}

// Publish 同步执行一次刊登并记录结果
func (s *ListingService) Publish(ctx context.Context, id int64, req *dto.PublishRequest) (*PublishReport, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.CanPublish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrItemNotPublishable, err)
	}

	claimed, err := s.itemRepo.ClaimForPublish(ctx, id,
		model.ItemStatusDraft, model.ItemStatusAppraised, model.ItemStatusQueued, model.ItemStatusFailed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrItemBusy
	}

	in := PublishInput{
		Product:   item.Product(),
		Content:   model.ListingContent{Title: item.Title, Description: item.Description, Keywords: item.Keywords},
		Price:     item.RealisticPrice,
		Quantity:  item.Quantity,
		ImageRefs: item.Photos,
		SKU:       item.SKU,
	}
	if req != nil && req.Price != nil {
		in.Price = *req.Price
	}
	if req != nil && req.Quantity != nil {
		in.Quantity = *req.Quantity
	}

	pipeline := s.pipeline.WithAuth(s.sessions(item.AccountID))
	report := pipeline.Publish(ctx, in, func(p model.PublishProgress) {
		// 终态在落库后带结果推送，这里只转发中间阶段
		if p.Terminal() {
			return
		}
		s.notifyProgress(id, dto.ProgressEvent{
			ItemID:    id,
			StepIndex: p.StepIndex,
			StepLabel: p.StepLabel,
			Fraction:  p.Fraction,
			State:     p.State,
			Time:      time.Now(),
		})
	})

	// 记录与状态更新不受请求取消影响
	saveCtx := context.WithoutCancel(ctx)
	s.recordAttempt(saveCtx, item, report)
	s.finishItem(saveCtx, item, report)

	result := report.Result
	s.notifyProgress(id, dto.ProgressEvent{
		ItemID:    id,
		StepIndex: report.Progress.StepIndex,
		StepLabel: report.Progress.StepLabel,
		Fraction:  report.Progress.Fraction,
		State:     report.Progress.State,
		Result:    &result,
		Time:      time.Now(),
	})
	return report, nil
}

// Attempts 刊登历史
func (s *ListingService) Attempts(ctx context.Context, id int64) ([]model.ListingAttempt, error) {
	return s.attemptRepo.ListByItem(ctx, id)
}

func (s *ListingService) recordAttempt(ctx context.Context, item *model.InventoryItem, r *PublishReport) {
	snapshot, err := json.Marshal(r.Draft)
	if err != nil {
		snapshot = []byte("{}")
	}
	attempt := &model.ListingAttempt{
		ItemID:         item.ID,
		AccountID:      item.AccountID,
		SKU:            r.Draft.SKU,
		OfferID:        r.OfferID,
		ListingID:      r.Result.ListingID,
		ListingURL:     r.Result.ListingURL,
		Success:        r.Result.Success,
		ErrorKind:      r.Result.ErrorKind,
		ErrorMessage:   r.Result.ErrorMessage,
		FinalState:     string(r.Progress.State),
		FinalStep:      r.Progress.StepIndex,
		ImagesUploaded: r.ImagesUploaded,
		ImagesTotal:    r.ImagesTotal,
		Price:          r.Draft.Price,
		Currency:       r.Draft.Currency,
		DraftSnapshot:  datatypes.JSON(snapshot),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		logrus.WithField("item_id", item.ID).Errorf("[ListingService] 保存刊登记录失败: %v", err)
	}
}

func (s *ListingService) finishItem(ctx context.Context, item *model.InventoryItem, r *PublishReport) {
	if r.Result.Success {
		item.MarkListed(r.Draft.SKU, r.Result, r.FinishedAt)
	} else {
		item.MarkFailed(r.Result.ErrorMessage)
		// SKU 已生成则保留，重试时复用
		if r.Draft.SKU != "" {
			item.SKU = r.Draft.SKU
		}
	}
	fields := map[string]interface{}{
		"status":       item.Status,
		"sku":          item.SKU,
		"listing_id":   item.ListingID,
		"listing_url":  item.ListingURL,
		"last_error":   truncate(item.LastError, 2048),
		"published_at": item.PublishedAt,
	}
	if err := s.itemRepo.UpdateFields(ctx, item.ID, fields); err != nil {
		logrus.WithField("item_id", item.ID).Errorf("[ListingService] 更新商品状态失败: %v", err)
	}
}
