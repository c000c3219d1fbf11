package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ebay_lister_v1/internal/api/dto"
	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
	"ebay_lister_v1/internal/service"
)

// maxPhotoSize 单张照片上限
const maxPhotoSize = 10 << 20

// ListingBackend 商品估价与刊登
type ListingBackend interface {
	Quote(product model.IdentifiedProduct, comps []model.SoldListingRecord) *dto.QuoteResponse
	CreateItem(ctx context.Context, req *dto.CreateItemRequest) (*model.InventoryItem, error)
	GetItem(ctx context.Context, id int64) (*model.InventoryItem, error)
	ListItems(ctx context.Context, req *dto.ListItemsRequest) ([]model.InventoryItem, int64, error)
	AddPhoto(ctx context.Context, id int64, data []byte, filename, contentType string) (*model.InventoryItem, error)
	IdentifyItem(ctx context.Context, id int64) (*model.InventoryItem, error)
	Appraise(ctx context.Context, id int64) (*dto.AppraiseResponse, error)
	Publish(ctx context.Context, id int64, req *dto.PublishRequest) (*service.PublishReport, error)
	Enqueue(ctx context.Context, id int64) error
	Attempts(ctx context.Context, id int64) ([]model.ListingAttempt, error)
	Subscribe(itemID int64) chan dto.ProgressEvent
	Unsubscribe(itemID int64, ch chan dto.ProgressEvent)
}

// IdentifyBackend 照片识别
type IdentifyBackend interface {
	Identify(ctx context.Context, itemID int64, image []byte, mimeType string) (*model.IdentifiedProduct, error)
	Usage(ctx context.Context, since time.Time) (*repository.AIUsageStats, error)
}

// ==================== 控制器 ====================

// ListingController 商品估价 / 刊登控制器
type ListingController struct {
	listing  ListingBackend
	identify IdentifyBackend
}

func NewListingController(listing ListingBackend, identify IdentifyBackend) *ListingController {
	return &ListingController{listing: listing, identify: identify}
}

// ==================== 报价 ====================

// Quote 纯计算报价
// @Summary 根据商品信息与 comp 计算三档价格和文案
// @Tags Pricing
// @Accept json
// @Produce json
// @Param body body dto.QuoteRequest true "商品与 comp"
// @Success 200 {object} dto.QuoteResponse
// @Router /api/pricing/quote [post]
func (ctrl *ListingController) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}
	if !req.Product.Condition.Valid() {
		badRequest(c, "无效的成色: "+string(req.Product.Condition))
		return
	}

	var comps []model.SoldListingRecord
	if req.Comps != nil {
		comps = *req.Comps
		if comps == nil {
			comps = []model.SoldListingRecord{}
		}
	}
	success(c, http.StatusOK, ctrl.listing.Quote(req.Product.ToProduct(), comps))
}

// ==================== 商品 ====================

// CreateItem 创建库存商品
// @Summary 创建库存商品
// @Tags Item
// @Accept json
// @Produce json
// @Param body body dto.CreateItemRequest true "商品信息"
// @Success 201 {object} model.InventoryItem
// @Router /api/items [post]
func (ctrl *ListingController) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := ctrl.listing.CreateItem(c.Request.Context(), &req)
	if err != nil {
		badRequest(c, "创建失败: "+err.Error())
		return
	}
	success(c, http.StatusCreated, item)
}

// ListItems 商品列表
// @Summary 按账号 / 状态分页查询商品
// @Tags Item
// @Param account_id query int false "平台账号ID"
// @Param status query string false "状态筛选"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/items [get]
func (ctrl *ListingController) ListItems(c *gin.Context) {
	var req dto.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	items, total, err := ctrl.listing.ListItems(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"list": items, "total": total})
}

// GetItem 商品详情
// @Summary 获取单个商品详情
// @Tags Item
// @Param id path int true "商品ID"
// @Success 200 {object} model.InventoryItem
// @Router /api/items/{id} [get]
func (ctrl *ListingController) GetItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	item, err := ctrl.listing.GetItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, item)
}

// UploadPhoto 上传商品照片
// @Summary 上传照片并追加到商品（单张不超过 10MB）
// @Tags Item
// @Accept multipart/form-data
// @Param id path int true "商品ID"
// @Param file formData file true "照片"
// @Success 200 {object} model.InventoryItem
// @Router /api/items/{id}/photos [post]
func (ctrl *ListingController) UploadPhoto(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少照片文件")
		return
	}
	data, err := readUpload(file)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := ctrl.listing.AddPhoto(c.Request.Context(), id, data, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, item)
}

// IdentifyItem 用商品首张照片识别
// @Summary 识别商品首张照片并回填字段
// @Tags Item
// @Param id path int true "商品ID"
// @Success 200 {object} model.InventoryItem
// @Router /api/items/{id}/identify [post]
func (ctrl *ListingController) IdentifyItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	item, err := ctrl.listing.IdentifyItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, item)
}

// Appraise 估价
// @Summary 拉取已售 comp 并写回三档价格与文案
// @Tags Item
// @Param id path int true "商品ID"
// @Success 200 {object} dto.AppraiseResponse
// @Router /api/items/{id}/appraise [post]
func (ctrl *ListingController) Appraise(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	resp, err := ctrl.listing.Appraise(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, resp)
}

// ==================== 刊登 ====================

// Publish 同步刊登
// @Summary 同步执行刊登，可覆盖价格与数量
// @Tags Publish
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param body body dto.PublishRequest false "覆盖参数"
// @Success 200 {object} dto.PublishResponse
// @Failure 401 {object} dto.PublishResponse
// @Failure 502 {object} dto.PublishResponse
// @Router /api/items/{id}/publish [post]
func (ctrl *ListingController) Publish(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req dto.PublishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	report, err := ctrl.listing.Publish(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	resp := dto.PublishResponse{
		Result:   report.Result,
		Progress: report.Progress,
		SKU:      report.Draft.SKU,
		Images:   report.ImagesUploaded,
	}
	if report.Result.Success {
		success(c, http.StatusOK, resp)
		return
	}

	status := http.StatusBadGateway
	if report.Result.ErrorKind == string(service.ErrKindNotAuthenticated) {
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": report.Result.ErrorMessage,
		"data":    resp,
	})
}

// Enqueue 加入刊登队列
// @Summary 加入刊登队列，由定时任务发布
// @Tags Publish
// @Param id path int true "商品ID"
// @Success 202 {object} map[string]interface{}
// @Router /api/items/{id}/enqueue [post]
func (ctrl *ListingController) Enqueue(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := ctrl.listing.Enqueue(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "已加入刊登队列",
	})
}

// Attempts 刊登历史
// @Summary 获取商品的刊登历史
// @Tags Publish
// @Param id path int true "商品ID"
// @Success 200 {array} model.ListingAttempt
// @Router /api/items/{id}/attempts [get]
func (ctrl *ListingController) Attempts(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	attempts, err := ctrl.listing.Attempts(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, attempts)
}

// StreamProgress SSE 推送刊登进度
// @Summary 订阅刊登进度，终态事件后结束
// @Tags Publish
// @Produce text/event-stream
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ProgressEvent
// @Router /api/items/{id}/stream [get]
func (ctrl *ListingController) StreamProgress(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	progressCh := ctrl.listing.Subscribe(id)
	defer ctrl.listing.Unsubscribe(id, progressCh)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case event, ok := <-progressCh:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			c.SSEvent("progress", string(data))
			c.Writer.Flush()

			if event.Terminal() {
				return
			}
		}
	}
}

// ==================== 识别 ====================

// Identify 上传单张照片识别
// @Summary 上传单张照片识别商品信息
// @Tags AI
// @Accept multipart/form-data
// @Param file formData file true "照片"
// @Success 200 {object} model.IdentifiedProduct
// @Router /api/identify [post]
func (ctrl *ListingController) Identify(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少照片文件")
		return
	}
	data, err := readUpload(file)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := ctrl.identify.Identify(c.Request.Context(), 0, data, file.Header.Get("Content-Type"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

// AIUsage 识别调用统计
// @Summary 最近 N 天的识别调用统计
// @Tags AI
// @Param days query int false "天数" default(7)
// @Success 200 {object} repository.AIUsageStats
// @Router /api/ai/usage [get]
func (ctrl *ListingController) AIUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		badRequest(c, "无效的天数")
		return
	}
	stats, err := ctrl.identify.Usage(c.Request.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, stats)
}

// ==================== 辅助 ====================

func itemID(c *gin.Context) (int64, bool) {
	return pathID(c, "无效的商品ID")
}

func pathID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, msg)
		return 0, false
	}
	return id, true
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > maxPhotoSize {
		return nil, errors.New("照片超过 10MB")
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPhotoSize))
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": msg,
	})
}

// fail 按错误类型映射状态码
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrItemNotPublishable), errors.Is(err, service.ErrItemBusy):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoPhotos):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrIdentifyDisabled):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}
