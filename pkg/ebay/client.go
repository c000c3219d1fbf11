package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
)

// 接口路径
const (
	pathUploadImage   = "/sell/inventory/v1/bulk_upload_image"
	pathInventoryItem = "/sell/inventory/v1/inventory_item/{sku}"
	pathOffer         = "/sell/inventory/v1/offer"
	pathPublishOffer  = "/sell/inventory/v1/offer/{offerId}/publish/"
	pathItemSales     = "/buy/marketplace_insights/v1_beta/item_sales/search"
)

// Client Inventory / Insights REST 客户端
// 每次调用显式传入 access token，客户端本身不持有凭证
type Client struct {
	http            *resty.Client
	contentLanguage string
	marketplaceID   string
}

// NewClient http 需已配置 BaseURL 与超时
func NewClient(rc *resty.Client, contentLanguage, marketplaceID string) *Client {
	return &Client{
		http:            rc,
		contentLanguage: contentLanguage,
		marketplaceID:   marketplaceID,
	}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if c.contentLanguage != "" {
		req.SetHeader("Content-Language", c.contentLanguage)
	}
	return req
}

// ==================== Inventory ====================

// UploadImage 上传单张图片，返回图片句柄（imageId，缺省时为 imageUrl）
func (c *Client) UploadImage(ctx context.Context, token string, data []byte) (string, error) {
	const op = "upload image"
	resp, err := c.request(ctx, token).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Post(pathUploadImage)
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}

	var out uploadImageResp
	if err := decode(op, resp, &out); err != nil {
		return "", err
	}
	handle := out.handle()
	if handle == "" {
		return "", fmt.Errorf("%s: missing imageId: %w", op, ErrInvalidResponse)
	}
	return handle, nil
}

// PutInventoryItem 创建或替换库存商品，成功时响应体可以为空
func (c *Client) PutInventoryItem(ctx context.Context, token, sku string, item *InventoryItemReq) error {
	resp, err := c.request(ctx, token).
		SetPathParam("sku", sku).
		SetBody(item).
		Put(pathInventoryItem)
	return checkResponse("put inventory item", resp, err)
}

// CreateOffer 创建报价，返回 offerId
func (c *Client) CreateOffer(ctx context.Context, token string, offer *OfferReq) (string, error) {
	const op = "create offer"
	resp, err := c.request(ctx, token).
		SetBody(offer).
		Post(pathOffer)
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}

	var out createOfferResp
	if err := decode(op, resp, &out); err != nil {
		return "", err
	}
	if out.OfferID == "" {
		return "", &APIError{Op: op, StatusCode: resp.StatusCode(), Body: "missing offerId: " + resp.String()}
	}
	return out.OfferID, nil
}

// PublishOffer 发布报价，返回 listingId
func (c *Client) PublishOffer(ctx context.Context, token, offerID string) (string, error) {
	const op = "publish offer"
	resp, err := c.request(ctx, token).
		SetPathParam("offerId", offerID).
		Post(pathPublishOffer)
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}

	var out publishOfferResp
	if err := decode(op, resp, &out); err != nil {
		return "", err
	}
	if out.ListingID == "" {
		return "", &APIError{Op: op, StatusCode: resp.StatusCode(), Body: "missing listingId: " + resp.String()}
	}
	return out.ListingID, nil
}

// ==================== Insights ====================

// SearchItemSales 查询近期成交
func (c *Client) SearchItemSales(ctx context.Context, token, query string, limit int) (*ItemSalesSearchResp, error) {
	const op = "search item sales"
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	resp, err := c.request(ctx, token).
		SetHeader("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID).
		SetQueryParamsFromValues(params).
		Get(pathItemSales)
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	var out ItemSalesSearchResp
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 工具函数 ====================

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode() == 0 {
		return fmt.Errorf("%s: no status: %w", op, ErrInvalidResponse)
	}
	if !resp.IsSuccess() {
		return &APIError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func decode(op string, resp *resty.Response, v interface{}) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, ErrInvalidResponse)
	}
	return nil
}
