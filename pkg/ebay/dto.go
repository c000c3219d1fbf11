package ebay

// ==========================================
// DTO: Inventory API 请求/响应
// ==========================================

// InventoryItemReq 创建/替换库存商品
// PUT /sell/inventory/v1/inventory_item/{sku}
type InventoryItemReq struct {
	Availability Availability `json:"availability"`
	Condition    string       `json:"condition"`
	Product      ProductInfo  `json:"product"`
}

type Availability struct {
	ShipToLocationAvailability ShipToLocationAvailability `json:"shipToLocationAvailability"`
}

type ShipToLocationAvailability struct {
	Quantity int `json:"quantity"`
}

type ProductInfo struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Brand       string              `json:"brand,omitempty"`
	Aspects     map[string][]string `json:"aspects,omitempty"`
	ImageURLs   []string            `json:"imageUrls,omitempty"`
}

// OfferReq 创建报价
// POST /sell/inventory/v1/offer
type OfferReq struct {
	SKU                 string          `json:"sku"`
	MarketplaceID       string          `json:"marketplaceId"`
	Format              string          `json:"format"`
	AvailableQuantity   int             `json:"availableQuantity"`
	CategoryID          string          `json:"categoryId"`
	ListingDescription  string          `json:"listingDescription"`
	ListingPolicies     ListingPolicies `json:"listingPolicies"`
	PricingSummary      PricingSummary  `json:"pricingSummary"`
	MerchantLocationKey string          `json:"merchantLocationKey,omitempty"`
}

type ListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	PaymentPolicyID     string `json:"paymentPolicyId,omitempty"`
	ReturnPolicyID      string `json:"returnPolicyId,omitempty"`
}

type PricingSummary struct {
	Price Amount `json:"price"`
}

// Amount 金额，value 为字符串形式的十进制数
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// FormatFixedPrice 一口价
const FormatFixedPrice = "FIXED_PRICE"

// uploadImageResp imageId 为图片句柄，部分环境只返回 imageUrl
type uploadImageResp struct {
	ImageID  string `json:"imageId"`
	ImageURL string `json:"imageUrl"`
}

// handle imageId 优先
func (r uploadImageResp) handle() string {
	if r.ImageID != "" {
		return r.ImageID
	}
	return r.ImageURL
}

type createOfferResp struct {
	OfferID string `json:"offerId"`
}

type publishOfferResp struct {
	ListingID string `json:"listingId"`
}

// ==========================================
// DTO: Marketplace Insights（已售商品）
// ==========================================

// ItemSalesSearchResp GET /buy/marketplace_insights/v1_beta/item_sales/search
type ItemSalesSearchResp struct {
	Total     int        `json:"total"`
	ItemSales []ItemSale `json:"itemSales"`
}

type ItemSale struct {
	ItemID            string           `json:"itemId"`
	Title             string           `json:"title"`
	LastSoldPrice     Amount           `json:"lastSoldPrice"`
	LastSoldDate      string           `json:"lastSoldDate"`
	Condition         string           `json:"condition"`
	BuyingOptions     []string         `json:"buyingOptions"`
	TotalSoldQuantity int              `json:"totalSoldQuantity"`
	ShippingOptions   []ShippingOption `json:"shippingOptions"`
}

type ShippingOption struct {
	ShippingCost     Amount `json:"shippingCost"`
	ShippingCostType string `json:"shippingCostType"`
}

// ErrorResp 平台通用错误结构
type ErrorResp struct {
	Errors []ErrorDetail `json:"errors"`
}

type ErrorDetail struct {
	ErrorID  int    `json:"errorId"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
	Message  string `json:"message"`
}
