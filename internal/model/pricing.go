package model

// IdentifiedProduct 识别服务给出的商品信息（只读输入）
type IdentifiedProduct struct {
	ProductName string         `json:"product_name"`
	Brand       string         `json:"brand"`
	Model       string         `json:"model"`
	Category    string         `json:"category"`
	Size        string         `json:"size,omitempty"`
	Color       string         `json:"color,omitempty"`
	Condition   ConditionGrade `json:"condition"`
	Confidence  float64        `json:"confidence"`
}

// SearchQuery 拼接查询可比成交用的关键词
func (p IdentifiedProduct) SearchQuery() string {
	q := ""
	for _, part := range []string{p.Brand, p.ProductName, p.Model} {
		if part == "" {
			continue
		}
		if q != "" {
			q += " "
		}
		q += part
	}
	return q
}

// PriceRange 价格区间
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// PriceRecommendation 三档价格建议
// 不变式: QuickSalePrice <= RealisticPrice <= MaxProfitPrice
type PriceRecommendation struct {
	QuickSalePrice   float64          `json:"quick_sale_price"`
	RealisticPrice   float64          `json:"realistic_price"`
	MaxProfitPrice   float64          `json:"max_profit_price"`
	CompetitionLevel CompetitionLevel `json:"competition_level"`
	Strategy         PricingStrategy  `json:"strategy"`
	PriceRange       *PriceRange      `json:"price_range,omitempty"`
	Confidence       float64          `json:"confidence"`
}

// ListingContent 刊登文案
type ListingContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}
