package service

import (
	"github.com/shopspring/decimal"

	"ebay_lister_v1/internal/model"
)

const (
	// FallbackBasePrice 没有成交数据时的基准价
	FallbackBasePrice = 25.00
	quickSaleFactor   = 0.85
	maxProfitFactor   = 1.25
)

// conditionMultipliers 由好到差严格递减
var conditionMultipliers = map[model.ConditionGrade]float64{
	model.ConditionNewWithTags:    1.00,
	model.ConditionNewWithoutTags: 0.92,
	model.ConditionNewOther:       0.85,
	model.ConditionLikeNew:        0.78,
	model.ConditionVeryGood:       0.68,
	model.ConditionAcceptable:     0.50,
	model.ConditionForParts:       0.30,
}

// ConditionMultiplier 未知成色按 Acceptable 处理
func ConditionMultiplier(g model.ConditionGrade) float64 {
	if m, ok := conditionMultipliers[g]; ok {
		return m
	}
	return conditionMultipliers[model.ConditionAcceptable]
}

// PricingEngine 三档定价（纯计算）
type PricingEngine struct{}

func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// Recommend comps 为 nil 表示没有市场数据
func (e *PricingEngine) Recommend(product model.IdentifiedProduct, comps *model.CompAnalysis) model.PriceRecommendation {
	base := decimal.NewFromFloat(FallbackBasePrice)
	tier := model.NoCompsTier
	var priceRange *model.PriceRange

	if comps != nil {
		tier = model.SalesTierFor(comps.TotalSales)
		if comps.TotalSales > 0 {
			base = decimal.NewFromFloat(comps.AveragePrice)
			priceRange = &model.PriceRange{Low: comps.LowPrice, High: comps.HighPrice}
		}
	}

	realistic := base.Mul(decimal.NewFromFloat(ConditionMultiplier(product.Condition))).Round(2)
	quick := realistic.Mul(decimal.NewFromFloat(quickSaleFactor)).Round(2)
	maxProfit := realistic.Mul(decimal.NewFromFloat(maxProfitFactor)).Round(2)

	return model.PriceRecommendation{
		QuickSalePrice:   quick.InexactFloat64(),
		RealisticPrice:   realistic.InexactFloat64(),
		MaxProfitPrice:   maxProfit.InexactFloat64(),
		CompetitionLevel: tier.Competition,
		Strategy:         tier.Strategy,
		PriceRange:       priceRange,
		Confidence:       product.Confidence,
	}
}

// FormatPrice 两位小数字符串，供报价请求使用
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}
