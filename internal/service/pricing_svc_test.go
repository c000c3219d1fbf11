package service

import (
	"testing"

	"ebay_lister_v1/internal/model"
)

func TestRecommend_NoComps(t *testing.T) {
	e := NewPricingEngine()
	got := e.Recommend(model.IdentifiedProduct{Condition: model.ConditionNewWithTags, Confidence: 0.9}, nil)

	if got.RealisticPrice != 25.00 {
		t.Errorf("RealisticPrice = %v, want 25.00", got.RealisticPrice)
	}
	if got.QuickSalePrice != 21.25 {
		t.Errorf("QuickSalePrice = %v, want 21.25", got.QuickSalePrice)
	}
	if got.MaxProfitPrice != 31.25 {
		t.Errorf("MaxProfitPrice = %v, want 31.25", got.MaxProfitPrice)
	}
	if got.CompetitionLevel != model.CompetitionModerate || got.Strategy != model.StrategyMarket {
		t.Errorf("tier = %v/%v, want moderate/market", got.CompetitionLevel, got.Strategy)
	}
	if got.PriceRange != nil {
		t.Errorf("PriceRange = %+v, want nil", got.PriceRange)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
}

func TestRecommend_WithComps(t *testing.T) {
	e := NewPricingEngine()
	comps := &model.CompAnalysis{AveragePrice: 50, LowPrice: 40, HighPrice: 60, TotalSales: 3}
	got := e.Recommend(model.IdentifiedProduct{Condition: model.ConditionVeryGood}, comps)

	// 50 × 0.68 = 34.00
	if got.RealisticPrice != 34.00 {
		t.Errorf("RealisticPrice = %v, want 34.00", got.RealisticPrice)
	}
	if got.QuickSalePrice != 28.90 {
		t.Errorf("QuickSalePrice = %v, want 28.90", got.QuickSalePrice)
	}
	if got.MaxProfitPrice != 42.50 {
		t.Errorf("MaxProfitPrice = %v, want 42.50", got.MaxProfitPrice)
	}
	if got.CompetitionLevel != model.CompetitionLow || got.Strategy != model.StrategyPremium {
		t.Errorf("tier = %v/%v, want low/premium", got.CompetitionLevel, got.Strategy)
	}
	if got.PriceRange == nil || got.PriceRange.Low != 40 || got.PriceRange.High != 60 {
		t.Errorf("PriceRange = %+v", got.PriceRange)
	}
}

func TestRecommend_TierBoundaries(t *testing.T) {
	tests := []struct {
		sales       int
		competition model.CompetitionLevel
		strategy    model.PricingStrategy
	}{
		{0, model.CompetitionLow, model.StrategyPremium},
		{3, model.CompetitionLow, model.StrategyPremium},
		{4, model.CompetitionModerate, model.StrategyMarket},
		{15, model.CompetitionModerate, model.StrategyMarket},
		{16, model.CompetitionHigh, model.StrategyQuickSale},
		{30, model.CompetitionHigh, model.StrategyQuickSale},
		{31, model.CompetitionVeryHigh, model.StrategyAuction},
	}
	e := NewPricingEngine()
	for _, tt := range tests {
		got := e.Recommend(model.IdentifiedProduct{Condition: model.ConditionLikeNew},
			&model.CompAnalysis{AveragePrice: 20, LowPrice: 20, HighPrice: 20, TotalSales: tt.sales})
		if got.CompetitionLevel != tt.competition || got.Strategy != tt.strategy {
			t.Errorf("sales=%d → %v/%v, want %v/%v", tt.sales, got.CompetitionLevel, got.Strategy, tt.competition, tt.strategy)
		}
	}
}

func TestRecommend_OrderingHolds(t *testing.T) {
	e := NewPricingEngine()
	bases := []float64{0.01, 0.99, 1, 7.77, 25, 33.33, 99.99, 1234.56}
	sales := []int{0, 2, 10, 25, 100}

	for _, g := range model.ConditionGrades {
		for _, b := range bases {
			for _, s := range sales {
				rec := e.Recommend(model.IdentifiedProduct{Condition: g},
					&model.CompAnalysis{AveragePrice: b, LowPrice: b, HighPrice: b, TotalSales: s})
				if !(rec.QuickSalePrice <= rec.RealisticPrice && rec.RealisticPrice <= rec.MaxProfitPrice) {
					t.Errorf("grade=%s base=%v sales=%d: %v <= %v <= %v violated",
						g, b, s, rec.QuickSalePrice, rec.RealisticPrice, rec.MaxProfitPrice)
				}
			}
		}
	}
}

func TestConditionMultiplier_StrictlyDecreasing(t *testing.T) {
	prev := 2.0
	for _, g := range model.ConditionGrades {
		m := ConditionMultiplier(g)
		if m >= prev {
			t.Errorf("multiplier for %s = %v, not below %v", g, m, prev)
		}
		prev = m
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(42.5); got != "42.50" {
		t.Errorf("FormatPrice(42.5) = %q", got)
	}
}
