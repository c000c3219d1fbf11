package model

import "math"

// DemandLevel 需求等级（按成交数量）
type DemandLevel string

const (
	DemandLow    DemandLevel = "low"
	DemandMedium DemandLevel = "medium"
	DemandHigh   DemandLevel = "high"
)

// CompetitionLevel 竞争等级
type CompetitionLevel string

const (
	CompetitionLow      CompetitionLevel = "low"
	CompetitionModerate CompetitionLevel = "moderate"
	CompetitionHigh     CompetitionLevel = "high"
	CompetitionVeryHigh CompetitionLevel = "very_high"
)

// PricingStrategy 定价策略
type PricingStrategy string

const (
	StrategyPremium   PricingStrategy = "premium"
	StrategyMarket    PricingStrategy = "market"
	StrategyQuickSale PricingStrategy = "quick_sale"
	StrategyAuction   PricingStrategy = "auction"
)

// SalesTier 成交量分档
// 需求等级与竞争等级共用这一张表，不要在别处重复定义边界
type SalesTier struct {
	MaxSales    int
	Demand      DemandLevel
	Competition CompetitionLevel
	Strategy    PricingStrategy
}

var salesTiers = []SalesTier{
	{MaxSales: 3, Demand: DemandLow, Competition: CompetitionLow, Strategy: StrategyPremium},
	{MaxSales: 15, Demand: DemandMedium, Competition: CompetitionModerate, Strategy: StrategyMarket},
	{MaxSales: 30, Demand: DemandHigh, Competition: CompetitionHigh, Strategy: StrategyQuickSale},
	{MaxSales: math.MaxInt, Demand: DemandHigh, Competition: CompetitionVeryHigh, Strategy: StrategyAuction},
}

// NoCompsTier 完全没有市场数据时的分档
var NoCompsTier = SalesTier{
	Demand:      DemandLow,
	Competition: CompetitionModerate,
	Strategy:    StrategyMarket,
}

// SalesTierFor 按成交数量取分档，负数按 0 处理
func SalesTierFor(sales int) SalesTier {
	if sales < 0 {
		sales = 0
	}
	for _, t := range salesTiers {
		if sales <= t.MaxSales {
			return t
		}
	}
	return salesTiers[len(salesTiers)-1]
}
