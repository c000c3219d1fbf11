package service

import (
	"math"
	"sort"
	"time"

	"ebay_lister_v1/internal/model"
)

// ==================== 常量 ====================

const (
	// DefaultDaysToSell 没有有效成交日期时的占位值
	DefaultDaysToSell = 7.0
	// confidenceSampleSize 样本数达到该值后不再因数量加分
	confidenceSampleSize = 20
)

// CompAggregator 可比成交统计（纯计算，无 I/O）
type CompAggregator struct {
	now func() time.Time
}

// NewCompAggregator now 为 nil 时使用 time.Now
func NewCompAggregator(now func() time.Time) *CompAggregator {
	if now == nil {
		now = time.Now
	}
	return &CompAggregator{now: now}
}

// Analyze 汇总成交记录，空输入返回全零 + 低需求
func (a *CompAggregator) Analyze(records []model.SoldListingRecord) model.CompAnalysis {
	n := len(records)
	if n == 0 {
		return model.CompAnalysis{DemandLevel: model.SalesTierFor(0).Demand}
	}

	prices := make([]float64, n)
	sum := 0.0
	for i, r := range records {
		prices[i] = r.Price
		sum += r.Price
	}
	sort.SliceStable(prices, func(i, j int) bool { return prices[i] < prices[j] })

	mean := sum / float64(n)
	return model.CompAnalysis{
		AveragePrice:      mean,
		MedianPrice:       median(prices),
		LowPrice:          prices[0],
		HighPrice:         prices[n-1],
		TotalSales:        n,
		DemandLevel:       model.SalesTierFor(n).Demand,
		MarketConfidence:  marketConfidence(prices, mean),
		AverageDaysToSell: a.averageDaysToSell(records),
	}
}

// median sorted 必须已升序
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// marketConfidence = min(1, n/20) × 1/(1+cv)
// 样本越多越可信，价格越离散越不可信
func marketConfidence(prices []float64, mean float64) float64 {
	n := float64(len(prices))
	sizeFactor := math.Min(1, n/confidenceSampleSize)

	cv := 0.0
	if mean > 0 {
		variance := 0.0
		for _, p := range prices {
			d := p - mean
			variance += d * d
		}
		cv = math.Sqrt(variance/n) / mean
	}
	return math.Min(1, sizeFactor/(1+cv))
}

// averageDaysToSell 最早有效成交距今天数 / 有效日期条数
func (a *CompAggregator) averageDaysToSell(records []model.SoldListingRecord) float64 {
	now := a.now()
	var earliest time.Time
	valid := 0
	for _, r := range records {
		if r.SoldDate.IsZero() || r.SoldDate.After(now) {
			continue
		}
		valid++
		if earliest.IsZero() || r.SoldDate.Before(earliest) {
			earliest = r.SoldDate
		}
	}
	if valid == 0 {
		return DefaultDaysToSell
	}
	days := now.Sub(earliest).Hours() / 24
	return days / float64(valid)
}
