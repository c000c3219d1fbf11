package service

import (
	"math"
	"testing"
	"time"

	"ebay_lister_v1/internal/model"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func comps(prices ...float64) []model.SoldListingRecord {
	out := make([]model.SoldListingRecord, len(prices))
	for i, p := range prices {
		out[i] = model.SoldListingRecord{Title: "comp", Price: p}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyze_Empty(t *testing.T) {
	agg := NewCompAggregator(func() time.Time { return fixedNow })
	got := agg.Analyze(nil)

	if got.TotalSales != 0 || got.AveragePrice != 0 || got.MedianPrice != 0 || got.LowPrice != 0 || got.HighPrice != 0 {
		t.Errorf("Analyze(nil) = %+v, want zeros", got)
	}
	if got.DemandLevel != model.DemandLow {
		t.Errorf("DemandLevel = %v, want low", got.DemandLevel)
	}
	if got.MarketConfidence != 0 {
		t.Errorf("MarketConfidence = %v, want 0", got.MarketConfidence)
	}
}

func TestAnalyze_ThreePrices(t *testing.T) {
	agg := NewCompAggregator(func() time.Time { return fixedNow })
	got := agg.Analyze(comps(40, 60, 50))

	if !approx(got.AveragePrice, 50) {
		t.Errorf("AveragePrice = %v, want 50", got.AveragePrice)
	}
	if !approx(got.MedianPrice, 50) {
		t.Errorf("MedianPrice = %v, want 50", got.MedianPrice)
	}
	if got.LowPrice != 40 || got.HighPrice != 60 {
		t.Errorf("Low/High = %v/%v, want 40/60", got.LowPrice, got.HighPrice)
	}
	if got.TotalSales != 3 {
		t.Errorf("TotalSales = %d, want 3", got.TotalSales)
	}
	if got.DemandLevel != model.DemandLow {
		t.Errorf("DemandLevel = %v, want low", got.DemandLevel)
	}
	// 无日期 → 占位值
	if got.AverageDaysToSell != DefaultDaysToSell {
		t.Errorf("AverageDaysToSell = %v, want %v", got.AverageDaysToSell, DefaultDaysToSell)
	}
}

func TestAnalyze_TwentyIdentical(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100
	}
	got := NewCompAggregator(nil).Analyze(comps(prices...))

	if got.DemandLevel != model.DemandHigh {
		t.Errorf("DemandLevel = %v, want high", got.DemandLevel)
	}
	if !approx(got.MarketConfidence, 1.0) {
		t.Errorf("MarketConfidence = %v, want 1.0", got.MarketConfidence)
	}
	if got.MedianPrice != 100 || got.LowPrice != 100 || got.HighPrice != 100 {
		t.Errorf("stats = %+v", got)
	}
}

func TestAnalyze_EvenMedian(t *testing.T) {
	got := NewCompAggregator(nil).Analyze(comps(10, 40, 20, 30))
	if !approx(got.MedianPrice, 25) {
		t.Errorf("MedianPrice = %v, want 25", got.MedianPrice)
	}
}

func TestAnalyze_DemandBoundaries(t *testing.T) {
	tests := []struct {
		n    int
		want model.DemandLevel
	}{
		{1, model.DemandLow},
		{3, model.DemandLow},
		{4, model.DemandMedium},
		{15, model.DemandMedium},
		{16, model.DemandHigh},
		{40, model.DemandHigh},
	}
	agg := NewCompAggregator(nil)
	for _, tt := range tests {
		prices := make([]float64, tt.n)
		for i := range prices {
			prices[i] = 10
		}
		if got := agg.Analyze(comps(prices...)).DemandLevel; got != tt.want {
			t.Errorf("n=%d DemandLevel = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestAnalyze_ConfidenceMonotonic(t *testing.T) {
	agg := NewCompAggregator(nil)

	// 同样的离散度，样本越多越可信
	prev := -1.0
	for n := 2; n <= 30; n += 2 {
		prices := make([]float64, 0, n)
		for i := 0; i < n/2; i++ {
			prices = append(prices, 40, 60)
		}
		c := agg.Analyze(comps(prices...)).MarketConfidence
		if c < prev {
			t.Errorf("n=%d confidence %v < previous %v", n, c, prev)
		}
		if c > 1 {
			t.Errorf("n=%d confidence %v > 1", n, c)
		}
		prev = c
	}

	// 同样的样本数，离散度越大越不可信
	tight := agg.Analyze(comps(49, 51, 49, 51, 50)).MarketConfidence
	wide := agg.Analyze(comps(10, 90, 10, 90, 50)).MarketConfidence
	if tight <= wide {
		t.Errorf("tight confidence %v should exceed wide %v", tight, wide)
	}
}

func TestAnalyze_DaysToSell(t *testing.T) {
	agg := NewCompAggregator(func() time.Time { return fixedNow })
	records := []model.SoldListingRecord{
		{Price: 10, SoldDate: fixedNow.AddDate(0, 0, -10)},
		{Price: 12, SoldDate: fixedNow.AddDate(0, 0, -4)},
		{Price: 14}, // 无日期
		{Price: 16, SoldDate: fixedNow.AddDate(0, 0, 3)}, // 未来日期
	}
	got := agg.Analyze(records)
	if !approx(got.AverageDaysToSell, 5) {
		t.Errorf("AverageDaysToSell = %v, want 5", got.AverageDaysToSell)
	}
}

func TestAnalyze_DuplicatesCounted(t *testing.T) {
	got := NewCompAggregator(nil).Analyze(comps(30, 30, 30, 30))
	if got.TotalSales != 4 || got.DemandLevel != model.DemandMedium {
		t.Errorf("duplicates should count as distinct sales: %+v", got)
	}
}
