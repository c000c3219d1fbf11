package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
	"ebay_lister_v1/pkg/ebay"
)

// ErrMarketDataUnavailable 无缓存且无法访问平台
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// SalesSearcher 已售商品查询（*ebay.Client 实现）
type SalesSearcher interface {
	SearchItemSales(ctx context.Context, token, query string, limit int) (*ebay.ItemSalesSearchResp, error)
}

// MarketDataConfig 市场数据配置
type MarketDataConfig struct {
	Limit    int
	CacheTTL time.Duration
}

// MarketDataService 已售 comp 获取（带数据库缓存）
type MarketDataService struct {
	compRepo repository.CompRepository
	searcher SalesSearcher
	cfg      MarketDataConfig
	now      func() time.Time
}

func NewMarketDataService(compRepo repository.CompRepository, searcher SalesSearcher, cfg MarketDataConfig) *MarketDataService {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &MarketDataService{compRepo: compRepo, searcher: searcher, cfg: cfg, now: time.Now}
}

// SoldComps 先查缓存，过期则调用平台并覆盖缓存
func (s *MarketDataService) SoldComps(ctx context.Context, auth AuthProvider, query string) ([]model.SoldListingRecord, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, errors.New("empty comp query")
	}

	cached, err := s.compRepo.FindFresh(ctx, query, s.now().Add(-s.cfg.CacheTTL))
	if err != nil {
		return nil, fmt.Errorf("read comp cache: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	if auth == nil {
		return nil, ErrMarketDataUnavailable
	}
	token, ok := auth.CurrentAccessToken(ctx)
	if !ok {
		return nil, ErrMarketDataUnavailable
	}

	resp, err := s.searcher.SearchItemSales(ctx, token, query, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("search item sales: %w", err)
	}
	records := MapItemSales(resp.ItemSales)

	if err := s.compRepo.Replace(ctx, query, records); err != nil {
		logrus.WithField("query", query).Warnf("[MarketData] 写入 comp 缓存失败: %v", err)
	}
	logrus.WithFields(logrus.Fields{"query": query, "count": len(records)}).Info("[MarketData] 已刷新 comp")
	return records, nil
}

// PruneCache 清理过期缓存
func (s *MarketDataService) PruneCache(ctx context.Context) (int64, error) {
	return s.compRepo.DeleteBefore(ctx, s.now().Add(-s.cfg.CacheTTL))
}

// MapItemSales 平台成交记录 → SoldListingRecord，价格无效的记录丢弃
func MapItemSales(sales []ebay.ItemSale) []model.SoldListingRecord {
	out := make([]model.SoldListingRecord, 0, len(sales))
	for _, sale := range sales {
		price, err := decimal.NewFromString(sale.LastSoldPrice.Value)
		if err != nil || !price.IsPositive() {
			continue
		}

		rec := model.SoldListingRecord{
			Title: sale.Title,
			Price: price.InexactFloat64(),
		}
		if len(sale.ShippingOptions) > 0 {
			if cost, err := decimal.NewFromString(sale.ShippingOptions[0].ShippingCost.Value); err == nil {
				v := cost.InexactFloat64()
				rec.ShippingCost = &v
			}
		}
		if grade, err := model.ParseConditionGrade(sale.Condition); err == nil {
			rec.Condition = grade
		}
		if t, err := time.Parse(time.RFC3339, sale.LastSoldDate); err == nil {
			rec.SoldDate = t
		}
		for _, opt := range sale.BuyingOptions {
			if strings.EqualFold(opt, "AUCTION") {
				rec.IsAuctionFormat = true
			}
		}
		out = append(out, rec)
	}
	return out
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
