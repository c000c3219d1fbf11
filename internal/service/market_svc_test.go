package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/pkg/ebay"
)

type mockCompRepo struct {
	rows     map[string][]model.SoldListingRecord
	replaced int
}

func (m *mockCompRepo) FindFresh(ctx context.Context, query string, since time.Time) ([]model.SoldListingRecord, error) {
	return m.rows[query], nil
}

func (m *mockCompRepo) Replace(ctx context.Context, query string, records []model.SoldListingRecord) error {
	if m.rows == nil {
		m.rows = map[string][]model.SoldListingRecord{}
	}
	m.rows[query] = records
	m.replaced++
	return nil
}

func (m *mockCompRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type mockSearcher struct {
	calls int
	resp  *ebay.ItemSalesSearchResp
	err   error
}

func (m *mockSearcher) SearchItemSales(ctx context.Context, token, query string, limit int) (*ebay.ItemSalesSearchResp, error) {
	m.calls++
	return m.resp, m.err
}

func TestSoldComps_CacheThenFetch(t *testing.T) {
	repo := &mockCompRepo{}
	searcher := &mockSearcher{resp: &ebay.ItemSalesSearchResp{ItemSales: []ebay.ItemSale{
		{Title: "A", LastSoldPrice: ebay.Amount{Value: "40.00"}, LastSoldDate: "2026-09-01T10:00:00.000Z", BuyingOptions: []string{"AUCTION"}},
		{Title: "B", LastSoldPrice: ebay.Amount{Value: "bad"}},
	}}}
	svc := NewMarketDataService(repo, searcher, MarketDataConfig{})
	auth := StaticTokenProvider{Token: "tok"}

	got, err := svc.SoldComps(context.Background(), auth, "  Levi   501 ")
	if err != nil {
		t.Fatalf("SoldComps() error = %v", err)
	}
	if len(got) != 1 || !got[0].IsAuctionFormat || got[0].SoldDate.IsZero() {
		t.Errorf("records = %+v", got)
	}
	if repo.replaced != 1 || len(repo.rows["levi 501"]) != 1 {
		t.Errorf("cache not written under normalized query: %v", repo.rows)
	}

	// 第二次命中缓存
	if _, err := svc.SoldComps(context.Background(), auth, "levi 501"); err != nil {
		t.Fatal(err)
	}
	if searcher.calls != 1 {
		t.Errorf("searcher calls = %d, want 1", searcher.calls)
	}
}

func TestSoldComps_NoAuth(t *testing.T) {
	svc := NewMarketDataService(&mockCompRepo{}, &mockSearcher{}, MarketDataConfig{})
	_, err := svc.SoldComps(context.Background(), StaticTokenProvider{}, "levi")
	if !errors.Is(err, ErrMarketDataUnavailable) {
		t.Errorf("err = %v, want ErrMarketDataUnavailable", err)
	}
}

func TestMapItemSales(t *testing.T) {
	got := MapItemSales([]ebay.ItemSale{{
		Title:         "Jacket",
		LastSoldPrice: ebay.Amount{Value: "55.5", Currency: "USD"},
		Condition:     "Pre-owned",
		ShippingOptions: []ebay.ShippingOption{
			{ShippingCost: ebay.Amount{Value: "7.25"}},
		},
	}})
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	r := got[0]
	if r.Price != 55.5 || r.ShippingCost == nil || *r.ShippingCost != 7.25 {
		t.Errorf("record = %+v", r)
	}
	if r.Condition != model.ConditionVeryGood {
		t.Errorf("Condition = %q", r.Condition)
	}
}
