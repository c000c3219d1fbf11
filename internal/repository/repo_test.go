package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/pkg/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"},
		&model.InventoryItem{}, &model.SoldListingRecord{},
		&model.MarketplaceAccount{}, &model.ListingAttempt{},
	)
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	return db
}

// ==================== InventoryItem ====================

func TestItemRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := &model.InventoryItem{
		AccountID:   1,
		ProductName: "501 Original Jeans",
		Brand:       "Levi's",
		Condition:   model.ConditionVeryGood,
		Photos:      model.StringSlice{"a.jpg", "b.jpg"},
		Keywords:    model.TextArray{"levi's", "jeans"},
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != model.ItemStatusDraft {
		t.Errorf("Status = %q, want draft", got.Status)
	}
	if len(got.Photos) != 2 || got.Photos[1] != "b.jpg" {
		t.Errorf("Photos = %v", got.Photos)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "levi's" {
		t.Errorf("Keywords = %v", got.Keywords)
	}
}

func TestItemRepo_QueueAndClaim(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status := model.ItemStatusQueued
		if i == 2 {
			status = model.ItemStatusAppraised
		}
		if err := repo.Create(ctx, &model.InventoryItem{AccountID: 1, Status: status}); err != nil {
			t.Fatal(err)
		}
	}

	queued, err := repo.FindQueued(ctx, 10)
	if err != nil {
		t.Fatalf("FindQueued() error = %v", err)
	}
	if len(queued) != 2 {
		t.Fatalf("FindQueued() len = %d, want 2", len(queued))
	}

	ok, err := repo.ClaimForPublish(ctx, queued[0].ID, model.ItemStatusQueued)
	if err != nil || !ok {
		t.Fatalf("ClaimForPublish() = %v, %v", ok, err)
	}
	// 第二次抢占失败
	ok, _ = repo.ClaimForPublish(ctx, queued[0].ID, model.ItemStatusQueued)
	if ok {
		t.Error("second claim should fail")
	}

	items, total, err := repo.List(ctx, ItemFilter{Status: model.ItemStatusPublishing})
	if err != nil || total != 1 || len(items) != 1 {
		t.Errorf("List() = %d items, total %d, err %v", len(items), total, err)
	}
}

// ==================== Comp 缓存 ====================

func TestCompRepo_ReplaceAndFresh(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompRepository(db)
	ctx := context.Background()

	ship := 4.5
	records := []model.SoldListingRecord{
		{Title: "A", Price: 40, ShippingCost: &ship, SoldDate: time.Now().Add(-48 * time.Hour)},
		{Title: "A", Price: 40, SoldDate: time.Now().Add(-48 * time.Hour)},
	}
	if err := repo.Replace(ctx, "levi 501", records); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, err := repo.FindFresh(ctx, "levi 501", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("FindFresh() error = %v", err)
	}
	// 重复记录不去重
	if len(got) != 2 {
		t.Fatalf("FindFresh() len = %d, want 2", len(got))
	}
	if got[0].ShippingCost == nil || *got[0].ShippingCost != 4.5 {
		t.Errorf("ShippingCost = %v", got[0].ShippingCost)
	}

	if err := repo.Replace(ctx, "levi 501", records[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FindFresh(ctx, "levi 501", time.Now().Add(-time.Hour))
	if len(got) != 1 {
		t.Errorf("after replace len = %d, want 1", len(got))
	}

	other, _ := repo.FindFresh(ctx, "other", time.Now().Add(-time.Hour))
	if len(other) != 0 {
		t.Errorf("other query len = %d, want 0", len(other))
	}

	n, err := repo.DeleteBefore(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Errorf("DeleteBefore() = %d, %v", n, err)
	}
}

// ==================== Account ====================

func TestAccountRepo_Tokens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	acc := &model.MarketplaceAccount{
		Name:           "main",
		TokenStatus:    model.TokenStatusValid,
		AccessToken:    "old",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(2 * time.Minute),
	}
	if err := repo.Create(ctx, acc); err != nil {
		t.Fatal(err)
	}

	expiring, err := repo.FindExpiringTokens(ctx, 10*time.Minute)
	if err != nil || len(expiring) != 1 {
		t.Fatalf("FindExpiringTokens() = %d, %v", len(expiring), err)
	}

	exp := time.Now().Add(2 * time.Hour)
	if err := repo.UpdateToken(ctx, acc.ID, "new", "", exp); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByID(ctx, acc.ID)
	if got.AccessToken != "new" || got.RefreshToken != "refresh" {
		t.Errorf("tokens = %q/%q", got.AccessToken, got.RefreshToken)
	}

	expiring, _ = repo.FindExpiringTokens(ctx, 10*time.Minute)
	if len(expiring) != 0 {
		t.Errorf("after refresh expiring = %d, want 0", len(expiring))
	}

	if err := repo.UpdateTokenStatus(ctx, acc.ID, model.TokenStatusInvalid); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetByID(ctx, acc.ID)
	if got.TokenUsable(time.Now()) {
		t.Error("invalid account should not be usable")
	}
}

// ==================== ListingAttempt ====================

func TestAttemptRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	for i, ok := range []bool{false, true} {
		a := &model.ListingAttempt{
			ItemID:        7,
			SKU:           "SKU-1",
			Success:       ok,
			FinalStep:     i + 3,
			DraftSnapshot: datatypes.JSON(`{"sku":"SKU-1"}`),
			StartedAt:     time.Now(),
			FinishedAt:    time.Now(),
		}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.ListByItem(ctx, 7)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByItem() = %d, %v", len(list), err)
	}
	if !list[0].Success {
		t.Error("newest attempt should come first")
	}
	n, _ := repo.CountFailures(ctx, 7)
	if n != 1 {
		t.Errorf("CountFailures() = %d, want 1", n)
	}
}

// ==================== AICallLog ====================

func TestAICallLogRepo_GetUsage(t *testing.T) {
	db := setupTestDB(t)
	if err := db.AutoMigrate(&model.AICallLog{}); err != nil {
		t.Fatal(err)
	}
	repo := NewAICallLogRepository(db)
	ctx := context.Background()

	logs := []*model.AICallLog{
		{CallType: model.AICallTypeIdentify, InputTokens: 100, OutputTokens: 50, ImageCount: 1, DurationMs: 1000, Status: model.AICallStatusSuccess},
		{CallType: model.AICallTypeIdentify, InputTokens: 200, OutputTokens: 100, ImageCount: 1, DurationMs: 3000, Status: model.AICallStatusSuccess},
		{CallType: model.AICallTypeIdentify, ImageCount: 1, DurationMs: 2000, Status: model.AICallStatusFailed},
	}
	for _, l := range logs {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.GetUsage(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetUsage() error = %v", err)
	}
	if stats.TotalCalls != 3 {
		t.Errorf("TotalCalls = %d, want 3", stats.TotalCalls)
	}
	if stats.TotalInputTokens != 300 || stats.TotalOutputTokens != 150 {
		t.Errorf("tokens = %d/%d", stats.TotalInputTokens, stats.TotalOutputTokens)
	}
	if stats.SuccessCount != 2 || stats.FailedCount != 1 {
		t.Errorf("success/failed = %d/%d", stats.SuccessCount, stats.FailedCount)
	}
	if stats.AvgDurationMs != 2000 {
		t.Errorf("AvgDurationMs = %v, want 2000", stats.AvgDurationMs)
	}
}
