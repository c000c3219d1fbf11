package database

import (
	"testing"

	"ebay_lister_v1/internal/model"
)

type sample struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, &sample{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !db.Migrator().HasTable(&sample{}) {
		t.Error("table was not migrated")
	}
}

// 与 cmd/main.go 迁移的模型保持一致
func TestOpen_MigratesAppModels(t *testing.T) {
	models := []interface{}{
		&model.MarketplaceAccount{},
		&model.InventoryItem{}, &model.ListingAttempt{},
		&model.SoldListingRecord{},
		&model.AICallLog{},
	}
	db, err := Open(Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, models...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, m := range models {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T was not migrated", m)
		}
	}

	// 关键词数组可以写入并读回
	item := &model.InventoryItem{AccountID: 1, ProductName: "Jeans", Keywords: model.TextArray{"levis", "size 32"}}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	var got model.InventoryItem
	if err := db.First(&got, item.ID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if len(got.Keywords) != 2 || got.Keywords[1] != "size 32" {
		t.Errorf("Keywords = %v, want [levis size 32]", got.Keywords)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle", DSN: "x"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
