package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Marketplace.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Marketplace.Timeout)
	}
	if cfg.Marketplace.MaxImages != 12 {
		t.Errorf("MaxImages = %d, want 12", cfg.Marketplace.MaxImages)
	}
	if cfg.Marketplace.RequireImages {
		t.Error("RequireImages should default to false")
	}
	if got := cfg.Marketplace.ConditionCodes["like_new"]; got != "USED_EXCELLENT" {
		t.Errorf("ConditionCodes[like_new] = %q, want USED_EXCELLENT", got)
	}
	if got := cfg.Marketplace.CategoryCodes["default"]; got == "" {
		t.Error("CategoryCodes should carry a default entry")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MARKETPLACE_TIMEOUT", "5s")
	t.Setenv("MARKETPLACE_MAX_IMAGES", "3")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("MARKETPLACE_CATEGORY_CODES", "sneakers:15709")

	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Marketplace.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Marketplace.Timeout)
	}
	if cfg.Marketplace.MaxImages != 3 {
		t.Errorf("MaxImages = %d, want 3", cfg.Marketplace.MaxImages)
	}
	if cfg.Marketplace.CategoryCodes["sneakers"] != "15709" {
		t.Errorf("CategoryCodes = %v", cfg.Marketplace.CategoryCodes)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Load("testdata/does-not-exist.env"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestLoad_ConditionCodesOverride(t *testing.T) {
	t.Setenv("MARKETPLACE_CONDITION_CODES", " Like_New : USED_GOOD , for_parts:FOR_PARTS_OR_NOT_WORKING")

	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Marketplace.ConditionCodes["like_new"]; got != "USED_GOOD" {
		t.Errorf("ConditionCodes[like_new] = %q, want USED_GOOD", got)
	}
	if len(cfg.Marketplace.ConditionCodes) != 2 {
		t.Errorf("ConditionCodes = %v, want 2 entries", cfg.Marketplace.ConditionCodes)
	}
}

func TestParseCodeMap(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"a:1,b:2", 2, false},
		{"a:1,,b:2,", 2, false},
		{"", 0, false},
		{"a", 0, true},
		{"a:", 0, true},
		{":1", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCodeMap(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCodeMap(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && len(got.(CodeMap)) != tt.want {
			t.Errorf("parseCodeMap(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
