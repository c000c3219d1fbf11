package service

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"ebay_lister_v1/internal/model"
)

func TestTitle_Short(t *testing.T) {
	g := NewContentGenerator()
	p := model.IdentifiedProduct{
		Brand:       "Levi's",
		ProductName: "501 Jeans",
		Size:        "32x30",
		Condition:   model.ConditionVeryGood,
	}
	want := "Levi's 501 Jeans 32x30 Very Good"
	if got := g.Title(p); got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestTitle_Truncated(t *testing.T) {
	g := NewContentGenerator()
	p := model.IdentifiedProduct{
		Brand:       "Patagonia",
		ProductName: strings.Repeat("Retro Pile Fleece Jacket ", 5),
		Model:       "22801",
		Condition:   model.ConditionNewWithTags,
	}
	got := g.Title(p)
	if n := utf8.RuneCountInString(got); n > MaxTitleLength {
		t.Errorf("Title() length = %d, want <= %d", n, MaxTitleLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Title() = %q, want ... suffix", got)
	}
	if !strings.HasPrefix(got, "Patagonia Retro Pile") {
		t.Errorf("Title() = %q", got)
	}
}

func TestTitle_MultibyteCountedAsRunes(t *testing.T) {
	g := NewContentGenerator()
	p := model.IdentifiedProduct{Brand: "Café", ProductName: strings.Repeat("é", 80)}
	got := g.Title(p)
	if n := utf8.RuneCountInString(got); n != MaxTitleLength {
		t.Errorf("Title() runes = %d, want %d", n, MaxTitleLength)
	}
	if !utf8.ValidString(got) {
		t.Error("Title() produced invalid UTF-8")
	}
}

func TestTitle_EmptyFieldsSkipped(t *testing.T) {
	g := NewContentGenerator()
	got := g.Title(model.IdentifiedProduct{ProductName: "  Mug  ", Condition: model.ConditionForParts})
	if got != "Mug For Parts" {
		t.Errorf("Title() = %q", got)
	}
}

func TestKeywords(t *testing.T) {
	g := NewContentGenerator()
	got := g.Keywords(model.IdentifiedProduct{
		Brand:       "Nike",
		ProductName: "Air Max 90",
		Model:       "NIKE",
		Size:        "10",
		Color:       "White",
		Condition:   model.ConditionNewWithoutTags,
	})
	want := []string{"air max 90", "authentic", "new without tags", "nike", "size 10", "white"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestDescription(t *testing.T) {
	g := NewContentGenerator()
	p := model.IdentifiedProduct{Brand: "Coach", ProductName: "Tabby Bag", Color: "Black", Condition: model.ConditionLikeNew}
	got := g.Description(p, model.PriceRecommendation{Strategy: model.StrategyMarket})

	for _, want := range []string{"Coach Tabby Bag", "Color: Black", "Condition: Like New", "Returns:"} {
		if !strings.Contains(got, want) {
			t.Errorf("Description() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Model:") {
		t.Error("empty Model should be skipped")
	}
}

func TestCompose(t *testing.T) {
	g := NewContentGenerator()
	p := model.IdentifiedProduct{Brand: "Coach", ProductName: "Tabby Bag", Condition: model.ConditionLikeNew}
	c := g.Compose(p, model.PriceRecommendation{})
	if c.Title == "" || c.Description == "" || len(c.Keywords) == 0 {
		t.Errorf("Compose() = %+v", c)
	}
}
