package service

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"ebay_lister_v1/internal/model"
)

const (
	// MaxTitleLength 平台标题上限
	MaxTitleLength = 77
	titleEllipsis  = "..."
)

// ContentGenerator 标题 / 描述 / 关键词（确定性模板）
type ContentGenerator struct{}

func NewContentGenerator() *ContentGenerator {
	return &ContentGenerator{}
}

// Compose 生成刊登文案
func (g *ContentGenerator) Compose(product model.IdentifiedProduct, pricing model.PriceRecommendation) model.ListingContent {
	return model.ListingContent{
		Title:       g.Title(product),
		Description: g.Description(product, pricing),
		Keywords:    g.Keywords(product),
	}
}

// Title 品牌 商品名 型号 尺码 成色，超长截断并追加 "..."
func (g *ContentGenerator) Title(p model.IdentifiedProduct) string {
	parts := make([]string, 0, 5)
	for _, s := range []string{p.Brand, p.ProductName, p.Model, p.Size, p.Condition.Label()} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return truncateTitle(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	keep := MaxTitleLength - utf8.RuneCountInString(titleEllipsis)
	runes := []rune(title)
	return strings.TrimRight(string(runes[:keep]), " ") + titleEllipsis
}

const descriptionFooter = `Shipping: Ships within 1 business day of cleared payment, carefully packed.
Returns: 30-day returns accepted. Item must be returned in the condition it was received.
Please review all photos, they are part of the description. Thank you for looking!`

// Description 固定模板
func (g *ContentGenerator) Description(p model.IdentifiedProduct, pricing model.PriceRecommendation) string {
	var b strings.Builder

	name := strings.TrimSpace(strings.Join([]string{p.Brand, p.ProductName}, " "))
	if name == "" {
		name = "Item"
	}
	fmt.Fprintf(&b, "%s\n\n", name)

	writeField := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	writeField("Brand", p.Brand)
	writeField("Product", p.ProductName)
	writeField("Model", p.Model)
	writeField("Size", p.Size)
	writeField("Color", p.Color)
	writeField("Condition", p.Condition.Label())
	if pricing.Strategy == model.StrategyPremium {
		writeField("Note", "Hard to find, few comparable sales")
	}

	b.WriteString("\n")
	b.WriteString(descriptionFooter)
	return b.String()
}

// Keywords 小写、去重、排序
func (g *ContentGenerator) Keywords(p model.IdentifiedProduct) []string {
	candidates := []string{p.Brand, p.ProductName, p.Model, p.Color, p.Condition.Label(), "authentic"}
	if s := strings.TrimSpace(p.Size); s != "" {
		candidates = append(candidates, "size "+s)
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		k := strings.ToLower(strings.Join(strings.Fields(c), " "))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
