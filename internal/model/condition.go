package model

import (
	"fmt"
	"strings"
)

// ConditionGrade 商品成色等级，由好到差严格有序
type ConditionGrade string

const (
	ConditionNewWithTags    ConditionGrade = "new_with_tags"
	ConditionNewWithoutTags ConditionGrade = "new_without_tags"
	ConditionNewOther       ConditionGrade = "new_other"
	ConditionLikeNew        ConditionGrade = "like_new"
	ConditionVeryGood       ConditionGrade = "very_good"
	ConditionAcceptable     ConditionGrade = "acceptable"
	ConditionForParts       ConditionGrade = "for_parts"
)

// ConditionGrades 由好到差
var ConditionGrades = []ConditionGrade{
	ConditionNewWithTags,
	ConditionNewWithoutTags,
	ConditionNewOther,
	ConditionLikeNew,
	ConditionVeryGood,
	ConditionAcceptable,
	ConditionForParts,
}

var conditionLabels = map[ConditionGrade]string{
	ConditionNewWithTags:    "New with Tags",
	ConditionNewWithoutTags: "New without Tags",
	ConditionNewOther:       "New Other",
	ConditionLikeNew:        "Like New",
	ConditionVeryGood:       "Very Good",
	ConditionAcceptable:     "Acceptable",
	ConditionForParts:       "For Parts",
}

// 识别服务 / 市场数据里常见的别名
var conditionAliases = map[string]ConditionGrade{
	"new":                      ConditionNewWithTags,
	"nwt":                      ConditionNewWithTags,
	"new with tags":            ConditionNewWithTags,
	"new with box":             ConditionNewWithTags,
	"nwot":                     ConditionNewWithoutTags,
	"new without tags":         ConditionNewWithoutTags,
	"new without box":          ConditionNewWithoutTags,
	"new other":                ConditionNewOther,
	"new_with_defects":         ConditionNewOther,
	"new with defects":         ConditionNewOther,
	"open box":                 ConditionNewOther,
	"excellent":                ConditionLikeNew,
	"like new":                 ConditionLikeNew,
	"used_excellent":           ConditionLikeNew,
	"pre-owned":                ConditionVeryGood,
	"used":                     ConditionVeryGood,
	"good":                     ConditionVeryGood,
	"very good":                ConditionVeryGood,
	"used_very_good":           ConditionVeryGood,
	"used_good":                ConditionVeryGood,
	"used_acceptable":          ConditionAcceptable,
	"fair":                     ConditionAcceptable,
	"parts":                    ConditionForParts,
	"for parts":                ConditionForParts,
	"for parts or not working": ConditionForParts,
	"for_parts_or_not_working": ConditionForParts,
}

// ParseConditionGrade 解析成色（支持别名，大小写不敏感）
func ParseConditionGrade(s string) (ConditionGrade, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("condition grade is empty")
	}
	g := ConditionGrade(strings.ReplaceAll(key, "-", "_"))
	if g.Valid() {
		return g, nil
	}
	if alias, ok := conditionAliases[key]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("unknown condition grade %q", s)
}

// Valid 是否为已知等级
func (g ConditionGrade) Valid() bool {
	_, ok := conditionLabels[g]
	return ok
}

// Label 展示用名称
func (g ConditionGrade) Label() string {
	if l, ok := conditionLabels[g]; ok {
		return l
	}
	return ""
}

// Rank 越大越好，未知等级为 0
func (g ConditionGrade) Rank() int {
	for i, c := range ConditionGrades {
		if c == g {
			return len(ConditionGrades) - i
		}
	}
	return 0
}

func (g *ConditionGrade) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*g = ""
		return nil
	}
	parsed, err := ParseConditionGrade(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
