package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/internal/repository"
)

// ErrIdentifyDisabled 未配置 API Key
var ErrIdentifyDisabled = errors.New("identify: gemini api key is not configured")

// IdentifyConfig 识别服务配置
type IdentifyConfig struct {
	APIKey string
	Model  string
}

// visionResult 模型原始输出与用量
type visionResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// visionFunc 单图 + 提示词 → 文本
type visionFunc func(ctx context.Context, image []byte, format, prompt string) (*visionResult, error)

// IdentifyService 照片 → IdentifiedProduct
type IdentifyService struct {
	cfg     IdentifyConfig
	logRepo repository.AICallLogRepository
	vision  visionFunc
}

// NewIdentifyService logRepo 可为 nil
func NewIdentifyService(cfg IdentifyConfig, logRepo repository.AICallLogRepository) *IdentifyService {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	s := &IdentifyService{cfg: cfg, logRepo: logRepo}
	s.vision = s.callGemini
	return s
}

const identifyPrompt = `You are an expert reseller identifying second-hand items for a marketplace listing.
Look at the photo and identify the item.

Rules:
1. Only use information visible in the photo. Leave a field empty if unsure.
2. condition must be one of: new_with_tags, new_without_tags, new_other, like_new, very_good, acceptable, for_parts.
3. category is a short lower-case word such as clothing, shoes, handbags, accessories, jewelry, electronics.
4. confidence is a number between 0 and 1.

Output Schema (JSON):
{
    "product_name": "string",
    "brand": "string",
    "model": "string",
    "category": "string",
    "size": "string",
    "color": "string",
    "condition": "string",
    "confidence": 0.0
}`

// Identify 识别单张照片
func (s *IdentifyService) Identify(ctx context.Context, itemID int64, image []byte, mimeType string) (*model.IdentifiedProduct, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrIdentifyDisabled
	}
	if len(image) == 0 {
		return nil, errors.New("identify: empty image")
	}

	start := time.Now()
	res, err := s.vision(ctx, image, imageFormat(mimeType), identifyPrompt)

	callLog := &model.AICallLog{
		ItemID:     itemID,
		CallType:   model.AICallTypeIdentify,
		ModelName:  s.cfg.Model,
		ImageCount: 1,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     model.AICallStatusSuccess,
	}
	if res != nil {
		callLog.InputTokens = res.InputTokens
		callLog.OutputTokens = res.OutputTokens
	}

	var product *model.IdentifiedProduct
	if err == nil {
		product, err = parseIdentified(res.Text)
	}
	if err != nil {
		callLog.Status = model.AICallStatusFailed
		callLog.ErrorMsg = truncate(err.Error(), 1024)
	}
	s.saveLog(ctx, callLog)

	if err != nil {
		return nil, err
	}
	return product, nil
}

// Usage AI 用量统计
func (s *IdentifyService) Usage(ctx context.Context, since time.Time) (*repository.AIUsageStats, error) {
	if s.logRepo == nil {
		return &repository.AIUsageStats{}, nil
	}
	return s.logRepo.GetUsage(ctx, since, time.Time{})
}

func (s *IdentifyService) saveLog(ctx context.Context, l *model.AICallLog) {
	if s.logRepo == nil {
		return
	}
	if err := s.logRepo.Create(ctx, l); err != nil {
		logrus.Warnf("[IdentifyService] 保存调用日志失败: %v", err)
	}
}

func (s *IdentifyService) callGemini(ctx context.Context, image []byte, format, prompt string) (*visionResult, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("Gemini 初始化失败: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(s.cfg.Model)
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.ImageData(format, image), genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("AI 识别失败: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("AI 返回为空")
	}

	out := &visionResult{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.Text = string(txt)
			break
		}
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

type identifiedJSON struct {
	ProductName string  `json:"product_name"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Category    string  `json:"category"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	Condition   string  `json:"condition"`
	Confidence  float64 `json:"confidence"`
}

// parseIdentified 成色无法解析时留空，由人工补充
func parseIdentified(raw string) (*model.IdentifiedProduct, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out identifiedJSON
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %v | 原始数据: %s", err, truncate(raw, 200))
	}
	if strings.TrimSpace(out.ProductName) == "" {
		return nil, errors.New("AI 未识别出商品名称")
	}

	grade, _ := model.ParseConditionGrade(out.Condition)
	conf := out.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	return &model.IdentifiedProduct{
		ProductName: strings.TrimSpace(out.ProductName),
		Brand:       strings.TrimSpace(out.Brand),
		Model:       strings.TrimSpace(out.Model),
		Category:    strings.ToLower(strings.TrimSpace(out.Category)),
		Size:        strings.TrimSpace(out.Size),
		Color:       strings.TrimSpace(out.Color),
		Condition:   grade,
		Confidence:  conf,
	}, nil
}

func imageFormat(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return "jpeg"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
