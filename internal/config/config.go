package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config 全局配置（环境变量 + .env）
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Database    DatabaseConfig
	Marketplace MarketplaceConfig
	OAuth       OAuthConfig
	MarketData  MarketDataConfig
	Storage     StorageConfig
	AI          AIConfig
	Task        TaskConfig
}

type ServerConfig struct {
	Port        string        `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:""`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"ebay-lister"`
	JWTTokenTTL time.Duration `env:"JWT_TOKEN_TTL" envDefault:"720h"`
	// 同一商品估价 / 刊登的最小间隔
	ActionCooldown time.Duration `env:"ITEM_ACTION_COOLDOWN" envDefault:"10s"`
	// 关闭时最长等待
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text | json
}

type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DSN      string `env:"DB_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=ebay_lister port=5432 sslmode=disable"`
	LogLevel string `env:"DB_LOG_LEVEL" envDefault:"warn"`
}

// MarketplaceConfig 平台 Inventory API 相关
type MarketplaceConfig struct {
	BaseURL             string        `env:"MARKETPLACE_API_BASE" envDefault:"https://api.ebay.com"`
	ListingURLBase      string        `env:"MARKETPLACE_LISTING_URL_BASE" envDefault:"https://www.ebay.com/itm/"`
	MarketplaceID       string        `env:"MARKETPLACE_ID" envDefault:"EBAY_US"`
	Currency            string        `env:"MARKETPLACE_CURRENCY" envDefault:"USD"`
	ContentLanguage     string        `env:"MARKETPLACE_CONTENT_LANGUAGE" envDefault:"en-US"`
	Timeout             time.Duration `env:"MARKETPLACE_TIMEOUT" envDefault:"30s"`
	Proxy               string        `env:"MARKETPLACE_PROXY" envDefault:""`
	Debug               bool          `env:"MARKETPLACE_DEBUG" envDefault:"false"`
	MaxImages           int           `env:"MARKETPLACE_MAX_IMAGES" envDefault:"12"`
	RequireImages       bool          `env:"MARKETPLACE_REQUIRE_IMAGES" envDefault:"false"`
	MerchantLocationKey string        `env:"MARKETPLACE_LOCATION_KEY" envDefault:""`
	CategoryCodes       CodeMap       `env:"MARKETPLACE_CATEGORY_CODES" envDefault:"clothing:11450,shoes:93427,handbags:169291,accessories:4250,jewelry:281,electronics:293,default:11450"`
	ConditionCodes      CodeMap       `env:"MARKETPLACE_CONDITION_CODES" envDefault:"new_with_tags:NEW,new_without_tags:NEW_OTHER,new_other:NEW_WITH_DEFECTS,like_new:USED_EXCELLENT,very_good:USED_VERY_GOOD,acceptable:USED_ACCEPTABLE,for_parts:FOR_PARTS_OR_NOT_WORKING"`
	FulfillmentPolicyID string        `env:"MARKETPLACE_FULFILLMENT_POLICY_ID" envDefault:""`
	PaymentPolicyID     string        `env:"MARKETPLACE_PAYMENT_POLICY_ID" envDefault:""`
	ReturnPolicyID      string        `env:"MARKETPLACE_RETURN_POLICY_ID" envDefault:""`
}

// OAuthConfig 刷新 access token
type OAuthConfig struct {
	TokenURL     string   `env:"OAUTH_TOKEN_URL" envDefault:"https://api.ebay.com/identity/v1/oauth2/token"`
	ClientID     string   `env:"OAUTH_CLIENT_ID" envDefault:""`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET" envDefault:""`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:" " envDefault:"https://api.ebay.com/oauth/api_scope/sell.inventory"`
}

type MarketDataConfig struct {
	BaseURL  string        `env:"MARKET_DATA_API_BASE" envDefault:"https://api.ebay.com"`
	Limit    int           `env:"MARKET_DATA_LIMIT" envDefault:"50"`
	CacheTTL time.Duration `env:"MARKET_DATA_CACHE_TTL" envDefault:"24h"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"local"` // s3 | local
	Bucket    string `env:"AWS_BUCKET" envDefault:""`
	Region    string `env:"AWS_REGION" envDefault:""`
	AccessKey string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	SecretKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	Endpoint  string `env:"AWS_ENDPOINT" envDefault:""`
	BasePath  string `env:"STORAGE_BASE_PATH" envDefault:"ebay-lister"`
	LocalDir  string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/photos"`
}

type AIConfig struct {
	GeminiKey string `env:"GEMINI_API_KEY" envDefault:""`
	Model     string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// TaskConfig 定时任务（cron 带秒）
type TaskConfig struct {
	PublishSpec        string `env:"TASK_PUBLISH_SPEC" envDefault:"*/30 * * * * *"`
	PublishConcurrency int    `env:"TASK_PUBLISH_CONCURRENCY" envDefault:"3"`
	PublishBatch       int    `env:"TASK_PUBLISH_BATCH" envDefault:"10"`
	TokenRefreshSpec   string `env:"TASK_TOKEN_REFRESH_SPEC" envDefault:"0 */5 * * * *"`
	CompPruneSpec      string `env:"TASK_COMP_PRUNE_SPEC" envDefault:"0 0 3 * * *"`
}

// Load 读取 .env（可选）后解析环境变量
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debug("[Config] 未找到 .env，使用系统环境变量")
	}

	cfg := &Config{}
	if err := env.ParseWithFuncs(cfg, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(CodeMap(nil)): parseCodeMap,
	}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CodeMap 编码表，格式 key:value,key:value
type CodeMap map[string]string

func parseCodeMap(v string) (interface{}, error) {
	m := CodeMap{}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, val, ok := strings.Cut(pair, ":")
		key, val = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("invalid code pair %q, want key:value", pair)
		}
		m[key] = val
	}
	return m, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Marketplace.Timeout <= 0 {
		return fmt.Errorf("MARKETPLACE_TIMEOUT must be positive")
	}
	if c.Marketplace.MaxImages <= 0 {
		return fmt.Errorf("MARKETPLACE_MAX_IMAGES must be positive")
	}
	if c.Task.PublishConcurrency <= 0 {
		c.Task.PublishConcurrency = 1
	}
	return nil
}

// SetupLogger 按配置设置 logrus 全局 logger
func SetupLogger(c LogConfig) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
