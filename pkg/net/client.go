package net

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent 统一 UA
const DefaultUserAgent = "ebay-lister/1.0"

// ClientOptions HTTP 客户端参数
// Timeout 必须显式给出，不继承任何库的默认值
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	Proxy     string
	Debug     bool
	UserAgent string
}

// NewClient 创建 resty 客户端（不重试）
func NewClient(opts ClientOptions) (*resty.Client, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("http client timeout must be positive, got %v", opts.Timeout)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetDebug(opts.Debug).
		SetHeader("User-Agent", ua)

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.Proxy != "" {
		tr, err := transportFor(opts.Proxy)
		if err != nil {
			return nil, err
		}
		client.SetTransport(tr)
	}
	return client, nil
}

// ==================== Transport 复用 ====================

// 相同代理共享 Transport，保持 TCP 复用
var transportCache sync.Map

func transportFor(proxy string) (*http.Transport, error) {
	if val, ok := transportCache.Load(proxy); ok {
		return val.(*http.Transport), nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
	}
	tr := &http.Transport{
		Proxy:               http.ProxyURL(proxyURL),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	// LoadOrStore 防止并发重复创建
	actual, _ := transportCache.LoadOrStore(proxy, tr)
	return actual.(*http.Transport), nil
}
