package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== Cooldown 冷却限流器 ====================

// Cooldown 按 key 限制两次执行的最小间隔
// 防止同一商品被连续触发估价 / 刊登
type Cooldown struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

func NewCooldown() *Cooldown {
	return &Cooldown{now: time.Now}
}

// Check 允许则记录本次时间，否则返回剩余冷却时间
func (r *Cooldown) Check(key string, interval time.Duration) (bool, time.Duration) {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return false, interval - elapsed
	}
	entry.lastTime = now
	return true, 0
}

// Reset 清除 key 的冷却
func (r *Cooldown) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Gin 中间件 ====================

// ItemCooldown 按路径参数 :id + 动作限流
func ItemCooldown(limiter *Cooldown, action string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("item:%s:%s", c.Param("id"), action)

		allowed, retryAfter := limiter.Check(key, interval)
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(retryAfter),
				"data": gin.H{
					"retry_after": int(retryAfter.Seconds()),
					"action":      action,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// formatRetryMessage 格式化重试提示
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("操作冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	if rest := seconds % 60; rest != 0 {
		return fmt.Sprintf("操作冷却中，请 %d 分 %d 秒后重试", minutes, rest)
	}
	return fmt.Sprintf("操作冷却中，请 %d 分钟后重试", minutes)
}
