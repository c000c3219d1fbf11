package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey string        // 签名密钥
	TokenTTL  time.Duration // Token 有效期
	Issuer    string        // 签发者
}

// 角色
const (
	RoleOperator = "operator" // 估价 / 刊登
	RoleViewer   = "viewer"   // 只读
)

// ==================== Claims 定义 ====================

// OperatorClaims 调用方声明
type OperatorClaims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ==================== Token 签发 / 解析 ====================

// GenerateToken 签发访问 token（CLI 与运维脚本使用）
func (cfg *JWTConfig) GenerateToken(operator, role string) (string, error) {
	now := time.Now()
	claims := &OperatorClaims{
		Operator: operator,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
}

// ParseToken 校验签名与有效期
func (cfg *JWTConfig) ParseToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.SecretKey), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyOperator = "operator"
	ContextKeyRole     = "role"
)

// JWTAuth Bearer token 认证
func JWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "未提供认证信息")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "认证格式错误，应为 Bearer {token}")
			return
		}

		claims, err := cfg.ParseToken(parts[1])
		if err != nil {
			unauthorized(c, "Token 无效或已过期")
			return
		}

		c.Set(ContextKeyOperator, claims.Operator)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole 角色校验，需在 JWTAuth 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextKeyRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
		c.Abort()
	}
}

// GetOperator 从 Context 获取调用方
func GetOperator(c *gin.Context) string {
	return c.GetString(ContextKeyOperator)
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": msg,
	})
	c.Abort()
}
