package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

const claimsKey = "auth.claims"

// Access 访问范围
const (
	AccessAll        = "all_warehouses"
	AccessRestricted = "restricted_warehouse"
)

// RequireAuth 校验 Bearer 令牌
func RequireAuth(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token, authorization denied"})
			return
		}
		claims, err := tm.Parse(strings.TrimSpace(token))
		if err != nil {
			msg := "Token is not valid"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole 限定角色；须在 RequireAuth 之后
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token, authorization denied"})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
	}
}

// ClaimsFrom 取当前请求的令牌声明
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// Scope 数据范围：管理员不限仓库；仓库经理仅限本仓库
type Scope struct {
	Warehouse string // 为空表示全部仓库
}

// Access 访问级别
func (s Scope) Access() string {
	if s.Warehouse == "" {
		return AccessAll
	}
	return AccessRestricted
}

// Allows 是否可访问指定仓库的数据
func (s Scope) Allows(warehouse string) bool {
	return s.Warehouse == "" || s.Warehouse == warehouse
}

// ScopeFrom 由当前请求推导数据范围；未认证时 ok 为 false
func ScopeFrom(c *gin.Context) (scope Scope, ok bool) {
	claims := ClaimsFrom(c)
	if claims == nil {
		return Scope{}, false
	}
	if claims.Role == model.RoleAdmin {
		return Scope{}, true
	}
	if claims.Warehouse == "" {
		return Scope{}, false
	}
	return Scope{Warehouse: claims.Warehouse}, true
}
