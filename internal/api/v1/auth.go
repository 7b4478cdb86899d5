package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/auth"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Login 登录
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	u, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.internalError(c, "login lookup failed", err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !u.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	token, exp, err := h.tokens.Issue(u)
	if err != nil {
		h.internalError(c, "issue token failed", err)
		return
	}
	if err := h.store.TouchLastLogin(c.Request.Context(), u.ID); err != nil {
		h.logger.Warn("update last login failed", "user_id", u.ID, "error", err)
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: exp.UTC().Format("2006-01-02T15:04:05Z"), User: u})
}

type registerRequest struct {
	Email         string     `json:"email" binding:"required"`
	Password      string     `json:"password" binding:"required"`
	Role          model.Role `json:"role"`
	WarehouseName string     `json:"warehouseName"`
}

// Register 创建用户（仅管理员）
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleManager
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be admin or manager"})
		return
	}
	req.WarehouseName = strings.TrimSpace(req.WarehouseName)
	if req.Role == model.RoleManager && req.WarehouseName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Warehouse name is required for managers"})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "hash password failed", err)
		return
	}

	u := &model.User{
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          req.Role,
		WarehouseName: req.WarehouseName,
		IsActive:      true,
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		h.internalError(c, "create user failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

// Verify 校验令牌并返回当前用户
// POST /api/auth/verify
func (h *Handler) Verify(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	u, err := h.store.GetUserByID(c.Request.Context(), claims.UserID())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.internalError(c, "verify lookup failed", err)
		return
	}
	if !u.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": u})
}
