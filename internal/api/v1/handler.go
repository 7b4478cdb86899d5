package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/analytics"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/auth"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/importer"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// DefaultMaxUploadBytes 上传文件大小上限
const DefaultMaxUploadBytes = 10 << 20

// Deps 处理器依赖
type Deps struct {
	Store          *store.Store
	Importer       *importer.Coordinator
	Tokens         *auth.TokenManager
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handler V1 API 处理器
type Handler struct {
	store     *store.Store
	importer  *importer.Coordinator
	analytics *analytics.Service
	tokens    *auth.TokenManager
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler 创建 V1 API 处理器
func NewHandler(deps Deps) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:     deps.Store,
		importer:  deps.Importer,
		analytics: analytics.NewService(deps.Store),
		tokens:    deps.Tokens,
		maxUpload: deps.MaxUploadBytes,
		logger:    logger.With("component", "api"),
	}
}

// RegisterRoutes 注册 V1 API 路由（挂载于 /api）
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authed := auth.RequireAuth(h.tokens)
	adminOnly := auth.RequireRole(model.RoleAdmin)

	// 认证
	router.POST("/auth/login", h.Login)
	router.POST("/auth/register", authed, adminOnly, h.Register)
	router.POST("/auth/verify", authed, h.Verify)

	// 加班记录
	ops := router.Group("/operations", authed)
	ops.POST("/upload", auth.RequireRole(model.RoleAdmin, model.RoleManager), h.Upload)
	ops.POST("/upload/stream", auth.RequireRole(model.RoleAdmin, model.RoleManager), h.UploadStream)
	ops.GET("", h.ListOperations)
	ops.GET("/export", h.ExportOperations)
	ops.GET("/:id", h.GetOperation)
	ops.PATCH("/:id/approval", adminOnly, h.UpdateApproval)
	ops.DELETE("/:id", adminOnly, h.DeleteOperation)

	// 统计分析
	an := router.Group("/analytics", authed)
	an.GET("/warehouse", h.WarehouseAnalytics)
	an.GET("/monthly-trend", h.MonthlyTrend)
	an.GET("/approval-status", h.ApprovalStatus)
	an.GET("/months", h.ListMonths)

	// 预测
	router.GET("/forecast/monthly-ot", authed, h.ForecastMonthlyOT)

	// 导入日志与系统状态
	router.GET("/imports", authed, adminOnly, h.ListImports)
	router.GET("/status", authed, h.GetStatus)
}

// internalError 记录错误并返回 500
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// scope 当前请求的数据范围；无法确定时直接拒绝
func scope(c *gin.Context) (auth.Scope, bool) {
	s, ok := auth.ScopeFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
	return s, ok
}
