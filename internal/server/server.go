package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/Jaykumar-Kale/ksh-smartops/internal/api/v1"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/auth"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/config"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/importer"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// devFrontend 开发模式下前端开发服务器地址
const devFrontend = "http://localhost:5173"

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
	logger *slog.Logger
	http   *http.Server
}

// NewServer 创建服务器；store 由调用方持有并负责关闭
func NewServer(cfg *config.AppConfig, st *store.Store, logger *slog.Logger) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	coordinator := importer.NewCoordinator(st, st, ImporterOptions(cfg, logger))
	handler := v1.NewHandler(v1.Deps{
		Store:          st,
		Importer:       coordinator,
		Tokens:         tokens,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		Logger:         logger,
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = cfg.Import.MaxUploadBytes

	s := &Server{
		router: router,
		store:  st,
		v1:     handler,
		logger: logger,
	}
	s.setupRoutes(devMode)
	return s, nil
}

// ImporterOptions 由配置生成导入选项
func ImporterOptions(cfg *config.AppConfig, logger *slog.Logger) importer.Options {
	policy := parser.TimePermissive
	if cfg.Import.StrictTime {
		policy = parser.TimeStrict
	}
	return importer.Options{
		MaxRows:           cfg.Import.MaxRows,
		Workers:           cfg.Import.Workers,
		ParallelThreshold: cfg.Import.ParallelThreshold,
		TimePolicy:        policy,
		Logger:            logger,
	}
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/health", s.health)

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, devFrontend+c.Request.URL.Path)
		})
		return
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

// health 健康检查
// GET /health
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
