package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fairrent/internal/render"
	"fairrent/internal/service"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterConfig holds what the advisor API is built from
type RouterConfig struct {
	Sessions       *service.SessionManager
	Catalog        *service.LocationCatalog
	Renderer       render.Renderer
	Assistant      StreamingAssistant // optional built-in /chat backend
	AllowedOrigins string
	Build          BuildInfo
	Logger         *zap.Logger
}

// NewRouter assembles the gin engine with every route of the advisor API
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	if cfg.AllowedOrigins == "" || cfg.AllowedOrigins == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "fair-rent-advisor",
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
			"sessions":   cfg.Sessions.Len(),
		})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionHandler := NewSessionHandler(cfg.Sessions)
	catalogHandler := NewCatalogHandler(cfg.Catalog)
	valuationHandler := NewValuationHandler(cfg.Sessions, cfg.Catalog)
	compareHandler := NewCompareHandler(cfg.Catalog)
	chatHandler := NewChatHandler(cfg.Sessions, cfg.Renderer)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/sessions", sessionHandler.Open)
		apiV1.DELETE("/sessions/:id", sessionHandler.Close)

		apiV1.GET("/catalog", catalogHandler.Boot)
		apiV1.GET("/catalog/cities", catalogHandler.Cities)
		apiV1.GET("/catalog/cities/:city/localities", catalogHandler.Localities)

		apiV1.POST("/sessions/:id/valuation", valuationHandler.Submit)
		apiV1.GET("/sessions/:id/valuation", valuationHandler.View)

		apiV1.POST("/compare", compareHandler.Compare)

		apiV1.GET("/sessions/:id/chat", chatHandler.View)
		apiV1.POST("/sessions/:id/chat", chatHandler.Submit)
		apiV1.POST("/sessions/:id/chat/stream", chatHandler.Stream)
	}

	if cfg.Assistant != nil {
		assistantHandler := NewAssistantHandler(cfg.Assistant)
		router.POST("/chat", assistantHandler.Chat)
		router.POST("/chat/stream", assistantHandler.ChatStream)
	}

	return router
}

// requestLogger logs each request with zap in place of gin's default logger
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()))
	}
}
