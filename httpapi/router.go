package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/gin-gonic/gin"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
}

// NewRouter returns a gin engine with the captcha routes mounted.
func NewRouter(engine *goCaptcha.Engine, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	handlers := NewHandlers(engine, opts.Logger)

	captcha := router.Group("/captcha")
	{
		captcha.GET("", handlers.Issue)
		captcha.POST("/verify", handlers.Verify)
		captcha.POST("/pass", handlers.Grant)
		captcha.GET("/pass", handlers.ValidatePass)
	}

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
