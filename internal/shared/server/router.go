package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/shared/server/respond"
)

const (
	rateGroupAnalysis = "ANALYSIS"
	rateGroupRead     = "READ"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	// Health reports readiness details; nil means the process is always ready.
	Health func(ctx context.Context) map[string]any
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitConfig(deps.Config)))
	api.GET("/health", func(c *gin.Context) {
		body := gin.H{"ok": true}
		if deps.Health != nil {
			for k, v := range deps.Health(c.Request.Context()) {
				body[k] = v
			}
		}
		respond.JSON(c, http.StatusOK, body)
	})
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitConfig(cfg config.Config) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitAnalysesPerMinute > 0 {
		rules[rateGroupAnalysis] = middleware.RateLimitRule{
			Rate:  float64(cfg.RateLimitAnalysesPerMinute) / 60,
			Burst: cfg.RateLimitBurst,
		}
	}
	if cfg.RateLimitReadsPerMinute > 0 {
		rules[rateGroupRead] = middleware.RateLimitRule{
			Rate:  float64(cfg.RateLimitReadsPerMinute) / 60,
			Burst: cfg.RateLimitReadsPerMinute,
		}
	}
	return middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateGroupRead,
		GroupFor:     rateGroupFor,
	}
}

// rateGroupFor puts every request that reaches a model or parser in the stricter group.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		return rateGroupAnalysis
	}
	return rateGroupRead
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
