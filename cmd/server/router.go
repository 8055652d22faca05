package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Skufu/strokecare/internal/logging"
	"github.com/Skufu/strokecare/internal/metrics"
	"github.com/Skufu/strokecare/internal/narrative"
	"github.com/Skufu/strokecare/internal/predictor"
	"github.com/Skufu/strokecare/internal/store"
	"github.com/Skufu/strokecare/internal/stroke"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AssessmentStore persists assessments. It is nil when ENABLE_DB is off.
type AssessmentStore interface {
	Save(ctx context.Context, rec store.Record) error
	Get(ctx context.Context, id uuid.UUID) (store.Record, error)
}

// App carries the request-independent dependencies of the handlers.
type App struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	models    predictor.Set
	arbiter   *stroke.Arbiter
	narrative *narrative.Service
	store     AssessmentStore
	db        HealthChecker
	cache     HealthChecker
	limiter   *ipRateLimiter
	now       func() time.Time
}

func setupRouter(app *App, staticRoot string) *gin.Engine {
	router := gin.New()
	router.Use(
		logging.GinLogger(app.logger),
		gin.Recovery(),
		app.metrics.Middleware(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.Static("/static", staticRoot)
	router.StaticFile("/", filepath.Join(staticRoot, "index.html"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", app.readyz)
	router.GET("/health", app.health)
	router.GET("/metrics", gin.WrapH(app.metrics.Handler()))

	api := router.Group("/api")
	predict := []gin.HandlerFunc{app.predict}
	if app.limiter != nil {
		predict = append([]gin.HandlerFunc{app.limiter.Middleware()}, predict...)
	}
	api.POST("/predict", predict...)
	api.GET("/assessments/:id", app.getAssessment)
	api.POST("/report", app.downloadReport)

	return router
}

func (a *App) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	check := func(name string, hc HealthChecker) {
		if hc == nil {
			body[name] = "disabled"
			return
		}
		if err := hc.Ping(ctx); err != nil {
			body[name] = fmt.Sprintf("unhealthy: %v", err)
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			return
		}
		body[name] = "ok"
	}
	check("db", a.db)
	check("cache", a.cache)

	c.JSON(status, body)
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// ipRateLimiter hands out one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (i *ipRateLimiter) get(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.limiters[ip] = limiter
	}
	return limiter
}

func (i *ipRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
