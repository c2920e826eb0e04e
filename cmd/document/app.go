package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/handlers"
	"github.com/mdshare/mdshare/backend/go-services/internal/config"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/handler"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/service"
	"github.com/mdshare/mdshare/backend/go-services/internal/sessions"
	"github.com/mdshare/mdshare/backend/go-services/internal/users"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// app holds the runtime dependencies shared by routes and readiness.
type app struct {
	cfg         *config.Config
	verifier    middleware.Verifier
	redis       *redis.Client
	revocations *sessions.RevocationList
	mongo       *mongo.Client
	users       *users.Service
	documents   *service.Service
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	api := r.Group("/api")
	if a.verifier == nil {
		logger.Warnf("no token verifier configured: /api routes answer 503")
		api.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication not configured"})
		})
	} else {
		api.Use(middleware.AuthMiddleware(a.verifier, a.revocations), handlers.DirectoryMiddleware(a.users))
	}
	// limiter runs after auth so authenticated callers get per-principal budgets
	if rl := a.cfg.RateLimit; rl.Enabled {
		if rl.UseRedis && a.redis != nil {
			api.Use(middleware.RedisRateLimitMiddleware(a.redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			api.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	handler.New(a.documents).Register(api)
	handlers.NewAuthHandler(a.users, a.revocations).Register(api)
	return r
}

// ready returns 200 only when configured dependencies answer.
func (a *app) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	deps := map[string]bool{}

	deps["documents"] = a.documents != nil
	if a.cfg.MongoDB.URI != "" {
		deps["mongodb"] = a.mongo != nil && a.mongo.Ping(ctx, nil) == nil
	}
	if a.cfg.Redis.Host != "" {
		deps["redis"] = a.redis != nil && a.redis.Ping(ctx).Err() == nil
	}
	deps["auth"] = a.verifier != nil
	deps["exports"] = a.documents != nil && a.documents.ExportsEnabled()

	for name, ok := range deps {
		if !ok && name != "exports" {
			ready = false
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
}

// cors is a permissive CORS policy for browser clients during development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
