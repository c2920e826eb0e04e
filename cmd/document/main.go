package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/config"
	"github.com/mdshare/mdshare/backend/go-services/internal/database"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/service"
	"github.com/mdshare/mdshare/backend/go-services/internal/oidc"
	"github.com/mdshare/mdshare/backend/go-services/internal/sessions"
	"github.com/mdshare/mdshare/backend/go-services/internal/storage"
	"github.com/mdshare/mdshare/backend/go-services/internal/tokens"
	"github.com/mdshare/mdshare/backend/go-services/internal/users"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"github.com/mdshare/mdshare/backend/go-services/pkg/metrics"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg}
	a.redis = connectRedis(ctx, cfg.Redis)
	a.revocations = sessions.NewRevocationList(a.redis)
	a.verifier = buildVerifier(ctx, cfg)

	if cfg.MongoDB.URI != "" {
		client, err := database.Connect(ctx, cfg.MongoDB)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, using in-memory stores: %v", err)
		} else {
			a.mongo = client
			defer func() { _ = client.Disconnect(context.Background()) }()
		}
	}

	opts := service.Options{
		CascadeComments: cfg.Documents.CascadeComments,
		ExportURLTTL:    cfg.Documents.ExportURLTTL,
	}
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("export storage disabled: %v", err)
		} else {
			opts.Exports = store
			logger.Infof("exports go to MinIO bucket %s", store.Bucket())
		}
	}
	a.buildServices(opts)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting document service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// buildServices picks Mongo-backed stores when connected, in-memory otherwise.
func (a *app) buildServices(opts service.Options) {
	if a.mongo != nil {
		db := a.mongo.Database(a.cfg.MongoDB.Database)
		a.users = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
		opts.Directory = a.users
		a.documents = service.NewMongoService(db, opts)
		logger.Infof("using MongoDB database %s", a.cfg.MongoDB.Database)
		return
	}
	a.users = users.NewService(users.NewMemoryUserRepository())
	opts.Directory = a.users
	a.documents = service.NewMemoryService(opts)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr() == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v; revocation and shared rate limits disabled", cfg.Addr(), err)
		_ = client.Close()
		return nil
	}
	logger.Infof("Connected to Redis: %s", cfg.Addr())
	return client
}

// buildVerifier prefers Keycloak, then the shared HS256 secret, then the
// insecure claims parser when explicitly allowed.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm)
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			logger.Infof("verifying tokens against OIDC issuer %s", issuer)
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		mgr, err := tokens.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)
		if err == nil {
			logger.Infof("verifying HS256 tokens (issuer=%q)", cfg.JWT.Issuer)
			return mgr
		}
		logger.Warnf("JWT verifier disabled: %v", err)
	}
	if cfg.Auth.AllowInsecureToken {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	return nil
}
