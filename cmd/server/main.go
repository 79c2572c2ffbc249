package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"docstudy/internal/app"
	"docstudy/internal/config"
	"docstudy/internal/ratelimit"
	"docstudy/internal/server"
	"docstudy/internal/util"
	"docstudy/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	var objects storage.ObjectStore
	if cfg.Storage == "minio" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init minio storage: %v", err)
		}
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:  cfg.DatabaseURL,
		JWTSecret:    cfg.JWTSecret,
		SessionTTL:   sessionTTL,
		UploadDir:    cfg.UploadDir,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Objects:      objects,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App:             appCore,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		TrustedProxies:  trustedProxies,
		RegisterLimiter: newLimiter(cfg, "register", cfg.RegisterRateLimitPerMinute),
		LoginLimiter:    newLimiter(cfg, "login", cfg.LoginRateLimitPerMinute),
		ChatLimiter:     newLimiter(cfg, "chat", cfg.ChatRateLimitPerMinute),
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

func newLimiter(cfg config.FileConfig, name string, perMinute int) *ratelimit.FixedWindowLimiter {
	if perMinute <= 0 {
		return nil
	}
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "docstudy:ratelimit:"+name, perMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init %s rate limiter: %v", name, err)
	}
	return limiter
}
