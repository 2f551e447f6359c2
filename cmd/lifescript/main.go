package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"lifescript/internal/app"
	"lifescript/internal/config"
	"lifescript/internal/ratelimit"
	"lifescript/internal/server"
	"lifescript/internal/util"
	"lifescript/pkg/ai"
	"lifescript/pkg/storage"
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

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("failed to init gemini client: %v", err)
	}
	model := cfg.GenerationModel
	if model == "" {
		model = "gemini-2.5-flash"
	}
	narrative := ai.NewNarrativeClient(ai.NewGeminiGenerator(geminiClient, model))

	var artifacts storage.ArtifactStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
		artifacts = minioStore
	}

	databaseURL := cfg.DatabaseURL
	if cfg.StoreBackend != "postgres" {
		databaseURL = ""
	}
	appCore, err := app.New(app.Config{
		DatabaseURL:     databaseURL,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		SessionStrategy: cfg.SessionStrategy,
		SessionTTL:      sessionTTL,
		JWTSecret:       cfg.JWTSecret,
		Narrative:       narrative,
		Artifacts:       artifacts,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	authLimiter := newAuthLimiter(cfg)

	httpServer := server.New(server.Config{
		App:         appCore,
		AuthLimiter: authLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("lifescript server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func newAuthLimiter(cfg config.FileConfig) *ratelimit.FixedWindowLimiter {
	limit := cfg.LoginRateLimitPerMinute
	if cfg.RegisterRateLimitPerMinute > limit {
		limit = cfg.RegisterRateLimitPerMinute
	}
	if limit <= 0 {
		return nil
	}
	var (
		limiter *ratelimit.FixedWindowLimiter
		err     error
	)
	if cfg.RedisAddr != "" {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "lifescript:ratelimit", limit, time.Minute)
	} else {
		limiter, err = ratelimit.NewMemoryFixedWindowLimiter(limit, time.Minute)
	}
	if err != nil {
		log.Fatalf("failed to init auth rate limiter: %v", err)
	}
	return limiter
}
