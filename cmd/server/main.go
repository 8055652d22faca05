package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Skufu/strokecare/internal/logging"
	"github.com/Skufu/strokecare/internal/metrics"
	"github.com/Skufu/strokecare/internal/narrative"
	"github.com/Skufu/strokecare/internal/predictor"
	"github.com/Skufu/strokecare/internal/store"
	"github.com/Skufu/strokecare/internal/stroke"
)

const serviceName = "strokecare"

type Config struct {
	Port                 string
	LogLevel             string
	LogFormat            string
	DatabaseURL          string
	MigrationsDir        string
	EnableDB             bool
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	BinaryModelPath      string
	ProbabilityModelPath string
	OpenRouterAPIKey     string
	OpenRouterBaseURL    string
	OpenRouterModel      string
	NarrativeTimeout     time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	m := metrics.New()

	app := &App{
		logger:  logger,
		metrics: m,
		models:  predictor.LoadSet(cfg.BinaryModelPath, cfg.ProbabilityModelPath, logger),
		arbiter: stroke.NewArbiter(logger, stroke.WithFailureHook(func(term string, _ error) {
			m.RecordModelFailure(term)
		})),
		now: time.Now,
	}

	if cfg.EnableDB {
		if err := store.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()
		app.db = pool
		app.store = store.New(pool)
	}

	var narrativeOpts []narrative.Option
	narrativeOpts = append(narrativeOpts, narrative.WithObserver(m.RecordNarrative))
	if cfg.RedisAddr != "" {
		client := narrative.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		kv := narrative.NewRedisKV(client)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := kv.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, narrative cache will retry per request", zap.Error(err))
		}
		cancel()
		app.cache = kv
		narrativeOpts = append(narrativeOpts, narrative.WithCache(kv))
	}

	var completer narrative.Completer
	if cfg.OpenRouterAPIKey != "" {
		completer = narrative.NewClient(narrative.ClientConfig{
			BaseURL: cfg.OpenRouterBaseURL,
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			Referer: "http://localhost:" + cfg.Port,
			Title:   "Stroke Risk Prediction App",
			Timeout: cfg.NarrativeTimeout,
		}, logger)
	} else {
		logger.Info("OPENROUTER_API_KEY not set, narratives use fallback text")
	}
	app.narrative = narrative.NewService(completer, cfg.OpenRouterModel, logger, narrativeOpts...)
	app.limiter = newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	staticRoot := detectStaticRoot()
	router := setupRouter(app, staticRoot)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.NarrativeTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.String("port", cfg.Port))
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "file://migrations"),
		EnableDB:             strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		BinaryModelPath:      getEnv("BINARY_MODEL_PATH", "stroke_binary_model.json"),
		ProbabilityModelPath: getEnv("PROBABILITY_MODEL_PATH", "stroke_probability_model.json"),
		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:    getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:      getEnv("OPENROUTER_MODEL", "tngtech/tng-r1t-chimera:free"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.NarrativeTimeout, err = time.ParseDuration(getEnv("NARRATIVE_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("NARRATIVE_TIMEOUT: %w", err)
	}
	if cfg.NarrativeTimeout <= 0 {
		return nil, fmt.Errorf("NARRATIVE_TIMEOUT must be positive")
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	return cfg, nil
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "."
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}

	return startDir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
