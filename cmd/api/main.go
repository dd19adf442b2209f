package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"cookmate/internal/account"
	"cookmate/internal/api"
	"cookmate/internal/auth"
	"cookmate/internal/config"
	"cookmate/internal/db"
	"cookmate/internal/grocery"
	"cookmate/internal/pantry"
	"cookmate/internal/platform/gemini"
	"cookmate/internal/platform/localllm"
	"cookmate/internal/platform/logger"
	"cookmate/internal/platform/mailer"
	"cookmate/internal/platform/ratelimit"
	"cookmate/internal/rating"
	"cookmate/internal/recipe"
)

const shutdownTimeout = 10 * time.Second

func main() {
	path := os.Getenv("COOKMATE_CONFIG")
	if path == "" {
		path = "config.json"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	database, err := db.Open(ctx, db.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime.Duration,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, database); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	rdb := newRedis(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	scanner, closeVision, err := newPantryScanner(ctx, cfg, rdb, log)
	if err != nil {
		return err
	}
	defer closeVision()

	router, err := newRouter(cfg, log, database, rdb, scanner)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRedis returns nil when no address is configured. An unreachable server
// is only logged: the limiter and scan cache both fail open.
func newRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) redis.UniversalClient {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Info("redis not configured, rate limiting and scan cache disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis ping failed", "addr", cfg.RedisAddr, "error", err)
	}
	return rdb
}

// newPantryScanner picks the vision backend named by the config. The
// returned func releases it.
func newPantryScanner(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, log *logger.Logger) (*pantry.Scanner, func(), error) {
	var (
		vision  pantry.Vision
		cache   pantry.Cache
		closeFn = func() {}
	)
	switch strings.ToLower(strings.TrimSpace(cfg.PantryProvider)) {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		vision = client
		closeFn = func() { _ = client.Close() }
	case "local":
		vision = localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel, nil)
	default:
		log.Info("pantry scanning disabled")
	}
	if rdb != nil {
		cache = pantry.NewRedisCache(rdb, pantry.DefaultCacheTTL)
	}
	return pantry.NewScanner(vision, cache, log), closeFn, nil
}

// newRouter wires stores, services and handlers onto one engine.
func newRouter(cfg *config.Config, log *logger.Logger, database *sqlx.DB, rdb redis.UniversalClient, scanner api.PantryScanner) (*gin.Engine, error) {
	if strings.EqualFold(cfg.LogMode, "prod") || strings.EqualFold(cfg.LogMode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	mail, err := mailer.New(log, mailer.Config{
		Provider:  cfg.MailProvider,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
		SendGrid: mailer.SendGridConfig{
			APIKey:  cfg.SendGridAPIKey,
			BaseURL: cfg.SendGridBaseURL,
		},
	})
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL.Duration)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	recipeStore := recipe.NewPostgresStore(database)
	accounts := account.NewService(account.NewPostgresStore(database), mail, hasher, tokens, cfg.OTPTTL.Duration, log)
	recipes := recipe.NewService(recipeStore, accounts, log)
	ratings := rating.NewService(rating.NewPostgresStore(database), log)
	groceries := grocery.NewService(grocery.NewPostgresStore(database), recipeStore, log)

	var limiter api.Limiter
	if rdb != nil {
		l, err := ratelimit.NewFixedWindowLimiter(rdb, "cookmate:ratelimit", cfg.RateLimit, cfg.RateLimitWindow.Duration)
		if err != nil {
			return nil, err
		}
		limiter = l
	}

	h := api.NewHandler(accounts, recipes, ratings, groceries, scanner, database, log)
	return api.NewRouter(h, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Limiter:     limiter,
	}), nil
}
