package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/generation"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/pipeline"
	"server/internal/providers/huggingface"
	"server/internal/providers/pinecone"
	"server/internal/retrieval"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production")
		fallback.Fatal().Err(err).Msg("load config")
	}

	logger := infra.NewLogger(cfg.AppEnv)

	if err := infra.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	rdb, err := infra.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		resolver = nil
	}

	hf, err := huggingface.NewClient(huggingface.Options{
		APIKey:     cfg.HFAPIKey,
		BaseURL:    cfg.HFBaseURL,
		Model:      cfg.HFModel,
		EmbedModel: cfg.HFEmbedModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("huggingface client")
	}

	index, err := pinecone.NewClient(pinecone.Options{
		APIKey:     cfg.PineconeAPIKey,
		ControlURL: cfg.PineconeControlURL,
		IndexName:  cfg.PineconeIndexName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("pinecone client")
	}

	runner := infra.NewSQLRunner(pool, logger)
	users := repo.NewUserRepository(runner)
	chats := repo.NewChatRepository(runner)
	usage := repo.NewUsageRepository(runner)

	retriever := retrieval.NewService(hf, index, cfg.RetrievalTopK)
	generator := generation.NewGenerator(
		hf,
		hf.Model(),
		huggingface.DefaultGenerationParams(cfg.MaxNewTokens),
		generation.NewGate(),
		logger,
	)
	pl := pipeline.New(users, chats, usage, retriever, generator, cfg.RetrievalTopK, logger)

	app := handlers.NewApp(logger, cfg, users, chats, usage, pl)
	limiter := middleware.NewRateLimiter(rdb, middleware.PlanLimits{
		FreePerMin:  cfg.RateLimitFreePerMin,
		BasicPerMin: cfg.RateLimitBasicPerMin,
		ProPerMin:   cfg.RateLimitProPerMin,
	}, logger)

	router := httpapi.NewRouter(app, logger, resolver, limiter)
	srv := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("http server starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	logger.Info().Msg("stopped")
}
