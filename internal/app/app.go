// Package app assembles the scout services from configuration.
package app

import (
	"context"

	"valuescout/internal/cache"
	"valuescout/internal/config"
	"valuescout/internal/logging"
	"valuescout/internal/model"
	"valuescout/internal/repository"
	"valuescout/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App holds the wired services and the resources that need closing
type App struct {
	Scout    *service.Scout
	Missions *service.MissionService
	Registry *prometheus.Registry
	Logger   *zap.Logger

	cache *cache.RedisCache
	repo  *repository.PostgresRepository
}

// New builds the scout. Redis and PostgreSQL are optional; when either is
// unreachable the app runs without it and logs a warning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	a := &App{Registry: prometheus.NewRegistry(), Logger: logger}

	aiClient := service.NewGeminiClient(&cfg.Gemini, logger)
	if !aiClient.IsEnabled() {
		logger.Warn("no Gemini API key in environment; requests will fail until API_KEY is set")
	}

	var verifier service.LinkVerifier
	if cfg.Verifier.Enabled {
		verifier = service.NewCollyVerifier(cfg.Verifier.Timeout, logger)
		logger.Info("direct link verification enabled", zap.Duration("timeout", cfg.Verifier.Timeout))
	}

	opts := []service.ScoutOption{
		service.WithMetrics(service.NewMetrics(a.Registry)),
		service.WithAffiliates(model.AffiliateConfig{
			AmazonTag: cfg.Affiliate.AmazonTag,
			EbayID:    cfg.Affiliate.EbayID,
			BestBuyID: cfg.Affiliate.BestBuyID,
			ImpactID:  cfg.Affiliate.ImpactID,
		}),
	}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("result cache disabled", zap.Error(err))
		} else {
			a.cache = rc
			opts = append(opts, service.WithCache(rc))
		}
	}

	if cfg.PostgreSQL.DSN != "" {
		repo, err := repository.NewPostgresRepository(
			cfg.PostgreSQL.DSN,
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
			cfg.Gemini.EmbeddingDimensions,
		)
		if err == nil {
			err = repo.EnsureSchema(ctx)
			if err != nil {
				_ = repo.Close()
			}
		}
		if err != nil {
			logger.Warn("mission log disabled", zap.Error(err))
		} else {
			a.repo = repo
			logger.Info("connected to PostgreSQL mission log")
			a.Missions = service.NewMissionService(repo, service.NewGeminiEmbedder(&cfg.Gemini), logger)
			opts = append(opts, service.WithMissions(a.Missions))
		}
	}

	a.Scout = service.NewScout(
		service.NewCategoryAnalyzer(aiClient, logger),
		service.NewProductSearcher(aiClient, verifier, logger),
		service.NewRanker(),
		logger,
		opts...,
	)

	return a, nil
}

// Health reports which optional backends are connected
func (a *App) Health() map[string]any {
	return map[string]any{
		"cache":       a.cache.IsAvailable(),
		"mission_log": a.repo != nil,
		"gemini_key":  config.APIKey() != "",
	}
}

// Close releases the cache and database connections
func (a *App) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
