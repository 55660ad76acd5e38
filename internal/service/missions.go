package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"valuescout/internal/logging"
	"valuescout/internal/model"
)

var (
	// ErrMissionsDisabled is returned when no mission store is configured
	ErrMissionsDisabled = errors.New("mission store not configured")
	// ErrEmbedderMissing is returned for similarity lookups without an embedder
	ErrEmbedderMissing = errors.New("embedder not configured")
)

// MissionStore persists completed scout runs
type MissionStore interface {
	RecordMission(ctx context.Context, m *model.Mission, embedding []float32) (int64, error)
	GetStats(ctx context.Context, days int) (*model.MissionStats, error)
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]model.Mission, error)
}

// MissionService records runs and answers dashboard queries
type MissionService struct {
	store    MissionStore
	embedder Embedder
	logger   *zap.Logger
}

// NewMissionService creates a mission service. embedder may be nil, in which
// case missions are stored without embeddings and similarity lookups fail.
func NewMissionService(store MissionStore, embedder Embedder, logger *zap.Logger) *MissionService {
	logger = logging.OrNop(logger)
	return &MissionService{store: store, embedder: embedder, logger: logger}
}

// Enabled reports whether a store is configured
func (s *MissionService) Enabled() bool {
	return s != nil && s.store != nil
}

// Record stores a finished run. The embedding is best effort.
func (s *MissionService) Record(ctx context.Context, query string, region model.RegionInfo, products []model.RankedProduct) error {
	if !s.Enabled() {
		return nil
	}

	mission := BuildMission(query, region, products)

	var embedding []float32
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			s.logger.Warn("mission embedding failed", zap.String("query", query), zap.Error(err))
		} else {
			embedding = vec
		}
	}

	id, err := s.store.RecordMission(ctx, mission, embedding)
	if err != nil {
		return err
	}

	s.logger.Info("mission recorded",
		zap.Int64("mission_id", id),
		zap.String("query", query),
		zap.Int("products", mission.ProductCount),
	)
	return nil
}

// Stats returns the dashboard aggregates for the last days days
func (s *MissionService) Stats(ctx context.Context, days int) (*model.MissionStats, error) {
	if !s.Enabled() {
		return nil, ErrMissionsDisabled
	}
	return s.store.GetStats(ctx, days)
}

// Similar returns past missions whose query is closest to query
func (s *MissionService) Similar(ctx context.Context, query string, limit int) ([]model.Mission, error) {
	if !s.Enabled() {
		return nil, ErrMissionsDisabled
	}
	if s.embedder == nil {
		return nil, ErrEmbedderMissing
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.store.FindSimilar(ctx, embedding, limit)
}

// BuildMission summarizes a ranked result set. Total value is the sum of
// product prices; the top product is the first ranked product.
func BuildMission(query string, region model.RegionInfo, products []model.RankedProduct) *model.Mission {
	m := &model.Mission{
		Query:        strings.TrimSpace(query),
		Country:      region.CountryName,
		ProductCount: len(products),
	}

	for _, p := range products {
		m.TotalValue += p.Price
	}

	if len(products) > 0 {
		top := products[0]
		m.TopProduct = model.JSONMap{
			"id":         top.ID,
			"brand":      top.Brand,
			"name":       top.Name,
			"price":      top.Price,
			"currency":   top.Currency,
			"valueScore": top.ValueScore,
			"sourceUrl":  top.SourceURL,
		}
	}
	return m
}
