package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"valuescout/internal/cache"
	"valuescout/internal/logging"
	"valuescout/internal/model"
)

const missionRecordTimeout = 15 * time.Second

// ResultCache stores analysis and search results between runs
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// SearchEventCallback is called for streaming scout events
type SearchEventCallback func(event string, data any) error

// Scout runs the full analyze-then-search flow
type Scout struct {
	analyzer   *CategoryAnalyzer
	searcher   *ProductSearcher
	ranker     *Ranker
	cache      ResultCache
	missions   *MissionService
	sessions   *SessionTracker
	metrics    *Metrics
	affiliates model.AffiliateConfig
	logger     *zap.Logger
}

// ScoutOption configures optional Scout collaborators
type ScoutOption func(*Scout)

// WithCache enables result caching
func WithCache(c ResultCache) ScoutOption {
	return func(s *Scout) { s.cache = c }
}

// WithMissions enables mission recording
func WithMissions(m *MissionService) ScoutOption {
	return func(s *Scout) { s.missions = m }
}

// WithMetrics enables prometheus counters
func WithMetrics(m *Metrics) ScoutOption {
	return func(s *Scout) { s.metrics = m }
}

// WithAffiliates sets the affiliate identifiers used when a request has none
func WithAffiliates(a model.AffiliateConfig) ScoutOption {
	return func(s *Scout) { s.affiliates = a }
}

// NewScout creates a new scout
func NewScout(analyzer *CategoryAnalyzer, searcher *ProductSearcher, ranker *Ranker, logger *zap.Logger, opts ...ScoutOption) *Scout {
	logger = logging.OrNop(logger)
	s := &Scout{
		analyzer: analyzer,
		searcher: searcher,
		ranker:   ranker,
		sessions: NewSessionTracker(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the category analysis alone
func (s *Scout) Analyze(ctx context.Context, req *model.AnalyzeRequest) (*model.AnalysisResult, error) {
	started := time.Now()
	result, err := s.analyzer.Analyze(ctx, req.Query, FixedTimeZone(req.TimeZone))
	s.metrics.observeStage("analyze", started, err)
	return result, err
}

// Search runs the product search alone
func (s *Scout) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResult, error) {
	affiliates := req.Affiliates
	if affiliates == nil {
		affiliates = &s.affiliates
	}

	started := time.Now()
	result, err := s.searcher.Search(ctx, SearchInput{
		Query:      req.Query,
		UserValues: req.UserValues,
		Location:   req.Location,
		Affiliates: affiliates,
		TimeZone:   FixedTimeZone(req.TimeZone),
	})
	s.metrics.observeStage("search", started, err)
	if err == nil {
		s.metrics.observeProducts(len(result.Products))
	}
	return result, err
}

// Run performs a complete scout: analysis, search, ranking and mission recording
func (s *Scout) Run(ctx context.Context, req *model.ScoutRequest) (*model.ScoutResponse, error) {
	return s.RunStream(ctx, req, func(string, any) error { return nil })
}

// RunStream performs a complete scout and reports progress through callback.
// When a newer search starts on the same session, this one fails with
// KindSuperseded and its results are discarded.
func (s *Scout) RunStream(ctx context.Context, req *model.ScoutRequest, callback SearchEventCallback) (*model.ScoutResponse, error) {
	ctx, done := s.sessions.Begin(ctx, req.SessionID)

	resp, err := s.run(ctx, req, callback)
	if !done() {
		s.logger.Info("search superseded", zap.String("session_id", req.SessionID), zap.String("query", req.Query))
		return nil, &ScoutError{Kind: KindSuperseded, Message: "A newer search replaced this one.", Err: err}
	}
	return resp, err
}

func (s *Scout) run(ctx context.Context, req *model.ScoutRequest, callback SearchEventCallback) (*model.ScoutResponse, error) {
	startTime := time.Now()
	tz := FixedTimeZone(req.TimeZone)
	region := ResolveRegion(tz)

	if err := callback("analyzing", map[string]any{
		"status": "Analyzing category...",
	}); err != nil {
		return nil, err
	}

	analysis, err := s.analyze(ctx, req, tz, region)
	if err != nil {
		return nil, err
	}

	if err := callback("analysis", analysis); err != nil {
		return nil, err
	}

	userValues := mergeValues(analysis.DefaultValues, req.UserValues)

	if err := callback("searching", map[string]any{
		"status": "Scouting live prices...",
	}); err != nil {
		return nil, err
	}

	result, cached, err := s.search(ctx, req, userValues, tz, region)
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.RankProducts(result.Products)
	took := time.Since(startTime).Milliseconds()

	resp := &model.ScoutResponse{
		Query:          req.Query,
		Analysis:       analysis,
		UserValues:     userValues,
		Products:       ranked,
		ComparisonKeys: s.ranker.ComparisonKeys(ranked),
		Summary:        result.Summary,
		Sources:        result.Sources,
		Region:         result.Region,
		Cached:         cached,
		Took:           took,
	}

	// Record mission (non-blocking)
	if s.missions.Enabled() {
		go func() {
			recordCtx, cancel := context.WithTimeout(context.Background(), missionRecordTimeout)
			defer cancel()
			if err := s.missions.Record(recordCtx, req.Query, resp.Region, ranked); err != nil {
				s.logger.Warn("failed to record mission", zap.String("query", req.Query), zap.Error(err))
			}
		}()
	}

	s.logger.Info("scout finished",
		zap.String("query", req.Query),
		zap.String("country", resp.Region.CountryName),
		zap.Int("products", len(ranked)),
		zap.Bool("cached", cached),
		zap.Int64("took_ms", took),
	)

	return resp, nil
}

func (s *Scout) analyze(ctx context.Context, req *model.ScoutRequest, tz TimeZoneSource, region model.RegionInfo) (*model.AnalysisResult, error) {
	key := cache.AnalysisKey(region.CountryName, req.Query)
	if !req.NoCache && s.cache != nil {
		var cached model.AnalysisResult
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("analysis cache read failed", zap.Error(err))
		}
		s.metrics.observeCache("analyze", hit)
		if hit {
			return &cached, nil
		}
	}

	started := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, req.Query, tz)
	s.metrics.observeStage("analyze", started, err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, analysis); err != nil {
			s.logger.Warn("analysis cache write failed", zap.Error(err))
		}
	}
	return analysis, nil
}

func (s *Scout) search(
	ctx context.Context,
	req *model.ScoutRequest,
	userValues map[string]any,
	tz TimeZoneSource,
	region model.RegionInfo,
) (*model.SearchResult, bool, error) {
	key := cache.SearchKey(region.CountryName, req.Query, userValues, req.Location)
	if !req.NoCache && s.cache != nil {
		var cached model.SearchResult
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("search cache read failed", zap.Error(err))
		}
		s.metrics.observeCache("search", hit)
		if hit {
			// product IDs are never reused across calls
			for i := range cached.Products {
				cached.Products[i].ID = uuid.NewString()
			}
			return &cached, true, nil
		}
	}

	affiliates := s.affiliates
	started := time.Now()
	result, err := s.searcher.Search(ctx, SearchInput{
		Query:      req.Query,
		UserValues: userValues,
		Location:   req.Location,
		Affiliates: &affiliates,
		TimeZone:   tz,
	})
	s.metrics.observeStage("search", started, err)
	if err != nil {
		return nil, false, err
	}
	s.metrics.observeProducts(len(result.Products))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return result, false, nil
}

// mergeValues overlays the caller's values on the analysis defaults
func mergeValues(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
