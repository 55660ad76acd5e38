package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"valuescout/internal/logging"
	"valuescout/internal/model"
	"valuescout/internal/utils"
)

const (
	defaultSummary = "Search results generated."
	topCandidates  = 4
)

// LinkVerifier checks whether a model-asserted URL actually resolves
type LinkVerifier interface {
	Verify(ctx context.Context, url string) bool
}

// SearchInput holds the parameters of one grounded product search
type SearchInput struct {
	Query      string
	UserValues map[string]any
	Location   *model.UserLocation
	Affiliates *model.AffiliateConfig
	TimeZone   TimeZoneSource
}

// ProductSearcher runs the grounded product search and normalizes what comes back
type ProductSearcher struct {
	aiClient AIClient
	verifier LinkVerifier
	logger   *zap.Logger
}

// NewProductSearcher creates a new product searcher. verifier may be nil.
func NewProductSearcher(aiClient AIClient, verifier LinkVerifier, logger *zap.Logger) *ProductSearcher {
	logger = logging.OrNop(logger)
	return &ProductSearcher{
		aiClient: aiClient,
		verifier: verifier,
		logger:   logger,
	}
}

// Search finds the top candidates for a query
func (s *ProductSearcher) Search(ctx context.Context, in SearchInput) (*model.SearchResult, error) {
	if s.aiClient == nil || !s.aiClient.IsEnabled() {
		return nil, errEnvironmentAuth()
	}

	region := ResolveRegion(in.TimeZone)
	query := strings.TrimSpace(in.Query)

	resp, err := s.aiClient.Generate(ctx, GenerateRequest{
		Prompt:     buildSearchPrompt(query, in.UserValues, in.Location, region),
		JSONOutput: true,
		Grounding:  true,
	})
	if err != nil {
		s.logger.Warn("product search failed", zap.String("query", query), zap.Error(err))
		return nil, classifyBackendError(err, "Product scouting failed due to an unknown error.")
	}

	var envelope searchEnvelope
	if err := utils.ParseAIJSON(resp.Text, &envelope); err != nil {
		s.logger.Warn("product search returned unparseable output",
			zap.String("query", query),
			zap.String("output", truncate(resp.Text, 200)),
			zap.Error(err),
		)
		return nil, errMalformed("Search results could not be decoded.")
	}
	if envelope.Products == nil {
		return nil, errMalformed("No products identified for this query.")
	}

	sources := filterCitations(resp.Citations)

	products := make([]model.Product, 0, len(*envelope.Products))
	for i, obj := range *envelope.Products {
		if obj == nil {
			return nil, errMalformed(fmt.Sprintf("Product entry %d is not an object.", i))
		}
		products = append(products, s.normalizeProduct(ctx, obj, sources, region, in.Affiliates))
	}

	s.logger.Info("products found",
		zap.String("query", query),
		zap.String("country", region.CountryName),
		zap.Int("products", len(products)),
		zap.Int("sources", len(sources)),
	)

	return &model.SearchResult{
		Products: products,
		Summary:  stringOr(envelope.Summary, defaultSummary),
		Sources:  sources,
		Region:   region,
	}, nil
}

// searchEnvelope is the top-level shape of a search reply. Products stays
// loosely typed so each entry can be coerced field by field.
type searchEnvelope struct {
	Products *[]map[string]any `json:"products"`
	Summary  any               `json:"summary"`
}

// filterCitations keeps only citations with a real URL, in backend order
func filterCitations(citations []model.Source) []model.Source {
	sources := make([]model.Source, 0, len(citations))
	for _, c := range citations {
		if utils.IsRealURL(c.URI) {
			sources = append(sources, c)
		}
	}
	return sources
}

func buildSearchPrompt(query string, userValues map[string]any, loc *model.UserLocation, region model.RegionInfo) string {
	values, err := json.Marshal(userValues)
	if err != nil || userValues == nil {
		values = []byte("{}")
	}

	where := "Online Marketplace"
	if loc != nil && strings.TrimSpace(loc.ZipCode) != "" {
		where = "Searching near " + strings.TrimSpace(loc.ZipCode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mission: Identify the top %d specific product options for: %q in %s.\n", topCandidates, query, region.CountryName)
	fmt.Fprintf(&b, "User Requirements: %s.\n", values)
	fmt.Fprintf(&b, "Location: %s.\n", where)
	b.WriteString(modeClause(loc, region))
	b.WriteString("Use Google Search to find CURRENT pricing and real retailer URLs.\n")
	fmt.Fprintf(&b, `Output strictly JSON: {"summary": "Short summary", "products": [{"brand": "Brand", "name": "Model", "price": number, "currency": "%s", "storeName": "Merchant", "sourceUrl": "REAL URL", "description": "Analysis", "specs": {"Key": "Value"}, "pros": ["Benefit"], "cons": ["Drawback"], "valueScore": 1-100, "valueBreakdown": {"performance": 1-10, "buildQuality": 1-10, "featureSet": 1-10, "reliability": 1-10, "userSatisfaction": 1-10, "efficiency": 1-10, "innovation": 1-10, "longevity": 1-10, "ergonomics": 1-10, "dealStrength": 1-10}}]}`, region.CurrencySymbol)
	return b.String()
}

func modeClause(loc *model.UserLocation, region model.RegionInfo) string {
	switch loc.Mode() {
	case model.ModeGlobal:
		return "Mode: GLOBAL. Ignore region-specific retailers and compare the best options available online.\n"
	case model.ModeLocal:
		return fmt.Sprintf("Mode: LOCAL. Only include stores with physical locations within %d km of the user.\n", loc.RadiusKm())
	default:
		return fmt.Sprintf("Mode: HYBRID. Prefer retailers that ship within %s, and include stores within %d km when they are cheaper.\n", region.CountryName, loc.RadiusKm())
	}
}
