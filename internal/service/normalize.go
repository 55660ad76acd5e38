package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"valuescout/internal/model"
	"valuescout/internal/utils"
)

// normalizeProduct turns one raw product object into a fully populated Product
func (s *ProductSearcher) normalizeProduct(
	ctx context.Context,
	obj map[string]any,
	sources []model.Source,
	region model.RegionInfo,
	aff *model.AffiliateConfig,
) model.Product {
	brand := stringOr(obj["brand"], "")
	name := stringOr(obj["name"], "")
	storeName := stringOr(obj["storeName"], "")

	verifiedURL := s.resolveSourceURL(ctx, stringOr(obj["sourceUrl"], ""), brand, name, sources)

	sourceURL := verifiedURL
	if !utils.IsRealURL(sourceURL) {
		sourceURL = utils.GoogleSearchURL(brand + " " + name)
	}

	price, _ := utils.ToFloat(obj["price"])

	return model.Product{
		ID:             uuid.NewString(),
		Name:           name,
		Brand:          brand,
		Price:          price,
		Currency:       stringOr(obj["currency"], region.CurrencySymbol),
		StoreName:      storeName,
		Description:    stringOr(obj["description"], ""),
		Specs:          specsMap(obj["specs"]),
		Pros:           stringList(obj["pros"]),
		Cons:           stringList(obj["cons"]),
		SourceURL:      sourceURL,
		ValueScore:     valueScore(obj["valueScore"]),
		ValueBreakdown: mergeBreakdown(obj["valueBreakdown"]),
		Retailers: BuildRetailerLinks(LinkInput{
			Brand:     brand,
			Name:      name,
			StoreName: storeName,
			SourceURL: verifiedURL,
		}, region, aff),
	}
}

// resolveSourceURL returns the asserted URL when it is usable. Otherwise it
// takes the first citation whose title mentions the brand or the name.
// It returns "" when neither is usable.
func (s *ProductSearcher) resolveSourceURL(ctx context.Context, asserted, brand, name string, sources []model.Source) string {
	if utils.IsRealURL(asserted) && (s.verifier == nil || s.verifier.Verify(ctx, asserted)) {
		return asserted
	}

	titles := make([]string, len(sources))
	for i, src := range sources {
		titles[i] = src.Title
	}
	if idx := utils.FirstTitleMatch(titles, brand, name); idx >= 0 {
		return sources[idx].URI
	}
	return ""
}

func specsMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// valueScore treats a missing or zero score as absent
func valueScore(v any) int {
	score, ok := utils.ToInt(v)
	if !ok || score == 0 {
		return model.DefaultValueScore
	}
	return score
}

// mergeBreakdown overlays the model's sub-scores on an all-neutral template
func mergeBreakdown(v any) model.ValueBreakdown {
	breakdown := model.NeutralBreakdown()
	raw, ok := v.(map[string]any)
	if !ok {
		return breakdown
	}

	fields := breakdown.Fields()
	for key, value := range raw {
		field, known := fields[key]
		if !known {
			field, known = fields[lowerFirst(key)]
		}
		if !known {
			continue
		}
		if n, ok := utils.ToInt(value); ok {
			*field = n
		}
	}
	return breakdown
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
