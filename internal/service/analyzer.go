package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"valuescout/internal/logging"
	"valuescout/internal/model"
	"valuescout/internal/utils"
)

const (
	defaultMarketGuide = "Analyzing market conditions..."
	defaultMaxPrice    = 5000
	maxAdUnits         = 4
)

// CategoryAnalyzer asks the backend which attributes matter when comparing products of a category
type CategoryAnalyzer struct {
	aiClient AIClient
	logger   *zap.Logger
}

// NewCategoryAnalyzer creates a new category analyzer
func NewCategoryAnalyzer(aiClient AIClient, logger *zap.Logger) *CategoryAnalyzer {
	logger = logging.OrNop(logger)
	return &CategoryAnalyzer{
		aiClient: aiClient,
		logger:   logger,
	}
}

// Analyze runs the category analysis for a query
func (a *CategoryAnalyzer) Analyze(ctx context.Context, query string, tz TimeZoneSource) (*model.AnalysisResult, error) {
	if a.aiClient == nil || !a.aiClient.IsEnabled() {
		return nil, errEnvironmentAuth()
	}

	region := ResolveRegion(tz)
	query = strings.TrimSpace(query)

	resp, err := a.aiClient.Generate(ctx, GenerateRequest{
		Prompt:     buildAnalysisPrompt(query, region),
		JSONOutput: true,
	})
	if err != nil {
		a.logger.Warn("category analysis failed", zap.String("query", query), zap.Error(err))
		return nil, classifyBackendError(err, "Failed to analyze category")
	}

	raw, ok := utils.ExtractJSON(resp.Text)
	if !ok {
		a.logger.Warn("category analysis returned unparseable output",
			zap.String("query", query),
			zap.String("output", truncate(resp.Text, 200)),
		)
		return nil, errMalformed("Category analysis could not be parsed. The AI returned an invalid format.")
	}
	data, ok := raw.(map[string]any)
	if !ok {
		return nil, errMalformed("Category analysis did not return a JSON object.")
	}

	attrs := parseAttributes(data["attributes"])
	result := &model.AnalysisResult{
		Attributes:    make([]model.SpecAttribute, 0, len(attrs)),
		Suggestions:   stringList(data["suggestions"]),
		MarketGuide:   stringOr(data["marketGuide"], defaultMarketGuide),
		PriceRange:    parsePriceRange(data["priceRange"], region),
		AdUnits:       parseAdUnits(data["adUnits"]),
		Region:        region,
		DefaultValues: map[string]any{"minPrice": 0, "maxPrice": nil, "customQuery": ""},
	}

	for _, attr := range attrs {
		result.Attributes = append(result.Attributes, attr.SpecAttribute)
		if attr.hasDefault {
			result.DefaultValues[attr.Key] = attr.DefaultValue
		}
	}

	a.logger.Info("category analyzed",
		zap.String("query", query),
		zap.String("country", region.CountryName),
		zap.Int("attributes", len(result.Attributes)),
	)

	return result, nil
}

func buildAnalysisPrompt(query string, region model.RegionInfo) string {
	return fmt.Sprintf(`Mission: Analyze "%s" for shoppers in %s. Define exactly 4 key technical attributes buyers use to compare these products.
Return strictly JSON in this shape:
{"attributes": [{"key": "camelCaseKey", "label": "Human label", "type": "NUMBER|STRING|BOOLEAN", "defaultValue": "any"}],
"marketGuide": "2-3 sentences of expert buying advice",
"suggestions": ["follow-up refinement 1", "follow-up refinement 2"],
"priceRange": {"min": number, "max": number, "currency": "%s"},
"adUnits": [{"brand": "string", "headline": "string", "description": "string", "cta": "string"}]}
Return at most %d adUnits.`, query, region.CountryName, region.CurrencySymbol, maxAdUnits)
}

// parsedAttribute remembers whether the model sent a defaultValue at all,
// since an explicit null still overrides the seed defaults
type parsedAttribute struct {
	model.SpecAttribute
	hasDefault bool
}

func parseAttributes(v any) []parsedAttribute {
	items, _ := v.([]any)
	attrs := make([]parsedAttribute, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := strings.TrimSpace(stringOr(obj["key"], ""))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		attr := parsedAttribute{
			SpecAttribute: model.SpecAttribute{
				Key:         key,
				Label:       stringOr(obj["label"], key),
				Type:        coerceAttributeType(obj["type"]),
				Options:     stringList(obj["options"]),
				Unit:        stringOr(obj["unit"], ""),
				Description: stringOr(obj["description"], ""),
			},
		}
		if dv, present := obj["defaultValue"]; present {
			attr.DefaultValue = dv
			attr.hasDefault = true
		}
		if len(attr.Options) == 0 {
			attr.Options = nil
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// coerceAttributeType folds the model's type into NUMBER, BOOLEAN or STRING
func coerceAttributeType(v any) model.AttributeType {
	s, _ := v.(string)
	switch model.AttributeType(s) {
	case model.AttributeNumber:
		return model.AttributeNumber
	case model.AttributeBoolean:
		return model.AttributeBoolean
	default:
		return model.AttributeString
	}
}

func parsePriceRange(v any, region model.RegionInfo) model.PriceRange {
	fallback := model.PriceRange{Min: 0, Max: defaultMaxPrice, Currency: region.CurrencySymbol}

	obj, ok := v.(map[string]any)
	if !ok {
		return fallback
	}

	pr := model.PriceRange{Currency: stringOr(obj["currency"], region.CurrencySymbol)}
	if lo, ok := utils.ToFloat(obj["min"]); ok {
		pr.Min = lo
	}
	if hi, ok := utils.ToFloat(obj["max"]); ok {
		pr.Max = hi
	} else {
		pr.Max = defaultMaxPrice
	}
	return pr
}

func parseAdUnits(v any) []model.AdUnit {
	items, _ := v.([]any)
	units := make([]model.AdUnit, 0, maxAdUnits)
	for _, item := range items {
		if len(units) == maxAdUnits {
			break
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		units = append(units, model.AdUnit{
			Brand:       stringOr(obj["brand"], ""),
			Headline:    stringOr(obj["headline"], ""),
			Description: stringOr(obj["description"], ""),
			CTA:         stringOr(obj["cta"], ""),
		})
	}
	return units
}

// Helper functions

func stringOr(v any, fallback string) string {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) != "" {
			return s
		}
	case float64:
		return fmt.Sprint(s)
	}
	return fallback
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
