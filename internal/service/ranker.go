package service

import (
	"sort"

	"valuescout/internal/model"
)

// Highlight badge constants
const (
	HighlightTopPick         = "Top pick"
	HighlightLowestPrice     = "Lowest price"
	HighlightBestPerformance = "Best performance"
	HighlightBestDeal        = "Best deal"
	HighlightDirectLink      = "Direct retailer link"
)

// Ranker orders products by value score and attaches highlight badges
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// RankProducts sorts products by value score, highest first. Ties keep the
// backend's order.
func (r *Ranker) RankProducts(products []model.Product) []model.RankedProduct {
	results := make([]model.RankedProduct, 0, len(products))
	for _, p := range products {
		results = append(results, model.RankedProduct{
			Product:    p,
			Highlights: []string{},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ValueScore > results[j].ValueScore
	})

	// comparative badges need something to compare against
	cheapest, fastest, bestDeal := -1, -1, -1
	if len(results) > 1 {
		cheapest = r.indexOfLowestPrice(results)
		fastest = r.indexOfMax(results, func(p model.RankedProduct) int { return p.ValueBreakdown.Performance })
		bestDeal = r.indexOfMax(results, func(p model.RankedProduct) int { return p.ValueBreakdown.DealStrength })
	}

	for i := range results {
		results[i].Rank = i + 1
		results[i].Highlights = r.generateHighlights(results[i], i, cheapest, fastest, bestDeal)
	}

	return results
}

// ComparisonKeys returns the union of spec keys across products, in first-seen order
func (r *Ranker) ComparisonKeys(products []model.RankedProduct) []string {
	keys := []string{}
	seen := make(map[string]bool)
	for _, p := range products {
		// map order is random, so each product's keys are sorted first
		productKeys := make([]string, 0, len(p.Specs))
		for k := range p.Specs {
			productKeys = append(productKeys, k)
		}
		sort.Strings(productKeys)

		for _, k := range productKeys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// indexOfLowestPrice ignores products without a positive price
func (r *Ranker) indexOfLowestPrice(results []model.RankedProduct) int {
	idx := -1
	for i, p := range results {
		if p.Price <= 0 {
			continue
		}
		if idx < 0 || p.Price < results[idx].Price {
			idx = i
		}
	}
	return idx
}

func (r *Ranker) indexOfMax(results []model.RankedProduct, score func(model.RankedProduct) int) int {
	idx := -1
	for i, p := range results {
		if idx < 0 || score(p) > score(results[idx]) {
			idx = i
		}
	}
	return idx
}

// generateHighlights generates the badges shown next to a product
func (r *Ranker) generateHighlights(p model.RankedProduct, i, cheapest, fastest, bestDeal int) []string {
	highlights := []string{}

	if i == 0 {
		highlights = append(highlights, HighlightTopPick)
	}
	if i == cheapest {
		highlights = append(highlights, HighlightLowestPrice)
	}
	if i == fastest {
		highlights = append(highlights, HighlightBestPerformance)
	}
	if i == bestDeal {
		highlights = append(highlights, HighlightBestDeal)
	}
	if len(p.Retailers) > 0 && p.Retailers[0].IsDirect {
		highlights = append(highlights, HighlightDirectLink)
	}

	return highlights
}
