package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuescout/internal/model"
)

func product(id string, score int, price float64) model.Product {
	return model.Product{
		ID:             id,
		ValueScore:     score,
		Price:          price,
		ValueBreakdown: model.NeutralBreakdown(),
	}
}

func TestRanker_RankProducts(t *testing.T) {
	fast := product("fast", 80, 900)
	fast.ValueBreakdown.Performance = 10

	deal := product("deal", 92, 450)
	deal.ValueBreakdown.DealStrength = 9
	deal.Retailers = []model.RetailerLink{{Name: "Direct: Shop", URL: "https://shop.com/p", IsDirect: true}}

	cheap := product("cheap", 80, 120)
	free := product("free", 60, 0)

	ranker := NewRanker()
	results := ranker.RankProducts([]model.Product{fast, deal, cheap, free})
	require.Len(t, results, 4)

	ids := []string{}
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	// ties keep backend order
	assert.Equal(t, []string{"deal", "fast", "cheap", "free"}, ids)

	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}

	assert.Equal(t, []string{HighlightTopPick, HighlightBestDeal, HighlightDirectLink}, results[0].Highlights)
	assert.Equal(t, []string{HighlightBestPerformance}, results[1].Highlights)
	assert.Equal(t, []string{HighlightLowestPrice}, results[2].Highlights)
	assert.Empty(t, results[3].Highlights)
}

func TestRanker_SingleProduct(t *testing.T) {
	results := NewRanker().RankProducts([]model.Product{product("only", 70, 10)})
	require.Len(t, results, 1)
	assert.Equal(t, []string{HighlightTopPick}, results[0].Highlights)
}

func TestRanker_Empty(t *testing.T) {
	results := NewRanker().RankProducts(nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRanker_ComparisonKeys(t *testing.T) {
	a := model.RankedProduct{Product: model.Product{Specs: map[string]any{"Weight": "1 kg", "Battery": "20h"}}}
	b := model.RankedProduct{Product: model.Product{Specs: map[string]any{"Weight": "2 kg", "Driver": "40mm"}}}
	c := model.RankedProduct{Product: model.Product{}}

	keys := NewRanker().ComparisonKeys([]model.RankedProduct{a, b, c})
	assert.Equal(t, []string{"Battery", "Weight", "Driver"}, keys)
}
