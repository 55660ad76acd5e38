package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuescout/internal/model"
)

const (
	analysisJSON = `{"attributes": [{"key": "size", "label": "Size", "type": "NUMBER", "defaultValue": 10}], "marketGuide": "Buy big."}`
	searchJSON   = `{"summary": "Two picks", "products": [
		{"brand": "Acme", "name": "Small", "price": 100, "valueScore": 70, "specs": {"Size": "27in"}},
		{"brand": "Acme", "name": "Large", "price": 300, "valueScore": 90, "specs": {"Size": "32in", "Panel": "IPS"}}
	]}`
)

// memoryCache is an in-process ResultCache
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

// memoryStore is an in-process MissionStore
type memoryStore struct {
	mu       sync.Mutex
	missions []model.Mission
	recorded chan struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{recorded: make(chan struct{}, 8)}
}

func (m *memoryStore) RecordMission(_ context.Context, mission *model.Mission, _ []float32) (int64, error) {
	m.mu.Lock()
	mission.ID = int64(len(m.missions) + 1)
	m.missions = append(m.missions, *mission)
	m.mu.Unlock()
	m.recorded <- struct{}{}
	return mission.ID, nil
}

func (m *memoryStore) GetStats(_ context.Context, _ int) (*model.MissionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &model.MissionStats{TotalMissions: len(m.missions)}
	for _, mission := range m.missions {
		stats.TotalValueScouted += mission.TotalValue
	}
	return stats, nil
}

func (m *memoryStore) FindSimilar(_ context.Context, _ []float32, _ int) ([]model.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Mission(nil), m.missions...), nil
}

func newTestScout(client AIClient, opts ...ScoutOption) *Scout {
	return NewScout(
		NewCategoryAnalyzer(client, nil),
		NewProductSearcher(client, nil, nil),
		NewRanker(),
		nil,
		opts...,
	)
}

func TestScout_Run(t *testing.T) {
	client := newFakeClient(fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON})
	scout := newTestScout(client, WithAffiliates(model.AffiliateConfig{AmazonTag: "scout-20"}))

	resp, err := scout.Run(context.Background(), &model.ScoutRequest{
		Query:      "monitor",
		UserValues: map[string]any{"maxPrice": 500},
		TimeZone:   "America/Toronto",
	})
	require.NoError(t, err)

	assert.Equal(t, "Canada", resp.Region.CountryName)
	assert.Equal(t, 10.0, resp.UserValues["size"])
	assert.Equal(t, 500, resp.UserValues["maxPrice"])
	assert.Equal(t, 0, resp.UserValues["minPrice"])

	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Large", resp.Products[0].Name)
	assert.Equal(t, 1, resp.Products[0].Rank)
	assert.Contains(t, resp.Products[0].Highlights, HighlightTopPick)
	assert.Equal(t, []string{"Panel", "Size"}, resp.ComparisonKeys)
	assert.Equal(t, "Two picks", resp.Summary)
	assert.False(t, resp.Cached)

	amazon := resp.Products[0].Retailers[len(resp.Products[0].Retailers)-1]
	assert.Contains(t, amazon.URL, "amazon.ca")
	assert.Contains(t, amazon.URL, "tag=scout-20")

	// analysis defaults reach the search prompt
	require.Equal(t, 2, client.calls())
	assert.Contains(t, client.requests[1].Prompt, `"size":10`)
}

func TestScout_RunStreamEvents(t *testing.T) {
	client := newFakeClient(fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON})
	scout := newTestScout(client)

	var events []string
	_, err := scout.RunStream(context.Background(), &model.ScoutRequest{Query: "monitor"}, func(event string, _ any) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"analyzing", "analysis", "searching"}, events)
}

func TestScout_CallbackErrorStopsRun(t *testing.T) {
	client := newFakeClient(fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON})
	scout := newTestScout(client)

	stop := errors.New("client went away")
	_, err := scout.RunStream(context.Background(), &model.ScoutRequest{Query: "monitor"}, func(event string, _ any) error {
		if event == "analysis" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, client.calls())
}

func TestScout_CacheHitReissuesIDs(t *testing.T) {
	client := newFakeClient(
		fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON},
	)
	scout := newTestScout(client, WithCache(newMemoryCache()))
	req := &model.ScoutRequest{Query: "monitor", TimeZone: "America/New_York"}

	first, err := scout.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := scout.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls(), "second run should be served from cache")
	assert.True(t, second.Cached)
	require.Len(t, second.Products, len(first.Products))
	for i := range first.Products {
		assert.Equal(t, first.Products[i].Name, second.Products[i].Name)
		assert.NotEqual(t, first.Products[i].ID, second.Products[i].ID)
	}
}

func TestScout_NoCacheBypassesCache(t *testing.T) {
	client := newFakeClient(
		fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON},
		fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON},
	)
	scout := newTestScout(client, WithCache(newMemoryCache()))

	_, err := scout.Run(context.Background(), &model.ScoutRequest{Query: "monitor"})
	require.NoError(t, err)
	resp, err := scout.Run(context.Background(), &model.ScoutRequest{Query: "monitor", NoCache: true})
	require.NoError(t, err)

	assert.Equal(t, 4, client.calls())
	assert.False(t, resp.Cached)
}

func TestScout_RecordsMission(t *testing.T) {
	client := newFakeClient(fakeResponse{text: analysisJSON}, fakeResponse{text: searchJSON})
	store := newMemoryStore()
	scout := newTestScout(client, WithMissions(NewMissionService(store, nil, nil)))

	_, err := scout.Run(context.Background(), &model.ScoutRequest{Query: " monitor "})
	require.NoError(t, err)

	select {
	case <-store.recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("mission was not recorded")
	}

	stats, err := store.GetStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMissions)
	assert.InDelta(t, 400.0, stats.TotalValueScouted, 0.001)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "monitor", store.missions[0].Query)
	assert.Equal(t, "Large", store.missions[0].TopProduct["name"])
}

func TestScout_PropagatesAnalysisError(t *testing.T) {
	client := newFakeClient(fakeResponse{text: "garbage"})
	scout := newTestScout(client)

	_, err := scout.Run(context.Background(), &model.ScoutRequest{Query: "monitor"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, client.calls())
}

// blockingClient answers the analysis immediately and holds searches until released
type blockingClient struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingClient) IsEnabled() bool { return true }

func (b *blockingClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if !req.Grounding {
		return &GenerateResponse{Text: analysisJSON}, nil
	}
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return &GenerateResponse{Text: searchJSON}, nil
	}
}

func TestScout_NewerSearchSupersedesOlder(t *testing.T) {
	client := &blockingClient{release: make(chan struct{}), started: make(chan struct{}, 2)}
	scout := newTestScout(client)

	type outcome struct {
		resp *model.ScoutResponse
		err  error
	}
	older := make(chan outcome, 1)
	go func() {
		resp, err := scout.Run(context.Background(), &model.ScoutRequest{Query: "monitor", SessionID: "tab"})
		older <- outcome{resp, err}
	}()
	<-client.started

	newer := make(chan outcome, 1)
	go func() {
		resp, err := scout.Run(context.Background(), &model.ScoutRequest{Query: "monitor 4k", SessionID: "tab"})
		newer <- outcome{resp, err}
	}()

	old := <-older
	assert.Nil(t, old.resp)
	assert.ErrorIs(t, old.err, ErrSuperseded)

	<-client.started
	close(client.release)

	latest := <-newer
	require.NoError(t, latest.err)
	assert.Equal(t, "monitor 4k", latest.resp.Query)
}

func TestMergeValues(t *testing.T) {
	defaults := map[string]any{"minPrice": 0, "size": 10.0}
	merged := mergeValues(defaults, map[string]any{"size": 12})

	assert.Equal(t, 12, merged["size"])
	assert.Equal(t, 0, merged["minPrice"])
	assert.Equal(t, 10.0, defaults["size"], "defaults must not be mutated")
}
