package service

import (
	"context"
	"sync"

	"valuescout/internal/model"
)

// fakeAIClient returns canned responses in call order
type fakeAIClient struct {
	mu        sync.Mutex
	enabled   bool
	responses []fakeResponse
	requests  []GenerateRequest
}

type fakeResponse struct {
	text      string
	citations []model.Source
	err       error
}

func newFakeClient(responses ...fakeResponse) *fakeAIClient {
	return &fakeAIClient{enabled: true, responses: responses}
}

func (f *fakeAIClient) IsEnabled() bool {
	return f.enabled
}

func (f *fakeAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.responses) == 0 {
		return &GenerateResponse{}, nil
	}

	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &GenerateResponse{Text: resp.text, Citations: resp.citations}, nil
}

func (f *fakeAIClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func tzSource(tz string) TimeZoneSource {
	return func() (string, error) { return tz, nil }
}
