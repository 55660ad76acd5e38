package model

// AnalysisResult is the outcome of a category analysis
type AnalysisResult struct {
	Attributes    []SpecAttribute `json:"attributes"`
	Suggestions   []string        `json:"suggestions"`
	MarketGuide   string          `json:"marketGuide"`
	DefaultValues map[string]any  `json:"defaultValues"`
	PriceRange    PriceRange      `json:"priceRange"`
	AdUnits       []AdUnit        `json:"adUnits"`
	Region        RegionInfo      `json:"region"`
}

// SearchResult is the outcome of a grounded product search
type SearchResult struct {
	Products []Product  `json:"products"`
	Summary  string     `json:"summary"`
	Sources  []Source   `json:"sources"`
	Region   RegionInfo `json:"region"`
}

// AnalyzeRequest represents POST /api/v1/analyze
type AnalyzeRequest struct {
	Query    string `json:"query" binding:"required"`
	TimeZone string `json:"timeZone,omitempty"`
}

// SearchRequest represents POST /api/v1/search
type SearchRequest struct {
	Query      string           `json:"query" binding:"required"`
	UserValues map[string]any   `json:"userValues,omitempty"`
	Location   *UserLocation    `json:"location,omitempty"`
	Affiliates *AffiliateConfig `json:"affiliates,omitempty"`
	TimeZone   string           `json:"timeZone,omitempty"`
}

// ScoutRequest represents a full analyze-then-search run
type ScoutRequest struct {
	Query      string         `json:"query" binding:"required"`
	UserValues map[string]any `json:"userValues,omitempty"` // overrides the analysis defaults
	Location   *UserLocation  `json:"location,omitempty"`
	TimeZone   string         `json:"timeZone,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	NoCache    bool           `json:"noCache,omitempty"`
}

// RankedProduct is a product with its position and highlight badges
type RankedProduct struct {
	Product
	Rank       int      `json:"rank"`
	Highlights []string `json:"highlights"`
}

// ScoutResponse is the result of a full run
type ScoutResponse struct {
	Query          string          `json:"query"`
	Analysis       *AnalysisResult `json:"analysis"`
	UserValues     map[string]any  `json:"userValues"`
	Products       []RankedProduct `json:"products"`
	ComparisonKeys []string        `json:"comparisonKeys"`
	Summary        string          `json:"summary"`
	Sources        []Source        `json:"sources"`
	Region         RegionInfo      `json:"region"`
	Cached         bool            `json:"cached"`
	Took           int64           `json:"took_ms"`
}

// ErrorResponse is the body returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
