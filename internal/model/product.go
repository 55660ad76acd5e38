package model

// AttributeType is the kind of refinement control a SpecAttribute renders as
type AttributeType string

const (
	AttributeSelect  AttributeType = "SELECT"
	AttributeNumber  AttributeType = "NUMBER"
	AttributeBoolean AttributeType = "BOOLEAN"
	AttributeString  AttributeType = "STRING"
)

// RetailerIcon identifies the icon shown next to a retailer link
type RetailerIcon string

const (
	IconAmazon  RetailerIcon = "amazon"
	IconGoogle  RetailerIcon = "google"
	IconBestBuy RetailerIcon = "bestbuy"
	IconGeneric RetailerIcon = "generic"
	IconMaps    RetailerIcon = "maps"
)

// SpecAttribute is a comparison attribute suggested by the category analysis
type SpecAttribute struct {
	Key          string        `json:"key"`
	Label        string        `json:"label"`
	Type         AttributeType `json:"type"`
	Options      []string      `json:"options,omitempty"`
	Unit         string        `json:"unit,omitempty"`
	DefaultValue any           `json:"defaultValue,omitempty"`
	Description  string        `json:"description,omitempty"`
}

// PriceRange is advisory and only used to scale sliders
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// RetailerLink is an outbound shopping link. The first link of a product is its primary call-to-action.
type RetailerLink struct {
	Name     string       `json:"name"`
	URL      string       `json:"url"`
	Icon     RetailerIcon `json:"icon"`
	IsDirect bool         `json:"isDirect,omitempty"`
}

// ValueBreakdown holds ten 1-10 sub-scores
type ValueBreakdown struct {
	Performance      int `json:"performance"`
	BuildQuality     int `json:"buildQuality"`
	FeatureSet       int `json:"featureSet"`
	Reliability      int `json:"reliability"`
	UserSatisfaction int `json:"userSatisfaction"`
	Efficiency       int `json:"efficiency"`
	Innovation       int `json:"innovation"`
	Longevity        int `json:"longevity"`
	Ergonomics       int `json:"ergonomics"`
	DealStrength     int `json:"dealStrength"`
}

// NeutralSubScore is used for every sub-score the model leaves out
const NeutralSubScore = 7

// DefaultValueScore is used when the model leaves out the overall score
const DefaultValueScore = 75

// NeutralBreakdown returns a breakdown with every sub-score set to NeutralSubScore
func NeutralBreakdown() ValueBreakdown {
	return ValueBreakdown{
		Performance:      NeutralSubScore,
		BuildQuality:     NeutralSubScore,
		FeatureSet:       NeutralSubScore,
		Reliability:      NeutralSubScore,
		UserSatisfaction: NeutralSubScore,
		Efficiency:       NeutralSubScore,
		Innovation:       NeutralSubScore,
		Longevity:        NeutralSubScore,
		Ergonomics:       NeutralSubScore,
		DealStrength:     NeutralSubScore,
	}
}

// Fields exposes the breakdown keyed by its JSON field names
func (b *ValueBreakdown) Fields() map[string]*int {
	return map[string]*int{
		"performance":      &b.Performance,
		"buildQuality":     &b.BuildQuality,
		"featureSet":       &b.FeatureSet,
		"reliability":      &b.Reliability,
		"userSatisfaction": &b.UserSatisfaction,
		"efficiency":       &b.Efficiency,
		"innovation":       &b.Innovation,
		"longevity":        &b.Longevity,
		"ergonomics":       &b.Ergonomics,
		"dealStrength":     &b.DealStrength,
	}
}

// Product is a normalized search candidate. It is built fresh for every search response.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Brand          string         `json:"brand"`
	Price          float64        `json:"price"`
	Currency       string         `json:"currency"`
	StoreName      string         `json:"storeName,omitempty"`
	Description    string         `json:"description"`
	Specs          map[string]any `json:"specs"`
	Pros           []string       `json:"pros"`
	Cons           []string       `json:"cons"`
	SourceURL      string         `json:"sourceUrl"`
	Retailers      []RetailerLink `json:"retailers"`
	ValueScore     int            `json:"valueScore"`
	ValueBreakdown ValueBreakdown `json:"valueBreakdown"`
}

// AdUnit is placeholder ad content generated alongside the category analysis
type AdUnit struct {
	Brand       string `json:"brand"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
}

// Source is a grounding citation returned with a search-augmented response
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// AffiliateConfig holds per-network tracking identifiers
type AffiliateConfig struct {
	AmazonTag string `json:"amazonTag,omitempty"`
	EbayID    string `json:"ebayId,omitempty"`
	BestBuyID string `json:"bestBuyId,omitempty"`
	ImpactID  string `json:"impactId,omitempty"`
}
