package model

import "strings"

// RegionInfo is the coarse shopping region derived from a time zone
type RegionInfo struct {
	Domain         string `json:"domain"`
	CountryName    string `json:"countryName"`
	CurrencySymbol string `json:"currencySymbol"`
	BestBuyDomain  string `json:"bestBuyDomain,omitempty"`
	Flag           string `json:"flag"`
}

// SearchMode selects how location scopes a product search
type SearchMode string

const (
	ModeGlobal SearchMode = "GLOBAL"
	ModeHybrid SearchMode = "HYBRID"
	ModeLocal  SearchMode = "LOCAL"
)

// DefaultRadiusKm is used when a location has no radius set
const DefaultRadiusKm = 50

// UserLocation is the caller's location context. It is only ever used as prompt context.
type UserLocation struct {
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	ZipCode               string   `json:"zipCode,omitempty"`
	Address               string   `json:"address,omitempty"`
	ExcludeRegionSpecific bool     `json:"excludeRegionSpecific"`
	Radius                int      `json:"radius,omitempty"`
	LocalOnly             bool     `json:"localOnly"`
}

// Mode returns the search mode. ExcludeRegionSpecific wins over LocalOnly.
func (l *UserLocation) Mode() SearchMode {
	if l == nil {
		return ModeHybrid
	}
	if l.ExcludeRegionSpecific {
		return ModeGlobal
	}
	if l.LocalOnly {
		return ModeLocal
	}
	return ModeHybrid
}

// RadiusKm returns the search radius, falling back to DefaultRadiusKm
func (l *UserLocation) RadiusKm() int {
	if l == nil || l.Radius <= 0 {
		return DefaultRadiusKm
	}
	return l.Radius
}

// ParseSearchMode maps a mode name onto location flags
func ParseSearchMode(mode string) (exclude, localOnly bool, ok bool) {
	switch SearchMode(strings.ToUpper(strings.TrimSpace(mode))) {
	case ModeGlobal:
		return true, false, true
	case ModeHybrid:
		return false, false, true
	case ModeLocal:
		return false, true, true
	}
	return false, false, false
}
