package service

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"valuescout/internal/model"
)

// TimeZoneSource reports an IANA time-zone identifier such as "America/Toronto"
type TimeZoneSource func() (string, error)

var (
	regionCanada = model.RegionInfo{
		Domain:         "amazon.ca",
		CountryName:    "Canada",
		CurrencySymbol: "CAD",
		BestBuyDomain:  "bestbuy.ca",
		Flag:           "🇨🇦",
	}
	regionUSA = model.RegionInfo{
		Domain:         "amazon.com",
		CountryName:    "USA",
		CurrencySymbol: "USD",
		BestBuyDomain:  "bestbuy.com",
		Flag:           "🇺🇸",
	}
)

var canadianZones = []string{
	"canada",
	"toronto", "vancouver", "edmonton", "winnipeg", "halifax", "st_johns", "regina",
	"calgary", "ottawa", "montreal", "quebec", "saskatoon", "victoria",
}

// DefaultRegion is returned whenever the time zone cannot be read
func DefaultRegion() model.RegionInfo {
	return regionUSA
}

// ResolveRegion maps a time zone onto a shopping region. It never fails:
// an error, an empty zone or a panic inside src all yield the USA profile.
func ResolveRegion(src TimeZoneSource) (region model.RegionInfo) {
	region = regionUSA
	if src == nil {
		return region
	}

	defer func() {
		if r := recover(); r != nil {
			region = regionUSA
		}
	}()

	tz, err := src()
	if err != nil {
		return regionUSA
	}

	tz = strings.ToLower(strings.TrimSpace(tz))
	if tz == "" {
		return regionUSA
	}

	for _, zone := range canadianZones {
		if strings.Contains(tz, zone) {
			return regionCanada
		}
	}
	return regionUSA
}

// LocalTimeZone reads the zone of the running process: $TZ first, then the
// /etc/localtime symlink, then the name of time.Local
func LocalTimeZone() (string, error) {
	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		return strings.TrimPrefix(tz, ":"), nil
	}

	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if idx := strings.Index(target, "zoneinfo/"); idx >= 0 {
			return target[idx+len("zoneinfo/"):], nil
		}
	}

	return time.Local.String(), nil
}

// FixedTimeZone returns a source for a zone supplied by the caller.
// An empty zone falls back to LocalTimeZone.
func FixedTimeZone(tz string) TimeZoneSource {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return LocalTimeZone
	}
	return func() (string, error) {
		return tz, nil
	}
}
