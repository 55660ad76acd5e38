package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegion(t *testing.T) {
	tests := []struct {
		name        string
		src         TimeZoneSource
		wantCountry string
		wantDomain  string
	}{
		{"Toronto", tzSource("America/Toronto"), "Canada", "amazon.ca"},
		{"Vancouver mixed case", tzSource("AMERICA/VANCOUVER"), "Canada", "amazon.ca"},
		{"St Johns", tzSource("America/St_Johns"), "Canada", "amazon.ca"},
		{"Legacy Canada zone", tzSource("Canada/Eastern"), "Canada", "amazon.ca"},
		{"New York", tzSource("America/New_York"), "USA", "amazon.com"},
		{"Europe", tzSource("Europe/Berlin"), "USA", "amazon.com"},
		{"Empty", tzSource(""), "USA", "amazon.com"},
		{"Source error", func() (string, error) { return "", errors.New("no tz") }, "USA", "amazon.com"},
		{"Source panics", func() (string, error) { panic("tz lookup exploded") }, "USA", "amazon.com"},
		{"Nil source", nil, "USA", "amazon.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := ResolveRegion(tt.src)
			assert.Equal(t, tt.wantCountry, region.CountryName)
			assert.Equal(t, tt.wantDomain, region.Domain)
		})
	}
}

func TestResolveRegionProfiles(t *testing.T) {
	ca := ResolveRegion(tzSource("America/Toronto"))
	assert.Equal(t, "CAD", ca.CurrencySymbol)
	assert.Equal(t, "bestbuy.ca", ca.BestBuyDomain)

	us := ResolveRegion(tzSource("America/New_York"))
	assert.Equal(t, "USD", us.CurrencySymbol)
	assert.Equal(t, "bestbuy.com", us.BestBuyDomain)
	assert.Equal(t, DefaultRegion(), us)
}

func TestFixedTimeZone(t *testing.T) {
	tz, err := FixedTimeZone(" America/Halifax ")()
	assert.NoError(t, err)
	assert.Equal(t, "America/Halifax", tz)

	t.Setenv("TZ", "America/Winnipeg")
	tz, err = FixedTimeZone("")()
	assert.NoError(t, err)
	assert.Equal(t, "America/Winnipeg", tz)
}
