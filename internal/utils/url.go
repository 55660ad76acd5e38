package utils

import (
	"net/url"
	"strings"
)

// placeholderMarkers are substrings models put into made-up URLs
var placeholderMarkers = []string{"example.com", "placeholder"}

// IsRealURL reports whether a URL may be shown to the user as a real link
func IsRealURL(u string) bool {
	if !strings.HasPrefix(u, "http") {
		return false
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(u, marker) {
			return false
		}
	}
	return true
}

// EncodeURIComponent escapes s the way browsers do for a single query component
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	// QueryEscape is stricter than encodeURIComponent for these
	for from, to := range map[string]string{
		"%21": "!", "%27": "'", "%28": "(", "%29": ")", "%2A": "*",
	} {
		escaped = strings.ReplaceAll(escaped, from, to)
	}
	return escaped
}

// GoogleSearchURL builds a plain web search link for a query
func GoogleSearchURL(query string) string {
	return "https://www.google.com/search?q=" + EncodeURIComponent(query)
}

// AppendQueryParam appends key=value using ? or & depending on whether the URL already has a query
func AppendQueryParam(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + EncodeURIComponent(value)
}

// HostContains reports whether the URL's host contains fragment.
// Unparseable URLs are checked as plain strings.
func HostContains(rawURL, fragment string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.Contains(strings.ToLower(rawURL), fragment)
	}
	return strings.Contains(strings.ToLower(parsed.Host), fragment)
}
