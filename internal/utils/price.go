package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParsePrice converts a price string such as "$1,299.99" or "CAD 45" to float64
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0
	}

	// Drop thousands separators before extracting the number
	cleanPrice := strings.ReplaceAll(priceStr, ",", "")
	cleanPrice = strings.TrimSpace(cleanPrice)

	match := numberRe.FindString(cleanPrice)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return price
}

// ToFloat converts a loosely typed JSON value into a number.
// ok is false for values that carry no number.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if numberRe.FindString(n) == "" {
			return 0, false
		}
		return ParsePrice(n), true
	}
	return 0, false
}

// ToInt converts a loosely typed JSON value into a rounded integer
func ToInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}
