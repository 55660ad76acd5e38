package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
	newlineRe       = regexp.MustCompile(`\r\n|\n|\r`)
)

// ExtractJSON recovers a JSON value from AI output that may contain:
// - Pure JSON
// - JSON wrapped in markdown code blocks (```json ... ```)
// - JSON with surrounding prose
// - Trailing commas or raw newlines inside string values
//
// ok is false when nothing could be recovered. It never panics.
func ExtractJSON(input string) (value any, ok bool) {
	if input == "" {
		return nil, false
	}

	// Try direct parsing first (most common case)
	if err := json.Unmarshal([]byte(input), &value); err == nil {
		return value, true
	}

	target, found := extractFromMarkdown(input)
	if !found {
		target, found = extractOutermostSpan(input)
	}
	if !found {
		return nil, false
	}

	if err := json.Unmarshal([]byte(cleanJSON(target)), &value); err != nil {
		return nil, false
	}
	return value, true
}

// ParseAIJSON recovers JSON from AI output and decodes it into target
func ParseAIJSON(input string, target interface{}) error {
	value, ok := ExtractJSON(input)
	if !ok {
		return fmt.Errorf("no JSON found in AI output (%d bytes)", len(input))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to re-encode recovered JSON: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("recovered JSON does not match target: %w", err)
	}
	return nil
}

// extractFromMarkdown returns the inner content of the first fenced code block
func extractFromMarkdown(input string) (string, bool) {
	if matches := fencedBlockRe.FindStringSubmatch(input); len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}

// extractOutermostSpan returns the text between the earliest opening brace or
// bracket and the latest closing one
func extractOutermostSpan(input string) (string, bool) {
	start := earliest(strings.Index(input, "{"), strings.Index(input, "["))
	end := latest(strings.LastIndex(input, "}"), strings.LastIndex(input, "]"))
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return input[start : end+1], true
}

// cleanJSON removes trailing commas before closing braces/brackets and
// collapses newlines, which models sometimes leave inside string values
func cleanJSON(input string) string {
	s := strings.TrimPrefix(input, "\ufeff")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return newlineRe.ReplaceAllString(s, " ")
}

func earliest(a, b int) int {
	if a == -1 {
		return b
	}
	if b == -1 || a < b {
		return a
	}
	return b
}

func latest(a, b int) int {
	if a > b {
		return a
	}
	return b
}
