package util

import (
	"strconv"
	"strings"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseFloat parses a string to a float64, returning defaultValue if parsing fails
func ParseFloat(s string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val
	}
	return defaultValue
}

// ClampLimit parses a limit query value and clamps it to [1, max].
// Non-numeric or missing values fall back to defaultValue.
func ClampLimit(s string, defaultValue, max int) int {
	limit := ParseInt(s, defaultValue)
	if limit < 1 {
		return defaultValue
	}
	if limit > max {
		return max
	}
	return limit
}

// ParseGenreList parses a comma-separated string of genres into a slice,
// trimming whitespace and dropping empty entries.
func ParseGenreList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, g := range parts {
		g = strings.TrimSpace(g)
		if g != "" {
			result = append(result, g)
		}
	}
	return result
}
