// internal/dom/serializer/parse.go
package serializer

import "strconv"

// parseNumber converts an attribute string to a float, falling back to the
// caller's default on any malformed input. Used where the control has a
// well-known default range (e.g. range sliders).
func parseNumber(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseOptionalNumber converts an attribute string to a float, returning nil
// on empty or malformed input so the caller can omit the field entirely
// instead of defaulting it.
func parseOptionalNumber(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// capText truncates s to maxLen runes, appending an ellipsis when cut.
func capText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
