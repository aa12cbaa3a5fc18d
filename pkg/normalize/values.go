package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

const (
	maxAttributeLength = 200
	maxFeatureLength   = 200
)

// StringOptions controls String normalization
type StringOptions struct {
	MaxLength  int
	AllowEmpty bool
	Default    string
}

// String trims a string field. Absent values yield the default; non-string
// values and empty strings (unless AllowEmpty) are rejected.
func String(value any, field string, opts StringOptions) (string, error) {
	if value == nil {
		return opts.Default, nil
	}
	text, ok := value.(string)
	if !ok {
		return "", Errorf("%s must be a string", field)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && !opts.AllowEmpty {
		return "", Errorf("%s cannot be empty", field)
	}
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = 500
	}
	return truncate(trimmed, maxLength), nil
}

// NonNegative parses a number that must be finite and >= 0
func NonNegative(value any, field string, def float64) (float64, error) {
	numeric, present, ok := parseNumber(value)
	if !present {
		return def, nil
	}
	if !ok || numeric < 0 {
		return 0, Errorf("%s must be a non-negative number", field)
	}
	return numeric, nil
}

// Positive parses a number that must be finite and > 0
func Positive(value any, field string, def float64) (float64, error) {
	numeric, present, ok := parseNumber(value)
	if !present {
		return def, nil
	}
	if !ok || numeric <= 0 {
		return 0, Errorf("%s must be greater than zero", field)
	}
	return numeric, nil
}

// Rate parses a ratio. Values above 1 and up to 100 are read as percentages.
// Exceeding max is an error, never a clamp.
func Rate(value any, field string, def, max float64) (float64, error) {
	numeric, present, ok := parseNumber(value)
	if !present {
		return def, nil
	}
	if !ok || numeric < 0 {
		return 0, Errorf("%s must be a non-negative number", field)
	}
	if numeric > 1 && numeric <= 100 {
		numeric = numeric / 100
	}
	if numeric > max {
		return 0, Errorf("%s must be <= %s", field, strconv.FormatFloat(max, 'f', -1, 64))
	}
	return numeric, nil
}

// Bool never fails: literal booleans and "true", "yes", "1", "y" are true
func Bool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case nil:
		return false
	}
	switch strings.ToLower(Text(value)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

// BoolDefault is Bool with a default for absent values
func BoolDefault(value any, def bool) bool {
	if value == nil {
		return def
	}
	return Bool(value)
}

// Text renders any scalar as trimmed text; nil is empty
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Number parses a finite number leniently; ok is false when absent or invalid
func Number(value any) (float64, bool) {
	numeric, present, ok := parseNumber(value)
	return numeric, present && ok
}

// Features keeps non-empty string entries, trimmed and capped
func Features(value any) []string {
	features := []string{}
	switch v := value.(type) {
	case []string:
		for _, feature := range v {
			features = appendFeature(features, feature)
		}
	case []any:
		for _, feature := range v {
			if text, ok := feature.(string); ok {
				features = appendFeature(features, text)
			}
		}
	}
	return features
}

func appendFeature(features []string, feature string) []string {
	trimmed := strings.TrimSpace(feature)
	if trimmed == "" {
		return features
	}
	return append(features, truncate(trimmed, maxFeatureLength))
}

// Attributes keeps string, finite number and boolean values of a free-form
// map and drops everything else silently.
func Attributes(value any) (types.Attributes, error) {
	if value == nil {
		return types.Attributes{}, nil
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return types.Attributes{}, Errorf("catalog item attributes must be an object")
	}

	clean := make(map[string]any, len(raw))
	for rawKey, v := range raw {
		key := strings.TrimSpace(rawKey)
		if key == "" {
			continue
		}
		switch typed := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(typed); trimmed != "" {
				clean[key] = truncate(trimmed, maxAttributeLength)
			}
		case float64:
			if !math.IsNaN(typed) && !math.IsInf(typed, 0) {
				clean[key] = typed
			}
		case int:
			clean[key] = float64(typed)
		case json.Number:
			if f, err := typed.Float64(); err == nil && !math.IsInf(f, 0) {
				clean[key] = f
			}
		case bool:
			clean[key] = typed
		}
	}
	return types.ParseAttributes(clean), nil
}

// parseNumber returns present=false for nil and blank strings, ok=false for
// anything that is not a finite number.
func parseNumber(value any) (numeric float64, present bool, ok bool) {
	switch v := value.(type) {
	case nil:
		return 0, false, false
	case float64:
		return v, true, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return parseNumber(float64(v))
	case int:
		return float64(v), true, true
	case int64:
		return float64(v), true, true
	case json.Number:
		f, err := v.Float64()
		return f, true, err == nil && !math.IsInf(f, 0)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, true, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, true, false
	}
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
