package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"zap-scraper/models"
)

// numberRegexp captures the first numeric token of a display string, with
// pt-BR separators still in place ("1.234,50").
var numberRegexp = regexp.MustCompile(`-?\d[\d.,]*`)

// lookup walks v along a dotted path. Numeric segments index into arrays.
func lookup(v any, path string) (any, bool) {
	cur := v
	if raw, ok := cur.(models.RawListing); ok {
		cur = map[string]any(raw)
	}
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// extractFirstOr returns the value at path. Arrays yield their first
// element; a missing key, null or empty array yields def.
func extractFirstOr(raw models.RawListing, path string, def any) any {
	v, ok := lookup(raw, path)
	if !ok {
		return def
	}
	if arr, isArr := v.([]any); isArr {
		if len(arr) == 0 || arr[0] == nil {
			return def
		}
		return arr[0]
	}
	return v
}

func floatOr(raw models.RawListing, path string, def float64) float64 {
	if f, ok := toFloat(extractFirstOr(raw, path, nil)); ok {
		return f
	}
	return def
}

func intOr(raw models.RawListing, path string, def int) int {
	if f, ok := toFloat(extractFirstOr(raw, path, nil)); ok {
		return int(f)
	}
	return def
}

func stringAt(raw models.RawListing, path string) string {
	switch v := extractFirstOr(raw, path, "").(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func stringsAt(raw models.RawListing, path string) []string {
	v, ok := lookup(raw, path)
	if !ok {
		return []string{}
	}
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, isStr := item.(string); isStr && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return []string{}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseDecimal(n)
	}
	return 0, false
}

// parseDecimal reads a pt-BR display value such as "R$ 1.200", "70 m²" or
// "1.234,50". Currency symbols and unit suffixes are dropped; '.' is a
// thousands separator unless the value has no comma and the dot is not
// followed by exactly three digits.
func parseDecimal(s string) (float64, bool) {
	token := numberRegexp.FindString(s)
	if token == "" {
		return 0, false
	}
	token = strings.TrimRight(token, ".,")

	if strings.Contains(token, ",") {
		token = strings.ReplaceAll(token, ".", "")
		token = strings.Replace(token, ",", ".", 1)
		token = strings.ReplaceAll(token, ",", "")
	} else if isThousandsGrouped(token) {
		token = strings.ReplaceAll(token, ".", "")
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isThousandsGrouped(token string) bool {
	parts := strings.Split(strings.TrimPrefix(token, "-"), ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
