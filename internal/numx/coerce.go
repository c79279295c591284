// Package numx implements the tolerant numeric coercion used on every read
// path. A malformed value degrades to the caller's declared default instead
// of failing the surrounding fetch.
package numx

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float64 coerces v to a finite float64, returning def when v is not numeric.
func Float64(v any, def float64) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return def
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return def
		}
		f = p
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Int64 coerces v to an int64, truncating fractional values toward zero.
// Non-numeric or out-of-range input returns def.
func Int64(v any, def int64) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n
		}
	}
	f := Float64(v, math.NaN())
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return def
	}
	return int64(f)
}

// NonNegative returns f, or 0 when f is negative or not finite.
func NonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// String returns v when it is a string and a decimal rendering for numbers.
// Anything else yields "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
