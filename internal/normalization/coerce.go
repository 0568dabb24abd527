package normalization

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// secondsThreshold separates second and millisecond epoch timestamps.
const secondsThreshold = 1_000_000_000_000

// toFloat converts a raw value to a finite float64.
// Non-numeric values yield ok=false.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt64 converts a raw value to an integer, truncating fractions.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// coerceInt returns the integer value of v, or 0 when v is not numeric.
func coerceInt(v any) int {
	n, _ := toInt64(v)
	return int(n)
}

// coerceBool maps native booleans, "true"/"false"/"1"/"0" strings and
// numbers to a strict boolean. Anything else is false.
func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	}
	f, ok := toFloat(v)
	return ok && f != 0
}

// coerceString renders scalars as strings. Objects and arrays become "".
func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

// coerceTimestamp returns a Unix millisecond timestamp. Values below 10^12
// are seconds and are scaled up. RFC 3339 strings are also accepted.
func coerceTimestamp(v any) int64 {
	n, ok := toInt64(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return 0
		}
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
		if err != nil {
			return 0
		}
		return t.UnixMilli()
	}
	return NormalizeTimestamp(n)
}

// NormalizeTimestamp scales second-precision epoch values to milliseconds.
// Millisecond values pass through unchanged.
func NormalizeTimestamp(ts int64) int64 {
	if ts < secondsThreshold {
		return ts * 1000
	}
	return ts
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
