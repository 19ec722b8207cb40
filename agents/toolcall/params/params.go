/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Extract extracts a required parameter from args with type safety.
// Returns an error if the parameter is missing or cannot be converted to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, exists := args[name]
	if !exists {
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	if v, ok := convert[T](value); ok {
		return v, nil
	}
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// ExtractOptional extracts an optional parameter with a default value.
// Returns the default if the parameter doesn't exist, or an error if type conversion fails.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}
	if v, ok := convert[T](value); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

func convert[T any](value any) (T, bool) {
	if v, ok := value.(T); ok {
		return v, true
	}
	return convertNumeric[T](value)
}

// convertNumeric handles JSON numbers (float64) and numbers quoted as strings,
// which smaller models emit frequently.
func convertNumeric[T any](value any) (T, bool) {
	var zero T
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(v, "#")), 64)
		if err != nil {
			return zero, false
		}
		n = f
	default:
		return zero, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return zero, false
	}
	switch any(zero).(type) {
	case int:
		if !integral(n, math.MinInt, math.MaxInt) {
			return zero, false
		}
		return any(int(n)).(T), true
	case int32:
		if !integral(n, math.MinInt32, math.MaxInt32) {
			return zero, false
		}
		return any(int32(n)).(T), true
	case int64:
		if !integral(n, math.MinInt64, math.MaxInt64) {
			return zero, false
		}
		return any(int64(n)).(T), true
	case float64:
		return any(n).(T), true
	}
	return zero, false
}

// integral reports whether n is a whole number within [lo, hi]. The upper
// bound is exclusive once converted to float64, since MaxInt64 rounds up.
func integral(n float64, lo, hi int64) bool {
	return n == math.Trunc(n) && n >= float64(lo) && n < float64(hi)+1
}

// Error formats err as tool output text behind the given prefix, e.g.
// "Error creating PR: 422 Reference already exists".
func Error(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}
