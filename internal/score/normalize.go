// Package score defines the scorer contract, the placeholder safety models
// and the helpers that turn raw model output into [0,1] scores.
package score

import "math"

// Clamp01 limits x to [0,1]. NaN is treated as 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// Normalize maps value from [minValue, maxValue] onto [0,1] and clamps it.
// An empty range yields 0.
func Normalize(value, minValue, maxValue float64) float64 {
	if maxValue == minValue {
		return 0
	}
	return Clamp01((value - minValue) / (maxValue - minValue))
}
