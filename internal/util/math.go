package util

import "math"

// Smooth returns an exponentially smoothed value, decaying the old value via
// (oldValue * (1 - factor)) + (newValue * factor).
func Smooth(oldValue, newValue, factor float64) float64 {
	return oldValue*(1-factor) + newValue*factor
}

// Clamp returns value bounded to [lower, upper].
func Clamp(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}

// RoundWhole rounds to the nearest whole number, with halves rounding away
// from zero.
func RoundWhole(value float64) float64 {
	return math.Round(value)
}

// RoundPlaces rounds to the given number of decimal places, with halves
// rounding away from zero.
func RoundPlaces(value float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(value*shift) / shift
}
