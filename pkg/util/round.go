package util

import (
	"math"
	"strconv"
)

// Round rounds x to the given number of decimal places.
// The rounding is done on the exact binary value with ties going to even,
// which is what the training pipeline used for its engineered features.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	if places < 0 {
		places = 0
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
