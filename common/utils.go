package common

import "golang.org/x/exp/constraints"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the inclusive range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound, must not be less than lo
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(hi, v))
}

// UnpackRGB splits a packed 0xRRGGBB color into normalized float channels.
//
// Parameters:
//   - rgb: the packed color, the top byte is ignored
//
// Returns:
//   - [4]float32: red, green, blue in [0, 1] and an alpha of 1
func UnpackRGB(rgb int) [4]float32 {
	return [4]float32{
		float32(rgb>>16&0xFF) / 255,
		float32(rgb>>8&0xFF) / 255,
		float32(rgb&0xFF) / 255,
		1,
	}
}
