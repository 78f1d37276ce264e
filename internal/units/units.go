// Package units provides shared angle and color-channel conversions for scene export
package units

import "math"

// DegToRad converts an angle in degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// ClampUnit clamps v to the unit interval [0, 1]. NaN clamps to 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UnitToByte maps a unit-interval color channel to its 8-bit encoding.
// Out-of-range values are clamped before quantization.
func UnitToByte(v float64) uint8 {
	return uint8(math.Round(ClampUnit(v) * 255))
}
