package common

import "math"

// TrigTableSize is the number of entries in the fixed-point sine and cosine tables.
// Angles are expressed in 1/2048ths of a full turn.
const TrigTableSize = 2048

// TrigUnit is the angle in radians covered by one table step.
const TrigUnit = 0.0030679615

// FixedOne is the fixed-point scale of the trig tables (16.16).
const FixedOne = 65536

var (
	// Sine holds 65536*sin(i*TrigUnit) for every angle index.
	Sine [TrigTableSize]int32
	// Cosine holds 65536*cos(i*TrigUnit) for every angle index.
	Cosine [TrigTableSize]int32
)

func init() {
	for i := range TrigTableSize {
		Sine[i] = int32(FixedOne * math.Sin(float64(i)*TrigUnit))
		Cosine[i] = int32(FixedOne * math.Cos(float64(i)*TrigUnit))
	}
}

// AngleIndex wraps an arbitrary angle into the trig table range.
func AngleIndex(angle int) int {
	return angle & (TrigTableSize - 1)
}
