package rng

import (
	"math"
	"math/bits"
	"strconv"
)

// Fixed is a signed Q32.32 fixed-point number. Arithmetic on Fixed is exact
// and identical on every platform, unlike float64 in some lockstep setups.
type Fixed int64

const fixedFracBits = 32

// One is 1.0 in Q32.32.
const One Fixed = 1 << fixedFracBits

// FixedFromInt converts an integer. Values outside the int32 range overflow.
func FixedFromInt(v int64) Fixed {
	return Fixed(v << fixedFracBits)
}

// FixedFromFloat converts a float, rounding to the nearest representable value.
func FixedFromFloat(v float64) Fixed {
	return Fixed(math.Round(v * float64(One)))
}

// Float64 converts f to a float.
func (f Fixed) Float64() float64 {
	return float64(f) / float64(One)
}

// Int returns the integer part, rounding toward negative infinity.
func (f Fixed) Int() int64 {
	return int64(f >> fixedFracBits)
}

// Mul multiplies two fixed-point values, truncating toward zero.
func (f Fixed) Mul(g Fixed) Fixed {
	neg := (f < 0) != (g < 0)
	a, b := uint64(f), uint64(g)
	if f < 0 {
		a = uint64(-f)
	}
	if g < 0 {
		b = uint64(-g)
	}

	hi, lo := bits.Mul64(a, b)
	r := Fixed(hi<<fixedFracBits | lo>>fixedFracBits)
	if neg {
		return -r
	}
	return r
}

func (f Fixed) String() string {
	return strconv.FormatFloat(f.Float64(), 'f', -1, 64)
}
