package rng

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
)

var (
	// ErrInvalidRange is the panic value (wrapped) for ranges with max <= min.
	ErrInvalidRange = errors.New("invalid range: max must be greater than min")
	// ErrInvalidCount is the panic value (wrapped) for non-positive counts.
	ErrInvalidCount = errors.New("invalid count: must be positive")
)

// Stream is a counter-based sequence of draws from one identity.
//
// Stream is a value: copying it forks the sequence, and two copies at the
// same counter produce the same next value. A Stream is not safe for
// concurrent use, but distinct streams need no coordination.
//
// Integer results are computed in uint64 arithmetic, so they do not depend on
// the platform's int size as long as the bounds fit in an int.
type Stream struct {
	seed     uint64
	identity uint64
	counter  uint64
}

// NewStream builds a stream from a seed and a precomputed identity.
func NewStream(seed, identity uint64) Stream {
	return Stream{seed: seed, identity: identity}
}

// Seed returns the seed captured when the stream was built.
func (s *Stream) Seed() uint64 { return s.seed }

// Identity returns the combined domain and context identity.
func (s *Stream) Identity() uint64 { return s.identity }

// Counter returns the number of draws taken so far.
func (s *Stream) Counter() uint64 { return s.counter }

// Seek moves the stream to counter.
func (s *Stream) Seek(counter uint64) { s.counter = counter }

// At returns the raw draw at counter without advancing the stream.
func (s *Stream) At(counter uint64) uint64 {
	return Mix64Seeded(s.seed, s.identity^Mix64(counter))
}

// Next returns the next raw 64-bit draw.
func (s *Stream) Next() uint64 {
	v := s.At(s.counter)
	s.counter++
	return v
}

// Uint64 is Next. It makes *Stream a math/rand/v2 Source.
func (s *Stream) Uint64() uint64 {
	return s.Next()
}

// Rand wraps the stream in a *rand.Rand. Draws taken through the returned
// Rand advance s.
func (s *Stream) Rand() *rand.Rand {
	return rand.New(s)
}

// Range returns an int in [min, max). It panics if max <= min.
func (s *Stream) Range(min, max int) int {
	if max <= min {
		panic(fmt.Errorf("%w: Range(%d, %d)", ErrInvalidRange, min, max))
	}
	span := uint64(max) - uint64(min)
	return int(uint64(min) + s.Next()%span)
}

// Index returns an int in [0, count). It panics if count <= 0.
func (s *Stream) Index(count int) int {
	if count <= 0 {
		panic(fmt.Errorf("%w: Index(%d)", ErrInvalidCount, count))
	}
	return int(s.Next() % uint64(count))
}

// Boolean returns the lowest bit of the next draw.
func (s *Stream) Boolean() bool {
	return s.Next()&1 == 1
}

// Float01 returns a float64 in [0, 1) built from the top 52 bits of a draw.
func (s *Stream) Float01() float64 {
	return math.Float64frombits(0x3ff0000000000000|s.Next()>>12) - 1.0
}

// Probability reports whether an event with probability p happens. It always
// consumes exactly one draw; p <= 0 never succeeds and p >= 1 always does.
func (s *Stream) Probability(p float64) bool {
	return s.Float01() < p
}

// RangeFloat returns a float64 in [min, max). It panics unless max > min.
func (s *Stream) RangeFloat(min, max float64) float64 {
	if !(max > min) {
		panic(fmt.Errorf("%w: RangeFloat(%g, %g)", ErrInvalidRange, min, max))
	}
	f := s.Float01()
	span := max - min
	var v float64
	if math.IsInf(span, 0) {
		v = min*(1-f) + max*f
	} else {
		v = min + span*f
	}
	if v >= max {
		// rounding can land on max for wide ranges
		v = math.Nextafter(max, min)
	}
	return v
}

// Fixed01 returns a Q32.32 value in [0, 1) from the top 32 bits of a draw.
func (s *Stream) Fixed01() Fixed {
	return Fixed(s.Next() >> (64 - fixedFracBits))
}

// RangeFixed returns a Q32.32 value in [min, max). It panics if max <= min.
func (s *Stream) RangeFixed(min, max Fixed) Fixed {
	if max <= min {
		panic(fmt.Errorf("%w: RangeFixed(%s, %s)", ErrInvalidRange, min, max))
	}
	span := uint64(max) - uint64(min)
	hi, lo := bits.Mul64(span, uint64(s.Fixed01()))
	return Fixed(uint64(min) + (hi<<fixedFracBits | lo>>fixedFracBits))
}

// Shuffle permutes n elements with a Fisher-Yates shuffle.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	if n < 0 {
		panic(fmt.Errorf("%w: Shuffle(%d)", ErrInvalidCount, n))
	}
	for i := n - 1; i > 0; i-- {
		j := s.Index(i + 1)
		swap(i, j)
	}
}
