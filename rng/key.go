package rng

import "fmt"

// Key addresses one value of the stateless key space. Unused components are
// zero. Keys are comparable and can be used as map keys.
type Key struct {
	A, B, C, D uint32
}

// NewKey builds a key from one to four components.
func NewKey(a uint32, rest ...uint32) Key {
	if len(rest) > 3 {
		panic(fmt.Sprintf("rng: NewKey takes at most 4 components, got %d", len(rest)+1))
	}
	k := Key{A: a}
	parts := []*uint32{&k.B, &k.C, &k.D}
	for i, v := range rest {
		*parts[i] = v
	}
	return k
}

// UInt returns the value for k. The same root seed and key always produce
// the same value; there is no hidden state.
func (r *Root) UInt(k Key) uint32 {
	return Combine32(r.Seed(), k.A, k.B, k.C, k.D)
}

// Float01 returns a float32 in [0, 1) from the low 24 bits of UInt(k).
func (r *Root) Float01(k Key) float32 {
	return float32(r.UInt(k)&0xffffff) * (1.0 / (1 << 24))
}

// Range returns an int in [min, max) for k. It panics if max <= min.
func (r *Root) Range(k Key, min, max int) int {
	if max <= min {
		panic(fmt.Errorf("%w: Range(%d, %d)", ErrInvalidRange, min, max))
	}
	span := uint64(max) - uint64(min)
	return int(uint64(min) + uint64(r.UInt(k))%span)
}

// UInt looks k up in the process-wide root.
func UInt(k Key) uint32 {
	return defaultRoot.UInt(k)
}

// Float01 looks k up in the process-wide root.
func Float01(k Key) float32 {
	return defaultRoot.Float01(k)
}

// Range looks k up in the process-wide root.
func Range(k Key, min, max int) int {
	return defaultRoot.Range(k, min, max)
}
