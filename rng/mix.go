package rng

const (
	mix64Mul1 = 0xbf58476d1ce4e5b9
	mix64Mul2 = 0x94d049bb133111eb

	mix32Mul1 = 0x7feb352d
	mix32Mul2 = 0x846ca68b
)

// Lane constants decorrelate key components so that Key{1, 2} and Key{2, 1}
// hash differently.
var keyLanes = [4]uint32{0x9e3779b1, 0x85ebca6b, 0xc2b2ae35, 0x27d4eb2f}

// Mix64 is the SplitMix64 finalizer. Mix64(0) == 0.
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= mix64Mul1
	x ^= x >> 27
	x *= mix64Mul2
	x ^= x >> 31
	return x
}

// Mix64Seeded folds seed into x before mixing.
func Mix64Seeded(seed, x uint64) uint64 {
	return Mix64(x ^ seed)
}

// Mix32 is a Murmur-style 32-bit finalizer.
func Mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= mix32Mul1
	x ^= x >> 15
	x *= mix32Mul2
	x ^= x >> 16
	return x
}

// Combine32 mixes a seed and four key components into one value.
func Combine32(seed, a, b, c, d uint32) uint32 {
	h := Mix32(seed)
	h ^= Mix32(a ^ keyLanes[0])
	h ^= Mix32(b ^ keyLanes[1])
	h ^= Mix32(c ^ keyLanes[2])
	h ^= Mix32(d ^ keyLanes[3])
	return Mix32(h)
}
