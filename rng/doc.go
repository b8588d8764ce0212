// Package rng provides deterministic, identity-keyed random numbers.
//
// Every value is a pure function of a seed, an identity and (for streams) a
// counter. Two copies of a Stream at the same counter always produce the same
// next value, on every platform and across process restarts, which makes the
// package suitable for replays, lockstep simulation and network
// reconciliation.
//
// There are two independent tools:
//
//   - Stream: a 64-bit counter-based sequence derived from a Session seed, a
//     Domain and zero or more Contexts.
//   - Key: a stateless 32-bit lookup of (Root seed, A, B, C, D). Calling it
//     twice with the same key yields the same value.
//
// Basic use:
//
//	rng.Boot(42)
//	s := rng.SourceFrom(rng.Combat, rng.Of(entityID, frame))
//	damage := s.Range(10, 20)
//	crit := s.Probability(0.05)
//
// Sampling before Boot behaves as if the seed were 0.
package rng
