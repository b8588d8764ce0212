package rng

import (
	"sync"
	"sync/atomic"
)

// seedCell is a write-once seed. Reads before the first write observe zero.
type seedCell struct {
	once   sync.Once
	value  atomic.Uint64
	booted atomic.Bool
}

func (c *seedCell) boot(seed uint64) {
	c.once.Do(func() {
		c.value.Store(seed)
		c.booted.Store(true)
	})
}

// Session owns the 64-bit seed used by streams. The zero value is usable and
// behaves as seed 0 until Boot is called.
type Session struct {
	cell seedCell
}

// NewSession returns a session already booted with seed.
func NewSession(seed uint64) *Session {
	s := &Session{}
	s.Boot(seed)
	return s
}

// Boot sets the seed. Only the first call has any effect.
func (s *Session) Boot(seed uint64) {
	s.cell.boot(seed)
}

// Seed returns the session seed, or 0 if the session was never booted.
func (s *Session) Seed() uint64 {
	return s.cell.value.Load()
}

// Booted reports whether Boot has been called.
func (s *Session) Booted() bool {
	return s.cell.booted.Load()
}

// SourceFrom returns a fresh stream for domain, optionally narrowed by one or
// more contexts. The stream captures the seed at construction.
func (s *Session) SourceFrom(domain Domain, contexts ...Context) Stream {
	identity := IdentityForDomain(domain)
	for _, ctx := range contexts {
		identity ^= contextIdentity(ctx)
	}
	return NewStream(s.Seed(), identity)
}

// Root owns the 32-bit seed used by key lookups. The zero value behaves as
// seed 0 until Boot is called.
type Root struct {
	cell seedCell
}

// NewRoot returns a root already booted with seed.
func NewRoot(seed uint32) *Root {
	r := &Root{}
	r.Boot(seed)
	return r
}

// Boot sets the root seed. Only the first call has any effect.
func (r *Root) Boot(seed uint32) {
	r.cell.boot(uint64(seed))
}

// Seed returns the root seed, or 0 if the root was never booted.
func (r *Root) Seed() uint32 {
	return uint32(r.cell.value.Load())
}

// Booted reports whether Boot has been called.
func (r *Root) Booted() bool {
	return r.cell.booted.Load()
}

var (
	defaultSession = &Session{}
	defaultRoot    = &Root{}
)

// Boot seeds the process-wide session. Subsequent calls are no-ops.
func Boot(seed uint64) {
	defaultSession.Boot(seed)
}

// BootRoot seeds the process-wide key root. Subsequent calls are no-ops.
func BootRoot(seed uint32) {
	defaultRoot.Boot(seed)
}

// DefaultSession returns the process-wide session used by SourceFrom.
func DefaultSession() *Session {
	return defaultSession
}

// DefaultRoot returns the process-wide root used by UInt, Float01 and Range.
func DefaultRoot() *Root {
	return defaultRoot
}

// SourceFrom returns a stream from the process-wide session.
func SourceFrom(domain Domain, contexts ...Context) Stream {
	return defaultSession.SourceFrom(domain, contexts...)
}
