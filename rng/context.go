package rng

import "math/bits"

// Context narrows a domain to one call site, for example an entity and a
// frame number. Implementations must be pure: the same value always yields
// the same identity.
type Context interface {
	Identity() uint64
}

// Components is a general purpose context built from integer parts.
type Components []uint64

// Of returns a context made of the given components.
func Of(components ...uint64) Components {
	return Components(components)
}

// Identity XOR-combines the mixed components. Each component is rotated by
// its position so order matters and equal components do not cancel. An
// all-zero context has identity 0.
func (c Components) Identity() uint64 {
	var id uint64
	for i, v := range c {
		id ^= bits.RotateLeft64(Mix64(v), 17*i)
	}
	return id
}

// Identity is a context whose identity is already known.
type Identity uint64

// Identity returns the value itself.
func (id Identity) Identity() uint64 {
	return uint64(id)
}

// IdentityForDomain returns the unseeded identity of a domain.
func IdentityForDomain(d Domain) uint64 {
	return d.Identity()
}

// IdentityForDomainWithContext combines a domain with a context.
func IdentityForDomainWithContext(d Domain, ctx Context) uint64 {
	return IdentityForDomain(d) ^ contextIdentity(ctx)
}

func contextIdentity(ctx Context) uint64 {
	if ctx == nil {
		return 0
	}
	return ctx.Identity()
}
