package rng

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Domain partitions randomness into independent categories. Two systems that
// share an entity ID but use different domains get uncorrelated streams.
type Domain uint64

// Built-in domains.
const (
	Combat    Domain = 1
	Loot      Domain = 2
	Animation Domain = 3
)

var (
	// ErrDuplicateDomain is returned when a name or tag is registered twice.
	ErrDuplicateDomain = errors.New("domain already registered")
	// ErrUnknownDomain is returned when a name has no registered domain.
	ErrUnknownDomain = errors.New("unknown domain")
)

// Identity returns the unseeded identity of the domain.
func (d Domain) Identity() uint64 {
	return Mix64(uint64(d))
}

// DomainFromName derives a stable tag from a name.
func DomainFromName(name string) Domain {
	return Domain(xxhash.Sum64String(name))
}

// Registry maps domain names to tags. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Domain
	byTag  map[Domain]string
}

// NewRegistry returns a registry holding the built-in domains.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]Domain),
		byTag:  make(map[Domain]string),
	}
	r.byName["combat"], r.byTag[Combat] = Combat, "combat"
	r.byName["loot"], r.byTag[Loot] = Loot, "loot"
	r.byName["animation"], r.byTag[Animation] = Animation, "animation"
	return r
}

// Register adds name with an explicit tag.
func (r *Registry) Register(name string, tag Domain) error {
	if name == "" {
		return errors.New("domain name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if existing == tag {
			return nil
		}
		return fmt.Errorf("%w: %q has tag %d", ErrDuplicateDomain, name, existing)
	}
	if owner, ok := r.byTag[tag]; ok {
		return fmt.Errorf("%w: tag %d is used by %q", ErrDuplicateDomain, tag, owner)
	}

	r.byName[name] = tag
	r.byTag[tag] = name
	return nil
}

// RegisterName adds name with a tag derived by DomainFromName.
func (r *Registry) RegisterName(name string) (Domain, error) {
	tag := DomainFromName(name)
	if err := r.Register(name, tag); err != nil {
		return 0, err
	}
	return tag, nil
}

// Lookup returns the domain registered under name.
func (r *Registry) Lookup(name string) (Domain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	return d, nil
}

// Name returns the registered name of d, or its numeric tag.
func (r *Registry) Name(d Domain) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.byTag[d]; ok {
		return name
	}
	return fmt.Sprintf("domain(%d)", uint64(d))
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
