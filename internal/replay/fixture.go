// Package replay records and verifies golden draw sequences.
//
// A fixture pins the values a session produced for a set of (domain,
// context, op) sequences. Verifying it against the current build proves that
// replays recorded earlier still reproduce bit for bit.
package replay

import (
	"errors"
	"fmt"

	"github.com/coder/quartz"

	"github.com/lox/threadlink/internal/sessionid"
	"github.com/lox/threadlink/rng"
)

// Supported sequence operations.
const (
	OpNext  = "next"
	OpRange = "range"
)

// ErrFixtureMismatch is returned when a replay diverges from its fixture.
var ErrFixtureMismatch = errors.New("fixture mismatch")

// sessionIDDomain feeds fixture IDs so they never consume draws from the
// recorded domains.
var sessionIDDomain = rng.DomainFromName("threadlink/session-id")

// Fixture is a set of recorded sequences for one seed
type Fixture struct {
	SessionID string     `hcl:"session_id,optional"`
	Seed      uint64     `hcl:"seed"`
	Sequences []Sequence `hcl:"sequence,block"`
}

// Sequence is one recorded run of draws. Raw draws (OpNext) are stored in
// Values; range results (OpRange) in Ints.
type Sequence struct {
	Name    string   `hcl:"name,label"`
	Domain  string   `hcl:"domain"`
	Context []uint64 `hcl:"context,optional"`
	Op      string   `hcl:"op"`
	Min     int64    `hcl:"min,optional"`
	Max     int64    `hcl:"max,optional"`
	Values  []uint64 `hcl:"values,optional"`
	Ints    []int64  `hcl:"ints,optional"`
}

// Spec describes a sequence to record
type Spec struct {
	Name    string
	Domain  string
	Context []uint64
	Op      string
	Min     int64
	Max     int64
	Count   int
}

// Validate checks that the spec can be drawn
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("sequence name is required")
	}
	if s.Count <= 0 {
		return fmt.Errorf("sequence %q: count must be positive", s.Name)
	}
	switch s.Op {
	case OpNext:
	case OpRange:
		if s.Max <= s.Min {
			return fmt.Errorf("sequence %q: %w", s.Name, rng.ErrInvalidRange)
		}
	default:
		return fmt.Errorf("sequence %q: unknown op %q", s.Name, s.Op)
	}
	return nil
}

// Recorder draws sequences from a session
type Recorder struct {
	session  *rng.Session
	registry *rng.Registry
	clock    quartz.Clock
}

// NewRecorder creates a recorder. The clock stamps fixture IDs.
func NewRecorder(session *rng.Session, registry *rng.Registry, clock quartz.Clock) *Recorder {
	return &Recorder{session: session, registry: registry, clock: clock}
}

// Record draws every spec and returns the fixture
func (r *Recorder) Record(specs []Spec) (*Fixture, error) {
	idStream := r.session.SourceFrom(sessionIDDomain)
	fixture := &Fixture{
		SessionID: sessionid.NewGenerator(r.clock, &idStream).Generate(),
		Seed:      r.session.Seed(),
	}

	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if names[spec.Name] {
			return nil, fmt.Errorf("sequence %q recorded twice", spec.Name)
		}
		names[spec.Name] = true

		seq, err := draw(r.session, r.registry, spec)
		if err != nil {
			return nil, err
		}
		fixture.Sequences = append(fixture.Sequences, seq)
	}

	return fixture, nil
}

func draw(session *rng.Session, registry *rng.Registry, spec Spec) (Sequence, error) {
	domain, err := registry.Lookup(spec.Domain)
	if err != nil {
		return Sequence{}, fmt.Errorf("sequence %q: %w", spec.Name, err)
	}

	seq := Sequence{
		Name:    spec.Name,
		Domain:  spec.Domain,
		Context: spec.Context,
		Op:      spec.Op,
	}
	s := session.SourceFrom(domain, rng.Of(spec.Context...))

	switch spec.Op {
	case OpNext:
		seq.Values = make([]uint64, spec.Count)
		for i := range seq.Values {
			seq.Values[i] = s.Next()
		}
	case OpRange:
		seq.Min, seq.Max = spec.Min, spec.Max
		seq.Ints = make([]int64, spec.Count)
		for i := range seq.Ints {
			seq.Ints[i] = int64(s.Range(int(spec.Min), int(spec.Max)))
		}
	}

	return seq, nil
}

func (seq Sequence) spec() Spec {
	count := len(seq.Values)
	if seq.Op == OpRange {
		count = len(seq.Ints)
	}
	return Spec{
		Name:    seq.Name,
		Domain:  seq.Domain,
		Context: seq.Context,
		Op:      seq.Op,
		Min:     seq.Min,
		Max:     seq.Max,
		Count:   count,
	}
}

// Verify replays every sequence from the fixture seed and reports the first
// divergence.
func Verify(fixture *Fixture, registry *rng.Registry) error {
	session := rng.NewSession(fixture.Seed)

	for _, want := range fixture.Sequences {
		spec := want.spec()
		if err := spec.Validate(); err != nil {
			return err
		}

		got, err := draw(session, registry, spec)
		if err != nil {
			return err
		}

		for i := range want.Values {
			if got.Values[i] != want.Values[i] {
				return fmt.Errorf("%w: sequence %q index %d: got %#x, want %#x",
					ErrFixtureMismatch, want.Name, i, got.Values[i], want.Values[i])
			}
		}
		for i := range want.Ints {
			if got.Ints[i] != want.Ints[i] {
				return fmt.Errorf("%w: sequence %q index %d: got %d, want %d",
					ErrFixtureMismatch, want.Name, i, got.Ints[i], want.Ints[i])
			}
		}
	}

	return nil
}
