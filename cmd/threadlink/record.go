package main

import (
	"fmt"

	"github.com/coder/quartz"

	"github.com/lox/threadlink/internal/replay"
)

// RecordCmd records raw and range draws for every registered domain
type RecordCmd struct {
	Output  string   `arg:"" help:"Fixture file to write"`
	Count   int      `short:"n" default:"8" help:"Draws per sequence"`
	Context []uint64 `short:"x" sep:"," help:"Context components, comma separated"`
	Min     int64    `default:"0" help:"Inclusive lower bound for range sequences"`
	Max     int64    `default:"100" help:"Exclusive upper bound for range sequences"`
}

func (c *RecordCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	var specs []replay.Spec
	for _, name := range e.registry.Names() {
		specs = append(specs,
			replay.Spec{Name: name + "-next", Domain: name, Context: c.Context, Op: replay.OpNext, Count: c.Count},
			replay.Spec{Name: name + "-range", Domain: name, Context: c.Context, Op: replay.OpRange, Min: c.Min, Max: c.Max, Count: c.Count},
		)
	}

	clock := g.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	fixture, err := replay.NewRecorder(e.session, e.registry, clock).Record(specs)
	if err != nil {
		return err
	}

	if err := replay.WriteFile(c.Output, fixture); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}

	e.logger.Info("Recorded fixture", "path", c.Output, "session", fixture.SessionID, "sequences", len(fixture.Sequences))
	fmt.Fprintf(g.stdout(), "recorded %d sequences to %s\n", len(fixture.Sequences), c.Output)
	return nil
}
