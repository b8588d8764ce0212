package main

import (
	"fmt"

	"github.com/lox/threadlink/internal/replay"
)

// VerifyCmd replays a fixture and fails on the first divergence
type VerifyCmd struct {
	Fixture string `arg:"" help:"Fixture file to verify"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	fixture, err := replay.ReadFile(c.Fixture)
	if err != nil {
		return err
	}

	if err := replay.Verify(fixture, e.registry); err != nil {
		fmt.Fprintln(g.stdout(), failStyle.Render("FAIL"), err)
		return err
	}

	e.logger.Debug("Fixture verified", "path", c.Fixture, "seed", fixture.Seed)
	fmt.Fprintln(g.stdout(), passStyle.Render("OK"), fmt.Sprintf("%d sequences match seed %#x", len(fixture.Sequences), fixture.Seed))
	return nil
}
