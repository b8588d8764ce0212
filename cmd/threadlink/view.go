package main

import (
	"github.com/lox/threadlink/internal/tui"
	"github.com/lox/threadlink/rng"
)

// ViewCmd opens the interactive stream viewer
type ViewCmd struct {
	Domain  string   `arg:"" optional:"" default:"combat" help:"Domain name"`
	Context []uint64 `short:"x" sep:"," help:"Context components, comma separated"`
}

func (c *ViewCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	domain, err := e.registry.Lookup(c.Domain)
	if err != nil {
		return err
	}

	return tui.Run(tui.NewModel(e.session, domain, c.Domain, rng.Of(c.Context...), e.logger))
}
