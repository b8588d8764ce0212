package main

import (
	"fmt"
	"text/tabwriter"
)

// DomainsCmd lists the built-in and configured domains
type DomainsCmd struct{}

func (c *DomainsCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTAG\tIDENTITY")
	for _, name := range e.registry.Names() {
		d, err := e.registry.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%#016x\n", name, uint64(d), d.Identity())
	}
	return w.Flush()
}
