package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/lox/threadlink/rng"
)

// KeyCmd evaluates the stateless key variant
type KeyCmd struct {
	Components []uint32 `arg:"" help:"One to four key components"`
	Min        int      `help:"Inclusive lower bound for a range lookup"`
	Max        int      `help:"Exclusive upper bound for a range lookup"`
}

func (c *KeyCmd) Run(g *Globals) error {
	if len(c.Components) == 0 || len(c.Components) > 4 {
		return fmt.Errorf("key needs 1 to 4 components, got %d", len(c.Components))
	}

	e, err := g.setup()
	if err != nil {
		return err
	}

	k := rng.NewKey(c.Components[0], c.Components[1:]...)

	w := tabwriter.NewWriter(g.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "key\t%d,%d,%d,%d\n", k.A, k.B, k.C, k.D)
	fmt.Fprintf(w, "root\t%#x\n", e.root.Seed())
	fmt.Fprintf(w, "uint\t%#08x\n", e.root.UInt(k))
	fmt.Fprintf(w, "float\t%v\n", e.root.Float01(k))
	if c.Max > c.Min {
		fmt.Fprintf(w, "range\t%d\n", e.root.Range(k, c.Min, c.Max))
	}
	return w.Flush()
}
