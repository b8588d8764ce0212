package main

import (
	"fmt"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/lox/threadlink/rng"
)

// SampleCmd draws values from one stream
type SampleCmd struct {
	Domain  string   `arg:"" optional:"" default:"combat" help:"Domain name"`
	Context []uint64 `short:"x" sep:"," help:"Context components, comma separated"`
	Op      string   `short:"o" default:"next" enum:"next,range,index,bool,float,fixed" help:"Draw operation (${enum})"`
	Min     int      `default:"0" help:"Inclusive lower bound for range and fixed"`
	Max     int      `default:"100" help:"Exclusive upper bound for range, index and fixed"`
	Count   int      `short:"n" default:"10" help:"Number of draws"`
	Counter uint64   `help:"Counter to start drawing from"`
}

func (c *SampleCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	if err := c.validate(); err != nil {
		return err
	}

	domain, err := e.registry.Lookup(c.Domain)
	if err != nil {
		return err
	}

	stream := e.session.SourceFrom(domain, rng.Of(c.Context...))
	stream.Seek(c.Counter)

	out := g.stdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s %v seed=%#x", c.Domain, c.Context, e.session.Seed())))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTER\tVALUE")
	for i := 0; i < c.Count; i++ {
		counter := stream.Counter()
		fmt.Fprintf(w, "%d\t%s\n", counter, c.draw(&stream))
	}
	return w.Flush()
}

func (c *SampleCmd) validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("count %d: %w", c.Count, rng.ErrInvalidCount)
	}
	switch c.Op {
	case "range":
		if c.Max <= c.Min {
			return fmt.Errorf("range [%d, %d): %w", c.Min, c.Max, rng.ErrInvalidRange)
		}
	case "fixed":
		if c.Max <= c.Min {
			return fmt.Errorf("range [%d, %d): %w", c.Min, c.Max, rng.ErrInvalidRange)
		}
		if c.Min < math.MinInt32 || c.Max > math.MaxInt32 {
			return fmt.Errorf("fixed range [%d, %d) exceeds 32-bit integer part: %w", c.Min, c.Max, rng.ErrInvalidRange)
		}
	case "index":
		if c.Max <= 0 {
			return fmt.Errorf("index bound %d: %w", c.Max, rng.ErrInvalidCount)
		}
	}
	return nil
}

func (c *SampleCmd) draw(s *rng.Stream) string {
	switch c.Op {
	case "range":
		return strconv.Itoa(s.Range(c.Min, c.Max))
	case "index":
		return strconv.Itoa(s.Index(c.Max))
	case "bool":
		return strconv.FormatBool(s.Boolean())
	case "float":
		return strconv.FormatFloat(s.Float01(), 'g', -1, 64)
	case "fixed":
		return s.RangeFixed(rng.FixedFromInt(int64(c.Min)), rng.FixedFromInt(int64(c.Max))).String()
	default:
		return fmt.Sprintf("%#016x", s.Next())
	}
}
