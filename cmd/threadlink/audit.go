package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lox/threadlink/internal/audit"
)

// AuditCmd runs the statistical health checks
type AuditCmd struct {
	Draws        int     `default:"100000" help:"Samples per distribution check"`
	Pairs        int     `default:"10000" help:"Domain pairs compared for independence"`
	Buckets      int     `default:"20" help:"Histogram buckets for the uniformity check"`
	Significance float64 `default:"0.001" help:"Minimum acceptable p-value"`
}

func (c *AuditCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(e.logger)
	defer cancel()

	report, err := audit.Run(ctx, audit.Options{
		Session:      e.session,
		Root:         e.root,
		Draws:        c.Draws,
		DomainPairs:  c.Pairs,
		Buckets:      c.Buckets,
		Significance: c.Significance,
		Logger:       e.logger,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "seed %#x root %#x\n", report.Seed, report.RootSeed)
	for _, res := range report.Results {
		status := passStyle.Render("PASS")
		if !res.Passed {
			status = failStyle.Render("FAIL")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", status, res.Name, res.Detail, res.Elapsed.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !report.Passed() {
		return errors.New("audit failed")
	}
	return nil
}
