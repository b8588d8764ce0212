// Package audit runs statistical health checks against a seeded session.
//
// The checks mirror the guarantees the rng package makes: determinism,
// independence between domains, sensitivity to every context component,
// uniform ranges, bounded floats and stateless keys. They run concurrently
// and are cheap enough to execute at startup or in CI.
package audit

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lox/threadlink/rng"
)

// Options configures an audit run. Zero fields take defaults.
type Options struct {
	Session      *rng.Session
	Root         *rng.Root
	Draws        int     // samples per distribution check
	DomainPairs  int     // domain pairs compared for independence
	Buckets      int     // histogram buckets for the chi-squared test
	Significance float64 // minimum acceptable p-value
	Logger       *log.Logger
	Clock        quartz.Clock // times each check
}

func (o *Options) applyDefaults() {
	if o.Session == nil {
		o.Session = rng.DefaultSession()
	}
	if o.Root == nil {
		o.Root = rng.DefaultRoot()
	}
	if o.Draws <= 0 {
		o.Draws = 100000
	}
	if o.DomainPairs <= 0 {
		o.DomainPairs = 10000
	}
	if o.Buckets < 2 {
		o.Buckets = 20
	}
	if o.Significance <= 0 {
		o.Significance = 0.001
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Clock == nil {
		o.Clock = quartz.NewReal()
	}
}

// Result is the outcome of one check
type Result struct {
	Name    string
	Passed  bool
	Metric  float64
	Detail  string
	Elapsed time.Duration
}

// Report collects all check results in a fixed order
type Report struct {
	Seed     uint64
	RootSeed uint32
	Results  []Result
}

// Passed reports whether every check passed
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

type check struct {
	name string
	run  func(ctx context.Context, o Options) (Result, error)
}

var checks = []check{
	{"determinism", checkDeterminism},
	{"domain-independence", checkDomainIndependence},
	{"context-sensitivity", checkContextSensitivity},
	{"range-uniformity", checkRangeUniformity},
	{"float01-bounds", checkFloat01},
	{"key-totality", checkKeyTotality},
}

// Run executes every check concurrently. It returns an error only when the
// context is cancelled; failed checks are reported in the Report.
func Run(ctx context.Context, opts Options) (Report, error) {
	opts.applyDefaults()
	logger := opts.Logger.WithPrefix("audit")

	report := Report{
		Seed:     opts.Session.Seed(),
		RootSeed: opts.Root.Seed(),
		Results:  make([]Result, len(checks)),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			start := opts.Clock.Now()
			res, err := c.run(ctx, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", c.name, err)
			}
			res.Name = c.name
			res.Elapsed = opts.Clock.Now().Sub(start)
			report.Results[i] = res

			if res.Passed {
				logger.Debug("Check passed", "check", c.name, "metric", res.Metric, "elapsed", res.Elapsed)
			} else {
				logger.Warn("Check failed", "check", c.name, "detail", res.Detail)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	logger.Info("Audit complete", "seed", report.Seed, "passed", report.Passed())
	return report, nil
}

// cancelled polls ctx every few thousand iterations.
func cancelled(ctx context.Context, i int) error {
	if i&0xfff != 0 {
		return nil
	}
	return ctx.Err()
}

func checkDeterminism(ctx context.Context, o Options) (Result, error) {
	a := o.Session.SourceFrom(rng.Combat, rng.Of(1, 2, 3))
	b := o.Session.SourceFrom(rng.Combat, rng.Of(1, 2, 3))

	for i := 0; i < o.Draws; i++ {
		if err := cancelled(ctx, i); err != nil {
			return Result{}, err
		}
		if x, y := a.Next(), b.Next(); x != y {
			return Result{Detail: fmt.Sprintf("draw %d differs: %#x != %#x", i, x, y)}, nil
		}
	}
	return Result{Passed: true, Metric: float64(o.Draws), Detail: "identical sequences"}, nil
}

func checkDomainIndependence(ctx context.Context, o Options) (Result, error) {
	collisions := 0
	for i := 0; i < o.DomainPairs; i++ {
		if err := cancelled(ctx, i); err != nil {
			return Result{}, err
		}
		a := o.Session.SourceFrom(rng.Domain(2*i + 1))
		b := o.Session.SourceFrom(rng.Domain(2*i + 2))
		if a.Next() == b.Next() {
			collisions++
		}
	}

	rate := float64(collisions) / float64(o.DomainPairs)
	return Result{
		Passed: rate < 0.001,
		Metric: rate,
		Detail: fmt.Sprintf("%d collisions in %d pairs", collisions, o.DomainPairs),
	}, nil
}

func checkContextSensitivity(ctx context.Context, o Options) (Result, error) {
	const draws = 64
	base := rng.Of(10, 20, 30, 40)
	shared := 0

	for i := range base {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		changed := append(rng.Components(nil), base...)
		changed[i] ^= 1

		a := o.Session.SourceFrom(rng.Loot, base)
		b := o.Session.SourceFrom(rng.Loot, changed)
		for n := 0; n < draws; n++ {
			if a.Next() == b.Next() {
				shared++
			}
		}
	}

	return Result{
		Passed: shared == 0,
		Metric: float64(shared),
		Detail: fmt.Sprintf("%d shared draws across %d component changes", shared, len(base)),
	}, nil
}

func checkRangeUniformity(ctx context.Context, o Options) (Result, error) {
	s := o.Session.SourceFrom(rng.Animation, rng.Of(7))
	counts := make([]float64, o.Buckets)

	for i := 0; i < o.Draws; i++ {
		if err := cancelled(ctx, i); err != nil {
			return Result{}, err
		}
		counts[s.Index(o.Buckets)]++
	}

	expected := float64(o.Draws) / float64(o.Buckets)
	var chi2 float64
	for _, c := range counts {
		d := c - expected
		chi2 += d * d / expected
	}

	dist := distuv.ChiSquared{K: float64(o.Buckets - 1)}
	p := 1 - dist.CDF(chi2)
	return Result{
		Passed: p >= o.Significance,
		Metric: p,
		Detail: fmt.Sprintf("chi2=%.2f df=%d p=%.4f", chi2, o.Buckets-1, p),
	}, nil
}

func checkFloat01(ctx context.Context, o Options) (Result, error) {
	s := o.Session.SourceFrom(rng.Combat, rng.Of(99))
	data := make([]float64, o.Draws)

	for i := range data {
		if err := cancelled(ctx, i); err != nil {
			return Result{}, err
		}
		f := s.Float01()
		if f < 0 || f >= 1 {
			return Result{Detail: fmt.Sprintf("draw %d out of bounds: %v", i, f)}, nil
		}
		data[i] = f
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return Result{}, err
	}
	stddev, err := stats.StandardDeviation(data)
	if err != nil {
		return Result{}, err
	}

	wantStd := 1 / math.Sqrt(12)
	return Result{
		Passed: math.Abs(mean-0.5) < 0.01 && math.Abs(stddev-wantStd) < 0.01,
		Metric: mean,
		Detail: fmt.Sprintf("mean=%.4f stddev=%.4f (want 0.5, %.4f)", mean, stddev, wantStd),
	}, nil
}

func checkKeyTotality(ctx context.Context, o Options) (Result, error) {
	collisions := 0
	for i := 0; i < o.Draws; i++ {
		if err := cancelled(ctx, i); err != nil {
			return Result{}, err
		}
		k := rng.NewKey(uint32(i), uint32(i>>8), 3, 4)
		v := o.Root.UInt(k)
		if v != o.Root.UInt(k) {
			return Result{Detail: fmt.Sprintf("key %v is not stable", k)}, nil
		}
		k.D++
		if v == o.Root.UInt(k) {
			collisions++
		}
	}

	rate := float64(collisions) / float64(o.Draws)
	return Result{
		Passed: rate < 0.001,
		Metric: rate,
		Detail: fmt.Sprintf("%d neighbour collisions in %d keys", collisions, o.Draws),
	}, nil
}
