package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/lox/threadlink/internal/config"
	"github.com/lox/threadlink/rng"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// Globals are the flags shared by every command
type Globals struct {
	Config   string  `short:"c" default:"threadlink.hcl" env:"THREADLINK_CONFIG" help:"Path to HCL configuration file"`
	Seed     *uint64 `env:"THREADLINK_SEED" help:"Session seed (overrides config)"`
	RootSeed *uint32 `env:"THREADLINK_ROOT_SEED" help:"Root seed for key lookups (overrides config)"`
	LogLevel string  `short:"l" env:"THREADLINK_LOG_LEVEL" help:"Log level: debug, info, warn, error (overrides config)"`
	NoColor  bool    `env:"THREADLINK_NO_COLOR" help:"Disable colored output"`

	Stdout io.Writer    `kong:"-"`
	Stderr io.Writer    `kong:"-"`
	Clock  quartz.Clock `kong:"-"`
}

// env is the loaded configuration with a booted session
type env struct {
	cfg      *config.Config
	registry *rng.Registry
	session  *rng.Session
	root     *rng.Root
	logger   *log.Logger
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// setup loads the config file, applies flag overrides and boots the session
func (g *Globals) setup() (*env, error) {
	if g.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	if g.Seed != nil {
		cfg.Session.Seed = g.Seed
	}
	if g.RootSeed != nil {
		cfg.Session.RootSeed = g.RootSeed
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(g.stderr(), cfg.Server.LogLevel)

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	clock := g.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	seed, root, configured := cfg.ResolveSeeds(clock)
	if configured {
		logger.Debug("Using configured seed", "seed", seed, "root", root)
	} else {
		logger.Info("Using random seed", "seed", seed, "root", root)
	}

	return &env{
		cfg:      cfg,
		registry: registry,
		session:  rng.NewSession(seed),
		root:     rng.NewRoot(root),
		logger:   logger,
	}, nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// signalContext is cancelled on interrupt signals
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
