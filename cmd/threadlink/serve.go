package main

import (
	"context"
	"time"

	"github.com/lox/threadlink/internal/server"
)

// ServeCmd runs the WebSocket draw server
type ServeCmd struct {
	Addr string `short:"a" help:"Server address to bind to (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}

	addr := e.cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}

	opts := []server.Option{server.WithMaxDraws(e.cfg.Server.MaxDraws)}
	if g.Clock != nil {
		opts = append(opts, server.WithClock(g.Clock))
	}
	s := server.NewServer(addr, e.session, e.root, e.registry, e.logger, opts...)

	ctx, cancel := signalContext(e.logger)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		e.logger.Info("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
