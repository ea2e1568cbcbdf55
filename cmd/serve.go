package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/resound/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve wires the full service graph and runs the HTTP server until
// interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Use(server.CORS())
	router.Use(server.RateLimit(r.config.Server.RequestsPerSecond, r.config.Server.Burst))
	router.Use(server.Identify(r.config.Server.AuthToken))
	router.Handler(&server.HealthHandler{})
	router.Handler(server.NewStreamHandler(d.pipeline, r.logger))

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.logger.Info("starting server", "addr", addr, "backend", r.config.Storage.Backend)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, addr, router, r.logger)
}

// serveCommand runs the streaming HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the audio streaming server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host interface to bind",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Serve,
	}
}
