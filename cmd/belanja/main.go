package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"belanja/internal/amqp"
	"belanja/internal/backend"
	"belanja/internal/cli"
	apphttp "belanja/internal/http"
	applog "belanja/internal/log"
	"belanja/internal/middleware/ratelimit"
	"belanja/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	if err := run(logger); err != nil {
		logger.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger *applog.Logger) error {
	cfg := cli.LoadAndValidateConfig(logger)
	loc := cfg.Location()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	registry := services.NewRegistry(res.Store, loc)
	defer registry.Close()

	rl := ratelimit.DefaultConfig()
	rl.RPS = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst
	srv := apphttp.NewServer(":"+cfg.Port, registry, apphttp.Options{
		DefaultUserID: cfg.DefaultUserID,
		Location:      loc,
		RateLimit:     rl,
		Logger:        logger.WithComponent(applog.ComponentHTTP),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting belanja server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Writes made by other instances reach this one over the bus.
	if res.Bus != nil {
		bus := res.Bus
		g.Go(func() error {
			err := bus.ConsumeChanges(gctx, func(ctx context.Context, msg *amqp.ChangeMessage) error {
				if msg.Origin == bus.Origin() {
					return nil
				}
				return registry.HandleChange(ctx, msg.Change())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
