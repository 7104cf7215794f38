package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"belanja/internal/amqp"
	"belanja/internal/cli"
	applog "belanja/internal/log"
	gsheet "belanja/internal/sheets/google"
	"belanja/internal/storage"
	"belanja/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	if err := run(logger); err != nil {
		logger.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger *applog.Logger) error {
	logger.Info("Starting belanja-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != "sqlite" {
		return fmt.Errorf("the worker needs the sqlite backend, got %q", cfg.DataBackend)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.Location())
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	mirror := worker.NewMirrorWorker(repo, sheetsClient, 0)

	logger.Info("Performing startup mirror check")
	if err := mirror.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup mirror check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer bus.Close()

		g.Go(func() error {
			err := bus.ConsumeChanges(gctx, func(ctx context.Context, msg *amqp.ChangeMessage) error {
				return mirror.HandleChange(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, mirroring on the periodic sweep only")
	}

	// Catches records whose events were lost or failed to mirror.
	g.Go(func() error {
		err := mirror.Run(gctx, cfg.ResyncInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	logger.Info("belanja-worker stopped")
	return nil
}
