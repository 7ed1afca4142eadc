package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kintai/internal/amqp"
	"kintai/internal/backend"
	"kintai/internal/config"
	"kintai/internal/services"
	"kintai/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting kintai-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl, err := backend.NewTables(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if tbl.Cleanup != nil {
		defer tbl.Cleanup()
	}

	renderer, err := backend.NewRenderer(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize report renderer", "error", err)
		os.Exit(1)
	}
	reportWorker := worker.NewReportWorker(services.NewReportService(tbl.Summary, tbl.Ledger, renderer))

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Periodic calendar import runs in this process when configured.
	var importer *worker.ImportWorker
	source, err := backend.NewEventSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize calendar source", "error", err)
		os.Exit(1)
	}
	if source != nil {
		startDate, err := cfg.StartDate()
		if err != nil {
			logger.Error("Invalid ledger start date", "error", err)
			os.Exit(1)
		}
		settings := services.ImportSettings{CalendarID: cfg.CalendarID, StartDate: startDate}
		importCfg := worker.DefaultImportWorkerConfig(settings)
		importCfg.Interval = cfg.ImportInterval

		importer = worker.NewImportWorker(
			services.NewReconciler(tbl.Ledger, source),
			services.NewAggregator(tbl.Ledger, tbl.Summary),
			importCfg,
		)
		if err := importer.Start(ctx); err != nil {
			logger.Error("Failed to start import worker", "error", err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeWithReconnect(gctx, func(msg *amqp.ReportRequestMessage) error {
			return reportWorker.HandleReportRequest(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", "error", err)
	}

	if importer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := importer.Stop(stopCtx); err != nil {
			logger.Warn("Import worker stop timed out", "error", err)
		}
	}

	logger.Info("Worker shutdown complete")
}
