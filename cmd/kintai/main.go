package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kintai/internal/amqp"
	"kintai/internal/api"
	"kintai/internal/backend"
	"kintai/internal/config"
	"kintai/internal/services"
	"kintai/internal/worker"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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

	// Approvals hand report generation to the worker through AMQP when a
	// broker is configured; otherwise reports are only rendered on demand.
	var reportRequester services.ReportRequester
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without deferred reports", "error", err)
		} else {
			defer amqpClient.Close()
			reportRequester = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	approvals := services.NewApprovalService(tbl.Approvals, tbl.Summary, tbl.Ledger, reportRequester)
	aggregator := services.NewAggregator(tbl.Ledger, tbl.Summary)
	reports := services.NewReportService(tbl.Summary, tbl.Ledger, renderer)

	// Manual imports are only available when a calendar is configured.
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
		importer = worker.NewImportWorker(services.NewReconciler(tbl.Ledger, source), aggregator, importCfg)
	}

	handler := api.NewHandler(approvals, aggregator, reports, importer)
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        api.NewRouter(handler),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting kintai server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
