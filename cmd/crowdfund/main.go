package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdfund/internal/api"
	"crowdfund/internal/config"
	"crowdfund/internal/orchestrator"
	"crowdfund/internal/runtime"
	"crowdfund/internal/scheduler"
	"crowdfund/internal/services"
	"crowdfund/internal/storage"
	"crowdfund/internal/storage/retry"

	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🌟 Starting Crowdfund Escrow...")

	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// 2. Configure logger
	logLevel, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded",
		"storage_driver", cfg.StorageDriver,
		"custody", cfg.CustodyAddress,
		"http_port", cfg.HTTPPort,
		"log_level", cfg.LogLevel,
	)

	// 3. Initialize storage
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repository, err := storage.Open(ctx, cfg.StorageDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer repository.Close()
	slog.Info("Storage opened successfully", "driver", cfg.StorageDriver)

	// 4. Create orchestrator with receipt services
	orch := orchestrator.New([]services.Service{
		services.NewMetricsService(),
		services.NewAuditService(cfg.VerboseReceipts),
	})
	slog.Info("Orchestrator enabled", "services", len(orch.Services()))

	// 5. Restore the host from storage
	host, err := runtime.NewHost(ctx, runtime.Config{
		Custody:   cfg.CustodyAddress,
		QueueSize: cfg.QueueSize,
	}, repository, retry.New(cfg.Retry), orch)
	if err != nil {
		log.Fatalf("❌ Failed to start host: %v", err)
	}

	// 6. Schedule the phase sweep
	sched, err := scheduler.NewScheduler(host)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if _, err := sched.SchedulePhaseSweep(cfg.PhaseSweepInterval); err != nil {
		log.Fatalf("❌ Failed to schedule phase sweep: %v", err)
	}
	sched.Start(ctx)

	// 7. Start the API server
	server := api.NewServer(cfg.HTTPPort, host, repository)
	if err := server.Start(); err != nil {
		log.Fatalf("❌ Failed to start API server: %v", err)
	}

	// 8. Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := host.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	exitCode := 0
	select {
	case <-sigChan:
		slog.Warn("Interrupt received, shutting down...")
	case err := <-errChan:
		slog.Error("Host error", "error", err)
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Error("Error stopping scheduler", "error", err)
	}
	cancel()

	slog.Info("Crowdfund stopped")
	if exitCode != 0 {
		repository.Close()
		os.Exit(exitCode)
	}
}
