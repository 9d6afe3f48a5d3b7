package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/config"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/logger"
	"github.com/odontoflow/odontoflow/gateway/internal/interfaces/console"
)

const (
	appName    = "odontoflow-gateway"
	appVersion = "0.1.0"
)

func main() {
	// Check for subcommand
	mode := "gateway"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "console":
			mode = "console"
		case "version":
			fmt.Printf("%s v%s\n", appName, appVersion)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	// Initialize logger
	logFormat := "json"
	logLevel := "info"
	if mode == "console" {
		logFormat = "console"
		logLevel = "warn" // Reduce noise in console mode
	}
	log, err := logger.NewLogger(logger.Config{
		Level:      logLevel,
		Format:     logFormat,
		OutputPath: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting OdontoFlow gateway",
		zap.String("name", appName),
		zap.String("version", appVersion),
		zap.String("mode", mode),
	)

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch mode {
	case "console":
		runConsole(ctx, cfg, log)
	default:
		runGateway(ctx, cfg, log)
	}
}

// runGateway starts the full gateway with all channels.
func runGateway(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	app, err := application.NewApp(cfg, log, appVersion)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := app.Start(ctx); err != nil {
		log.Fatal("Failed to start application", zap.Error(err))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}
}

// runConsole starts the interactive patient simulator. It only needs
// the triage pipeline, so the lightweight CLI wiring is enough.
func runConsole(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	app, err := application.NewAppCLI(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	c := console.New(
		app.TriageUseCase(),
		app.Logger(),
		console.Config{
			ClinicName: cfg.Clinic.Name,
		},
	)

	if err := c.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", err)
		os.Exit(1)
	}

	// Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.Stop(shutdownCtx)
}

// printUsage displays usage information.
func printUsage() {
	fmt.Printf(`%s v%s

Usage:
  gateway           Start the gateway server (default)
  gateway console   Start the interactive patient simulator
  gateway version   Show version
  gateway help      Show this help

Environment:
  ODONTOFLOW_*      Configuration overrides (see config.yaml)
`, appName, appVersion)
}
