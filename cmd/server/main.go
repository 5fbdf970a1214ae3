package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/system"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "configs/config.yaml", "config file")
	flags.Int("http-port", 8080, "REST API port")
	flags.Int("grpc-port", 50051, "gRPC health port")
	flags.String("program", "", "program file loaded at startup")
	flags.Bool("dev", false, "development logging")
	flags.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(*configPath, flags, map[string]string{
		"server.http_port":        "http-port",
		"server.grpc_port":        "grpc-port",
		"storage.initial_program": "program",
		"log.development":         "dev",
	})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", *configPath))

	lifecycle, err := system.NewLifecycleManager(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize system", zap.Error(err))
	}

	if err := lifecycle.Start(); err != nil {
		logger.Error("Failed to start system", zap.Error(err))
		lifecycle.Shutdown(context.Background())
		os.Exit(1)
	}

	logger.Info("OpenSequenceCore started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("OpenSequenceCore stopped successfully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
