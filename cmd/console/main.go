package main

import (
	"log/slog"
	"os"

	"go-admin-console/internal/app"
	"go-admin-console/internal/config"
	"go-admin-console/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &logger.Options{
		Level: logger.ParseLevel(cfg.LogLevel),
	})))

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize console", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("console run failed", "error", err)
		os.Exit(1)
	}
}
