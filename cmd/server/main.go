package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nutrisync/internal/app"
	"nutrisync/internal/config"
	"nutrisync/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() {
		_ = lg.Sync()
	}()

	container, err := app.NewContainer(cfg, lg)
	if err != nil {
		lg.Fatal("failed to build container", "error", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			lg.Error("close error", "error", err)
		}
	}()

	go container.WSHub.Run()
	container.Sched.Start()

	a := app.New(container)

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Fatal("invalid HTTP port", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Fiber.Listen(addr)
	}()
	lg.Info("server started", "addr", addr, "env", cfg.App.Environment)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			lg.Fatal("server error", "error", err)
		}
	case sig := <-sigCh:
		lg.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := container.Sched.Stop(ctx); err != nil {
			lg.Warn("scheduler stop", "error", err)
		}
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			lg.Error("shutdown error", "error", err)
		}
	}
}
