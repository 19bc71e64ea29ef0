package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vonout/Backend/config"
	"github.com/vonout/Backend/internal/server"
	"github.com/vonout/Backend/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	srv, err := server.New(cfg, l)
	if err != nil {
		l.Errorf("Failed to build the server: %s", err)
		l.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		l.Errorf("Server error: %s", err)
		l.Sync()
		os.Exit(1)
	}
}
