// Package handler is the serverless entry point. The platform calls Handler
// for every request; the application is built on the first one and reused
// while the instance stays warm.
package handler

import (
	"net/http"
	"sync"

	"github.com/vonout/Backend/config"
	"github.com/vonout/Backend/internal/server"
	"github.com/vonout/Backend/pkg/logger"
)

var (
	once    sync.Once
	app     http.Handler
	initErr error
)

func build() {
	cfg := config.FromEnv()
	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)

	srv, err := server.New(cfg, l)
	if err != nil {
		l.Errorf("Failed to build the server: %s", err)
		initErr = err
		return
	}
	app = srv.Handler()
}

func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(build)
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	app.ServeHTTP(w, r)
}
