package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pramitgaha21/upload-file/config"
	"github.com/pramitgaha21/upload-file/internal/adapters/api"
	"github.com/pramitgaha21/upload-file/internal/core/services/store"
	apperrors "github.com/pramitgaha21/upload-file/pkg/errors"
	"github.com/pramitgaha21/upload-file/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run serves until a signal arrives or the listener fails, then shuts the
// server and the store down. Errors are logged before they are returned.
func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log := logger.New("upload-service")
			log.Errorw("load config error", "path", *configPath, "error", err)
			log.Sync()
			return err
		}
		cfg = loaded
	}

	log, err := logger.NewWithLevel("upload-service", cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log = logger.New("upload-service")
		log.Warnw("invalid log level, using default", "level", cfg.Logging.Level, "error", err)
	}
	defer log.Sync()

	s, err := store.New(cfg.StoreOptions(), log)
	if err != nil {
		if ve := apperrors.AsValidationError(err); ve != nil {
			log.Errorw("create store error", "field", ve.Field, "value", ve.Value, "error", ve.Err)
		} else {
			log.Errorw("create store error", "error", err)
		}
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.New(s, log).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Infow("starting upload service", "address", cfg.Server.Address, "publicURL", cfg.Server.PublicURL)
	return serve(srv, s, log, quit, cfg.Server.ShutdownTimeout)
}

// serve runs srv until stop delivers a signal or the listener fails, then
// shuts srv and s down. It returns the listener error, if any.
func serve(srv *http.Server, s *store.Store, log *zap.SugaredLogger, stop <-chan os.Signal, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var failed error
	select {
	case sig := <-stop:
		log.Infow("shutting down upload service", "signal", sig.String())
	case failed = <-serveErr:
		log.Errorw("server failed", "error", failed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	if err := s.Close(ctx); err != nil {
		log.Errorw("error closing store", "error", err)
	}

	log.Info("upload service exited")
	return failed
}
