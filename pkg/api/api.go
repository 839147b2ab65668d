// Package api serves indexed run results over HTTP: a JSON run index
// backed by the store, and the raw result files (reports, screenshots)
// from the results directory.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/qa-sync/qasync/pkg/api/store"
	"github.com/qa-sync/qasync/pkg/config"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	resyncInterval    = 1 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.APIConfig
	store      store.Store
	httpServer *http.Server
	done       chan struct{}
}

// NewServer creates a new API server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.APIConfig,
) Server {
	return &server{
		log:  log.WithField("component", "api"),
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Start opens the store, indexes the results directory and starts the
// HTTP server. The index is refreshed in the background so runs that
// finish while the server is up appear without a restart.
func (s *server) Start(ctx context.Context) error {
	s.store = store.NewStore(s.log, &s.cfg.Database)
	if err := s.store.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	synced, err := s.store.SyncFromDir(ctx, s.cfg.ResultsDir)
	if err != nil {
		return fmt.Errorf("indexing results directory: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"dir":  s.cfg.ResultsDir,
		"runs": synced,
	}).Info("Results indexed")

	go s.resyncLoop(ctx)

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		s.log.WithField("listen", s.cfg.Server.Listen).Info("API server listening")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server failed")
		}
	}()

	return nil
}

// Stop shuts down the HTTP server and closes the store.
func (s *server) Stop() error {
	close(s.done)

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}

	if s.store != nil {
		if err := s.store.Stop(); err != nil {
			return fmt.Errorf("stopping store: %w", err)
		}
	}

	return nil
}

// resyncLoop re-indexes the results directory periodically.
func (s *server) resyncLoop(ctx context.Context) {
	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := s.store.SyncFromDir(ctx, s.cfg.ResultsDir); err != nil {
				s.log.WithError(err).Warn("Result resync failed")
			}
		}
	}
}
