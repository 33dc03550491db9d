package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type BootServer struct {
	http   *http.Server
	lnHTTP net.Listener
}

// Addr is the address the server listens on.
func (s *BootServer) Addr() string {
	return s.lnHTTP.Addr().String()
}

// Serve blocks until ctx is cancelled or the server fails. On cancel it drains
// in-flight requests before returning.
func (s *BootServer) Serve(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", s.Addr()))
		if err := s.http.Serve(s.lnHTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
