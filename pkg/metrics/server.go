package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server exposes a registry on /metrics
type Server struct {
	addr string
	log  logrus.FieldLogger
}

// NewServer creates a metrics server listening on addr
func NewServer(addr string, log logrus.FieldLogger) *Server {
	return &Server{addr: addr, log: log}
}

// Start serves reg until ctx is done; the returned channel reports failures and closes after shutdown
func (s *Server) Start(ctx context.Context, reg prometheus.Gatherer) <-chan error {
	s.log.WithField("addr", s.addr).Info("starting metrics server")
	errChan := make(chan error, 2)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	// shutdown server on context done
	go func() {
		<-ctx.Done()
		defer close(errChan)

		if err := httpServer.Shutdown(context.Background()); err != nil {
			errChan <- err
		}
		s.log.Debug("metrics server stopped")
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server failed: %w", err)
		}
	}()
	return errChan
}
