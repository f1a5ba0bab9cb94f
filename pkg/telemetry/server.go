package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
)

// NewHandler serves /metrics from gatherer and a plain /health probe.
func NewHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	return mux
}

// Serve listens on addr and serves NewHandler(gatherer) until ctx is
// cancelled, then shuts the server down gracefully.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return coorderr.Wrap(err, coorderr.CodeMetricsServe, "Serve", "telemetry").
			WithDetail("cannot listen on %s", addr)
	}
	return ServeListener(ctx, ln, gatherer)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Handler:      NewHandler(gatherer),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger := logging.WithComponent("telemetry")
	logger.Info("metrics listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return coorderr.Wrap(err, coorderr.CodeMetricsServe, "Serve", "telemetry")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return coorderr.Wrap(err, coorderr.CodeMetricsServe, "Shutdown", "telemetry")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return coorderr.Wrap(err, coorderr.CodeMetricsServe, "Serve", "telemetry")
	}
	logger.Info("metrics server stopped")
	return nil
}
