package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// metricsServer exposes a Prometheus registry on /metrics.
type metricsServer struct {
	listener   net.Listener
	httpServer *http.Server
	errCh      <-chan error
}

// startMetricsServer registers the Go runtime collectors on reg and serves it
// on addr until stop is called.
func startMetricsServer(addr string, reg *prometheus.Registry) (*metricsServer, error) {
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, oops.With("addr", addr).Wrap(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logrus.WithError(serveErr).Error("metrics server error")
			errCh <- serveErr
		}
	}()

	logrus.Infof("Metrics server listening on %s", listener.Addr())
	return &metricsServer{listener: listener, httpServer: httpSrv, errCh: errCh}, nil
}

// addr returns the bound listen address.
func (s *metricsServer) addr() string {
	return s.listener.Addr().String()
}

// stop shuts the server down and waits for the serve goroutine to exit.
func (s *metricsServer) stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_metrics_server").Wrap(err)
	}
	return <-s.errCh
}
