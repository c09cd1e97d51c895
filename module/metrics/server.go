package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/module/irrecoverable"
)

const shutdownTimeout = 5 * time.Second

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a new server that will start on the specified port,
// and responds to only the `/metrics` endpoint
func NewServer(log zerolog.Logger, port uint, gatherer prometheus.Gatherer) *Server {
	addr := net.JoinHostPort("", strconv.Itoa(int(port)))

	mux := http.NewServeMux()
	endpoint := "/metrics"
	mux.Handle(endpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		log:    log.With().Str("component", "metrics_server").Str("address", addr).Logger(),
	}
}

// Start serves metrics until ctx is cancelled. Failing to listen is thrown
// as an irrecoverable error.
func (m *Server) Start(ctx irrecoverable.SignalerContext) {
	listener, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen for metrics requests: %w", err))
		return
	}
	m.log.Info().Msg("metrics server started")

	served := make(chan error, 1)
	go func() {
		served <- m.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.server.Shutdown(shutdownCtx); err != nil {
			m.log.Warn().Err(err).Msg("metrics server did not shut down cleanly")
		}
		<-served
		m.log.Debug().Msg("metrics server shutdown")
	case err := <-served:
		// http.ErrServerClosed is returned when Close or Shutdown is called
		if !errors.Is(err, http.ErrServerClosed) {
			ctx.Throw(fmt.Errorf("metrics server failed: %w", err))
		}
	}
}
