// Package server assembles the gateway: REST client, schema, HTTP routes and
// their middleware.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/graph-gophers/rest-gateway/config"
	"github.com/graph-gophers/rest-gateway/internal/graph"
	"github.com/graph-gophers/rest-gateway/internal/rest"
	"github.com/graph-gophers/rest-gateway/relay"
	"github.com/graph-gophers/rest-gateway/trace"
)

// Endpoint is the path of the GraphQL endpoint.
const Endpoint = "/graphql"

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	schema *graphql.Schema
	tracer io.Closer
	http   *http.Server
}

// New builds the schema once for the lifetime of the server.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := rest.New(cfg.Upstream,
		rest.WithTimeout(cfg.UpstreamTimeout),
		rest.WithLogger(logger.Named("rest")),
		rest.WithMetrics(rest.NewMetrics(reg)),
	)
	if err != nil {
		return nil, err
	}

	tracer, closer, err := trace.Init(trace.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Agent:       cfg.Tracing.Agent,
	}, logger.Named("jaeger"))
	if err != nil {
		return nil, err
	}

	schema, err := graph.NewSchema(client, graph.Config{
		Logger:         logger.Named("graph"),
		MaxParallelism: cfg.MaxParallelism,
		FanoutLimit:    cfg.FanoutLimit,
		Tracer:         tracer,
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		schema: schema,
		tracer: closer,
	}
	s.http = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.Handler(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the gateway's routes: the GraphQL endpoint, /metrics served
// from gatherer, and a plain-text pointer at /.
func (s *Server) Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Endpoint, relay.New(&relay.Config{
		Schema:   s.schema,
		Logger:   s.logger.Named("relay"),
		Pretty:   s.cfg.Pretty,
		GraphiQL: s.cfg.GraphiQL,
		Endpoint: Endpoint,
	}))
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Please go to "+Endpoint)
	})
	return withRequestID(withAccessLog(s.logger.Named("http"), mux))
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.Wrapf(err, "server: listening on %s", s.http.Addr)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	defer s.tracer.Close()

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("upstream", s.cfg.Upstream))
		errc <- s.http.Serve(ln)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "server: serving")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server: shutdown")
	}
	return nil
}
