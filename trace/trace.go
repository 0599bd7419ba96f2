// Package trace wires OpenTracing into the gateway: a Jaeger tracer for the
// process, the graphql-go OpenTracing tracer for query and field spans, and client
// spans around every call to the REST store.
package trace

import (
	"context"
	"io"
	"net/http"

	"github.com/graph-gophers/graphql-go/trace/noop"
	gqlopentracing "github.com/graph-gophers/graphql-go/trace/opentracing"
	"github.com/graph-gophers/graphql-go/trace/tracer"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"
)

// Config selects whether spans are reported and where to.
type Config struct {
	Enabled     bool
	ServiceName string
	// Agent is the host:port of the Jaeger agent.
	Agent string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs the process-wide tracer and returns the tracer to hand to
// graphql.Tracer. The closer flushes buffered spans and must be called on exit.
func Init(cfg Config, logger *zap.Logger) (tracer.Tracer, io.Closer, error) {
	if !cfg.Enabled {
		return noop.Tracer{}, nopCloser{}, nil
	}

	jc := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: cfg.Agent,
		},
	}
	t, closer, err := jc.NewTracer(jaegercfg.Logger(jaegerzap.NewLogger(logger)))
	if err != nil {
		return nil, nil, errors.Wrap(err, "trace: creating jaeger tracer")
	}
	opentracing.SetGlobalTracer(t)

	return gqlopentracing.Tracer{}, closer, nil
}

// StartUpstream starts a client span for an outbound request to the store and
// injects its context into req's headers. The returned request carries the span's
// context.
func StartUpstream(req *http.Request, kind string) (*http.Request, opentracing.Span) {
	span, ctx := opentracing.StartSpanFromContext(req.Context(), "rest "+req.Method+" "+kind)
	ext.SpanKindRPCClient.Set(span)
	ext.HTTPMethod.Set(span, req.Method)
	ext.HTTPUrl.Set(span, req.URL.String())
	ext.Component.Set(span, "rest-gateway")

	// Inject only fails for unsupported carriers.
	_ = span.Tracer().Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))

	return req.WithContext(ctx), span
}

// FinishUpstream records the outcome of a store call and finishes span. status is
// zero when no response was received.
func FinishUpstream(span opentracing.Span, status int, err error) {
	if status != 0 {
		ext.HTTPStatusCode.Set(span, uint16(status))
	}
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
	}
	span.Finish()
}

// SpanFromContext returns the span of the field being resolved, or nil when the
// query is not traced.
func SpanFromContext(ctx context.Context) opentracing.Span {
	return opentracing.SpanFromContext(ctx)
}
