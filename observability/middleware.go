package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const httpStatusServerError = 500

// StatusWriter wraps [http.ResponseWriter] to capture the status code.
type StatusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

// NewStatusWriter wraps rw. A handler that never writes reports 200.
func NewStatusWriter(rw http.ResponseWriter) *StatusWriter {
	if sw, ok := rw.(*StatusWriter); ok {
		return sw
	}
	return &StatusWriter{ResponseWriter: rw, statusCode: http.StatusOK}
}

// Status returns the captured status code.
func (sw *StatusWriter) Status() int {
	return sw.statusCode
}

// WriteHeader captures the status code before delegating to the wrapped writer.
func (sw *StatusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.written = true
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// TracingMiddleware creates a server span per request named "METHOD /path".
func TracingMiddleware(tracer trace.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		sw := NewStatusWriter(rw)
		next.ServeHTTP(sw, hr.WithContext(ctx))

		span.SetAttributes(semconv.HTTPResponseStatusCode(sw.Status()))

		if sw.Status() >= httpStatusServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.Status()))
		}
	})
}

// MetricsMiddleware records request counts and latencies labelled by the mux
// pattern. It must wrap the mux directly for the pattern to be visible.
func MetricsMiddleware(m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(rw)

		next.ServeHTTP(sw, hr)

		route := hr.Pattern
		if route == "" {
			route = "unmatched"
		}

		m.requests.WithLabelValues(hr.Method, route, strconv.Itoa(sw.Status())).Inc()
		m.duration.WithLabelValues(hr.Method, route).Observe(time.Since(start).Seconds())
	})
}
