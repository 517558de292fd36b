package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTransport_RecordsClientSpan(t *testing.T) {
	var gotTraceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	client := &http.Client{Transport: NewTransport(nil, tp.Tracer("test"))}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/process/abc", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.NotEmpty(t, gotTraceparent, "trace context should be injected")
	require.Empty(t, req.Header.Get("traceparent"), "caller's request must not be modified")

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "http.GET", spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.EqualValues(t, 404, attrs[AttrHTTPStatusCode])
	require.Equal(t, http.MethodGet, attrs[AttrHTTPMethod])
}

func TestTransport_TransportError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := &http.Client{Transport: NewTransport(http.DefaultTransport, tp.Tracer("test"))}
	_, err := client.Get(url)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNewTransport_NilTracer(t *testing.T) {
	base := &http.Transport{}
	require.Same(t, base, NewTransport(base, nil))
}
