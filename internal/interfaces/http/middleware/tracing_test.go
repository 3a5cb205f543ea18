package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_TagsServerSpan(t *testing.T) {
	sr := withRecorder(t)
	tenant := uuid.New()

	r := gin.New()
	r.Use(RequestID(), Tracing("ledger-test"), SpanAnnotator(), Tenant(uuid.New()))
	r.GET("/accounts", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	req.Header.Set(TenantHeaderKey, tenant.String())
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	first := attrs(spans[0])
	assert.Equal(t, "req-7", first["request_id"].AsString())
	assert.Equal(t, tenant.String(), first["tenant_id"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
