package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithTracing(t *testing.T, status int) *mocktracer.MockTracer {
	t.Helper()
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TracingMiddleware())
	router.GET("/resource", func(c *gin.Context) {
		c.JSON(status, gin.H{})
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/resource", nil)
	router.ServeHTTP(recorder, request)

	return tracer
}

func TestTracingMiddleware_MarksFailedResponses(t *testing.T) {
	tracer := serveWithTracing(t, http.StatusInternalServerError)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, true, spans[0].Tags()["error"])
}

func TestTracingMiddleware_LeavesSuccessfulResponsesUnmarked(t *testing.T) {
	tracer := serveWithTracing(t, http.StatusOK)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.NotContains(t, spans[0].Tags(), "error")
}
