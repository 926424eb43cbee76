package telemetry

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"farehub/pkg/logger"
)

// TraceLogMiddleware logs request completion with the active trace and span
// IDs so log lines can be joined with traces in the collector.
func TraceLogMiddleware(log logger.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.SpanContext().IsValid() {
			return
		}

		log.Debug("request completed",
			logger.Field{Key: "trace_id", Value: span.SpanContext().TraceID().String()},
			logger.Field{Key: "span_id", Value: span.SpanContext().SpanID().String()},
			logger.Field{Key: "path", Value: c.FullPath()},
			logger.Field{Key: "status", Value: c.Writer.Status()},
		)
	}
}
