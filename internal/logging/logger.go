// Package logging provides the transport-layer request logger, kept
// deliberately separate from the span-aware application logger in obslog.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide request logger for the HTTP transport layer.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
}

// SpanFields extracts trace/span IDs for inclusion in a logrus entry.
func SpanFields(span oteltrace.Span) logrus.Fields {
	return logrus.Fields{
		"span_id":  span.SpanContext().SpanID().String(),
		"trace_id": span.SpanContext().TraceID().String(),
	}
}
