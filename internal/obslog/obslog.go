// Package obslog provides the application-wide structured logger: a
// log/slog.Logger whose handler mirrors every record onto the active
// OpenTelemetry span as an event, and records errors on the span.
package obslog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

var (
	logger   *slog.Logger
	initOnce sync.Once
)

func init() {
	initOnce.Do(func() {
		logger = slog.New(NewHandler(slog.NewTextHandler(os.Stdout, nil)))
	})
}

// Logger returns the process-wide application logger.
func Logger() *slog.Logger {
	return logger
}

// Handler wraps a slog.Handler, mirroring records onto the current span.
type Handler struct {
	handler slog.Handler
}

// NewHandler wraps h so its records also become span events.
func NewHandler(h slog.Handler) *Handler {
	if lh, ok := h.(*Handler); ok {
		h = lh.handler
	}
	return &Handler{h}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		span := observability.SpanFromContext(ctx)
		if span != nil && span.IsRecording() {
			var attrs []attribute.KeyValue
			r.Attrs(func(a slog.Attr) bool {
				if kv, err := convertAttr(a.Key, a.Value); err == nil {
					attrs = append(attrs, kv)
				}
				return true
			})
			attrs = append(attrs, attribute.String("log.level", r.Level.String()))

			span.AddEvent(fmt.Sprintf("log.%s", r.Level.String()), observability.WithAttributes(attrs...))

			if r.Level >= slog.LevelError {
				var errAttr slog.Attr
				r.Attrs(func(a slog.Attr) bool {
					if a.Key == "error" {
						errAttr = a
						return false
					}
					return true
				})
				if errAttr.Key != "" {
					if err, ok := errAttr.Value.Any().(error); ok {
						span.RecordError(err)
					} else {
						span.RecordError(fmt.Errorf("%v", errAttr.Value.Any()))
					}
				} else {
					span.RecordError(fmt.Errorf("%s", r.Message))
				}
			}
		}
	}

	return h.handler.Handle(ctx, r)
}

func convertAttr(key string, v slog.Value) (attribute.KeyValue, error) {
	var kv attribute.KeyValue
	switch v.Kind() {
	case slog.KindString:
		kv = attribute.String(key, v.Any().(string))
	case slog.KindBool:
		kv = attribute.Bool(key, v.Any().(bool))
	case slog.KindInt64:
		kv = attribute.Int64(key, v.Any().(int64))
	case slog.KindUint64:
		kv = attribute.Int64(key, int64(v.Any().(uint64)))
	case slog.KindFloat64:
		kv = attribute.Float64(key, v.Any().(float64))
	case slog.KindDuration:
		kv = attribute.String(key, v.Any().(time.Duration).String())
	case slog.KindTime:
		kv = attribute.String(key, v.Any().(time.Time).String())
	default:
		kv = attribute.String(key, fmt.Sprint(v.Any()))
	}
	if !kv.Valid() {
		return kv, fmt.Errorf("invalid attribute for key %q", key)
	}
	return kv, nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewHandler(h.handler.WithAttrs(attrs))
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return NewHandler(h.handler.WithGroup(name))
}
