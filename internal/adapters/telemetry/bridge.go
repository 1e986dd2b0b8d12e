package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/mirror/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor by reporting finished spans to the logger.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, its status attribute and duration at debug level.
// Failed spans are logged at warn level.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	line := s.Name()
	for _, kv := range s.Attributes() {
		if kv.Key == AttrStatus {
			line += " " + kv.Value.Emit()
		}
	}
	line += fmt.Sprintf(" (%s)", s.EndTime().Sub(s.StartTime()).Round(time.Millisecond))

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "request failed"
		}
		b.logger.Warn(line + ": " + desc)
		return
	}
	b.logger.Debug(line)
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}
