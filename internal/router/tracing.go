// Tracing instrumentation for the supervisor.
package router

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startTurnSpan starts a span covering one conversation turn.
func startTurnSpan(ctx context.Context, threadID string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "turn.handle")
	span.SetAttributes(
		attribute.String("turn.thread_id", threadID),
	)
	return ctx, span
}

// endTurnSpan ends the turn span with the hop count.
func endTurnSpan(span trace.Span, hops int) {
	span.SetAttributes(attribute.Int("turn.hops", hops))
	span.End()
}

// startHopSpan starts a span for one worker dispatch.
func startHopSpan(ctx context.Context, workerName string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "hop."+workerName)
	span.SetAttributes(
		attribute.String("hop.worker", workerName),
	)
	return ctx, span
}

// endHopSpan ends the hop span with the trace size.
func endHopSpan(span trace.Span, chunks int) {
	span.SetAttributes(attribute.Int("hop.trace_chunks", chunks))
	span.End()
}
