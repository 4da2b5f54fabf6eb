package gosequence

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/davidroman0O/gosequence"

// Telemetry records OpenTelemetry traces and metrics for sequence runs: a
// span per run with a child span per visited stage, plus counters for
// completed stages and runs.
type Telemetry struct {
	tracer    trace.Tracer
	stages    metric.Int64Counter
	sequences metric.Int64Counter
}

// NewTelemetry builds instrumentation from the given providers; nil
// providers fall back to the otel globals.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName)
	stages, err := meter.Int64Counter("gosequence.stages",
		metric.WithDescription("Completed stage executions."))
	if err != nil {
		return nil, err
	}
	sequences, err := meter.Int64Counter("gosequence.runs",
		metric.WithDescription("Completed sequence runs."))
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:    tp.Tracer(instrumentationName),
		stages:    stages,
		sequences: sequences,
	}, nil
}

// Observe attaches the instrumentation to a sequence's update stream.
// Spans nest under ctx. Call it before Start so the run's SequenceStart is
// seen; the returned function detaches the observer.
func (t *Telemetry) Observe(ctx context.Context, s *Sequence) func() {
	runCtx := ctx
	var runSpan, stageSpan trace.Span

	return s.Listen(nil, func(u SequenceUpdate) {
		switch u.Type {
		case UpdateSequenceStart:
			runCtx, runSpan = t.tracer.Start(ctx, "sequence "+s.Name(),
				trace.WithAttributes(
					attribute.String("sequence.id", s.ID()),
					attribute.String("sequence.name", s.Name()),
				))
		case UpdateStageStart:
			_, stageSpan = t.tracer.Start(runCtx, "stage "+string(u.Stage),
				trace.WithAttributes(attribute.String("stage.name", string(u.Stage))))
		case UpdateStageEnd:
			success := u.Success != nil && *u.Success
			t.stages.Add(ctx, 1, metric.WithAttributes(
				attribute.String("stage", string(u.Stage)),
				attribute.Bool("success", success),
			))
			if stageSpan != nil {
				stageSpan.SetAttributes(attribute.Bool("stage.success", success))
				if !success {
					stageSpan.SetStatus(codes.Error, "stage failed")
				}
				stageSpan.End()
				stageSpan = nil
			}
		case UpdateSequenceEnd:
			success := u.Success != nil && *u.Success
			t.sequences.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
			if runSpan != nil {
				if !success {
					runSpan.SetStatus(codes.Error, "sequence failed")
				}
				runSpan.End()
				runSpan = nil
			}
		}
	})
}
