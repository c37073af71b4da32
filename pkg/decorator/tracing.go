package decorator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/devices-api/pkg/decorator"

type (
	commandTracingDecorator[C Command, R any] struct {
		base           CommandHandler[C, R]
		tracerProvider otelTrace.TracerProvider
	}

	queryTracingDecorator[Q Query, R Result] struct {
		base           QueryHandler[Q, R]
		tracerProvider otelTrace.TracerProvider
	}
)

func (d commandTracingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	if d.tracerProvider == nil {
		return d.base.Handle(ctx, cmd)
	}

	ctx, span := startSpan(ctx, d.tracerProvider, "command", generateActionName(cmd))
	defer span.End()

	result, err := d.base.Handle(ctx, cmd)
	endSpan(span, err)

	return result, err
}

func (d queryTracingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	if d.tracerProvider == nil {
		return d.base.Execute(ctx, query)
	}

	ctx, span := startSpan(ctx, d.tracerProvider, "query", generateActionName(query))
	defer span.End()

	result, err := d.base.Execute(ctx, query)
	endSpan(span, err)

	return result, err
}

func startSpan(
	ctx context.Context,
	tp otelTrace.TracerProvider,
	kind, action string,
) (context.Context, otelTrace.Span) {
	return tp.Tracer(tracerName).Start(ctx, kind+"."+action,
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
		otelTrace.WithAttributes(
			attribute.String("cqrs.kind", kind),
			attribute.String("cqrs.action", action),
		),
	)
}

func endSpan(span otelTrace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")

		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
