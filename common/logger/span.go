package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "slackbot"

// SpanContext is a started span plus the context that carries it.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span. The Slack identifiers already on ctx are
// copied onto the span so traces and logs can be joined on them.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) *SpanContext {
	fields := GetLogFields(ctx)
	for key, v := range map[string]*string{
		"slack.team_id":    fields.TeamID,
		"slack.channel_id": fields.ChannelID,
		"slack.user_id":    fields.UserID,
		"slack.event_id":   fields.EventID,
	} {
		if v != nil {
			attrs = append(attrs, attribute.String(key, *v))
		}
	}
	if fields.Transport != "" {
		attrs = append(attrs, attribute.String("slackbot.transport", fields.Transport))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return &SpanContext{ctx: ctx, span: span}
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

func (sc *SpanContext) End() {
	sc.span.End()
}

// RecordError marks the span failed. A nil err is ignored.
func (sc *SpanContext) RecordError(err error) {
	if err == nil {
		return
	}
	sc.span.RecordError(err)
	sc.span.SetStatus(codes.Error, err.Error())
}
