package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("acp", "0.0.1", exporter))

	_, span := StartSpan(context.Background(), "task.run T1", KindInternal)
	span.WithAttributes(map[string]string{"task.id": "T1"})
	span.AddEvent("started")
	EndSpan(span, nil)

	_, failed := StartSpan(context.Background(), "task.run T2", KindConsumer)
	EndSpan(failed, errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "task.run T1", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "boom", spans[1].Status.Description)

	var nilSpan *Span
	EndSpan(nilSpan, nil)
	assert.Nil(t, nilSpan.WithAttributes(map[string]string{"k": "v"}))
}
