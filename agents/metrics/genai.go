/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI provides OpenTelemetry metrics for model calls made by the crew.
// Counter creation failures degrade to no-op counters.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCallCounter  metric.Int64Counter
	rateLimitCounter metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGenAI creates a new GenAI metrics instance with the specified meter name.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	return &GenAI{
		promptTokens:     counter(meter, meterName, "genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter(meter, meterName, "genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCallCounter:  counter(meter, meterName, "genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
		rateLimitCounter: counter(meter, meterName, "genai.rate_limits", "The number of rate-limit faults returned by the backend", "{faults}"),
	}
}

func counter(meter metric.Meter, meterName, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metrics will be disabled", "error", err, "meter", meterName, "counter", name)
		return noop.Int64Counter{}
	}
	return c
}

// SetAttributeEnricher sets the attribute enricher for this metrics instance.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records prompt and completion token usage.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordToolCall records a tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
	}, attrs)
	m.toolCallCounter.Add(ctx, 1, opt)
}

// RecordRateLimit records a rate-limit fault seen by the retry loop.
func (m *GenAI) RecordRateLimit(ctx context.Context, model string, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.rateLimitCounter.Add(ctx, 1, opt)
}
