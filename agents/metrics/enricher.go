/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"

	"chainguard.dev/srecrew/agents/agenttrace"
	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher enriches metric attributes with additional context.
// The enricher receives base attributes (model, tool) and returns an enriched set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// RunEnricher labels measurements with the run context found in ctx.
func RunEnricher(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	return agenttrace.GetRunContext(ctx).EnrichAttributes(baseAttrs)
}
