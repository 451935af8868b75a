// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for validation operations.
var (
	tracer = otel.Tracer("assistant.validation")
	meter  = otel.Meter("assistant.validation")
)

// Metrics for validation operations.
var (
	validationsTotal   metric.Int64Counter
	validationDuration metric.Float64Histogram
	violationsTotal    metric.Int64Counter
	rejectionsTotal    metric.Int64Counter
	raisesTotal        metric.Int64Counter

	cacheHitsTotal   metric.Int64Counter
	cacheMissesTotal metric.Int64Counter

	confidenceHistogram    metric.Float64Histogram
	hallucinationHistogram metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		validationsTotal, err = meter.Int64Counter(
			"validation_checks_total",
			metric.WithDescription("Total validations by agent type and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validationDuration, err = meter.Float64Histogram(
			"validation_duration_seconds",
			metric.WithDescription("Validation duration by agent type"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsTotal, err = meter.Int64Counter(
			"validation_violations_total",
			metric.WithDescription("Total detected findings by category and agent type"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rejectionsTotal, err = meter.Int64Counter(
			"validation_rejections_total",
			metric.WithDescription("Total responses rejected by policy thresholds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		raisesTotal, err = meter.Int64Counter(
			"validation_high_hallucination_raises_total",
			metric.WithDescription("Total high-hallucination errors raised by policy"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHitsTotal, err = meter.Int64Counter(
			"validation_cache_hits_total",
			metric.WithDescription("Validation cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMissesTotal, err = meter.Int64Counter(
			"validation_cache_misses_total",
			metric.WithDescription("Validation cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		confidenceHistogram, err = meter.Float64Histogram(
			"validation_confidence",
			metric.WithDescription("Response confidence score distribution"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		hallucinationHistogram, err = meter.Float64Histogram(
			"validation_hallucination_score",
			metric.WithDescription("Hallucination risk score distribution"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordValidation records aggregate metrics for one completed validation.
//
// Thread Safety: Safe for concurrent use.
func recordValidation(ctx context.Context, agentType string, out *Outcome, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	outcome := "valid"
	if !out.IsValid {
		outcome = "invalid"
	}

	attrs := metric.WithAttributes(
		attribute.String("agent_type", agentType),
		attribute.String("outcome", outcome),
	)

	validationsTotal.Add(ctx, 1, attrs)
	validationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("agent_type", agentType),
	))
	confidenceHistogram.Record(ctx, out.Confidence)
	hallucinationHistogram.Record(ctx, out.HallucinationScore)

	for _, c := range out.DetectedCategories {
		violationsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", string(c)),
			attribute.String("agent_type", agentType),
		))
	}
	if !out.IsValid {
		rejectionsTotal.Add(ctx, 1, attrs)
	}
}

// recordCacheLookup records a cache probe result.
//
// Thread Safety: Safe for concurrent use.
func recordCacheLookup(ctx context.Context, agentType string, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("agent_type", agentType))
	if hit {
		cacheHitsTotal.Add(ctx, 1, attrs)
	} else {
		cacheMissesTotal.Add(ctx, 1, attrs)
	}
}

// recordRaise records a policy-triggered high-hallucination error.
//
// Thread Safety: Safe for concurrent use.
func recordRaise(ctx context.Context, agentType string) {
	if err := initMetrics(); err != nil {
		return
	}
	raisesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent_type", agentType),
	))
}

// startValidationSpan creates a span for one validation call.
//
// Thread Safety: Safe for concurrent use.
func startValidationSpan(ctx context.Context, agentName string, responseLen int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "validation.validate_response",
		trace.WithAttributes(
			attribute.String("validation.agent_name", agentName),
			attribute.Int("validation.response_length", responseLen),
		),
	)
}

// setValidationSpanResult sets result attributes on a validation span.
//
// Thread Safety: Safe for concurrent use.
func setValidationSpanResult(span trace.Span, out *Outcome, cacheHit bool) {
	if out == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool("validation.is_valid", out.IsValid),
		attribute.Float64("validation.confidence", out.Confidence),
		attribute.Float64("validation.hallucination_score", out.HallucinationScore),
		attribute.Int("validation.findings", len(out.DetectedCategories)),
		attribute.Bool("validation.cache_hit", cacheHit),
	)
}
