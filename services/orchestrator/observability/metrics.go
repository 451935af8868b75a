// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the assistant's HTTP
// surface. Metrics are exposed on /metrics; use with Prometheus + Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "assistant"

const chatSubsystem = "chat"

// ChatMetrics holds the Prometheus metrics for chat request handling.
// Initialize once at startup via InitMetrics().
type ChatMetrics struct {
	// RequestsTotal counts chat requests by agent type and status.
	// Labels: agent_type, status (success, invalid, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end chat latency.
	// Labels: agent_type
	RequestDurationSeconds *prometheus.HistogramVec

	// SubstitutionsTotal counts responses replaced by a safe fallback.
	// Labels: agent_type
	SubstitutionsTotal *prometheus.CounterVec

	// ValidationRejectionsTotal counts responses the policy marked invalid.
	// Labels: agent_type
	ValidationRejectionsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *ChatMetrics

// InitMetrics creates and registers all metrics. Call once at startup;
// duplicate registration panics.
func InitMetrics() *ChatMetrics {
	DefaultMetrics = &ChatMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "requests_total",
				Help:      "Total chat requests by agent type and status",
			},
			[]string{"agent_type", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end chat request duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"agent_type"},
		),

		SubstitutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "substitutions_total",
				Help:      "Responses replaced by a safe fallback message",
			},
			[]string{"agent_type"},
		),

		ValidationRejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "validation_rejections_total",
				Help:      "Responses the validation policy marked invalid",
			},
			[]string{"agent_type"},
		),
	}
	return DefaultMetrics
}

// RecordRequest records one completed chat request.
func (m *ChatMetrics) RecordRequest(agentType, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(agentType, status).Inc()
	m.RequestDurationSeconds.WithLabelValues(agentType).Observe(seconds)
}

// RecordSubstitution records a fallback substitution.
func (m *ChatMetrics) RecordSubstitution(agentType string) {
	m.SubstitutionsTotal.WithLabelValues(agentType).Inc()
}

// RecordRejection records a policy rejection.
func (m *ChatMetrics) RecordRejection(agentType string) {
	m.ValidationRejectionsTotal.WithLabelValues(agentType).Inc()
}
