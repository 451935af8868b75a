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
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Request carries one response to validate plus its origin.
type Request struct {
	// Response is the agent-generated text.
	Response string

	// Context is the user-facing query/prompt the response answers.
	Context string

	// AgentName is the human-readable name of the producing agent
	// ("ChefAgent"). Used for cache keying, stats and agent-type
	// derivation when AgentType is empty.
	AgentName string

	// ModelUsed is the LLM identifier, recorded on the outcome.
	ModelUsed string

	// Level overrides the policy's default strictness when non-empty.
	Level Level

	// AvailableIngredients: nil skips ingredient checks, empty non-nil
	// means nothing is available.
	AvailableIngredients []string

	// AgentType selects policy and validator directly; derived from
	// AgentName when empty.
	AgentType string

	// Hints carries optional agent-specific extras.
	Hints map[string]any
}

// Orchestrator is the validation entry point: it resolves policy and
// validator, consults the cache, applies policy thresholds, records metrics
// and decides whether to raise.
//
// Its contract is fail closed: the only error it ever returns is
// *HighHallucinationError when the policy demands it; every internal
// failure becomes a degraded invalid outcome instead.
//
// Thread Safety: safe for concurrent use.
type Orchestrator struct {
	registry *Registry
	factory  *Factory
	cache    *Cache
	logger   *slog.Logger
	stats    *statsTracker
}

// NewOrchestrator wires the orchestrator. cache may be nil to disable
// caching; logger nil falls back to slog.Default().
func NewOrchestrator(registry *Registry, factory *Factory, cache *Cache, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		factory:  factory,
		cache:    cache,
		logger:   logger,
		stats:    newStatsTracker(),
	}
}

// agentTypeBySubstring maps name fragments to agent types, checked in order.
var agentTypeBySubstring = []struct {
	fragment  string
	agentType string
}{
	{"chef", "chef"},
	{"receipt", "receipt_analysis"},
	{"weather", "weather"},
	{"search", "search"},
	{"meal", "meal_planner"},
	{"pantry", "pantry"},
	{"ocr", "ocr"},
	{"rag", "rag"},
	{"categor", "categorization"},
	{"general", "general_conversation"},
}

// DeriveAgentType resolves an agent type from an agent name via the shared
// normalization plus a curated substring map. Unmatched names fall back to
// general_conversation.
func DeriveAgentType(agentName string) string {
	normalized := NormalizeAgentType(agentName)
	for _, m := range agentTypeBySubstring {
		if strings.Contains(normalized, m.fragment) {
			return m.agentType
		}
	}
	return "general_conversation"
}

// ValidateResponse validates one agent response.
//
// The returned error is non-nil only when the resolved policy has
// RaiseOnHighHallucination set and the score crossed its high threshold; the
// outcome is still returned alongside for callers that downgrade.
func (o *Orchestrator) ValidateResponse(ctx context.Context, req *Request) (*Outcome, error) {
	start := time.Now()

	agentType := req.AgentType
	if agentType == "" {
		agentType = DeriveAgentType(req.AgentName)
	}

	ctx, span := startValidationSpan(ctx, req.AgentName, len(req.Response))
	defer span.End()

	outcome, cacheHit := o.validate(ctx, req, agentType)
	setValidationSpanResult(span, outcome, cacheHit)

	policy := o.registry.Get(agentType)
	if !cacheHit && ctx.Err() == nil {
		// Persist and account only for complete, non-cancelled runs.
		if o.cache != nil {
			o.cache.Set(ctx, req.Response, req.Context, req.AgentName, outcome, policy.CacheTTL)
		}
		o.stats.record(req.AgentName, outcome, time.Since(start))
		recordValidation(ctx, agentType, outcome, time.Since(start))
	}

	if policy.LogValidation {
		o.logger.Info("validation completed",
			"agent_name", req.AgentName,
			"agent_type", agentType,
			"is_valid", outcome.IsValid,
			"confidence", outcome.Confidence,
			"hallucination_score", outcome.HallucinationScore,
			"cache_hit", cacheHit,
		)
	}

	if policy.RaiseOnHighHallucination && outcome.HallucinationScore > policy.HighHallucinationThreshold {
		recordRaise(ctx, agentType)
		return outcome, &HighHallucinationError{
			AgentName: req.AgentName,
			Score:     outcome.HallucinationScore,
			Threshold: policy.HighHallucinationThreshold,
			Outcome:   outcome,
		}
	}
	return outcome, nil
}

// validate runs the cache probe and, on miss, the full validator + policy
// pass. Panics anywhere inside degrade to a conservative invalid outcome.
func (o *Orchestrator) validate(ctx context.Context, req *Request, agentType string) (out *Outcome, cacheHit bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("validation panicked, failing closed",
				"agent_name", req.AgentName, "panic", fmt.Sprint(r))
			out = o.degradedOutcome(req, fmt.Sprintf("internal validation failure: %v", r))
			cacheHit = false
		}
	}()

	if o.cache != nil {
		if cached := o.cache.Get(ctx, req.Response, req.Context, req.AgentName); cached != nil {
			recordCacheLookup(ctx, agentType, true)
			o.stats.recordCacheHit(req.AgentName)
			return cached, true
		}
		recordCacheLookup(ctx, agentType, false)
		o.stats.recordCacheMiss(req.AgentName)
	}

	policy := o.registry.Get(agentType)
	level := req.Level
	if level == "" {
		level = policy.Level
	}

	validator := o.factory.Get(agentType)
	rep := validator.Validate(ctx, &Input{
		Response:             req.Response,
		Context:              req.Context,
		Level:                level,
		AvailableIngredients: req.AvailableIngredients,
		EnabledCategories:    policy.EnabledCategories,
		CustomPatterns:       policy.compiledPatterns(),
		Hints:                req.Hints,
	})

	// Policy thresholds are the single source of the admission decision.
	isValid := rep.Confidence >= policy.ConfidenceThreshold &&
		rep.HallucinationScore <= policy.HallucinationThreshold

	return &Outcome{
		IsValid:            isValid,
		Confidence:         rep.Confidence,
		HallucinationScore: rep.HallucinationScore,
		DetectedCategories: rep.DetectedCategories,
		SuspiciousPhrases:  rep.SuspiciousPhrases,
		ValidationErrors:   rep.ValidationErrors,
		Recommendation:     rep.Recommendation,
		Timestamp:          time.Now(),
		AgentName:          req.AgentName,
		ModelUsed:          req.ModelUsed,
	}, false
}

// degradedOutcome is the fail-closed fallback for internal failures.
func (o *Orchestrator) degradedOutcome(req *Request, msg string) *Outcome {
	rep := degradedReport(msg)
	return &Outcome{
		IsValid:            false,
		Confidence:         rep.Confidence,
		HallucinationScore: rep.HallucinationScore,
		DetectedCategories: rep.DetectedCategories,
		ValidationErrors:   rep.ValidationErrors,
		Recommendation:     rep.Recommendation,
		Timestamp:          time.Now(),
		AgentName:          req.AgentName,
		ModelUsed:          req.ModelUsed,
	}
}

// Stats returns a snapshot of per-agent running statistics.
func (o *Orchestrator) Stats() []AgentStats {
	return o.stats.snapshot()
}

// AgentStats is one agent's running validation statistics.
type AgentStats struct {
	AgentName             string  `json:"agent_name"`
	Validations           int64   `json:"validations"`
	AvgConfidence         float64 `json:"avg_confidence"`
	AvgHallucinationScore float64 `json:"avg_hallucination_score"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	Rejections            int64   `json:"rejections"`
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
}

// statsTracker accumulates per-agent running sums behind one mutex.
type statsTracker struct {
	mu     sync.Mutex
	agents map[string]*agentAccumulator
}

type agentAccumulator struct {
	count       int64
	sumConf     float64
	sumScore    float64
	sumLatency  time.Duration
	rejections  int64
	cacheHits   int64
	cacheMisses int64
}

func newStatsTracker() *statsTracker {
	return &statsTracker{agents: make(map[string]*agentAccumulator)}
}

func (s *statsTracker) acc(agentName string) *agentAccumulator {
	a, ok := s.agents[agentName]
	if !ok {
		a = &agentAccumulator{}
		s.agents[agentName] = a
	}
	return a
}

func (s *statsTracker) record(agentName string, out *Outcome, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.acc(agentName)
	a.count++
	a.sumConf += out.Confidence
	a.sumScore += out.HallucinationScore
	a.sumLatency += latency
	if !out.IsValid {
		a.rejections++
	}
}

func (s *statsTracker) recordCacheHit(agentName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acc(agentName).cacheHits++
}

func (s *statsTracker) recordCacheMiss(agentName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acc(agentName).cacheMisses++
}

func (s *statsTracker) snapshot() []AgentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := make([]AgentStats, 0, len(s.agents))
	for name, a := range s.agents {
		st := AgentStats{
			AgentName:   name,
			Validations: a.count,
			Rejections:  a.rejections,
			CacheHits:   a.cacheHits,
			CacheMisses: a.cacheMisses,
		}
		if a.count > 0 {
			st.AvgConfidence = a.sumConf / float64(a.count)
			st.AvgHallucinationScore = a.sumScore / float64(a.count)
			st.AvgLatencyMs = float64(a.sumLatency.Milliseconds()) / float64(a.count)
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].AgentName < stats[j].AgentName })
	return stats
}
