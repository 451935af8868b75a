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
	"fmt"
	"regexp"
	"sync"
	"time"

	goval "github.com/go-playground/validator/v10"
)

// Policy is the per-agent-type tunable record. These are business-tunable
// constants registered at startup and treated as immutable afterwards; a
// runtime change goes through Registry.Register with a fresh value.
type Policy struct {
	AgentType string `validate:"required"`

	// Level is the default strictness when the caller passes none.
	Level Level `validate:"required,oneof=strict moderate lenient"`

	// ConfidenceThreshold is the admission floor: outcomes below it are
	// marked invalid by the orchestrator.
	ConfidenceThreshold float64 `validate:"gte=0,lte=1"`

	// HallucinationThreshold is the admission ceiling on the risk score.
	HallucinationThreshold float64 `validate:"gte=0,lte=1"`

	// EnabledCategories restricts reportable categories. nil enables all.
	EnabledCategories map[Category]bool

	// CustomPatterns are extra regexes per category, given as strings and
	// compiled once at registration.
	CustomPatterns map[Category][]string

	CacheTTL time.Duration `validate:"gte=0"`

	// LogValidation emits a structured log line per outcome.
	LogValidation bool

	// RaiseOnHighHallucination makes the orchestrator return
	// *HighHallucinationError when the score crosses
	// HighHallucinationThreshold.
	RaiseOnHighHallucination   bool
	HighHallucinationThreshold float64 `validate:"gte=0,lte=1"`

	compiled map[Category][]*regexp.Regexp
}

// compiledPatterns returns the pre-compiled custom patterns, nil when none.
func (p *Policy) compiledPatterns() map[Category][]*regexp.Regexp {
	return p.compiled
}

// Registry maps normalized agent types to policies and serves a default for
// everything unknown. Construct one per process and inject it; there is no
// package-level instance.
//
// Thread Safety: safe for concurrent Get and Register.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	fallback *Policy
	check    *goval.Validate
}

// defaultPolicy is the hard-coded fallback for unknown agent types.
func defaultPolicy() *Policy {
	return &Policy{
		AgentType:                  "default",
		Level:                      LevelModerate,
		ConfidenceThreshold:        0.6,
		HallucinationThreshold:     0.4,
		CacheTTL:                   10 * time.Minute,
		LogValidation:              false,
		RaiseOnHighHallucination:   false,
		HighHallucinationThreshold: 1.0,
	}
}

// NewRegistry creates a registry pre-populated with the known agent types.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		policies: make(map[string]*Policy),
		fallback: defaultPolicy(),
		check:    goval.New(),
	}

	known := []*Policy{
		{
			AgentType: "chef", Level: LevelStrict,
			ConfidenceThreshold: 0.7, HallucinationThreshold: 0.3,
			CacheTTL: 15 * time.Minute, LogValidation: true,
			RaiseOnHighHallucination: true, HighHallucinationThreshold: 0.8,
		},
		{
			AgentType: "receipt_analysis", Level: LevelStrict,
			ConfidenceThreshold: 0.8, HallucinationThreshold: 0.2,
			CacheTTL: 10 * time.Minute, LogValidation: true,
			RaiseOnHighHallucination: true, HighHallucinationThreshold: 0.7,
		},
		{
			AgentType: "weather", Level: LevelLenient,
			ConfidenceThreshold: 0.5, HallucinationThreshold: 0.4,
			CacheTTL: 5 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "search", Level: LevelModerate,
			ConfidenceThreshold: 0.7, HallucinationThreshold: 0.3,
			CacheTTL: 10 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "general_conversation", Level: LevelLenient,
			ConfidenceThreshold: 0.5, HallucinationThreshold: 0.5,
			CacheTTL: 10 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "categorization", Level: LevelModerate,
			ConfidenceThreshold: 0.6, HallucinationThreshold: 0.4,
			CacheTTL: 20 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "meal_planner", Level: LevelModerate,
			ConfidenceThreshold: 0.65, HallucinationThreshold: 0.35,
			CacheTTL: 15 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "pantry", Level: LevelModerate,
			ConfidenceThreshold: 0.6, HallucinationThreshold: 0.4,
			CacheTTL: 10 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "ocr", Level: LevelModerate,
			ConfidenceThreshold: 0.65, HallucinationThreshold: 0.35,
			CacheTTL: 10 * time.Minute, HighHallucinationThreshold: 1.0,
		},
		{
			AgentType: "rag", Level: LevelLenient,
			ConfidenceThreshold: 0.55, HallucinationThreshold: 0.45,
			CacheTTL: 10 * time.Minute, HighHallucinationThreshold: 1.0,
		},
	}
	for _, p := range known {
		if err := r.Register(p.AgentType, p); err != nil {
			return nil, fmt.Errorf("registering policy %s: %w", p.AgentType, err)
		}
	}
	return r, nil
}

// Register validates and stores a policy under the normalized agent type.
// Custom pattern strings are compiled here so lookups stay allocation-free.
func (r *Registry) Register(agentType string, p *Policy) error {
	if err := r.check.Struct(p); err != nil {
		return fmt.Errorf("invalid policy for %s: %w", agentType, err)
	}

	compiled := make(map[Category][]*regexp.Regexp, len(p.CustomPatterns))
	for cat, exprs := range p.CustomPatterns {
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return fmt.Errorf("policy %s: bad pattern %q for %s: %w", agentType, expr, cat, err)
			}
			compiled[cat] = append(compiled[cat], re)
		}
	}
	if len(compiled) == 0 {
		compiled = nil
	}
	p.compiled = compiled

	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[NormalizeAgentType(agentType)] = p
	return nil
}

// Get returns the policy for an agent type, or the default policy when the
// type is unknown. Never returns nil.
func (r *Registry) Get(agentType string) *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[NormalizeAgentType(agentType)]; ok {
		return p
	}
	return r.fallback
}

// Known returns the registered agent types (normalized keys), for the stats
// surface and the reload diff log.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.policies))
	for t := range r.policies {
		types = append(types, t)
	}
	return types
}
