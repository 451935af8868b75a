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
	"errors"
	"log/slog"
	"strings"
)

// MetadataKey is the fixed key under which validation details are attached
// to a wrapped agent result's metadata.
const MetadataKey = "validation"

// AgentResult is the minimal shape the wrapper needs from an agent response:
// a success flag, the generated text, and a mutable metadata map.
type AgentResult struct {
	Success  bool
	Text     string
	Metadata map[string]any
}

// AgentFunc is an agent's response-producing call in decoratable form.
type AgentFunc func(ctx context.Context, input map[string]any) (*AgentResult, error)

// Candidate field names tried in order during best-effort extraction.
var (
	contextFields    = []string{"query", "context", "prompt", "message"}
	ingredientFields = []string{"available_ingredients", "ingredients", "pantry_items"}
)

// Polish fallback templates keyed by the dominant detected category.
var fallbackTemplates = map[Category]string{
	CategoryIngredientHallucination: "Przygotowałem przepis wyłącznie z podanych składników. Poproszę o pełną listę, jeśli chcesz dodać coś jeszcze.",
	CategoryFactualError:            "Nie mogę zweryfikować tych informacji. Sprawdź proszę dane w wiarygodnym źródle.",
	CategoryContextViolation:        "Nie jestem pewien, czy dobrze zrozumiałem pytanie. Czy możesz je doprecyzować?",
}

// genericFallback covers every category without a dedicated template.
const genericFallback = "Odpowiedź może zawierać nieścisłości. Zweryfikuj proszę kluczowe informacje."

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	agentType  string
	modelUsed  string
	level      Level
	substitute bool
	logger     *slog.Logger
}

// WithAgentType overrides the agent type derived from the agent name.
func WithAgentType(agentType string) WrapOption {
	return func(c *wrapConfig) { c.agentType = agentType }
}

// WithModel records the model identifier on outcomes.
func WithModel(model string) WrapOption {
	return func(c *wrapConfig) { c.modelUsed = model }
}

// WithLevel overrides the policy's default strictness for every wrapped
// call.
func WithLevel(level Level) WrapOption {
	return func(c *wrapConfig) { c.level = level }
}

// WithSubstitution controls invalid-response handling: true replaces the
// text with a safe template, false keeps the text and only flags a warning
// in metadata. Default is true.
func WithSubstitution(substitute bool) WrapOption {
	return func(c *wrapConfig) { c.substitute = substitute }
}

// WithLogger sets the wrapper's logger.
func WithLogger(logger *slog.Logger) WrapOption {
	return func(c *wrapConfig) { c.logger = logger }
}

// Wrap decorates an agent call with validation: extracts context and
// ingredient hints from the input, runs the agent, validates any successful
// non-empty text, attaches the outcome to result metadata, and substitutes
// a safe fallback when the outcome is invalid.
//
// Extraction is best effort and never fails the call; a missing context
// simply yields a weaker validation. A high-hallucination raise from the
// orchestrator is downgraded here to a warning log plus substitution.
func Wrap(orchestrator *Orchestrator, agentName string, fn AgentFunc, opts ...WrapOption) AgentFunc {
	cfg := wrapConfig{substitute: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, input map[string]any) (*AgentResult, error) {
		result, err := fn(ctx, input)
		if err != nil || result == nil {
			return result, err
		}
		if !result.Success || strings.TrimSpace(result.Text) == "" {
			return result, nil
		}

		outcome, verr := orchestrator.ValidateResponse(ctx, &Request{
			Response:             result.Text,
			Context:              extractContext(input),
			AgentName:            agentName,
			ModelUsed:            cfg.modelUsed,
			Level:                cfg.level,
			AvailableIngredients: extractIngredients(input),
			AgentType:            cfg.agentType,
			Hints:                input,
		})

		var highHalluc *HighHallucinationError
		if errors.As(verr, &highHalluc) {
			cfg.logger.Warn("high hallucination risk, substituting response",
				"agent_name", agentName,
				"score", highHalluc.Score,
				"threshold", highHalluc.Threshold,
			)
		}

		if result.Metadata == nil {
			result.Metadata = make(map[string]any)
		}
		result.Metadata[MetadataKey] = outcome

		if !outcome.IsValid || highHalluc != nil {
			if cfg.substitute {
				result.Text = fallbackText(outcome.DetectedCategories)
			} else {
				result.Metadata[MetadataKey+"_warning"] = outcome.Recommendation
			}
		}
		return result, nil
	}
}

// fallbackText picks the template for the first detected category that has
// a dedicated one.
func fallbackText(categories []Category) string {
	for _, c := range categories {
		if t, ok := fallbackTemplates[c]; ok {
			return t
		}
	}
	return genericFallback
}

// extractContext tries the candidate context fields in order.
func extractContext(input map[string]any) string {
	for _, field := range contextFields {
		if v, ok := input[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// extractIngredients tries the candidate ingredient fields in order,
// accepting []string or []any of strings. Returns nil when nothing usable
// is present, which skips ingredient checks downstream.
func extractIngredients(input map[string]any) []string {
	for _, field := range ingredientFields {
		v, ok := input[field]
		if !ok {
			continue
		}
		switch list := v.(type) {
		case []string:
			return list
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
