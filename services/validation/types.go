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
	"regexp"
	"time"
)

// Category classifies the kind of hallucination finding.
type Category string

const (
	// CategoryFactualError indicates a verifiably wrong or unverifiable fact
	// (malformed dates, implausible tax IDs, bare year claims).
	CategoryFactualError Category = "factual_error"

	// CategoryInconsistentInfo indicates the response contradicts itself.
	CategoryInconsistentInfo Category = "inconsistent_info"

	// CategoryUnverifiableClaim indicates rhetorical absolutes presented as
	// fact ("na pewno", "zdecydowanie", "najlepszy").
	CategoryUnverifiableClaim Category = "unverifiable_claim"

	// CategoryContextViolation indicates the response ignores or contradicts
	// the context it was asked about.
	CategoryContextViolation Category = "context_violation"

	// CategoryIngredientHallucination indicates the response mentions an
	// ingredient that is not on the caller-provided availability list.
	CategoryIngredientHallucination Category = "ingredient_hallucination"

	// CategoryMeasurementHallucination indicates physically implausible
	// quantities (4-digit gram counts, 3-digit temperatures).
	CategoryMeasurementHallucination Category = "measurement_hallucination"

	// CategoryDateTimeHallucination indicates fabricated calendar dates or
	// clock times.
	CategoryDateTimeHallucination Category = "date_time_hallucination"

	// CategoryPriceHallucination indicates fabricated currency amounts.
	CategoryPriceHallucination Category = "price_hallucination"
)

// Level is the validation strictness tier.
//
// Strictness is ordinal: strict amplifies finding penalties, lenient damps
// them. The zero value is treated as "use the policy default".
type Level string

const (
	LevelStrict   Level = "strict"
	LevelModerate Level = "moderate"
	LevelLenient  Level = "lenient"
)

// ParseLevel maps a string to a Level. Unknown values resolve to moderate
// so that a misconfigured caller never fails validation outright.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelStrict, LevelModerate, LevelLenient:
		return Level(s)
	default:
		return LevelModerate
	}
}

// penaltyMultiplier scales per-category confidence penalties.
//
// The ordering strict > moderate > lenient guarantees
// confidence(strict) <= confidence(moderate) <= confidence(lenient)
// for identical findings.
func (l Level) penaltyMultiplier() float64 {
	switch l {
	case LevelStrict:
		return 1.2
	case LevelLenient:
		return 0.4
	default:
		return 0.7
	}
}

// Outcome is the final, policy-adjusted result of validating one response.
//
// Outcomes are immutable after construction: a re-validation produces a new
// instance. They are cached by content hash of (response, context, agent).
type Outcome struct {
	// IsValid is the admission decision. It is set exclusively by the
	// orchestrator's policy threshold pass, never by a validator.
	IsValid bool `json:"is_valid"`

	// Confidence estimates how trustworthy the response is (0..1, higher
	// is better).
	Confidence float64 `json:"confidence"`

	// HallucinationScore estimates fabrication risk (0..1, higher is
	// worse). Computed from finding counts, not derived from Confidence.
	HallucinationScore float64 `json:"hallucination_score"`

	// DetectedCategories lists every category hit in detection order.
	// Duplicates are allowed: each pattern hit appends its category.
	DetectedCategories []Category `json:"detected_categories,omitempty"`

	// SuspiciousPhrases holds the matched substrings for audit/debugging.
	SuspiciousPhrases []string `json:"suspicious_phrases,omitempty"`

	// ValidationErrors holds human-readable problems encountered while
	// validating (not findings about the response itself).
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// Recommendation is free-text guidance assembled from the findings.
	Recommendation string `json:"recommendation,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	AgentName string    `json:"agent_name"`
	ModelUsed string    `json:"model_used"`
}

// Report is the raw output of a specialized validator.
//
// Validators report scores and findings only; the admission decision
// (Outcome.IsValid) belongs to the orchestrator's policy pass. This keeps
// validators testable in isolation while policy stays centrally tunable.
type Report struct {
	Confidence         float64
	HallucinationScore float64
	DetectedCategories []Category
	SuspiciousPhrases  []string
	ValidationErrors   []string
	Recommendation     string
}

// Input carries everything a validator needs for one check.
type Input struct {
	// Response is the agent-generated text under validation.
	Response string

	// Context is the user-facing query/prompt the response answers.
	// May be empty; validation still runs, just with weaker context checks.
	Context string

	// Level is the resolved strictness tier. Never empty by the time a
	// validator sees it.
	Level Level

	// AvailableIngredients lists what the pantry holds. nil means "no
	// ingredient information supplied" and skips ingredient checks
	// entirely; an empty non-nil slice means "nothing available".
	AvailableIngredients []string

	// EnabledCategories restricts which categories may be reported.
	// nil enables everything.
	EnabledCategories map[Category]bool

	// CustomPatterns are policy-supplied additions, pre-compiled at
	// registration time.
	CustomPatterns map[Category][]*regexp.Regexp

	// Hints carries optional agent-specific extras (best effort, untyped).
	Hints map[string]any
}

// categoryEnabled reports whether a category may be emitted for this input.
func (in *Input) categoryEnabled(c Category) bool {
	if in.EnabledCategories == nil {
		return true
	}
	return in.EnabledCategories[c]
}

// Validator is one agent-type-specific validation strategy.
//
// Implementations must never panic outward and never return an error:
// internal failures degrade to a conservative Report (fail closed).
//
// Thread Safety: implementations must be safe for concurrent use.
type Validator interface {
	// Name returns the validator name for logging and metrics.
	Name() string

	// Validate scores a response against its context and hints.
	Validate(ctx context.Context, input *Input) *Report
}

// degradedReport is the fail-closed result for internal validator failures.
func degradedReport(msg string) *Report {
	return &Report{
		Confidence:         0.0,
		HallucinationScore: 1.0,
		DetectedCategories: []Category{CategoryFactualError},
		ValidationErrors:   []string{msg},
		Recommendation:     "Walidacja nie powiodła się - odpowiedź odrzucona zapobiegawczo.",
	}
}
