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
	"reflect"
	"testing"
)

func staticAgent(text string) AgentFunc {
	return func(ctx context.Context, input map[string]any) (*AgentResult, error) {
		return &AgentResult{Success: true, Text: text}, nil
	}
}

func TestWrap_ValidResponsePassesThrough(t *testing.T) {
	o := newTestOrchestrator(t)
	wrapped := Wrap(o, "GeneralConversationAgent", staticAgent("Jasne, mogę pomóc."))

	result, err := wrapped(context.Background(), map[string]any{"query": "pomożesz mi?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Jasne, mogę pomóc." {
		t.Errorf("valid text must not be replaced, got %q", result.Text)
	}
	outcome, ok := result.Metadata[MetadataKey].(*Outcome)
	if !ok {
		t.Fatalf("metadata %q missing or wrong type: %T", MetadataKey, result.Metadata[MetadataKey])
	}
	if !outcome.IsValid {
		t.Errorf("expected valid outcome, got %+v", outcome)
	}
}

func TestWrap_InvalidResponseSubstituted(t *testing.T) {
	o := newTestOrchestrator(t)
	wrapped := Wrap(o, "ChefAgent", staticAgent("Dodaj 200g sera parmezan"))

	result, err := wrapped(context.Background(), map[string]any{
		"query":                 "przepis na makaron",
		"available_ingredients": []string{"makaron", "pomidory"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != fallbackTemplates[CategoryIngredientHallucination] {
		t.Errorf("expected ingredient fallback template, got %q", result.Text)
	}
	outcome := result.Metadata[MetadataKey].(*Outcome)
	if outcome.IsValid {
		t.Error("outcome attached to substituted response must be invalid")
	}
}

func TestWrap_WarningOnlyMode(t *testing.T) {
	o := newTestOrchestrator(t)
	wrapped := Wrap(o, "ChefAgent", staticAgent("Dodaj 200g sera parmezan"),
		WithSubstitution(false))

	result, err := wrapped(context.Background(), map[string]any{
		"query":                 "przepis",
		"available_ingredients": []string{"makaron"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Dodaj 200g sera parmezan" {
		t.Errorf("warning mode must keep the original text, got %q", result.Text)
	}
	if _, ok := result.Metadata[MetadataKey+"_warning"]; !ok {
		t.Error("warning mode must attach a warning entry")
	}
}

func TestWrap_HighHallucinationDowngraded(t *testing.T) {
	o := newTestOrchestrator(t)
	// Four distinct hallucinated ingredients plus a 4-digit gram count push
	// the chef score to its 0.9 cap, above the 0.8 raise threshold.
	wrapped := Wrap(o, "ChefAgent",
		staticAgent("Dodaj 200g parmezanu, 100g gorgonzoli, 50g rukoli i 5000g kaszy"))

	result, err := wrapped(context.Background(), map[string]any{
		"query":                 "przepis",
		"available_ingredients": []string{"makaron"},
	})
	if err != nil {
		t.Fatalf("raise must be downgraded inside the wrapper, got %v", err)
	}
	if result.Text == "Dodaj 200g parmezanu, 100g gorgonzoli, 50g rukoli i 5000g kaszy" {
		t.Error("high-risk text must be substituted")
	}
}

func TestWrap_SkipsFailedAndEmptyResults(t *testing.T) {
	o := newTestOrchestrator(t)

	agentErr := errors.New("backend down")
	wrapped := Wrap(o, "ChefAgent", func(ctx context.Context, input map[string]any) (*AgentResult, error) {
		return nil, agentErr
	})
	if _, err := wrapped(context.Background(), nil); !errors.Is(err, agentErr) {
		t.Errorf("agent error must pass through, got %v", err)
	}

	wrapped = Wrap(o, "ChefAgent", func(ctx context.Context, input map[string]any) (*AgentResult, error) {
		return &AgentResult{Success: false, Text: "błąd"}, nil
	})
	result, err := wrapped(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Metadata[MetadataKey]; ok {
		t.Error("failed results must not be validated")
	}

	wrapped = Wrap(o, "ChefAgent", staticAgent("   "))
	result, err = wrapped(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Metadata[MetadataKey]; ok {
		t.Error("blank results must not be validated")
	}
}

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"query preferred", map[string]any{"query": "pytanie", "context": "tło"}, "pytanie"},
		{"falls back to prompt", map[string]any{"prompt": "polecenie"}, "polecenie"},
		{"skips non-strings", map[string]any{"query": 42, "message": "wiadomość"}, "wiadomość"},
		{"empty input", map[string]any{}, ""},
	}
	for _, tt := range tests {
		if got := extractContext(tt.input); got != tt.want {
			t.Errorf("%s: extractContext = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractIngredients(t *testing.T) {
	got := extractIngredients(map[string]any{"available_ingredients": []string{"makaron", "ser"}})
	if !reflect.DeepEqual(got, []string{"makaron", "ser"}) {
		t.Errorf("[]string extraction failed: %v", got)
	}

	got = extractIngredients(map[string]any{"ingredients": []any{"makaron", 7, "ser"}})
	if !reflect.DeepEqual(got, []string{"makaron", "ser"}) {
		t.Errorf("[]any extraction must keep only strings: %v", got)
	}

	if got := extractIngredients(map[string]any{"query": "bez składników"}); got != nil {
		t.Errorf("missing ingredient fields must return nil, got %v", got)
	}
}

func TestFallbackText(t *testing.T) {
	if got := fallbackText([]Category{CategoryMeasurementHallucination, CategoryFactualError}); got != fallbackTemplates[CategoryFactualError] {
		t.Errorf("expected first templated category, got %q", got)
	}
	if got := fallbackText(nil); got != genericFallback {
		t.Errorf("expected generic fallback, got %q", got)
	}
}
