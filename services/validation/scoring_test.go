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
	"regexp"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"strict", LevelStrict},
		{"moderate", LevelModerate},
		{"lenient", LevelLenient},
		{"", LevelModerate},
		{"EXTREME", LevelModerate},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPenaltyMultiplierOrdering(t *testing.T) {
	if !(LevelStrict.penaltyMultiplier() > LevelModerate.penaltyMultiplier() &&
		LevelModerate.penaltyMultiplier() > LevelLenient.penaltyMultiplier()) {
		t.Error("multipliers must order strict > moderate > lenient")
	}
}

func TestScoringProfile_Confidence(t *testing.T) {
	p := scoringProfile{
		baseline:      0.9,
		weights:       map[Category]float64{CategoryIngredientHallucination: 0.25},
		defaultWeight: 0.15,
		scoreCap:      0.9,
		increment:     0.25,
	}

	if got := p.confidence(nil, LevelStrict); got != 0.9 {
		t.Errorf("no findings must keep the baseline, got %.2f", got)
	}

	one := p.confidence([]Category{CategoryIngredientHallucination}, LevelStrict)
	if want := 0.9 - 0.25*1.2; !closeTo(one, want) {
		t.Errorf("strict single finding: got %.3f, want %.3f", one, want)
	}

	// More findings than the floor allows clamp instead of going negative.
	many := make([]Category, 20)
	for i := range many {
		many[i] = CategoryIngredientHallucination
	}
	if got := p.confidence(many, LevelStrict); got != confidenceFloor {
		t.Errorf("expected floor %.2f, got %.2f", confidenceFloor, got)
	}

	// Unknown categories use the default weight.
	unk := p.confidence([]Category{CategoryPriceHallucination}, LevelModerate)
	if want := 0.9 - 0.15*0.7; !closeTo(unk, want) {
		t.Errorf("default weight: got %.3f, want %.3f", unk, want)
	}
}

func TestScoringProfile_HallucinationScoreCap(t *testing.T) {
	p := scoringProfile{baseline: 0.9, scoreCap: 0.8, increment: 0.3}
	if got := p.hallucinationScore(0); got != 0.0 {
		t.Errorf("zero findings must score 0.0, got %.2f", got)
	}
	if got := p.hallucinationScore(2); !closeTo(got, 0.6) {
		t.Errorf("two findings: got %.2f, want 0.6", got)
	}
	if got := p.hallucinationScore(10); got != 0.8 {
		t.Errorf("score must cap at 0.8, got %.2f", got)
	}
}

func TestScoringProfile_FinishRecommendation(t *testing.T) {
	p := scoringProfile{
		baseline: 0.9, defaultWeight: 0.2, scoreCap: 0.9, increment: 0.25,
		softConfidence: 0.7, softHallucination: 0.3,
	}
	advice := map[Category]string{
		CategoryIngredientHallucination: "Użyto składników spoza listy.",
	}

	rep := &Report{DetectedCategories: []Category{
		CategoryIngredientHallucination,
		CategoryIngredientHallucination,
	}}
	p.finish(rep, LevelStrict, advice)

	if !strings.Contains(rep.Recommendation, "Użyto składników spoza listy.") {
		t.Errorf("advice missing: %q", rep.Recommendation)
	}
	if strings.Count(rep.Recommendation, "Użyto składników spoza listy.") != 1 {
		t.Errorf("repeated category must advise once: %q", rep.Recommendation)
	}

	clean := &Report{}
	p.finish(clean, LevelModerate, advice)
	if clean.Recommendation != "Odpowiedź wygląda na poprawną." {
		t.Errorf("clean report recommendation wrong: %q", clean.Recommendation)
	}
}

func TestLibrary_MatchAndOrder(t *testing.T) {
	lib := NewLibrary().
		Add(CategoryUnverifiableClaim, absolutistPatterns...).
		Add(CategoryFactualError, yearPatterns...)

	cats := lib.Categories()
	if len(cats) != 2 || cats[0] != CategoryUnverifiableClaim || cats[1] != CategoryFactualError {
		t.Fatalf("categories must keep Add order, got %v", cats)
	}

	found := lib.Match("To na pewno najlepsza firma, działa od 1999")
	if len(found[CategoryUnverifiableClaim]) != 2 {
		t.Errorf("expected 2 absolutist hits, got %v", found[CategoryUnverifiableClaim])
	}
	if len(found[CategoryFactualError]) != 1 {
		t.Errorf("expected 1 year hit, got %v", found[CategoryFactualError])
	}
	if len(lib.Match("")) != 0 {
		t.Error("empty text must match nothing")
	}
}

func TestMatchInput_CustomPatterns(t *testing.T) {
	lib := NewLibrary().Add(CategoryUnverifiableClaim, absolutistPatterns...)
	in := &Input{
		Response: "Na pewno dodaj trufle",
		Level:    LevelModerate,
		CustomPatterns: map[Category][]*regexp.Regexp{
			CategoryIngredientHallucination: {regexp.MustCompile(`(?i)\btrufle\b`)},
		},
	}
	rep := &Report{}
	matchInput(lib, in, rep)

	if !containsCategory(rep.DetectedCategories, CategoryUnverifiableClaim) {
		t.Errorf("library hit missing: %v", rep.DetectedCategories)
	}
	if !containsCategory(rep.DetectedCategories, CategoryIngredientHallucination) {
		t.Errorf("custom pattern hit missing: %v", rep.DetectedCategories)
	}
	if len(rep.SuspiciousPhrases) != len(rep.DetectedCategories) {
		t.Errorf("phrases and categories must stay parallel: %v vs %v",
			rep.SuspiciousPhrases, rep.DetectedCategories)
	}
}

func closeTo(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
