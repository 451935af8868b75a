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
	"regexp"
	"strings"
)

// Ingredient mention extraction. Two regex families: measured mentions
// ("300g makaronu", "2 łyżki oliwy") and "ingredient - quantity unit"
// mentions ("makaron - 300 g"), plus bare count mentions ("2 pomidory").
var (
	measuredMentionRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(g|kg|dag|ml|l|szt\.?|łyżk\p{L}*|łyżeczk\p{L}*|szklank\p{L}*)\s+([a-ząćęłńóśźż]+(?:\s+[a-ząćęłńóśźż]+)?)`)
	dashMentionRe     = regexp.MustCompile(`(?i)([a-ząćęłńóśźż]+(?:\s+[a-ząćęłńóśźż]+)?)\s*[-–]\s*(\d+(?:[.,]\d+)?)\s*(g|kg|ml|l|szt\.?)`)
	countMentionRe    = regexp.MustCompile(`(?i)\b(\d+)\s+([a-ząćęłńóśźż]{4,})`)
)

// nonIngredientWords filters count-mention captures that are units of time,
// temperature or serving, not food.
var nonIngredientWords = map[string]bool{
	"minut": true, "minuty": true, "godzin": true, "godziny": true,
	"stopni": true, "stopniach": true, "osób": true, "osoby": true,
	"porcje": true, "porcji": true, "sekund": true, "sekundy": true,
	"razy": true, "kroki": true, "kroków": true,
}

// commonKitchenBasics is the canonical staple allow-list. Under moderate
// and lenient levels these never count as hallucinated even when absent
// from the availability list. Entries are stems plus nominative forms so
// substring matching covers Polish inflection (soli, oliwy, masła).
var commonKitchenBasics = []string{
	"sól", "sol", "pieprz", "olej", "oliw", "masł", "cukier", "cukr",
	"mąk", "jaj", "mlek", "wod",
}

// ChefValidator validates recipe responses from the chef agent.
//
// Beyond pattern checks it cross-references every mentioned ingredient
// against the caller-supplied availability list. A nil list skips the
// ingredient check entirely; an empty list means nothing is available.
type ChefValidator struct {
	lib     *Library
	profile scoringProfile
}

// NewChefValidator constructs the chef strategy with its pattern subset.
func NewChefValidator() *ChefValidator {
	lib := NewLibrary().
		Add(CategoryMeasurementHallucination, unrealisticMeasurementPatterns...)
	return &ChefValidator{
		lib: lib,
		profile: scoringProfile{
			baseline:      0.90,
			defaultWeight: 0.10,
			weights: map[Category]float64{
				CategoryIngredientHallucination:  0.25,
				CategoryMeasurementHallucination: 0.20,
				CategoryFactualError:             0.15,
			},
			scoreCap:          0.9,
			increment:         0.25,
			softConfidence:    0.7,
			softHallucination: 0.5,
		},
	}
}

// Name implements Validator.
func (v *ChefValidator) Name() string { return "chef_validator" }

var chefAdvice = map[Category]string{
	CategoryIngredientHallucination:  "Przepis zawiera składniki spoza listy dostępnych - użyj tylko podanych składników.",
	CategoryMeasurementHallucination: "Podane ilości wyglądają na nierealistyczne - sprawdź gramatury i czasy.",
	CategoryFactualError:             "Odpowiedź zawiera niezweryfikowane fakty.",
}

// Validate implements Validator.
func (v *ChefValidator) Validate(ctx context.Context, input *Input) *Report {
	if strings.TrimSpace(input.Response) == "" {
		return emptyResponseReport()
	}

	rep := &Report{}
	matchInput(v.lib, input, rep)
	v.checkIngredients(input, rep)
	v.profile.finish(rep, input.Level, chefAdvice)
	return rep
}

// checkIngredients extracts mentioned ingredients and flags any that are
// not covered by the availability list.
func (v *ChefValidator) checkIngredients(input *Input, rep *Report) {
	if input.AvailableIngredients == nil || !input.categoryEnabled(CategoryIngredientHallucination) {
		return
	}

	available := make([]string, 0, len(input.AvailableIngredients))
	for _, a := range input.AvailableIngredients {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			available = append(available, a)
		}
	}

	for _, mention := range extractIngredientMentions(input.Response) {
		if ingredientAvailable(mention.name, available) {
			continue
		}
		if input.Level != LevelStrict && isKitchenBasic(mention.name) {
			continue
		}
		rep.DetectedCategories = append(rep.DetectedCategories, CategoryIngredientHallucination)
		rep.SuspiciousPhrases = append(rep.SuspiciousPhrases, mention.raw)
		rep.ValidationErrors = append(rep.ValidationErrors,
			fmt.Sprintf("ingredient %q not in available ingredients", mention.name))
	}
}

// ingredientMention is one extracted ingredient reference.
type ingredientMention struct {
	name string // normalized ingredient words
	raw  string // full matched phrase, for suspicious_phrases
}

// extractIngredientMentions pulls ingredient references out of recipe text.
func extractIngredientMentions(text string) []ingredientMention {
	var mentions []ingredientMention
	seen := make(map[string]bool)

	add := func(name, raw string) {
		name = strings.ToLower(strings.TrimSpace(name))
		// Drop trailing conjunctions picked up by the two-word capture.
		name = strings.TrimSuffix(name, " i")
		name = strings.TrimSuffix(name, " z")
		name = strings.TrimSuffix(name, " na")
		if name == "" || seen[name] {
			return
		}
		if nonIngredientWords[strings.Fields(name)[0]] {
			return
		}
		seen[name] = true
		mentions = append(mentions, ingredientMention{name: name, raw: strings.TrimSpace(raw)})
	}

	for _, m := range measuredMentionRe.FindAllStringSubmatch(text, -1) {
		add(m[3], m[0])
	}
	for _, m := range dashMentionRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[0])
	}
	for _, m := range countMentionRe.FindAllStringSubmatch(text, -1) {
		if nonIngredientWords[strings.ToLower(m[2])] {
			continue
		}
		add(m[2], m[0])
	}

	return mentions
}

// ingredientAvailable reports whether a mention overlaps any available
// ingredient. Overlap is substring containment in either direction, word by
// word, which tolerates Polish inflection ("makaronu" vs "makaron").
func ingredientAvailable(mention string, available []string) bool {
	for _, word := range strings.Fields(mention) {
		for _, a := range available {
			if strings.Contains(word, a) || strings.Contains(a, word) {
				return true
			}
		}
	}
	return false
}

// isKitchenBasic reports whether the mention is a common kitchen staple.
func isKitchenBasic(mention string) bool {
	for _, word := range strings.Fields(mention) {
		for _, b := range commonKitchenBasics {
			if strings.Contains(word, b) || strings.Contains(b, word) {
				return true
			}
		}
	}
	return false
}
