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
	"strings"
)

// SearchValidator validates search-style answers: absolutist rhetoric,
// unqualified year and price claims, and response/query token overlap.
type SearchValidator struct {
	lib     *Library
	profile scoringProfile
}

// NewSearchValidator constructs the search strategy.
func NewSearchValidator() *SearchValidator {
	lib := NewLibrary().
		Add(CategoryUnverifiableClaim, absolutistPatterns...).
		Add(CategoryFactualError, yearPatterns...).
		Add(CategoryFactualError, pricePatterns...)
	return &SearchValidator{
		lib: lib,
		profile: scoringProfile{
			baseline:      0.85,
			defaultWeight: 0.10,
			weights: map[Category]float64{
				CategoryUnverifiableClaim: 0.15,
				CategoryFactualError:      0.15,
				CategoryContextViolation:  0.20,
			},
			scoreCap:          0.85,
			increment:         0.20,
			softConfidence:    0.65,
			softHallucination: 0.5,
		},
	}
}

// Name implements Validator.
func (v *SearchValidator) Name() string { return "search_validator" }

var searchAdvice = map[Category]string{
	CategoryUnverifiableClaim: "Odpowiedź zawiera kategoryczne twierdzenia bez źródła.",
	CategoryFactualError:      "Daty i kwoty w odpowiedzi wymagają weryfikacji w źródłach.",
	CategoryContextViolation:  "Odpowiedź nie odnosi się do zadanego pytania.",
}

// Validate implements Validator.
func (v *SearchValidator) Validate(ctx context.Context, input *Input) *Report {
	if strings.TrimSpace(input.Response) == "" {
		return emptyResponseReport()
	}

	rep := &Report{}
	matchInput(v.lib, input, rep)
	v.checkTokenOverlap(input, rep)
	v.profile.finish(rep, input.Level, searchAdvice)
	return rep
}

// checkTokenOverlap flags a context violation when the query has more than
// two distinct words and the answer shares none of them.
func (v *SearchValidator) checkTokenOverlap(input *Input, rep *Report) {
	if !input.categoryEnabled(CategoryContextViolation) {
		return
	}
	ctxTokens := distinctTokens(input.Context)
	if len(ctxTokens) <= 2 {
		return
	}
	respTokens := distinctTokens(input.Response)
	for t := range ctxTokens {
		if respTokens[t] {
			return
		}
	}
	rep.DetectedCategories = append(rep.DetectedCategories, CategoryContextViolation)
	rep.ValidationErrors = append(rep.ValidationErrors,
		"response shares no tokens with the query")
}

// distinctTokens lower-cases and whitespace-splits text into a token set.
func distinctTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(f, ".,!?:;\"'()")] = true
	}
	delete(tokens, "")
	return tokens
}
