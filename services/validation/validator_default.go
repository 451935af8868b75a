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

// DefaultValidator is the fallback strategy for agent types without a
// specialized validator. It checks only a minimal factual-error set.
type DefaultValidator struct {
	lib     *Library
	profile scoringProfile
}

// NewDefaultValidator constructs the fallback strategy.
func NewDefaultValidator() *DefaultValidator {
	lib := NewLibrary().
		Add(CategoryFactualError, yearPatterns...).
		Add(CategoryUnverifiableClaim, absolutistPatterns...)
	return &DefaultValidator{
		lib: lib,
		profile: scoringProfile{
			baseline:      0.85,
			defaultWeight: 0.10,
			weights: map[Category]float64{
				CategoryFactualError:      0.15,
				CategoryUnverifiableClaim: 0.10,
			},
			scoreCap:          0.8,
			increment:         0.20,
			softConfidence:    0.6,
			softHallucination: 0.5,
		},
	}
}

// Name implements Validator.
func (v *DefaultValidator) Name() string { return "default_validator" }

var defaultAdvice = map[Category]string{
	CategoryFactualError:      "Odpowiedź zawiera niezweryfikowane fakty.",
	CategoryUnverifiableClaim: "Odpowiedź zawiera kategoryczne twierdzenia bez pokrycia.",
}

// Validate implements Validator.
func (v *DefaultValidator) Validate(ctx context.Context, input *Input) *Report {
	if strings.TrimSpace(input.Response) == "" {
		return emptyResponseReport()
	}

	rep := &Report{}
	matchInput(v.lib, input, rep)
	v.profile.finish(rep, input.Level, defaultAdvice)
	return rep
}
