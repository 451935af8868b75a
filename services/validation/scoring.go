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
	"strings"
)

// confidenceFloor is the lowest confidence any validator reports for a
// non-degraded outcome.
const confidenceFloor = 0.1

// scoringProfile holds the validator-specific scoring constants.
//
// Baselines sit in 0.85..0.95; a weighted penalty per detected category is
// subtracted and scaled by the level multiplier, then clamped to
// [confidenceFloor, baseline]. The hallucination score grows linearly with
// finding count up to a validator-specific cap.
type scoringProfile struct {
	baseline      float64
	weights       map[Category]float64
	defaultWeight float64
	scoreCap      float64
	increment     float64

	// Soft sub-thresholds feeding recommendation text only. The
	// orchestrator's policy thresholds decide admission.
	softConfidence    float64
	softHallucination float64
}

// confidence computes the level-scaled confidence for the detected
// categories.
func (p scoringProfile) confidence(categories []Category, level Level) float64 {
	penalty := 0.0
	for _, c := range categories {
		w, ok := p.weights[c]
		if !ok {
			w = p.defaultWeight
		}
		penalty += w
	}
	conf := p.baseline - penalty*level.penaltyMultiplier()
	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	if conf > p.baseline {
		conf = p.baseline
	}
	return conf
}

// hallucinationScore maps a finding count to the risk score. Zero findings
// always yield the minimum (0.0).
func (p scoringProfile) hallucinationScore(findings int) float64 {
	score := float64(findings) * p.increment
	if score > p.scoreCap {
		score = p.scoreCap
	}
	return score
}

// finish fills the report's scores and recommendation from the accumulated
// findings. advice maps each category to a Polish-language guidance line;
// only detected categories contribute, each at most once.
func (p scoringProfile) finish(rep *Report, level Level, advice map[Category]string) {
	rep.Confidence = p.confidence(rep.DetectedCategories, level)
	rep.HallucinationScore = p.hallucinationScore(len(rep.DetectedCategories))

	var parts []string
	seen := make(map[Category]bool)
	for _, c := range rep.DetectedCategories {
		if seen[c] {
			continue
		}
		seen[c] = true
		if a, ok := advice[c]; ok {
			parts = append(parts, a)
		}
	}
	if rep.Confidence < p.softConfidence {
		parts = append(parts, fmt.Sprintf("Niska pewność odpowiedzi (%.2f) - zweryfikuj przed użyciem.", rep.Confidence))
	}
	if rep.HallucinationScore > p.softHallucination {
		parts = append(parts, fmt.Sprintf("Wysokie ryzyko konfabulacji (%.2f).", rep.HallucinationScore))
	}
	if len(parts) == 0 {
		parts = append(parts, "Odpowiedź wygląda na poprawną.")
	}
	rep.Recommendation = strings.Join(parts, " ")
}

// emptyResponseReport is the shared low-confidence result for blank input.
func emptyResponseReport() *Report {
	return &Report{
		Confidence:         0.3,
		HallucinationScore: 0.0,
		ValidationErrors:   []string{"empty response"},
		Recommendation:     "Pusta odpowiedź - brak treści do walidacji.",
	}
}
