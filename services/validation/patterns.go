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

import "regexp"

// Named, shared pattern sets tuned to Polish-language assistant output.
//
// Each specialized validator composes a Library from these shared sets plus
// a small agent-specific delta. The sets themselves are the single source of
// truth per category; validators never maintain private forks of them.
var (
	// unrealisticMeasurementPatterns catches physically implausible
	// kitchen quantities: 4+ digit gram counts, 3+ digit temperatures,
	// 4+ digit minute counts.
	unrealisticMeasurementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{4,}\s*g(?:ram(?:ów|y)?)?\b`),
		regexp.MustCompile(`(?i)\b\d{3,}\s*(?:°\s*C|stopni(?:ach)?)`),
		regexp.MustCompile(`(?i)\b\d{4,}\s*min(?:ut(?:y)?)?\b`),
	}

	// datePatterns catches calendar dates in receipt formats.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}

	// timePatterns catches clock times.
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
	}

	// nipPatterns catches Polish tax-id-like numbers (NIP), bare or
	// hyphen/space formatted.
	nipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bNIP[:\s]*\d{3}[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}\b`),
		regexp.MustCompile(`\b\d{3}-\d{3}-\d{2}-\d{2}\b`),
	}

	// pricePatterns catches currency amounts.
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+[,.]\d{2}\s*(?:zł|PLN|euro|EUR)\b`),
	}

	// yearPatterns catches bare year mentions (unqualified factual claims).
	yearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bw\s+(?:19|20)\d{2}\s+roku\b`),
		regexp.MustCompile(`(?i)\bod\s+(?:19|20)\d{2}\b`),
	}

	// absolutistPatterns catches rhetorical absolutes presented as fact.
	absolutistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bna\s+pewno\b`),
		regexp.MustCompile(`(?i)\bzdecydowanie\b`),
		regexp.MustCompile(`(?i)\bnajlepsz\w+\b`),
		regexp.MustCompile(`(?i)\bbez\s+wątpienia\b`),
		regexp.MustCompile(`(?i)\bgwarantuj\w+\b`),
		regexp.MustCompile(`(?i)\bw\s+100%\b`),
	}
)

// Library maps hallucination categories to compiled pattern lists.
//
// Matching is pure: no state is mutated and the same text always yields the
// same matches. Libraries are built once per validator construction.
type Library struct {
	sets  map[Category][]*regexp.Regexp
	order []Category
}

// NewLibrary creates an empty pattern library.
func NewLibrary() *Library {
	return &Library{sets: make(map[Category][]*regexp.Regexp)}
}

// Add appends patterns under a category. Repeated calls accumulate.
// Detection order follows first-Add order per category, so results are
// deterministic for a given library.
func (l *Library) Add(cat Category, patterns ...*regexp.Regexp) *Library {
	if _, seen := l.sets[cat]; !seen {
		l.order = append(l.order, cat)
	}
	l.sets[cat] = append(l.sets[cat], patterns...)
	return l
}

// Categories returns the categories this library knows about, in Add order.
func (l *Library) Categories() []Category {
	cats := make([]Category, len(l.order))
	copy(cats, l.order)
	return cats
}

// Match scans text against every pattern set and returns the matched
// substrings per category. Categories with no hits are absent from the
// returned map. Case-insensitivity is baked into the patterns.
func (l *Library) Match(text string) map[Category][]string {
	found := make(map[Category][]string)
	if text == "" {
		return found
	}
	for cat, patterns := range l.sets {
		for _, re := range patterns {
			for _, m := range re.FindAllString(text, -1) {
				found[cat] = append(found[cat], m)
			}
		}
	}
	return found
}

// matchInput runs the library plus any policy-supplied custom patterns,
// honoring the input's enabled-category filter, and folds the hits into
// the report in deterministic category order.
func matchInput(l *Library, in *Input, rep *Report) {
	fold := func(cat Category, hits []string) {
		if len(hits) == 0 || !in.categoryEnabled(cat) {
			return
		}
		for _, h := range hits {
			rep.DetectedCategories = append(rep.DetectedCategories, cat)
			rep.SuspiciousPhrases = append(rep.SuspiciousPhrases, h)
		}
	}

	matches := l.Match(in.Response)
	for _, cat := range l.order {
		fold(cat, matches[cat])
	}

	for _, cat := range categoryOrder {
		patterns, ok := in.CustomPatterns[cat]
		if !ok {
			continue
		}
		var hits []string
		for _, re := range patterns {
			hits = append(hits, re.FindAllString(in.Response, -1)...)
		}
		fold(cat, hits)
	}
}

// categoryOrder fixes iteration order for category-keyed maps coming from
// policy configuration.
var categoryOrder = []Category{
	CategoryFactualError,
	CategoryInconsistentInfo,
	CategoryUnverifiableClaim,
	CategoryContextViolation,
	CategoryIngredientHallucination,
	CategoryMeasurementHallucination,
	CategoryDateTimeHallucination,
	CategoryPriceHallucination,
}
