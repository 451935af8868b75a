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
	"strings"
	"time"
)

// receiptKeywords are the domain words a receipt answer is expected to share
// with a receipt-themed question.
var receiptKeywords = []string{
	"paragon", "sklep", "zakupy", "kwota", "data", "nip", "vat", "suma", "rachunek",
}

// ReceiptValidator validates receipt-analysis responses: date plausibility,
// Polish tax-id (NIP) checksums, fabricated prices, and receipt-domain
// context overlap.
type ReceiptValidator struct {
	lib     *Library
	profile scoringProfile
}

// NewReceiptValidator constructs the receipt strategy.
func NewReceiptValidator() *ReceiptValidator {
	lib := NewLibrary().
		Add(CategoryPriceHallucination, pricePatterns...)
	return &ReceiptValidator{
		lib: lib,
		profile: scoringProfile{
			baseline:      0.95,
			defaultWeight: 0.10,
			weights: map[Category]float64{
				CategoryFactualError:       0.20,
				CategoryContextViolation:   0.15,
				CategoryPriceHallucination: 0.10,
			},
			scoreCap:          0.9,
			increment:         0.12,
			softConfidence:    0.75,
			softHallucination: 0.5,
		},
	}
}

// Name implements Validator.
func (v *ReceiptValidator) Name() string { return "receipt_validator" }

var receiptAdvice = map[Category]string{
	CategoryFactualError:       "Dane z paragonu wyglądają na błędne - porównaj z oryginałem.",
	CategoryPriceHallucination: "Kwoty wymagają weryfikacji z paragonem.",
	CategoryContextViolation:   "Odpowiedź nie odnosi się do analizowanego paragonu.",
}

// Validate implements Validator.
func (v *ReceiptValidator) Validate(ctx context.Context, input *Input) *Report {
	if strings.TrimSpace(input.Response) == "" {
		return emptyResponseReport()
	}

	rep := &Report{}
	matchInput(v.lib, input, rep)
	v.checkDates(input, rep)
	v.checkNIP(input, rep)
	v.checkDomainOverlap(input, rep)
	v.profile.finish(rep, input.Level, receiptAdvice)
	return rep
}

// checkDates flags malformed or implausible dates. Well-formed dates within
// a sane receipt window pass; "31.02.2024" or year 1803 do not.
func (v *ReceiptValidator) checkDates(input *Input, rep *Report) {
	if !input.categoryEnabled(CategoryFactualError) {
		return
	}
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(input.Response, -1) {
			if dateIsPlausible(m) {
				continue
			}
			rep.DetectedCategories = append(rep.DetectedCategories, CategoryFactualError)
			rep.SuspiciousPhrases = append(rep.SuspiciousPhrases, m)
			rep.ValidationErrors = append(rep.ValidationErrors,
				fmt.Sprintf("implausible date %q", m))
		}
	}
}

// dateIsPlausible parses both supported receipt date formats and bounds the
// year to a realistic receipt window.
func dateIsPlausible(s string) bool {
	var t time.Time
	var err error
	if strings.Contains(s, ".") {
		t, err = time.Parse("02.01.2006", s)
	} else {
		t, err = time.Parse("2006-01-02", s)
	}
	if err != nil {
		return false
	}
	y := t.Year()
	return y >= 2000 && y <= 2035
}

// checkNIP flags NIP-like numbers that fail the official weight checksum.
func (v *ReceiptValidator) checkNIP(input *Input, rep *Report) {
	if !input.categoryEnabled(CategoryFactualError) {
		return
	}
	for _, re := range nipPatterns {
		for _, m := range re.FindAllString(input.Response, -1) {
			if nipChecksumValid(m) {
				continue
			}
			rep.DetectedCategories = append(rep.DetectedCategories, CategoryFactualError)
			rep.SuspiciousPhrases = append(rep.SuspiciousPhrases, m)
			rep.ValidationErrors = append(rep.ValidationErrors,
				fmt.Sprintf("NIP %q fails checksum", m))
		}
	}
}

// nipWeights is the official NIP checksum weight vector.
var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// nipChecksumValid validates a 10-digit Polish tax id after stripping
// formatting.
func nipChecksumValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 10 {
		return false
	}
	sum := 0
	for i, w := range nipWeights {
		sum += digits[i] * w
	}
	return sum%11 == digits[9]
}

// checkDomainOverlap flags a context violation when the question is clearly
// about a receipt but the answer shares none of the receipt vocabulary.
func (v *ReceiptValidator) checkDomainOverlap(input *Input, rep *Report) {
	if !input.categoryEnabled(CategoryContextViolation) || input.Context == "" {
		return
	}
	ctxLower := strings.ToLower(input.Context)
	respLower := strings.ToLower(input.Response)

	contextIsReceipt := false
	for _, kw := range receiptKeywords {
		if strings.Contains(ctxLower, kw) {
			contextIsReceipt = true
			break
		}
	}
	if !contextIsReceipt {
		return
	}
	for _, kw := range receiptKeywords {
		if strings.Contains(respLower, kw) {
			return
		}
	}
	rep.DetectedCategories = append(rep.DetectedCategories, CategoryContextViolation)
	rep.ValidationErrors = append(rep.ValidationErrors,
		"response shares no receipt vocabulary with a receipt question")
}
