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
	"strconv"
	"strings"
)

// Weather magnitude extraction. Captured numbers are range-checked; mere
// presence of a temperature or humidity figure is never a finding.
var (
	temperatureRe = regexp.MustCompile(`(?i)(-?\d{1,3})\s*(?:°\s*C|stopni(?:ach)?)`)
	humidityRe    = regexp.MustCompile(`(?i)wilgotność\D{0,10}(\d{1,3})\s*%`)
	windRe        = regexp.MustCompile(`(?i)(\d{1,4})\s*km/h`)
)

// Plausibility bounds for Polish weather reports.
const (
	minTemperatureC = -50
	maxTemperatureC = 60
	maxHumidityPct  = 100
	maxWindKmh      = 250
)

// WeatherValidator validates weather responses. It is the most permissive
// strategy: findings require numerically implausible magnitudes, and the
// score cap and increments stay low.
type WeatherValidator struct {
	lib     *Library
	profile scoringProfile
}

// NewWeatherValidator constructs the weather strategy.
func NewWeatherValidator() *WeatherValidator {
	return &WeatherValidator{
		lib: NewLibrary(),
		profile: scoringProfile{
			baseline:      0.90,
			defaultWeight: 0.10,
			weights: map[Category]float64{
				CategoryMeasurementHallucination: 0.15,
			},
			scoreCap:          0.8,
			increment:         0.15,
			softConfidence:    0.5,
			softHallucination: 0.6,
		},
	}
}

// Name implements Validator.
func (v *WeatherValidator) Name() string { return "weather_validator" }

var weatherAdvice = map[Category]string{
	CategoryMeasurementHallucination: "Podane wartości pogodowe są fizycznie nieprawdopodobne.",
}

// Validate implements Validator.
func (v *WeatherValidator) Validate(ctx context.Context, input *Input) *Report {
	if strings.TrimSpace(input.Response) == "" {
		return emptyResponseReport()
	}

	rep := &Report{}
	if input.categoryEnabled(CategoryMeasurementHallucination) {
		v.checkMagnitudes(input.Response, rep)
	}
	matchInput(v.lib, input, rep) // custom policy patterns only
	v.profile.finish(rep, input.Level, weatherAdvice)
	return rep
}

// checkMagnitudes flags temperatures outside -50..60 C, humidity above 100%
// and wind at or above 250 km/h.
func (v *WeatherValidator) checkMagnitudes(text string, rep *Report) {
	flag := func(raw, why string) {
		rep.DetectedCategories = append(rep.DetectedCategories, CategoryMeasurementHallucination)
		rep.SuspiciousPhrases = append(rep.SuspiciousPhrases, raw)
		rep.ValidationErrors = append(rep.ValidationErrors, why)
	}

	for _, m := range temperatureRe.FindAllStringSubmatch(text, -1) {
		if t, err := strconv.Atoi(m[1]); err == nil && (t < minTemperatureC || t > maxTemperatureC) {
			flag(m[0], fmt.Sprintf("temperature %d outside plausible range", t))
		}
	}
	for _, m := range humidityRe.FindAllStringSubmatch(text, -1) {
		if h, err := strconv.Atoi(m[1]); err == nil && h > maxHumidityPct {
			flag(m[0], fmt.Sprintf("humidity %d%% above 100%%", h))
		}
	}
	for _, m := range windRe.FindAllStringSubmatch(text, -1) {
		if w, err := strconv.Atoi(m[1]); err == nil && w >= maxWindKmh {
			flag(m[0], fmt.Sprintf("wind speed %d km/h implausible", w))
		}
	}
}
