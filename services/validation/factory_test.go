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
	"testing"
)

func TestNormalizeAgentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ChefAgent", "chef"},
		{"chef_agent", "chef"},
		{"chef", "chef"},
		{"  Chef  ", "chef"},
		{"ReceiptAnalysisAgent", "receiptanalysis"},
		{"receipt_analysis", "receiptanalysis"},
		{"AGENT", ""},
	}
	for _, tt := range tests {
		if got := NormalizeAgentType(tt.in); got != tt.want {
			t.Errorf("NormalizeAgentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFactory_GetResolvesStrategies(t *testing.T) {
	f := NewFactory()
	tests := []struct {
		agentType string
		wantName  string
	}{
		{"chef", "chef_validator"},
		{"ChefAgent", "chef_validator"},
		{"receipt_analysis", "receipt_validator"},
		{"weather", "weather_validator"},
		{"search", "search_validator"},
		{"custom_widget", "default_validator"},
		{"", "default_validator"},
	}
	for _, tt := range tests {
		if got := f.Get(tt.agentType).Name(); got != tt.wantName {
			t.Errorf("Get(%q).Name() = %q, want %q", tt.agentType, got, tt.wantName)
		}
	}
}

func TestFactory_RegisterOverrides(t *testing.T) {
	f := NewFactory()
	f.Register("chef", func() Validator { return NewDefaultValidator() })
	if got := f.Get("ChefAgent").Name(); got != "default_validator" {
		t.Errorf("override not used, got %q", got)
	}
}

// nilReportValidator exercises the nil-report guard.
type nilReportValidator struct{}

func (nilReportValidator) Name() string                                 { return "nil_report_validator" }
func (nilReportValidator) Validate(ctx context.Context, in *Input) *Report { return nil }

func TestSafeValidator_RecoversPanics(t *testing.T) {
	f := NewFactory()
	f.Register("broken", func() Validator { return panicValidator{} })

	rep := f.Get("broken").Validate(context.Background(), &Input{Response: "x", Level: LevelModerate})
	if rep == nil {
		t.Fatal("panic must yield a degraded report, not nil")
	}
	if rep.Confidence != 0.0 || rep.HallucinationScore != 1.0 {
		t.Errorf("degraded report scores wrong: %+v", rep)
	}
	if len(rep.ValidationErrors) == 0 {
		t.Error("degraded report must carry the failure message")
	}
}

func TestSafeValidator_GuardsNilReports(t *testing.T) {
	f := NewFactory()
	f.Register("silent", func() Validator { return nilReportValidator{} })

	rep := f.Get("silent").Validate(context.Background(), &Input{Response: "x", Level: LevelModerate})
	if rep == nil {
		t.Fatal("nil report must be replaced with a degraded one")
	}
	if rep.HallucinationScore != 1.0 {
		t.Errorf("expected fail-closed score, got %.2f", rep.HallucinationScore)
	}
}
