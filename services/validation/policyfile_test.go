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
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicyFile_AppliesOverrides(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	path := writePolicyFile(t, `
agents:
  chef:
    level: moderate
    confidence_threshold: 0.65
    log_validation: false
  pantry:
    hallucination_threshold: 0.25
`)

	if err := LoadPolicyFile(path, r); err != nil {
		t.Fatal(err)
	}

	chef := r.Get("chef")
	if chef.Level != LevelModerate {
		t.Errorf("level override not applied: %v", chef.Level)
	}
	if chef.ConfidenceThreshold != 0.65 {
		t.Errorf("confidence override not applied: %v", chef.ConfidenceThreshold)
	}
	if chef.LogValidation {
		t.Error("bool override not applied")
	}
	// Untouched fields keep the registered values.
	if !chef.RaiseOnHighHallucination || chef.HighHallucinationThreshold != 0.8 {
		t.Errorf("absent fields must stay unchanged: %+v", chef)
	}

	if got := r.Get("pantry").HallucinationThreshold; got != 0.25 {
		t.Errorf("pantry override not applied: %v", got)
	}
}

func TestLoadPolicyFile_UnknownAgentStartsFromDefault(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	path := writePolicyFile(t, `
agents:
  shopping_list:
    confidence_threshold: 0.75
`)

	if err := LoadPolicyFile(path, r); err != nil {
		t.Fatal(err)
	}

	p := r.Get("shopping_list")
	if p.AgentType != "shopping_list" {
		t.Fatalf("expected a registered policy, got fallback %+v", p)
	}
	if p.ConfidenceThreshold != 0.75 {
		t.Errorf("override not applied: %v", p.ConfidenceThreshold)
	}
	if p.Level != LevelModerate || p.HallucinationThreshold != 0.4 {
		t.Errorf("base values must come from the default policy: %+v", p)
	}
}

func TestLoadPolicyFile_RejectsBadLevelAtomically(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	before := r.Get("chef").ConfidenceThreshold

	path := writePolicyFile(t, `
agents:
  chef:
    confidence_threshold: 0.99
  weather:
    level: extreme
`)
	if err := LoadPolicyFile(path, r); err == nil {
		t.Fatal("bad level must reject the whole file")
	}
	if got := r.Get("chef").ConfidenceThreshold; got != before {
		t.Errorf("rejected file half-applied: chef threshold %v", got)
	}
}

func TestLoadPolicyFile_RejectsBadPattern(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	path := writePolicyFile(t, `
agents:
  search:
    custom_patterns:
      factual_error:
        - "(unclosed"
`)
	if err := LoadPolicyFile(path, r); err == nil {
		t.Fatal("malformed pattern must fail the load")
	}
}

func TestLoadPolicyFile_MissingFile(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if err := LoadPolicyFile(filepath.Join(t.TempDir(), "absent.yaml"), r); err == nil {
		t.Fatal("missing file must error")
	}
}
