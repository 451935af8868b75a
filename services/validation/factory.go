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
	"sync"
)

// NormalizeAgentType canonicalizes an agent-type or agent-name string:
// lower-case, strip the literal substring "agent", strip underscores.
// "ChefAgent", "chef_agent" and "chef" all normalize to "chef".
func NormalizeAgentType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "agent", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.TrimSpace(s)
}

// Factory resolves a normalized agent type to its validator constructor.
// Unmapped types fall back to the default validator. Validators are built
// fresh per call; they are cheap and stateless beyond constant tables.
//
// Thread Safety: safe for concurrent Get and Register.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]func() Validator
}

// NewFactory creates a factory with the built-in strategy family registered.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]func() Validator)}
	f.Register("chef", func() Validator { return NewChefValidator() })
	f.Register("receipt_analysis", func() Validator { return NewReceiptValidator() })
	f.Register("weather", func() Validator { return NewWeatherValidator() })
	f.Register("search", func() Validator { return NewSearchValidator() })
	return f
}

// Register adds or replaces a validator constructor for an agent type.
// The key is normalized before storage.
func (f *Factory) Register(agentType string, builder func() Validator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[NormalizeAgentType(agentType)] = builder
}

// Get returns a panic-safe validator for the agent type, falling back to
// the default validator for anything unregistered.
func (f *Factory) Get(agentType string) Validator {
	f.mu.RLock()
	builder, ok := f.builders[NormalizeAgentType(agentType)]
	f.mu.RUnlock()
	if !ok {
		return safeValidator{inner: NewDefaultValidator()}
	}
	return safeValidator{inner: builder()}
}

// safeValidator converts validator panics into the degraded fail-closed
// report so that no strategy bug can crash a request.
type safeValidator struct {
	inner Validator
}

// Name implements Validator.
func (s safeValidator) Name() string { return s.inner.Name() }

// Validate implements Validator.
func (s safeValidator) Validate(ctx context.Context, input *Input) (rep *Report) {
	defer func() {
		if r := recover(); r != nil {
			rep = degradedReport(fmt.Sprintf("validator %s panicked: %v", s.inner.Name(), r))
		}
	}()
	rep = s.inner.Validate(ctx, input)
	if rep == nil {
		rep = degradedReport(fmt.Sprintf("validator %s returned no report", s.inner.Name()))
	}
	return rep
}
