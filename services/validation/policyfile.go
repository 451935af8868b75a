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
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML override document: a map of agent types to policy
// overrides. Absent fields keep the registered policy's value.
type PolicyFile struct {
	Agents map[string]PolicyOverride `yaml:"agents"`
}

// PolicyOverride is one agent type's tunable subset. Pointer fields
// distinguish "not set" from zero values.
type PolicyOverride struct {
	Level                      string              `yaml:"level"`
	ConfidenceThreshold        *float64            `yaml:"confidence_threshold"`
	HallucinationThreshold     *float64            `yaml:"hallucination_threshold"`
	CacheTTL                   *time.Duration      `yaml:"cache_ttl"`
	LogValidation              *bool               `yaml:"log_validation"`
	RaiseOnHighHallucination   *bool               `yaml:"raise_on_high_hallucination"`
	HighHallucinationThreshold *float64            `yaml:"high_hallucination_threshold"`
	CustomPatterns             map[string][]string `yaml:"custom_patterns"`
}

// LoadPolicyFile reads a YAML override file and applies it on top of the
// registry's current policies. Unknown agent types in the file start from
// the default policy. The whole file is rejected on the first invalid entry
// so a bad reload never half-applies.
func LoadPolicyFile(path string, registry *Registry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading policy file: %w", err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing policy file %s: %w", path, err)
	}

	// Build all updated policies first, register only when all are sound.
	updated := make(map[string]*Policy, len(file.Agents))
	for agentType, override := range file.Agents {
		p, err := applyOverride(registry.Get(agentType), agentType, override)
		if err != nil {
			return err
		}
		updated[agentType] = p
	}
	for agentType, p := range updated {
		if err := registry.Register(agentType, p); err != nil {
			return err
		}
	}
	return nil
}

// applyOverride copies the base policy and layers the override onto it.
func applyOverride(base *Policy, agentType string, o PolicyOverride) (*Policy, error) {
	p := *base
	p.AgentType = agentType
	p.compiled = nil

	if o.Level != "" {
		if Level(o.Level) != ParseLevel(o.Level) {
			return nil, fmt.Errorf("policy file: unknown level %q for %s", o.Level, agentType)
		}
		p.Level = Level(o.Level)
	}
	if o.ConfidenceThreshold != nil {
		p.ConfidenceThreshold = *o.ConfidenceThreshold
	}
	if o.HallucinationThreshold != nil {
		p.HallucinationThreshold = *o.HallucinationThreshold
	}
	if o.CacheTTL != nil {
		p.CacheTTL = *o.CacheTTL
	}
	if o.LogValidation != nil {
		p.LogValidation = *o.LogValidation
	}
	if o.RaiseOnHighHallucination != nil {
		p.RaiseOnHighHallucination = *o.RaiseOnHighHallucination
	}
	if o.HighHallucinationThreshold != nil {
		p.HighHallucinationThreshold = *o.HighHallucinationThreshold
	}
	if len(o.CustomPatterns) > 0 {
		patterns := make(map[Category][]string, len(o.CustomPatterns))
		for cat, exprs := range o.CustomPatterns {
			patterns[Category(cat)] = exprs
		}
		p.CustomPatterns = patterns
	}
	return &p, nil
}

// WatchPolicyFile re-applies the override file whenever it is rewritten.
// It blocks until ctx is cancelled; run it in its own goroutine. A failed
// reload keeps the last good policies and logs the error.
func WatchPolicyFile(ctx context.Context, path string, registry *Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating policy watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching policy file %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := LoadPolicyFile(path, registry); err != nil {
				logger.Error("policy reload failed, keeping previous policies",
					"path", path, "error", err)
				continue
			}
			logger.Info("policies reloaded", "path", path, "agents", registry.Known())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("policy watcher error", "error", err)
		}
	}
}
