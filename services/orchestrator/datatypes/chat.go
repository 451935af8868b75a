// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the HTTP request/response shapes of the assistant
// API.
package datatypes

import "github.com/codemarcinu/agenty-sub000/services/validation"

// ChatRequest is the POST /api/v1/chat body.
type ChatRequest struct {
	// Query is the user's message.
	Query string `json:"query" binding:"required,min=1"`

	// AgentType selects the agent persona; empty picks general conversation.
	AgentType string `json:"agent_type" binding:"omitempty,max=64"`

	// ValidationLevel optionally overrides the policy's default strictness.
	ValidationLevel string `json:"validation_level" binding:"omitempty,oneof=strict moderate lenient"`

	// AvailableIngredients feeds the chef validator's pantry cross-check.
	AvailableIngredients []string `json:"available_ingredients" binding:"omitempty,dive,min=1"`
}

// ChatResponse is the chat endpoint's reply.
type ChatResponse struct {
	ResponseID string              `json:"response_id,omitempty"`
	AgentName  string              `json:"agent_name"`
	Text       string              `json:"text"`
	Validation *validation.Outcome `json:"validation,omitempty"`
}

// StatsResponse is the GET /api/v1/validation/stats reply.
type StatsResponse struct {
	Agents      []validation.AgentStats `json:"agents"`
	CacheHits   int64                   `json:"cache_hits"`
	CacheMisses int64                   `json:"cache_misses"`
	CacheSize   int                     `json:"cache_size"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
