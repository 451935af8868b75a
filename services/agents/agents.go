// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents holds the thin domain agents of the household assistant.
// Each agent is a system prompt plus one LLM chat call; all anti-fabrication
// enforcement happens in the validation wrapper around Process.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codemarcinu/agenty-sub000/services/llm"
	"github.com/codemarcinu/agenty-sub000/services/validation"
)

// Agent is one prompt-driven assistant persona.
type Agent struct {
	name         string
	agentType    string
	systemPrompt string
	client       llm.Client
}

// Name returns the human-readable agent name ("ChefAgent").
func (a *Agent) Name() string { return a.name }

// Type returns the normalized agent type used for policy selection.
func (a *Agent) Type() string { return a.agentType }

// Model returns the backing model identifier.
func (a *Agent) Model() string { return a.client.Model() }

// Process runs one agent turn. The input map carries the user query under
// "query" plus optional extras (available_ingredients for the chef).
func (a *Agent) Process(ctx context.Context, input map[string]any) (*validation.AgentResult, error) {
	query, _ := input["query"].(string)
	if strings.TrimSpace(query) == "" {
		return &validation.AgentResult{
			Success:  false,
			Metadata: map[string]any{"error": "empty query"},
		}, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: a.systemPrompt},
		{Role: "user", Content: a.userPrompt(query, input)},
	}
	text, err := a.client.Chat(ctx, messages, llm.GenerationParams{})
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}

	return &validation.AgentResult{
		Success: true,
		Text:    text,
		Metadata: map[string]any{
			"response_id": uuid.NewString(),
			"agent_name":  a.name,
			"model_used":  a.client.Model(),
		},
	}, nil
}

// userPrompt folds structured extras into the user turn where relevant.
func (a *Agent) userPrompt(query string, input map[string]any) string {
	if a.agentType != "chef" {
		return query
	}
	ingredients, ok := input["available_ingredients"].([]string)
	if !ok || len(ingredients) == 0 {
		return query
	}
	return fmt.Sprintf("%s\n\nDostępne składniki: %s. Użyj wyłącznie tych składników.",
		query, strings.Join(ingredients, ", "))
}

// NewChef builds the recipe agent.
func NewChef(client llm.Client) *Agent {
	return &Agent{
		name:      "ChefAgent",
		agentType: "chef",
		systemPrompt: "Jesteś domowym kucharzem. Proponujesz przepisy wyłącznie ze składników " +
			"podanych przez użytkownika. Podawaj realistyczne ilości i czasy przygotowania.",
		client: client,
	}
}

// NewReceiptAnalysis builds the receipt analysis agent.
func NewReceiptAnalysis(client llm.Client) *Agent {
	return &Agent{
		name:      "ReceiptAnalysisAgent",
		agentType: "receipt_analysis",
		systemPrompt: "Analizujesz paragony sklepowe. Odpowiadasz tylko danymi, które " +
			"faktycznie widnieją na paragonie: daty, kwoty, NIP, nazwa sklepu. Nie zgaduj.",
		client: client,
	}
}

// NewWeather builds the weather agent.
func NewWeather(client llm.Client) *Agent {
	return &Agent{
		name:      "WeatherAgent",
		agentType: "weather",
		systemPrompt: "Podajesz prognozę pogody w zwięzłej formie: temperatura, wilgotność, " +
			"wiatr. Używaj jednostek metrycznych.",
		client: client,
	}
}

// NewSearch builds the search agent.
func NewSearch(client llm.Client) *Agent {
	return &Agent{
		name:      "SearchAgent",
		agentType: "search",
		systemPrompt: "Odpowiadasz na pytania na podstawie wyszukanych informacji. Unikaj " +
			"kategorycznych stwierdzeń bez źródła i wyraźnie zaznaczaj niepewność.",
		client: client,
	}
}

// NewGeneralConversation builds the default chat agent.
func NewGeneralConversation(client llm.Client) *Agent {
	return &Agent{
		name:      "GeneralConversationAgent",
		agentType: "general_conversation",
		systemPrompt: "Jesteś pomocnym asystentem domowym. Odpowiadasz po polsku, krótko " +
			"i rzeczowo.",
		client: client,
	}
}

// Registry maps agent types to constructed agents, with general conversation
// as the fallback.
type Registry struct {
	agents   map[string]*Agent
	fallback *Agent
}

// NewRegistry constructs the built-in agents over one shared client.
func NewRegistry(client llm.Client) *Registry {
	general := NewGeneralConversation(client)
	r := &Registry{
		agents:   make(map[string]*Agent),
		fallback: general,
	}
	for _, a := range []*Agent{
		NewChef(client), NewReceiptAnalysis(client), NewWeather(client), NewSearch(client), general,
	} {
		r.agents[a.agentType] = a
	}
	return r
}

// Get resolves an agent by type, falling back to general conversation.
func (r *Registry) Get(agentType string) *Agent {
	if a, ok := r.agents[validation.DeriveAgentType(agentType)]; ok {
		return a
	}
	return r.fallback
}

// Types lists the registered agent types.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.agents))
	for t := range r.agents {
		types = append(types, t)
	}
	return types
}
