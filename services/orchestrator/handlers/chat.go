// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/codemarcinu/agenty-sub000/services/agents"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/datatypes"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/observability"
	"github.com/codemarcinu/agenty-sub000/services/validation"
)

var tracer = otel.Tracer("assistant.handlers")

// HandleChat routes a chat request to the selected agent, runs the wrapped
// (validated) agent call, and returns the text plus validation metadata.
func HandleChat(registry *agents.Registry, orchestrator *validation.Orchestrator,
	metrics *observability.ChatMetrics) gin.HandlerFunc {

	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		agent := registry.Get(req.AgentType)
		ctx, span := tracer.Start(c.Request.Context(), "handlers.HandleChat")
		defer span.End()
		span.SetAttributes(
			attribute.String("chat.agent_type", agent.Type()),
			attribute.Int("chat.query_length", len(req.Query)),
		)

		wrapOpts := []validation.WrapOption{
			validation.WithAgentType(agent.Type()),
			validation.WithModel(agent.Model()),
		}
		if req.ValidationLevel != "" {
			wrapOpts = append(wrapOpts, validation.WithLevel(validation.ParseLevel(req.ValidationLevel)))
		}
		process := validation.Wrap(orchestrator, agent.Name(), agent.Process, wrapOpts...)

		input := map[string]any{"query": req.Query}
		if req.AvailableIngredients != nil {
			input["available_ingredients"] = req.AvailableIngredients
		}

		result, err := process(ctx, input)
		if err != nil {
			slog.Error("agent call failed", "agent", agent.Name(), "error", err)
			metrics.RecordRequest(agent.Type(), "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadGateway, datatypes.ErrorResponse{Error: "agent call failed"})
			return
		}
		if !result.Success {
			metrics.RecordRequest(agent.Type(), "error", time.Since(start).Seconds())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "agent produced no response"})
			return
		}

		resp := datatypes.ChatResponse{
			AgentName: agent.Name(),
			Text:      result.Text,
		}
		if id, ok := result.Metadata["response_id"].(string); ok {
			resp.ResponseID = id
		}

		status := "success"
		if outcome, ok := result.Metadata[validation.MetadataKey].(*validation.Outcome); ok {
			resp.Validation = outcome
			if !outcome.IsValid {
				status = "invalid"
				metrics.RecordRejection(agent.Type())
				metrics.RecordSubstitution(agent.Type())
			}
		}
		metrics.RecordRequest(agent.Type(), status, time.Since(start).Seconds())
		c.JSON(http.StatusOK, resp)
	}
}
