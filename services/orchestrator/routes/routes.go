// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codemarcinu/agenty-sub000/services/agents"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/handlers"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/observability"
	"github.com/codemarcinu/agenty-sub000/services/validation"
)

// SetupRoutes registers the assistant's HTTP surface.
func SetupRoutes(router *gin.Engine, registry *agents.Registry,
	orchestrator *validation.Orchestrator, cache *validation.Cache,
	metrics *observability.ChatMetrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", handlers.HandleChat(registry, orchestrator, metrics))
		v1.GET("/validation/stats", handlers.HandleValidationStats(orchestrator, cache))
	}
}
