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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codemarcinu/agenty-sub000/services/orchestrator/datatypes"
	"github.com/codemarcinu/agenty-sub000/services/validation"
)

// HandleValidationStats exposes per-agent running validation statistics and
// cache counters.
func HandleValidationStats(orchestrator *validation.Orchestrator, cache *validation.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := datatypes.StatsResponse{Agents: orchestrator.Stats()}
		if cache != nil {
			resp.CacheHits, resp.CacheMisses = cache.Stats()
			resp.CacheSize = cache.Len()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
