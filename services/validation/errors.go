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

import "fmt"

// HighHallucinationError is the single error the orchestrator deliberately
// propagates: the policy asked for a hard failure and the hallucination
// score crossed the policy's high threshold. The Outcome is still fully
// populated so callers can log or downgrade instead of failing the request.
type HighHallucinationError struct {
	AgentName string
	Score     float64
	Threshold float64
	Outcome   *Outcome
}

// Error implements the error interface.
func (e *HighHallucinationError) Error() string {
	return fmt.Sprintf("high hallucination risk for agent %s: score %.2f exceeds threshold %.2f",
		e.AgentName, e.Score, e.Threshold)
}
