package service

import (
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
)

// planTraversal orders the active levels for one run: starting at the first
// level whose position is at least start, then wrapping around. Positions need
// not be dense; a start pointing past every level (possible after levels are
// deactivated) falls back to the first level. Pure function, no I/O.
func planTraversal(levels []nichedomain.CompetitionLevel, start int) []nichedomain.CompetitionLevel {
	if len(levels) == 0 {
		return nil
	}

	startIdx := 0
	for i, level := range levels {
		if level.Position >= start {
			startIdx = i
			break
		}
	}

	plan := make([]nichedomain.CompetitionLevel, 0, len(levels))
	plan = append(plan, levels[startIdx:]...)
	plan = append(plan, levels[:startIdx]...)
	return plan
}
