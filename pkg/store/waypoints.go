package store

import (
	"fmt"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// ReorderWaypointList returns wps rearranged to match orderedIDs, with
// positions renumbered. orderedIDs must be a permutation of the current
// waypoint identifiers; a missing, unknown, or duplicated identifier is
// a validation error. The input slice is not modified.
func ReorderWaypointList(wps []models.Waypoint, orderedIDs []string) ([]models.Waypoint, error) {
	if len(orderedIDs) != len(wps) {
		return nil, fmt.Errorf("%w: reorder lists %d waypoints, trip has %d",
			ErrValidation, len(orderedIDs), len(wps))
	}

	byID := make(map[string]models.Waypoint, len(wps))
	for _, wp := range wps {
		byID[wp.ID] = wp
	}

	reordered := make([]models.Waypoint, 0, len(wps))
	seen := make(map[string]bool, len(orderedIDs))
	for i, id := range orderedIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate waypoint %s in reorder", ErrValidation, id)
		}
		seen[id] = true

		wp, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown waypoint %s in reorder", ErrValidation, id)
		}
		wp.Position = i
		reordered = append(reordered, wp)
	}
	return reordered, nil
}
