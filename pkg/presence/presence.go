// Package presence holds the in-memory view of collaborator cursors.
// Entries appear on the first cursor event per user, are refreshed by
// later events, and disappear either on an explicit leave or when the
// staleness sweep finds them unrefreshed past the staleness window. The
// sweep makes the view tolerate silently dropped leave notifications.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// Palette is the fixed color cycle for collaborator cursors.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
}

// AssignColor picks the color for a newly seen collaborator given the
// colors already handed out. It is a pure function: the same assignments
// and user always yield the same answer.
func AssignColor(existing map[string]string, userID string) string {
	if color, ok := existing[userID]; ok {
		return color
	}
	return Palette[len(existing)%len(Palette)]
}

// View is the cursor map consumed by the UI. Safe for concurrent use.
type View struct {
	mu         sync.Mutex
	cursors    map[string]models.Cursor
	colors     map[string]string // stable for the session once assigned
	staleAfter time.Duration
}

const defaultStaleAfter = 5 * time.Second

// NewView builds a View whose sweep evicts cursors unrefreshed for
// longer than staleAfter. Zero means the default of 5s.
func NewView(staleAfter time.Duration) *View {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &View{
		cursors:    make(map[string]models.Cursor),
		colors:     make(map[string]string),
		staleAfter: staleAfter,
	}
}

// Upsert refreshes (or creates) the cursor entry for a collaborator and
// returns it with its session-stable color applied.
func (v *View) Upsert(userID, displayName string, coord models.Coordinate, now time.Time) models.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()

	color, ok := v.colors[userID]
	if !ok {
		color = AssignColor(v.colors, userID)
		v.colors[userID] = color
	}

	cursor := models.Cursor{
		UserID:      userID,
		DisplayName: displayName,
		Coordinate:  coord,
		Color:       color,
		UpdatedAt:   now,
	}
	v.cursors[userID] = cursor
	return cursor
}

// Remove drops the cursor on an explicit leave. The color assignment is
// kept so a returning collaborator gets the same color.
func (v *View) Remove(userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cursors, userID)
}

// Sweep evicts every cursor not refreshed within the staleness window.
// It returns the user IDs that were evicted.
func (v *View) Sweep(now time.Time) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var evicted []string
	for userID, cursor := range v.cursors {
		if now.Sub(cursor.UpdatedAt) > v.staleAfter {
			delete(v.cursors, userID)
			evicted = append(evicted, userID)
		}
	}
	return evicted
}

// Cursors returns a snapshot sorted by user ID for stable rendering.
func (v *View) Cursors() []models.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]models.Cursor, 0, len(v.cursors))
	for _, cursor := range v.cursors {
		out = append(out, cursor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
