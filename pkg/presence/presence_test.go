package presence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/presence"
)

func TestAssignColorCyclesPalette(t *testing.T) {
	existing := map[string]string{}
	for i := 0; i < len(presence.Palette)+2; i++ {
		userID := string(rune('a' + i))
		color := presence.AssignColor(existing, userID)
		assert.Equal(t, presence.Palette[i%len(presence.Palette)], color)
		existing[userID] = color
	}
}

func TestAssignColorIsPure(t *testing.T) {
	existing := map[string]string{"u1": presence.Palette[0]}
	assert.Equal(t, presence.Palette[0], presence.AssignColor(existing, "u1"))
	assert.Equal(t, presence.Palette[1], presence.AssignColor(existing, "u2"))
	// calling again changes nothing
	assert.Equal(t, presence.Palette[1], presence.AssignColor(existing, "u2"))
}

func TestUpsertAssignsStableColor(t *testing.T) {
	v := presence.NewView(0)
	now := time.Now()

	first := v.Upsert("u1", "Ada", models.Coordinate{Lat: 1, Lng: 2}, now)
	assert.Equal(t, presence.Palette[0], first.Color)

	second := v.Upsert("u2", "Grace", models.Coordinate{}, now)
	assert.Equal(t, presence.Palette[1], second.Color)

	// refresh keeps the color
	again := v.Upsert("u1", "Ada", models.Coordinate{Lat: 3, Lng: 4}, now.Add(time.Second))
	assert.Equal(t, presence.Palette[0], again.Color)
}

func TestColorSurvivesLeaveAndReturn(t *testing.T) {
	v := presence.NewView(0)
	now := time.Now()

	v.Upsert("u1", "Ada", models.Coordinate{}, now)
	v.Upsert("u2", "Grace", models.Coordinate{}, now)
	v.Remove("u1")

	back := v.Upsert("u1", "Ada", models.Coordinate{}, now.Add(time.Second))
	assert.Equal(t, presence.Palette[0], back.Color)
}

func TestSweepEvictsStaleCursors(t *testing.T) {
	v := presence.NewView(5 * time.Second)
	base := time.Now()

	v.Upsert("stale", "Old", models.Coordinate{}, base)
	v.Upsert("fresh", "New", models.Coordinate{}, base.Add(4*time.Second))

	evicted := v.Sweep(base.Add(6 * time.Second))
	require.Equal(t, []string{"stale"}, evicted)

	cursors := v.Cursors()
	require.Len(t, cursors, 1)
	assert.Equal(t, "fresh", cursors[0].UserID)
}

func TestSweepAtExactWindowKeepsCursor(t *testing.T) {
	v := presence.NewView(5 * time.Second)
	base := time.Now()

	v.Upsert("u1", "Ada", models.Coordinate{}, base)
	assert.Empty(t, v.Sweep(base.Add(5*time.Second)), "eviction requires strictly more than the window")
	assert.Len(t, v.Cursors(), 1)
}

func TestRemoveUnknownUserIsNoOp(t *testing.T) {
	v := presence.NewView(0)
	v.Remove("ghost")
	assert.Empty(t, v.Cursors())
}
