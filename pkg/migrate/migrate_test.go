package migrate_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/kvstore"
	"github.com/wanderplan/wanderplan-go/pkg/migrate"
	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/store"
	"github.com/wanderplan/wanderplan-go/pkg/store/local"
)

// fakeRemote implements the create operations the engine exercises and
// records what arrived, in order. Unused contract methods panic via the
// embedded nil interface.
type fakeRemote struct {
	store.Store

	nextID   int
	calls    []string // "collection:<name>", "place:<name>", "trip:<title>"
	trips    []models.Trip
	failOn   map[string]bool // entity name/title -> fail the create
	placeIDs map[string]string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failOn: map[string]bool{}, placeIDs: map[string]string{}}
}

func (f *fakeRemote) assign() string {
	f.nextID++
	return fmt.Sprintf("srv-%d", f.nextID)
}

func (f *fakeRemote) CreateCollection(_ context.Context, col *models.Collection) (*models.Collection, error) {
	f.calls = append(f.calls, "collection:"+col.Name)
	if f.failOn[col.Name] {
		return nil, fmt.Errorf("%w: injected", store.ErrTransport)
	}
	out := *col
	out.ID = f.assign()
	return &out, nil
}

func (f *fakeRemote) CreatePlace(_ context.Context, place *models.Place) (*models.Place, error) {
	f.calls = append(f.calls, "place:"+place.Name)
	if f.failOn[place.Name] {
		return nil, fmt.Errorf("%w: injected", store.ErrTransport)
	}
	out := *place
	out.ID = f.assign()
	f.placeIDs[place.Name] = out.ID
	return &out, nil
}

func (f *fakeRemote) CreateTrip(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	f.calls = append(f.calls, "trip:"+trip.Title)
	if f.failOn[trip.Title] {
		return nil, fmt.Errorf("%w: injected", store.ErrTransport)
	}
	out := *trip
	out.ID = f.assign()
	f.trips = append(f.trips, out)
	return &out, nil
}

func newLocal(t *testing.T) *local.Adapter {
	t.Helper()
	kv := kvstore.Open(filepath.Join(t.TempDir(), "wanderplan.db"), kvstore.Options{})
	t.Cleanup(func() { _ = kv.Close() })
	return local.New(kv)
}

func TestMigrateThreeTrips(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()

	for i := 1; i <= 3; i++ {
		_, err := loc.CreateTrip(ctx, &models.Trip{Title: fmt.Sprintf("trip %d", i)})
		require.NoError(t, err)
	}

	res := migrate.NewEngine(loc, rem, nil).Run(ctx)

	assert.Equal(t, 3, res.Trips)
	assert.Empty(t, res.Errors)
	assert.True(t, res.Clean())

	trips, err := loc.ListTrips(ctx)
	require.NoError(t, err)
	assert.Empty(t, trips, "local trips namespace is cleared after a clean run")
}

func TestMigrateEmptyStoreIsNoOp(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()

	first := migrate.NewEngine(loc, rem, nil).Run(ctx)
	second := migrate.NewEngine(loc, rem, nil).Run(ctx)

	for _, res := range []migrate.Result{first, second} {
		assert.Zero(t, res.Trips)
		assert.Zero(t, res.Collections)
		assert.Zero(t, res.Places)
		assert.Empty(t, res.Errors)
		assert.False(t, res.Success())
	}
	assert.Empty(t, rem.calls)
}

func TestEngineRunsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()

	_, err := loc.CreateTrip(ctx, &models.Trip{Title: "only once"})
	require.NoError(t, err)

	eng := migrate.NewEngine(loc, rem, nil)
	first := eng.Run(ctx)
	second := eng.Run(ctx)

	assert.Equal(t, 1, first.Trips)
	assert.Zero(t, second.Trips)
	assert.Len(t, rem.trips, 1)
}

func TestPartialFailureKeepsLocalData(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()
	rem.failOn["unlucky place"] = true

	_, err := loc.CreatePlace(ctx, &models.Place{Name: "lucky place"})
	require.NoError(t, err)
	_, err = loc.CreatePlace(ctx, &models.Place{Name: "unlucky place"})
	require.NoError(t, err)
	_, err = loc.CreateTrip(ctx, &models.Trip{Title: "a trip"})
	require.NoError(t, err)

	res := migrate.NewEngine(loc, rem, nil).Run(ctx)

	assert.Equal(t, 1, res.Places)
	assert.Equal(t, 1, res.Trips, "a failed place does not abort the trips")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "place", res.Errors[0].Kind)
	assert.True(t, res.Success())
	assert.False(t, res.Clean())

	// nothing was lost locally
	places, err := loc.ListPlaces(ctx)
	require.NoError(t, err)
	assert.Len(t, places, 2)
	trips, err := loc.ListTrips(ctx)
	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func TestWaypointPlaceReferencesAreRemapped(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()

	place, err := loc.CreatePlace(ctx, &models.Place{Name: "harbor"})
	require.NoError(t, err)
	trip, err := loc.CreateTrip(ctx, &models.Trip{Title: "sailing"})
	require.NoError(t, err)
	_, err = loc.AddWaypoint(ctx, trip.ID, models.Waypoint{PlaceID: place.ID})
	require.NoError(t, err)

	res := migrate.NewEngine(loc, rem, nil).Run(ctx)
	require.True(t, res.Clean())

	require.Len(t, rem.trips, 1)
	require.Len(t, rem.trips[0].Waypoints, 1)
	wp := rem.trips[0].Waypoints[0]
	assert.Equal(t, rem.placeIDs["harbor"], wp.PlaceID, "waypoint points at the server-assigned place id")
	assert.False(t, models.IsLocalID(wp.PlaceID))
	assert.Empty(t, wp.ID, "server assigns waypoint identifiers")
}

func TestMigrationOrderIsCollectionsPlacesTrips(t *testing.T) {
	ctx := context.Background()
	loc := newLocal(t)
	rem := newFakeRemote()

	_, err := loc.CreateTrip(ctx, &models.Trip{Title: "t"})
	require.NoError(t, err)
	_, err = loc.CreatePlace(ctx, &models.Place{Name: "p"})
	require.NoError(t, err)
	_, err = loc.CreateCollection(ctx, &models.Collection{Name: "c"})
	require.NoError(t, err)

	migrate.NewEngine(loc, rem, nil).Run(ctx)

	require.Equal(t, []string{"collection:c", "place:p", "trip:t"}, rem.calls)
}
