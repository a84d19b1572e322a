// Package local implements the data-access contract against the
// on-device durable store. It owns entities created while the session is
// anonymous and mints client-generated identifiers; the migration engine
// later promotes its contents to the remote store.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan-go/internal/kvstore"
	"github.com/wanderplan/wanderplan-go/internal/rand"
	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/store"
)

// Adapter is the local-store implementation of store.Store.
type Adapter struct {
	kv  *kvstore.Store
	now func() time.Time
}

var _ store.Store = (*Adapter)(nil)

func New(kv *kvstore.Store) *Adapter {
	return &Adapter{kv: kv, now: time.Now}
}

// newID mints a device-origin identifier. The prefix keeps local and
// server identifier spaces disjoint.
func newID() string {
	return models.LocalID(uuid.NewString())
}

// Trips

func (a *Adapter) CreateTrip(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := store.ValidateTrip(trip); err != nil {
		return nil, err
	}

	created := *trip
	created.ID = newID()
	if created.Privacy == "" {
		created.Privacy = models.PrivacyPrivate
	}
	if created.Status == "" {
		created.Status = models.TripPlanning
	}
	if created.Waypoints == nil {
		created.Waypoints = []models.Waypoint{}
	}
	created.CreatedAt = a.now()
	created.UpdatedAt = created.CreatedAt

	a.putTrip(&created)
	return &created, nil
}

func (a *Adapter) GetTrip(_ context.Context, id string) (*models.Trip, error) {
	return a.findTrip(id), nil
}

func (a *Adapter) ListTrips(_ context.Context) ([]*models.Trip, error) {
	rows := a.kv.Get(kvstore.NamespaceTrips)
	trips := make([]*models.Trip, 0, len(rows))
	for _, row := range rows {
		var trip models.Trip
		if err := cbor.Unmarshal(row.Payload, &trip); err != nil {
			continue
		}
		trips = append(trips, &trip)
	}
	return trips, nil
}

func (a *Adapter) UpdateTrip(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := store.ValidateTrip(trip); err != nil {
		return nil, err
	}
	existing := a.findTrip(trip.ID)
	if existing == nil {
		return nil, fmt.Errorf("%w: trip %s", store.ErrNotFound, trip.ID)
	}

	updated := *trip
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = a.now()
	if updated.Waypoints == nil {
		updated.Waypoints = existing.Waypoints
	}

	a.putTrip(&updated)
	return &updated, nil
}

func (a *Adapter) DeleteTrip(_ context.Context, id string) error {
	a.kv.Delete(kvstore.NamespaceTrips, id)
	return nil
}

// Places

func (a *Adapter) CreatePlace(_ context.Context, place *models.Place) (*models.Place, error) {
	if err := store.ValidatePlace(place); err != nil {
		return nil, err
	}

	created := *place
	created.ID = newID()
	created.CreatedAt = a.now()
	created.UpdatedAt = created.CreatedAt

	a.putPlace(&created)
	return &created, nil
}

func (a *Adapter) GetPlace(_ context.Context, id string) (*models.Place, error) {
	rows := a.kv.Get(kvstore.NamespacePlaces)
	for _, row := range rows {
		if row.ID != id {
			continue
		}
		var place models.Place
		if err := cbor.Unmarshal(row.Payload, &place); err != nil {
			return nil, nil
		}
		return &place, nil
	}
	return nil, nil
}

func (a *Adapter) ListPlaces(_ context.Context) ([]*models.Place, error) {
	rows := a.kv.Get(kvstore.NamespacePlaces)
	places := make([]*models.Place, 0, len(rows))
	for _, row := range rows {
		var place models.Place
		if err := cbor.Unmarshal(row.Payload, &place); err != nil {
			continue
		}
		places = append(places, &place)
	}
	return places, nil
}

func (a *Adapter) UpdatePlace(ctx context.Context, place *models.Place) (*models.Place, error) {
	if err := store.ValidatePlace(place); err != nil {
		return nil, err
	}
	existing, _ := a.GetPlace(ctx, place.ID)
	if existing == nil {
		return nil, fmt.Errorf("%w: place %s", store.ErrNotFound, place.ID)
	}

	updated := *place
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = a.now()

	a.putPlace(&updated)
	return &updated, nil
}

func (a *Adapter) DeletePlace(_ context.Context, id string) error {
	a.kv.Delete(kvstore.NamespacePlaces, id)
	return nil
}

// Collections

func (a *Adapter) CreateCollection(_ context.Context, col *models.Collection) (*models.Collection, error) {
	if err := store.ValidateCollection(col); err != nil {
		return nil, err
	}

	created := *col
	created.ID = newID()
	if created.Privacy == "" {
		created.Privacy = models.PrivacyPrivate
	}
	if created.PlaceIDs == nil {
		created.PlaceIDs = []string{}
	}
	created.CreatedAt = a.now()
	created.UpdatedAt = created.CreatedAt

	a.putCollection(&created)
	return &created, nil
}

func (a *Adapter) GetCollection(_ context.Context, id string) (*models.Collection, error) {
	rows := a.kv.Get(kvstore.NamespaceCollections)
	for _, row := range rows {
		if row.ID != id {
			continue
		}
		var col models.Collection
		if err := cbor.Unmarshal(row.Payload, &col); err != nil {
			return nil, nil
		}
		return &col, nil
	}
	return nil, nil
}

func (a *Adapter) ListCollections(_ context.Context) ([]*models.Collection, error) {
	rows := a.kv.Get(kvstore.NamespaceCollections)
	cols := make([]*models.Collection, 0, len(rows))
	for _, row := range rows {
		var col models.Collection
		if err := cbor.Unmarshal(row.Payload, &col); err != nil {
			continue
		}
		cols = append(cols, &col)
	}
	return cols, nil
}

func (a *Adapter) UpdateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	if err := store.ValidateCollection(col); err != nil {
		return nil, err
	}
	existing, _ := a.GetCollection(ctx, col.ID)
	if existing == nil {
		return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, col.ID)
	}

	updated := *col
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = a.now()

	a.putCollection(&updated)
	return &updated, nil
}

func (a *Adapter) DeleteCollection(_ context.Context, id string) error {
	a.kv.Delete(kvstore.NamespaceCollections, id)
	return nil
}

// Waypoints

func (a *Adapter) AddWaypoint(_ context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	if err := store.ValidateWaypoint(wp); err != nil {
		return nil, err
	}
	trip := a.findTrip(tripID)
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %s", store.ErrNotFound, tripID)
	}

	wp.ID = newID()
	wp.TripID = tripID
	wp.Position = len(trip.Waypoints)
	trip.Waypoints = append(trip.Waypoints, wp)
	trip.UpdatedAt = a.now()

	a.putTrip(trip)
	return trip, nil
}

func (a *Adapter) UpdateWaypoint(_ context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	if err := store.ValidateWaypoint(wp); err != nil {
		return nil, err
	}
	trip := a.findTrip(tripID)
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %s", store.ErrNotFound, tripID)
	}

	idx := waypointIndex(trip.Waypoints, wp.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: waypoint %s", store.ErrNotFound, wp.ID)
	}

	wp.TripID = tripID
	wp.Position = trip.Waypoints[idx].Position
	trip.Waypoints[idx] = wp
	trip.UpdatedAt = a.now()

	a.putTrip(trip)
	return trip, nil
}

func (a *Adapter) RemoveWaypoint(_ context.Context, tripID, waypointID string) (*models.Trip, error) {
	trip := a.findTrip(tripID)
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %s", store.ErrNotFound, tripID)
	}

	idx := waypointIndex(trip.Waypoints, waypointID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: waypoint %s", store.ErrNotFound, waypointID)
	}

	trip.Waypoints = append(trip.Waypoints[:idx], trip.Waypoints[idx+1:]...)
	for i := range trip.Waypoints {
		trip.Waypoints[i].Position = i
	}
	trip.UpdatedAt = a.now()

	a.putTrip(trip)
	return trip, nil
}

// ReorderWaypoints rearranges the trip's waypoints to match orderedIDs.
// The order must be a permutation of the current waypoint set; anything
// else is a validation error, so no waypoint is ever lost or duplicated.
func (a *Adapter) ReorderWaypoints(_ context.Context, tripID string, orderedIDs []string) (*models.Trip, error) {
	trip := a.findTrip(tripID)
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %s", store.ErrNotFound, tripID)
	}

	reordered, err := store.ReorderWaypointList(trip.Waypoints, orderedIDs)
	if err != nil {
		return nil, err
	}
	trip.Waypoints = reordered
	trip.UpdatedAt = a.now()

	a.putTrip(trip)
	return trip, nil
}

// Temporary markers. Markers are UI-scoped: they live only in the local
// store, are not part of the Store contract, and are never migrated.

func (a *Adapter) SaveMarker(marker models.TempMarker) models.TempMarker {
	if marker.ID == "" {
		// markers never cross the migration boundary, so a short random
		// ID is enough; no need for the local prefix
		marker.ID = "mk-" + rand.String(8)
	}
	if marker.CreatedAt.IsZero() {
		marker.CreatedAt = a.now()
	}
	data, err := cbor.Marshal(marker)
	if err != nil {
		return marker
	}
	a.kv.Put(kvstore.NamespaceMarkers, marker.ID, data)
	return marker
}

func (a *Adapter) ListMarkers() []models.TempMarker {
	rows := a.kv.Get(kvstore.NamespaceMarkers)
	markers := make([]models.TempMarker, 0, len(rows))
	for _, row := range rows {
		var m models.TempMarker
		if err := cbor.Unmarshal(row.Payload, &m); err != nil {
			continue
		}
		markers = append(markers, m)
	}
	return markers
}

func (a *Adapter) DeleteMarker(id string) {
	a.kv.Delete(kvstore.NamespaceMarkers, id)
}

// ClearAll wipes every entity namespace. The migration engine calls this
// after a fully successful promotion to the remote store; nothing else
// should. Markers are left alone: they never migrate, so there is
// nothing on the server replacing them.
func (a *Adapter) ClearAll() {
	for _, ns := range []string{
		kvstore.NamespaceTrips,
		kvstore.NamespaceCollections,
		kvstore.NamespacePlaces,
	} {
		a.kv.Clear(ns)
	}
}

// helpers

func (a *Adapter) findTrip(id string) *models.Trip {
	rows := a.kv.Get(kvstore.NamespaceTrips)
	for _, row := range rows {
		if row.ID != id {
			continue
		}
		var trip models.Trip
		if err := cbor.Unmarshal(row.Payload, &trip); err != nil {
			return nil
		}
		return &trip
	}
	return nil
}

func (a *Adapter) putTrip(trip *models.Trip) {
	data, err := cbor.Marshal(trip)
	if err != nil {
		return
	}
	a.kv.Put(kvstore.NamespaceTrips, trip.ID, data)
}

func (a *Adapter) putPlace(place *models.Place) {
	data, err := cbor.Marshal(place)
	if err != nil {
		return
	}
	a.kv.Put(kvstore.NamespacePlaces, place.ID, data)
}

func (a *Adapter) putCollection(col *models.Collection) {
	data, err := cbor.Marshal(col)
	if err != nil {
		return
	}
	a.kv.Put(kvstore.NamespaceCollections, col.ID, data)
}

func waypointIndex(wps []models.Waypoint, id string) int {
	for i, wp := range wps {
		if wp.ID == id {
			return i
		}
	}
	return -1
}
