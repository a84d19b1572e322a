package store

import (
	"context"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// Selector routes every call to the adapter matching the session's
// authentication state at call time. The state is re-read per call, so a
// long-lived caller holding the Selector transparently switches backing
// store across a login event without re-instantiation.
type Selector struct {
	local         Store
	remote        Store
	authenticated func() bool
}

var _ Store = (*Selector)(nil)

// NewSelector builds a Selector over the two adapters. authenticated is
// consulted on every call and must be cheap and side-effect free.
func NewSelector(local, remote Store, authenticated func() bool) *Selector {
	return &Selector{local: local, remote: remote, authenticated: authenticated}
}

// Current resolves the authoritative adapter for this instant.
func (s *Selector) Current() Store {
	if s.authenticated() {
		return s.remote
	}
	return s.local
}

func (s *Selector) CreateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	return s.Current().CreateTrip(ctx, trip)
}

func (s *Selector) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	return s.Current().GetTrip(ctx, id)
}

func (s *Selector) ListTrips(ctx context.Context) ([]*models.Trip, error) {
	return s.Current().ListTrips(ctx)
}

func (s *Selector) UpdateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	return s.Current().UpdateTrip(ctx, trip)
}

func (s *Selector) DeleteTrip(ctx context.Context, id string) error {
	return s.Current().DeleteTrip(ctx, id)
}

func (s *Selector) CreatePlace(ctx context.Context, place *models.Place) (*models.Place, error) {
	return s.Current().CreatePlace(ctx, place)
}

func (s *Selector) GetPlace(ctx context.Context, id string) (*models.Place, error) {
	return s.Current().GetPlace(ctx, id)
}

func (s *Selector) ListPlaces(ctx context.Context) ([]*models.Place, error) {
	return s.Current().ListPlaces(ctx)
}

func (s *Selector) UpdatePlace(ctx context.Context, place *models.Place) (*models.Place, error) {
	return s.Current().UpdatePlace(ctx, place)
}

func (s *Selector) DeletePlace(ctx context.Context, id string) error {
	return s.Current().DeletePlace(ctx, id)
}

func (s *Selector) CreateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	return s.Current().CreateCollection(ctx, col)
}

func (s *Selector) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	return s.Current().GetCollection(ctx, id)
}

func (s *Selector) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	return s.Current().ListCollections(ctx)
}

func (s *Selector) UpdateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	return s.Current().UpdateCollection(ctx, col)
}

func (s *Selector) DeleteCollection(ctx context.Context, id string) error {
	return s.Current().DeleteCollection(ctx, id)
}

func (s *Selector) AddWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	return s.Current().AddWaypoint(ctx, tripID, wp)
}

func (s *Selector) UpdateWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	return s.Current().UpdateWaypoint(ctx, tripID, wp)
}

func (s *Selector) RemoveWaypoint(ctx context.Context, tripID, waypointID string) (*models.Trip, error) {
	return s.Current().RemoveWaypoint(ctx, tripID, waypointID)
}

func (s *Selector) ReorderWaypoints(ctx context.Context, tripID string, orderedIDs []string) (*models.Trip, error) {
	return s.Current().ReorderWaypoints(ctx, tripID, orderedIDs)
}
