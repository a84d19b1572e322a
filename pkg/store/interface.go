// Package store defines the data-access contract both backing stores
// implement, the shared application state tree, and the selector that
// routes every call to the adapter matching the current session state.
//
// Two adapters exist: the local adapter persists to the on-device store
// and mints client-generated identifiers, the remote adapter talks to
// the authoritative backend which assigns canonical identifiers. UI code
// consumes the contract without knowing which adapter serves a call.
package store

import (
	"context"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// Store is the data-access contract.
//
// Create methods return the canonical entity, with the identifier
// assigned by the backing store. Get methods return nil without error
// for missing entities; List methods return empty slices, never nil.
// Update methods replace the entity and return ErrNotFound when the
// identifier is unknown. Delete methods are idempotent. All methods
// take a context for the underlying I/O; in-flight calls are
// fire-to-completion, a caller may ignore a late result.
type Store interface {
	CreateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	ListTrips(ctx context.Context) ([]*models.Trip, error)
	UpdateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	DeleteTrip(ctx context.Context, id string) error

	CreatePlace(ctx context.Context, place *models.Place) (*models.Place, error)
	GetPlace(ctx context.Context, id string) (*models.Place, error)
	ListPlaces(ctx context.Context) ([]*models.Place, error)
	UpdatePlace(ctx context.Context, place *models.Place) (*models.Place, error)
	DeletePlace(ctx context.Context, id string) error

	CreateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error)
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]*models.Collection, error)
	UpdateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error

	// Waypoint sub-operations are scoped to a trip and return the trip
	// with its updated waypoint list.
	AddWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error)
	UpdateWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error)
	RemoveWaypoint(ctx context.Context, tripID, waypointID string) (*models.Trip, error)
	ReorderWaypoints(ctx context.Context, tripID string, orderedIDs []string) (*models.Trip, error)
}
