// Package migrate promotes entities created while anonymous from the
// on-device store into the remote store after login.
//
// The run is best-effort with per-item failure isolation: one entity
// failing to migrate never aborts the rest, and the local store is only
// cleared when every single item made it across. A partial run leaves
// the local data untouched so the user can retry or recover manually.
package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/wanderplan/wanderplan-go/pkg/logger"
	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/store"
	"github.com/wanderplan/wanderplan-go/pkg/store/local"
)

// ItemError describes one entity that failed to migrate.
type ItemError struct {
	Kind    string `json:"kind"` // "trip", "collection", "place"
	LocalID string `json:"local_id"`
	Message string `json:"message"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.LocalID, e.Message)
}

// Result is the outcome of one migration run. It is produced once per
// run and not persisted.
type Result struct {
	Trips       int
	Collections int
	Places      int
	Errors      []ItemError
}

// Success reports whether at least one item migrated.
func (r Result) Success() bool {
	return r.Trips+r.Collections+r.Places > 0
}

// Clean reports a run where everything that existed migrated.
func (r Result) Clean() bool {
	return r.Success() && len(r.Errors) == 0
}

// Engine copies every local entity into the remote store. One engine
// serves one anonymous-to-authenticated transition; Run refuses to
// execute twice, so a retry loop around login cannot double-migrate.
type Engine struct {
	local  *local.Adapter
	remote store.Store
	log    logger.Logger

	mu  sync.Mutex
	ran bool
}

func NewEngine(localAdapter *local.Adapter, remote store.Store, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{local: localAdapter, remote: remote, log: log}
}

// Run migrates collections, then places, then trips. Places record an
// old-to-new identifier mapping, and trip waypoints are remapped through
// it so no waypoint keeps a stale device-origin place reference.
// Per-item failures are collected into the Result, never returned as an
// error. Running against an empty local store yields an all-zero Result.
func (e *Engine) Run(ctx context.Context) Result {
	e.mu.Lock()
	if e.ran {
		e.mu.Unlock()
		e.log.Debug("migration already ran for this login")
		return Result{}
	}
	e.ran = true
	e.mu.Unlock()

	var res Result
	attempted := 0

	// Collections first; their saved-location lists are carried as-is
	// since cross-namespace references are resolved at display time.
	cols, _ := e.local.ListCollections(ctx)
	for _, col := range cols {
		attempted++
		payload := *col
		payload.ID = ""
		if _, err := e.remote.CreateCollection(ctx, &payload); err != nil {
			res.Errors = append(res.Errors, ItemError{Kind: "collection", LocalID: col.ID, Message: err.Error()})
			continue
		}
		res.Collections++
	}

	// Places next, remembering the identifier each one is assigned.
	placeIDs := make(map[string]string)
	places, _ := e.local.ListPlaces(ctx)
	for _, place := range places {
		attempted++
		payload := *place
		payload.ID = ""
		created, err := e.remote.CreatePlace(ctx, &payload)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{Kind: "place", LocalID: place.ID, Message: err.Error()})
			continue
		}
		placeIDs[place.ID] = created.ID
		res.Places++
	}

	// Trips last, with waypoint place references remapped to the
	// canonical identifiers assigned above.
	trips, _ := e.local.ListTrips(ctx)
	for _, trip := range trips {
		attempted++
		payload := *trip
		payload.ID = ""
		payload.Waypoints = remapWaypoints(trip.Waypoints, placeIDs)
		if _, err := e.remote.CreateTrip(ctx, &payload); err != nil {
			res.Errors = append(res.Errors, ItemError{Kind: "trip", LocalID: trip.ID, Message: err.Error()})
			continue
		}
		res.Trips++
	}

	switch {
	case attempted == 0:
		e.log.Debug("nothing to migrate")
	case res.Clean():
		e.local.ClearAll()
		e.log.Info("local data migrated",
			"trips", res.Trips, "collections", res.Collections, "places", res.Places)
	case res.Success():
		e.log.Warn("migration partially failed, local data kept",
			"migrated", res.Trips+res.Collections+res.Places, "failed", len(res.Errors))
	default:
		e.log.Error("migration failed, local data kept", "failed", len(res.Errors))
	}

	return res
}

// remapWaypoints rewrites device-origin place references through the
// migration's identifier map. Waypoint identifiers are cleared so the
// server assigns canonical ones; a place that failed to migrate keeps
// its old reference for later re-resolution.
func remapWaypoints(wps []models.Waypoint, placeIDs map[string]string) []models.Waypoint {
	out := make([]models.Waypoint, len(wps))
	for i, wp := range wps {
		wp.ID = ""
		wp.TripID = ""
		if newID, ok := placeIDs[wp.PlaceID]; ok {
			wp.PlaceID = newID
		}
		out[i] = wp
	}
	return out
}
