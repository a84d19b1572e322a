// Package models contains the core data types for the wanderplan client.
// This package has no dependencies on the storage or realtime layers and
// is imported by every other package in the module.
package models

import (
	"strings"
	"time"
)

// Privacy controls who can see a trip or collection.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

// TripStatus tracks where a trip is in its lifecycle.
type TripStatus string

const (
	TripPlanning  TripStatus = "planning"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// localIDPrefix marks identifiers minted on the device before the entity
// has ever been written to the server. Server-issued identifiers never
// carry the prefix, so an entity is unambiguously one or the other.
const localIDPrefix = "local-"

// IsLocalID reports whether id was generated on the device.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// LocalID turns a random token into a device-origin identifier.
func LocalID(token string) string {
	return localIDPrefix + token
}

// Trip is the top-level aggregate; waypoints belong to a trip.
type Trip struct {
	ID            string     `json:"id" cbor:"id"`
	Title         string     `json:"title" cbor:"title"`
	Description   string     `json:"description,omitempty" cbor:"description,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty" cbor:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty" cbor:"end_date,omitempty"`
	Privacy       Privacy    `json:"privacy" cbor:"privacy"`
	Status        TripStatus `json:"status" cbor:"status"`
	Waypoints     []Waypoint `json:"waypoints" cbor:"waypoints"`
	Collaborators []string   `json:"collaborators,omitempty" cbor:"collaborators,omitempty"`
	MediaRefs     []string   `json:"media_refs,omitempty" cbor:"media_refs,omitempty"`
	CreatedAt     time.Time  `json:"created_at" cbor:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" cbor:"updated_at"`
}

// Waypoint is a stop inside a trip, ordered by Position.
type Waypoint struct {
	ID        string     `json:"id" cbor:"id"`
	TripID    string     `json:"trip_id" cbor:"trip_id"`
	PlaceID   string     `json:"place_id,omitempty" cbor:"place_id,omitempty"`
	Arrival   *time.Time `json:"arrival,omitempty" cbor:"arrival,omitempty"`
	Departure *time.Time `json:"departure,omitempty" cbor:"departure,omitempty"`
	Notes     string     `json:"notes,omitempty" cbor:"notes,omitempty"`
	Position  int        `json:"position" cbor:"position"`
}

// Place is a saved location.
type Place struct {
	ID          string     `json:"id" cbor:"id"`
	Name        string     `json:"name" cbor:"name"`
	Description string     `json:"description,omitempty" cbor:"description,omitempty"`
	Category    string     `json:"category,omitempty" cbor:"category,omitempty"`
	Coordinate  Coordinate `json:"coordinate" cbor:"coordinate"`
	Address     Address    `json:"address,omitempty" cbor:"address,omitempty"`
	Tags        []string   `json:"tags,omitempty" cbor:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at" cbor:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" cbor:"updated_at"`
}

// Address holds the human-readable location of a place.
type Address struct {
	Street  string `json:"street,omitempty" cbor:"street,omitempty"`
	City    string `json:"city,omitempty" cbor:"city,omitempty"`
	Region  string `json:"region,omitempty" cbor:"region,omitempty"`
	Country string `json:"country,omitempty" cbor:"country,omitempty"`
	Postal  string `json:"postal,omitempty" cbor:"postal,omitempty"`
}

// Collection is an ordered list of saved locations.
type Collection struct {
	ID          string    `json:"id" cbor:"id"`
	Name        string    `json:"name" cbor:"name"`
	Description string    `json:"description,omitempty" cbor:"description,omitempty"`
	Privacy     Privacy   `json:"privacy" cbor:"privacy"`
	PlaceIDs    []string  `json:"place_ids" cbor:"place_ids"`
	CreatedAt   time.Time `json:"created_at" cbor:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" cbor:"updated_at"`
}

// TempMarker is a short-lived map pin. It is UI-scoped and never migrated
// to the server.
type TempMarker struct {
	ID         string     `json:"id" cbor:"id"`
	Coordinate Coordinate `json:"coordinate" cbor:"coordinate"`
	CreatedAt  time.Time  `json:"created_at" cbor:"created_at"`
}
