package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// Kind names a push event type.
type Kind string

const (
	KindEntityCreated Kind = "entity_created"
	KindEntityUpdated Kind = "entity_updated"
	KindEntityDeleted Kind = "entity_deleted"

	KindWaypointAdded     Kind = "waypoint_added"
	KindWaypointUpdated   Kind = "waypoint_updated"
	KindWaypointRemoved   Kind = "waypoint_removed"
	KindWaypointReordered Kind = "waypoint_reordered"

	KindCollaboratorJoined Kind = "collaborator_joined"
	KindCollaboratorLeft   Kind = "collaborator_left"
	KindCursorMoved        Kind = "cursor_moved"
	KindTyping             Kind = "typing"
)

// EntityKind discriminates which entity an entity_* event carries.
type EntityKind string

const (
	EntityTrip       EntityKind = "trip"
	EntityPlace      EntityKind = "place"
	EntityCollection EntityKind = "collection"
)

// Event is one inbound push event. Payload holds exactly one variant
// matching Kind; the dispatcher type-switches over it exhaustively.
type Event struct {
	Kind    Kind
	Room    string
	Payload Payload
}

// Payload is the closed set of event payload variants.
type Payload interface{ isPayload() }

// EntityChange carries the entity for entity_created and entity_updated.
// Exactly one of Trip, Place, Collection is non-nil, matching EntityKind.
type EntityChange struct {
	EntityKind EntityKind         `json:"entity_kind"`
	Trip       *models.Trip       `json:"trip,omitempty"`
	Place      *models.Place      `json:"place,omitempty"`
	Collection *models.Collection `json:"collection,omitempty"`
}

// EntityDelete carries the identifier for entity_deleted.
type EntityDelete struct {
	EntityKind EntityKind `json:"entity_kind"`
	ID         string     `json:"id"`
}

// WaypointChange carries waypoint_added and waypoint_updated.
type WaypointChange struct {
	TripID   string          `json:"trip_id"`
	Waypoint models.Waypoint `json:"waypoint"`
}

// WaypointRemove carries waypoint_removed.
type WaypointRemove struct {
	TripID     string `json:"trip_id"`
	WaypointID string `json:"waypoint_id"`
}

// WaypointReorder carries waypoint_reordered.
type WaypointReorder struct {
	TripID     string   `json:"trip_id"`
	OrderedIDs []string `json:"ordered_ids"`
}

// CollaboratorChange carries collaborator_joined and collaborator_left.
type CollaboratorChange struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// CursorMove carries cursor_moved.
type CursorMove struct {
	UserID      string            `json:"user_id"`
	DisplayName string            `json:"display_name,omitempty"`
	Coordinate  models.Coordinate `json:"coordinate"`
}

// Typing carries typing.
type Typing struct {
	UserID string `json:"user_id"`
	Active bool   `json:"active"`
}

func (EntityChange) isPayload()       {}
func (EntityDelete) isPayload()       {}
func (WaypointChange) isPayload()     {}
func (WaypointRemove) isPayload()     {}
func (WaypointReorder) isPayload()    {}
func (CollaboratorChange) isPayload() {}
func (CursorMove) isPayload()         {}
func (Typing) isPayload()             {}

// frame is the wire shape of every message in both directions.
type frame struct {
	Type    string          `json:"type"` // "event", "join", "leave", "cursor", "typing"
	Room    string          `json:"room,omitempty"`
	Kind    Kind            `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// decodeEvent turns an inbound event frame into a typed Event. Unknown
// kinds are an error so a listener can never receive an untyped payload.
func decodeEvent(f frame) (Event, error) {
	ev := Event{Kind: f.Kind, Room: f.Room}

	var payload Payload
	switch f.Kind {
	case KindEntityCreated, KindEntityUpdated:
		payload = &EntityChange{}
	case KindEntityDeleted:
		payload = &EntityDelete{}
	case KindWaypointAdded, KindWaypointUpdated:
		payload = &WaypointChange{}
	case KindWaypointRemoved:
		payload = &WaypointRemove{}
	case KindWaypointReordered:
		payload = &WaypointReorder{}
	case KindCollaboratorJoined, KindCollaboratorLeft:
		payload = &CollaboratorChange{}
	case KindCursorMoved:
		payload = &CursorMove{}
	case KindTyping:
		payload = &Typing{}
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", f.Kind)
	}

	if err := json.Unmarshal(f.Payload, payload); err != nil {
		return Event{}, fmt.Errorf("decode %s payload: %w", f.Kind, err)
	}
	ev.Payload = deref(payload)
	return ev, nil
}

// deref unwraps the pointer used for unmarshaling so listeners receive
// value payloads.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *EntityChange:
		return *v
	case *EntityDelete:
		return *v
	case *WaypointChange:
		return *v
	case *WaypointRemove:
		return *v
	case *WaypointReorder:
		return *v
	case *CollaboratorChange:
		return *v
	case *CursorMove:
		return *v
	case *Typing:
		return *v
	}
	return p
}
