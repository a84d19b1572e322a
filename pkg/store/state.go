package store

import (
	"sync"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// State is the shared application state tree. Direct mutations (through
// an adapter) and server-pushed mutations (through the realtime channel)
// both land here, so the two event sources converge on one view. The
// two sources are not serialized against each other: the last write
// wins, and the remote store remains the source of truth.
//
// Values are stored by copy. Readers get snapshots and never see a
// half-applied mutation.
type State struct {
	mu          sync.RWMutex
	trips       map[string]models.Trip
	places      map[string]models.Place
	collections map[string]models.Collection
}

func NewState() *State {
	return &State{
		trips:       make(map[string]models.Trip),
		places:      make(map[string]models.Place),
		collections: make(map[string]models.Collection),
	}
}

func (s *State) UpsertTrip(trip models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = trip
}

func (s *State) RemoveTrip(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trips, id)
}

// Trip returns a copy of the trip, or false when absent.
func (s *State) Trip(id string) (models.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trip, ok := s.trips[id]
	return trip, ok
}

func (s *State) Trips() []models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		out = append(out, t)
	}
	return out
}

func (s *State) UpsertPlace(place models.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[place.ID] = place
}

func (s *State) RemovePlace(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.places, id)
}

func (s *State) Place(id string) (models.Place, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	place, ok := s.places[id]
	return place, ok
}

func (s *State) Places() []models.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Place, 0, len(s.places))
	for _, p := range s.places {
		out = append(out, p)
	}
	return out
}

func (s *State) UpsertCollection(col models.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[col.ID] = col
}

func (s *State) RemoveCollection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
}

func (s *State) Collection(id string) (models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[id]
	return col, ok
}

func (s *State) Collections() []models.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c)
	}
	return out
}
