package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/store"
	"github.com/wanderplan/wanderplan-go/pkg/store/remote"
)

// tripServer is a minimal stand-in for the backend's trip endpoints. It
// assigns server identifiers on create and remembers the Authorization
// header of the last request.
type tripServer struct {
	trips    map[string]models.Trip
	nextID   int
	lastAuth string
}

func newTripServer() *tripServer {
	return &tripServer{trips: make(map[string]models.Trip)}
}

func (s *tripServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trips", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		switch r.Method {
		case http.MethodPost:
			var trip models.Trip
			_ = json.NewDecoder(r.Body).Decode(&trip)
			if trip.Title == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "title required"})
				return
			}
			s.nextID++
			trip.ID = fmt.Sprintf("srv-%d", s.nextID)
			s.trips[trip.ID] = trip
			_ = json.NewEncoder(w).Encode(trip)
		case http.MethodGet:
			out := make([]models.Trip, 0, len(s.trips))
			for _, t := range s.trips {
				out = append(out, t)
			}
			_ = json.NewEncoder(w).Encode(out)
		}
	})
	mux.HandleFunc("/trips/", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		id := strings.TrimPrefix(r.URL.Path, "/trips/")
		trip, ok := s.trips[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(trip)
		case http.MethodPut:
			var in models.Trip
			_ = json.NewDecoder(r.Body).Decode(&in)
			in.ID = id
			s.trips[id] = in
			_ = json.NewEncoder(w).Encode(in)
		case http.MethodDelete:
			delete(s.trips, id)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return mux
}

func newAdapter(t *testing.T, token string) (*remote.Adapter, *tripServer) {
	t.Helper()
	srv := newTripServer()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	return remote.New(ts.URL, func() string { return token }, ts.Client()), srv
}

func TestCreateTripServerAssignsID(t *testing.T) {
	a, _ := newAdapter(t, "tok-1")
	ctx := context.Background()

	created, err := a.CreateTrip(ctx, &models.Trip{ID: "local-abc", Title: "Norway fjords"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID, "server replaces the local identifier")
	assert.False(t, models.IsLocalID(created.ID))
}

func TestGetMissingTripIsAbsentNotError(t *testing.T) {
	a, _ := newAdapter(t, "tok-1")

	trip, err := a.GetTrip(context.Background(), "srv-999")
	require.NoError(t, err)
	assert.Nil(t, trip)
}

func TestUpdateMissingTripIsNotFound(t *testing.T) {
	a, _ := newAdapter(t, "tok-1")

	_, err := a.UpdateTrip(context.Background(), &models.Trip{ID: "srv-999", Title: "x"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidationHappensBeforeTheWire(t *testing.T) {
	a, srv := newAdapter(t, "tok-1")

	_, err := a.CreateTrip(context.Background(), &models.Trip{})
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Empty(t, srv.lastAuth, "invalid entities never reach the backend")
}

func TestTokenIsReadPerRequest(t *testing.T) {
	srv := newTripServer()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	token := "tok-before"
	a := remote.New(ts.URL, func() string { return token }, ts.Client())
	ctx := context.Background()

	_, err := a.CreateTrip(ctx, &models.Trip{Title: "one"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-before", srv.lastAuth)

	token = "tok-after"
	_, err = a.ListTrips(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-after", srv.lastAuth)
}

func TestServerFailureMapsToTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	a := remote.New(ts.URL, func() string { return "" }, ts.Client())
	_, err := a.ListTrips(context.Background())
	require.ErrorIs(t, err, store.ErrTransport)
}

func TestUnreachableBackendMapsToTransport(t *testing.T) {
	a := remote.New("http://127.0.0.1:1", func() string { return "" }, nil)
	_, err := a.ListTrips(context.Background())
	require.ErrorIs(t, err, store.ErrTransport)
}

func TestDeleteTrip(t *testing.T) {
	a, srv := newAdapter(t, "tok-1")
	ctx := context.Background()

	created, err := a.CreateTrip(ctx, &models.Trip{Title: "short lived"})
	require.NoError(t, err)
	require.NoError(t, a.DeleteTrip(ctx, created.ID))
	assert.Empty(t, srv.trips)
}
