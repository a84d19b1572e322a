// Package remote implements the data-access contract against the
// authoritative REST backend. The server assigns canonical identifiers
// on create; entity payloads map one-to-one to the models package.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/store"
)

// Adapter is the remote-store implementation of store.Store.
type Adapter struct {
	baseURL string
	client  *http.Client
	token   func() string
}

var _ store.Store = (*Adapter)(nil)

// New builds an Adapter against baseURL. token is read per request so a
// refreshed access token takes effect without rebuilding the adapter.
// httpClient may be nil, in which case a client with a 15s timeout is
// used; adapter calls are fire-to-completion beyond that.
func New(baseURL string, token func() string, httpClient *http.Client) *Adapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Adapter{baseURL: baseURL, client: httpClient, token: token}
}

// Trips

func (a *Adapter) CreateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := store.ValidateTrip(trip); err != nil {
		return nil, err
	}
	var created models.Trip
	if err := a.do(ctx, http.MethodPost, "/trips", stripID(trip), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *Adapter) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := a.do(ctx, http.MethodGet, "/trips/"+url.PathEscape(id), nil, &trip)
	return absentOnNotFound(&trip, err)
}

func (a *Adapter) ListTrips(ctx context.Context) ([]*models.Trip, error) {
	trips := []*models.Trip{}
	if err := a.do(ctx, http.MethodGet, "/trips", nil, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (a *Adapter) UpdateTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := store.ValidateTrip(trip); err != nil {
		return nil, err
	}
	var updated models.Trip
	if err := a.do(ctx, http.MethodPut, "/trips/"+url.PathEscape(trip.ID), trip, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *Adapter) DeleteTrip(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/trips/"+url.PathEscape(id), nil, nil)
}

// Places

func (a *Adapter) CreatePlace(ctx context.Context, place *models.Place) (*models.Place, error) {
	if err := store.ValidatePlace(place); err != nil {
		return nil, err
	}
	var created models.Place
	if err := a.do(ctx, http.MethodPost, "/places", stripID(place), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *Adapter) GetPlace(ctx context.Context, id string) (*models.Place, error) {
	var place models.Place
	err := a.do(ctx, http.MethodGet, "/places/"+url.PathEscape(id), nil, &place)
	return absentOnNotFound(&place, err)
}

func (a *Adapter) ListPlaces(ctx context.Context) ([]*models.Place, error) {
	places := []*models.Place{}
	if err := a.do(ctx, http.MethodGet, "/places", nil, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (a *Adapter) UpdatePlace(ctx context.Context, place *models.Place) (*models.Place, error) {
	if err := store.ValidatePlace(place); err != nil {
		return nil, err
	}
	var updated models.Place
	if err := a.do(ctx, http.MethodPut, "/places/"+url.PathEscape(place.ID), place, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *Adapter) DeletePlace(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/places/"+url.PathEscape(id), nil, nil)
}

// Collections

func (a *Adapter) CreateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	if err := store.ValidateCollection(col); err != nil {
		return nil, err
	}
	var created models.Collection
	if err := a.do(ctx, http.MethodPost, "/collections", stripID(col), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *Adapter) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	var col models.Collection
	err := a.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(id), nil, &col)
	return absentOnNotFound(&col, err)
}

func (a *Adapter) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	cols := []*models.Collection{}
	if err := a.do(ctx, http.MethodGet, "/collections", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func (a *Adapter) UpdateCollection(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	if err := store.ValidateCollection(col); err != nil {
		return nil, err
	}
	var updated models.Collection
	if err := a.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(col.ID), col, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *Adapter) DeleteCollection(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(id), nil, nil)
}

// Waypoints

func (a *Adapter) AddWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	if err := store.ValidateWaypoint(wp); err != nil {
		return nil, err
	}
	var trip models.Trip
	path := "/trips/" + url.PathEscape(tripID) + "/waypoints"
	if err := a.do(ctx, http.MethodPost, path, wp, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (a *Adapter) UpdateWaypoint(ctx context.Context, tripID string, wp models.Waypoint) (*models.Trip, error) {
	if err := store.ValidateWaypoint(wp); err != nil {
		return nil, err
	}
	var trip models.Trip
	path := "/trips/" + url.PathEscape(tripID) + "/waypoints/" + url.PathEscape(wp.ID)
	if err := a.do(ctx, http.MethodPut, path, wp, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (a *Adapter) RemoveWaypoint(ctx context.Context, tripID, waypointID string) (*models.Trip, error) {
	var trip models.Trip
	path := "/trips/" + url.PathEscape(tripID) + "/waypoints/" + url.PathEscape(waypointID)
	if err := a.do(ctx, http.MethodDelete, path, nil, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (a *Adapter) ReorderWaypoints(ctx context.Context, tripID string, orderedIDs []string) (*models.Trip, error) {
	var trip models.Trip
	path := "/trips/" + url.PathEscape(tripID) + "/waypoints/order"
	body := map[string][]string{"waypoint_ids": orderedIDs}
	if err := a.do(ctx, http.MethodPut, path, body, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// do performs one authenticated request and decodes the response into
// dest (when non-nil). Backend failure classes are mapped onto the
// store's error taxonomy; no net/http error type escapes this package.
func (a *Adapter) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", store.ErrValidation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := a.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransport, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, method, path)
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", store.ErrValidation, readErrorMessage(res.Body))
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return fmt.Errorf("%w: server returned %d", store.ErrTransport, res.StatusCode)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", store.ErrTransport, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Error == "" {
		return "request rejected"
	}
	return payload.Error
}

// stripID clears the identifier before a create so the server assigns
// the canonical one. Local-origin IDs are discarded here, not remapped.
func stripID(entity any) any {
	data, err := json.Marshal(entity)
	if err != nil {
		return entity
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return entity
	}
	delete(m, "id")
	return m
}

// absentOnNotFound converts a read of a missing entity into the
// contract's (nil, nil) form.
func absentOnNotFound[T any](entity *T, err error) (*T, error) {
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
