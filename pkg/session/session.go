// Package session wires the storage, migration, realtime, and presence
// pieces into one object owning the whole client lifecycle. Nothing in
// this module lives in package-level state; construct a Session and
// everything hangs off it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/wanderplan/wanderplan-go/internal/kvstore"
	"github.com/wanderplan/wanderplan-go/pkg/config"
	"github.com/wanderplan/wanderplan-go/pkg/logger"
	"github.com/wanderplan/wanderplan-go/pkg/migrate"
	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/presence"
	"github.com/wanderplan/wanderplan-go/pkg/realtime"
	"github.com/wanderplan/wanderplan-go/pkg/store"
	"github.com/wanderplan/wanderplan-go/pkg/store/local"
	"github.com/wanderplan/wanderplan-go/pkg/store/remote"
)

// ErrNotAuthenticated is returned by Login when credentials are missing.
var ErrNotAuthenticated = errors.New("session: missing user id or access token")

// Auth identifies who the session acts as. The zero value is anonymous.
type Auth struct {
	UserID      string
	AccessToken string
}

// Session owns the client-side stack: the durable local store, both
// store adapters behind a selector, the migration engine, the realtime
// channel, and the presence view.
type Session struct {
	cfg config.Config
	log logger.Logger

	kv          *kvstore.Store
	localStore  *local.Adapter
	remoteStore *remote.Adapter
	selector    *store.Selector
	shared      *store.State
	view        *presence.View
	channel     *realtime.Channel

	mu   sync.RWMutex
	auth Auth
}

// New builds a Session from cfg. A nil log disables logging.
func New(cfg config.Config, log logger.Logger) *Session {
	if log == nil {
		log = logger.Nop{}
	}

	s := &Session{cfg: cfg, log: log}

	s.kv = kvstore.Open(cfg.StorePath, kvstore.Options{
		TripRetention: cfg.TripRetention,
		Logger:        log,
	})
	s.localStore = local.New(s.kv)
	s.remoteStore = remote.New(cfg.BaseURL, s.accessToken, nil)
	s.selector = store.NewSelector(s.localStore, s.remoteStore, s.Authenticated)
	s.shared = store.NewState()
	s.view = presence.NewView(cfg.CursorStaleAfter)
	s.channel = realtime.New(realtime.Options{
		URL:               cfg.RealtimeURL,
		Token:             s.accessToken,
		State:             s.shared,
		View:              s.view,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectInterval: cfg.ReconnectInterval,
		CursorThrottle:    cfg.CursorThrottle,
		SweepInterval:     cfg.SweepInterval,
		Logger:            log,
	})

	return s
}

// Store returns the adapter matching the current auth state. Callers
// hold the selector, not a concrete adapter, so a login mid-session
// redirects their next call without rewiring.
func (s *Session) Store() store.Store { return s.selector }

// Channel returns the realtime channel for room joins, event listeners,
// and presence broadcasts.
func (s *Session) Channel() *realtime.Channel { return s.channel }

// Presence returns the collaborator cursor view.
func (s *Session) Presence() *presence.View { return s.view }

// Shared returns the in-memory entity state fed by realtime events.
func (s *Session) Shared() *store.State { return s.shared }

// Notices returns user-facing connection notices from the channel.
func (s *Session) Notices() <-chan realtime.Notice { return s.channel.Notices() }

// Authenticated reports whether the session has an access token. Read
// per store call, so in-flight work follows an auth flip.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.AccessToken != ""
}

// CurrentAuth returns the active identity; zero value when anonymous.
func (s *Session) CurrentAuth() Auth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

func (s *Session) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth.AccessToken
}

// Login flips the session to authenticated, pushes anonymous local data
// to the backend, and connects the realtime channel. The migration
// result is returned so the caller can surface partial failures; a
// partial migration does not fail the login. A channel connect failure
// is logged and left to the caller to retry, since the store path is
// already usable.
func (s *Session) Login(ctx context.Context, auth Auth) (migrate.Result, error) {
	if auth.UserID == "" || auth.AccessToken == "" {
		return migrate.Result{}, ErrNotAuthenticated
	}

	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()

	s.log.Info("session authenticated", "user_id", auth.UserID)

	// A fresh engine per transition: anything written to the local store
	// during a later anonymous stretch is promoted by the next login.
	result := migrate.NewEngine(s.localStore, s.remoteStore, s.log).Run(ctx)

	if err := s.channel.Connect(ctx); err != nil {
		s.log.Warn("realtime connect failed", "error", err)
	}
	return result, nil
}

// Logout disconnects the channel and reverts to anonymous. Local data
// written while authenticated stays on the backend; the local store is
// whatever migration left behind.
func (s *Session) Logout() {
	s.channel.Disconnect()

	s.mu.Lock()
	s.auth = Auth{}
	s.mu.Unlock()

	s.log.Info("session anonymous")
}

// Close tears the session down: channel first, then the local store.
func (s *Session) Close() error {
	s.channel.Disconnect()
	return s.kv.Close()
}

// SaveMarker stores a temporary map marker. Markers never leave the
// device and are not migrated.
func (s *Session) SaveMarker(marker models.TempMarker) models.TempMarker {
	return s.localStore.SaveMarker(marker)
}

// ListMarkers returns all temporary markers.
func (s *Session) ListMarkers() []models.TempMarker {
	return s.localStore.ListMarkers()
}

// DeleteMarker removes a temporary marker. Unknown IDs are a no-op.
func (s *Session) DeleteMarker(id string) {
	s.localStore.DeleteMarker(id)
}
