// Package realtime maintains the persistent collaboration channel: one
// websocket per authenticated session, room-scoped push events applied
// to the shared state tree, throttled outbound presence, automatic
// reconnection with a bounded budget, and the staleness sweep over the
// presence view.
//
// Connection errors never surface as returned errors once the channel is
// up; they drive reconnection internally and degrade to user-visible
// notices. CRUD through the store adapters is never blocked by the
// channel's state.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/wanderplan/wanderplan-go/pkg/logger"
	"github.com/wanderplan/wanderplan-go/pkg/models"
	"github.com/wanderplan/wanderplan-go/pkg/presence"
	"github.com/wanderplan/wanderplan-go/pkg/store"
)

// ErrNoAccessToken is returned by Connect when the session has no token.
var ErrNoAccessToken = errors.New("realtime: access token required")

var errIntentionalClose = errors.New("realtime: closed by caller")

// NoticeLevel grades user-visible channel notices.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
)

// Notice is a user-visible message about the channel's health. Notices
// are never fatal; CRUD keeps working while the channel is down.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Handler receives one event. Handlers run on the reader goroutine, in
// arrival order; slow handlers delay subsequent events.
type Handler func(Event)

// Options configures a Channel.
type Options struct {
	// URL is the websocket endpoint.
	URL string

	// Token is read at every handshake, so reconnects pick up a
	// refreshed access token.
	Token func() string

	// State receives entity mutations pushed by the server.
	State *store.State

	// View receives cursor and leave events and is swept for staleness.
	View *presence.View

	// ReconnectAttempts bounds automatic reconnection. Zero means 5.
	ReconnectAttempts int

	// ReconnectInterval is the fixed delay between attempts. Zero means 2s.
	ReconnectInterval time.Duration

	// CursorThrottle is the minimum gap between outbound cursor
	// broadcasts. Zero means 100ms.
	CursorThrottle time.Duration

	// SweepInterval is the presence sweep tick. Zero means 1s.
	SweepInterval time.Duration

	Logger logger.Logger
	Dialer *websocket.Dialer
}

// Channel is the realtime sync channel. One instance serves one session.
type Channel struct {
	url      string
	token    func() string
	dialer   *websocket.Dialer
	appState *store.State
	view     *presence.View
	log      logger.Logger

	reconnectAttempts int
	reconnectInterval time.Duration
	sweepInterval     time.Duration
	cursorLimiter     *throttle

	mu              sync.Mutex
	state           State
	conn            *websocket.Conn
	joined          map[string]bool
	intentional     bool
	cancelReconnect context.CancelFunc
	sweepStop       chan struct{}

	writeMu sync.Mutex

	listenersMu  sync.Mutex
	listeners    map[Kind]map[int]Handler
	nextListener int

	notices chan Notice
}

// New builds a Channel. It does not connect.
func New(opts Options) *Channel {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	attempts := opts.ReconnectAttempts
	if attempts <= 0 {
		attempts = 5
	}
	interval := opts.ReconnectInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	cursorThrottle := opts.CursorThrottle
	if cursorThrottle <= 0 {
		cursorThrottle = 100 * time.Millisecond
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = time.Second
	}

	return &Channel{
		url:               opts.URL,
		token:             opts.Token,
		dialer:            dialer,
		appState:          opts.State,
		view:              opts.View,
		log:               log,
		reconnectAttempts: attempts,
		reconnectInterval: interval,
		sweepInterval:     sweep,
		cursorLimiter:     newThrottle(cursorThrottle),
		joined:            make(map[string]bool),
		listeners:         make(map[Kind]map[int]Handler),
		notices:           make(chan Notice, 8),
	}
}

// CurrentState returns the connection state at this instant.
func (c *Channel) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Notices delivers user-visible channel health messages. The channel is
// buffered; messages nobody reads are dropped, not blocking.
func (c *Channel) Notices() <-chan Notice {
	return c.notices
}

// Connect performs the handshake and starts the reader. Calling it while
// already connected, or while a reconnect is in progress, is a no-op.
// The context cancels the handshake only; the established connection
// outlives it.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateReconnecting {
		// already up, or the reconnect loop is driving the handshake
		c.mu.Unlock()
		return nil
	}
	if c.token() == "" {
		c.mu.Unlock()
		return ErrNoAccessToken
	}
	next, err := c.state.TransitionTo(StateConnecting)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.intentional = false
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("realtime handshake: %w", err)
	}

	c.mu.Lock()
	if c.intentional {
		// Disconnect raced the handshake; honor it.
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.mu.Unlock()

	c.adopt(conn)
	return nil
}

// Disconnect closes the channel intentionally: reconnection is not
// attempted and no notices are emitted for this close.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	cancel := c.cancelReconnect
	c.cancelReconnect = nil
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	sweepStop := c.sweepStop
	c.sweepStop = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sweepStop != nil {
		close(sweepStop)
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		c.writeMu.Unlock()
		_ = conn.Close()
	}
}

// JoinRoom scopes subsequent push events to a collaboration context,
// typically one trip. The subscription survives reconnects: rooms are
// re-joined after every successful handshake.
func (c *Channel) JoinRoom(room string) {
	c.mu.Lock()
	c.joined[room] = true
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		c.writeFrame(frame{Type: "join", Room: room})
	}
}

// LeaveRoom stops delivery for the room. Events already in flight for it
// are dropped on arrival.
func (c *Channel) LeaveRoom(room string) {
	c.mu.Lock()
	delete(c.joined, room)
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		c.writeFrame(frame{Type: "leave", Room: room})
	}
}

// On registers a listener for one event kind and returns its
// unsubscribe function, which is safe to call more than once.
func (c *Channel) On(kind Kind, h Handler) func() {
	c.listenersMu.Lock()
	id := c.nextListener
	c.nextListener++
	if c.listeners[kind] == nil {
		c.listeners[kind] = make(map[int]Handler)
	}
	c.listeners[kind][id] = h
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners[kind], id)
		c.listenersMu.Unlock()
	}
}

// SendCursor broadcasts the local user's cursor position to the room.
// Broadcasts are throttled; positions inside the throttle window are
// dropped, not queued. Best-effort: silently does nothing while the
// channel is down.
func (c *Channel) SendCursor(room string, coord models.Coordinate) {
	if c.CurrentState() != StateConnected {
		return
	}
	if !c.cursorLimiter.allow(time.Now()) {
		return
	}
	payload, err := json.Marshal(CursorMove{Coordinate: coord})
	if err != nil {
		return
	}
	c.writeFrame(frame{Type: "cursor", Room: room, Payload: payload})
}

// SendTyping broadcasts a typing indicator. Not throttled; callers emit
// these at low frequency.
func (c *Channel) SendTyping(room string, active bool) {
	if c.CurrentState() != StateConnected {
		return
	}
	payload, err := json.Marshal(Typing{Active: active})
	if err != nil {
		return
	}
	c.writeFrame(frame{Type: "typing", Room: room, Payload: payload})
}

// internals

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if token := c.token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, res, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, err
	}
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	return conn, nil
}

// adopt installs a freshly dialed connection: state, room re-join,
// sweeper, reader.
func (c *Channel) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	rooms := make([]string, 0, len(c.joined))
	for room := range c.joined {
		rooms = append(rooms, room)
	}
	if c.sweepStop == nil && c.view != nil {
		c.sweepStop = make(chan struct{})
		go c.sweepLoop(c.sweepStop)
	}
	c.mu.Unlock()

	for _, room := range rooms {
		c.writeFrame(frame{Type: "join", Room: room})
	}
	go c.readLoop(conn)
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError()
			return
		}
		c.handleMessage(data)
	}
}

func (c *Channel) handleReadError() {
	c.mu.Lock()
	if c.intentional || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	c.conn = nil
	c.mu.Unlock()

	c.log.Warn("realtime connection lost, reconnecting")
	go c.reconnectLoop()
}

func (c *Channel) reconnectLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancelReconnect = cancel
	c.mu.Unlock()
	defer cancel()

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.reconnectInterval),
			uint64(c.reconnectAttempts-1),
		),
		ctx,
	)

	err := backoff.Retry(func() error {
		c.mu.Lock()
		if c.intentional {
			c.mu.Unlock()
			return backoff.Permanent(errIntentionalClose)
		}
		c.mu.Unlock()

		attempt++
		conn, err := c.dial(ctx)
		if err != nil {
			c.log.Debug("reconnect attempt failed", "attempt", attempt, "error", err)
			return err
		}

		c.mu.Lock()
		if c.intentional {
			c.mu.Unlock()
			_ = conn.Close()
			return backoff.Permanent(errIntentionalClose)
		}
		c.mu.Unlock()

		c.adopt(conn)
		c.log.Info("realtime reconnected", "attempt", attempt)
		return nil
	}, policy)

	if err == nil {
		return
	}

	c.mu.Lock()
	intentional := c.intentional
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if !intentional {
		c.notify(NoticeWarning, "live updates paused: could not reach the collaboration server")
	}
}

func (c *Channel) handleMessage(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.log.Warn("dropping unparseable frame", "error", err)
		return
	}
	if f.Type != "event" {
		return
	}

	// Room scoping: every event must name a room this client joined.
	// Roomless frames are dropped too, so a misbehaving server cannot
	// leak another room's events past the filter.
	c.mu.Lock()
	joined := f.Room != "" && c.joined[f.Room]
	c.mu.Unlock()
	if !joined {
		return
	}

	ev, err := decodeEvent(f)
	if err != nil {
		c.log.Warn("dropping event", "error", err)
		return
	}

	// Apply then dispatch, on the reader goroutine, so every event
	// mutates shared state exactly once and in arrival order.
	c.apply(ev)
	c.dispatch(ev)
}

// apply folds an event into shared state and the presence view.
func (c *Channel) apply(ev Event) {
	switch p := ev.Payload.(type) {
	case EntityChange:
		if c.appState == nil {
			return
		}
		switch {
		case p.Trip != nil:
			c.appState.UpsertTrip(*p.Trip)
		case p.Place != nil:
			c.appState.UpsertPlace(*p.Place)
		case p.Collection != nil:
			c.appState.UpsertCollection(*p.Collection)
		}
	case EntityDelete:
		if c.appState == nil {
			return
		}
		switch p.EntityKind {
		case EntityTrip:
			c.appState.RemoveTrip(p.ID)
		case EntityPlace:
			c.appState.RemovePlace(p.ID)
		case EntityCollection:
			c.appState.RemoveCollection(p.ID)
		}
	case WaypointChange:
		c.applyWaypointChange(ev.Kind, p)
	case WaypointRemove:
		c.mutateTrip(p.TripID, func(trip *models.Trip) {
			for i, wp := range trip.Waypoints {
				if wp.ID == p.WaypointID {
					trip.Waypoints = append(trip.Waypoints[:i], trip.Waypoints[i+1:]...)
					break
				}
			}
			for i := range trip.Waypoints {
				trip.Waypoints[i].Position = i
			}
		})
	case WaypointReorder:
		c.mutateTrip(p.TripID, func(trip *models.Trip) {
			reordered, err := store.ReorderWaypointList(trip.Waypoints, p.OrderedIDs)
			if err != nil {
				c.log.Warn("dropping reorder event", "trip", p.TripID, "error", err)
				return
			}
			trip.Waypoints = reordered
		})
	case CollaboratorChange:
		if ev.Kind == KindCollaboratorLeft && c.view != nil {
			c.view.Remove(p.UserID)
		}
	case CursorMove:
		if c.view != nil {
			c.view.Upsert(p.UserID, p.DisplayName, p.Coordinate, time.Now())
		}
	case Typing:
		// listeners only; nothing to fold into state
	}
}

func (c *Channel) applyWaypointChange(kind Kind, p WaypointChange) {
	c.mutateTrip(p.TripID, func(trip *models.Trip) {
		if kind == KindWaypointUpdated {
			for i, wp := range trip.Waypoints {
				if wp.ID == p.Waypoint.ID {
					trip.Waypoints[i] = p.Waypoint
					return
				}
			}
		}
		trip.Waypoints = append(trip.Waypoints, p.Waypoint)
	})
}

func (c *Channel) mutateTrip(tripID string, fn func(*models.Trip)) {
	if c.appState == nil {
		return
	}
	trip, ok := c.appState.Trip(tripID)
	if !ok {
		return
	}
	fn(&trip)
	c.appState.UpsertTrip(trip)
}

func (c *Channel) dispatch(ev Event) {
	c.listenersMu.Lock()
	handlers := make([]Handler, 0, len(c.listeners[ev.Kind]))
	for _, h := range c.listeners[ev.Kind] {
		handlers = append(handlers, h)
	}
	c.listenersMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *Channel) writeFrame(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn("frame write failed", "type", f.Type, "error", err)
	}
}

func (c *Channel) sweepLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for _, userID := range c.view.Sweep(now) {
				c.log.Debug("evicted stale cursor", "user", userID)
			}
		}
	}
}

func (c *Channel) notify(level NoticeLevel, msg string) {
	select {
	case c.notices <- Notice{Level: level, Message: msg}:
	default:
	}
}
