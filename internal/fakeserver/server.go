// Package fakeserver is a fake collaboration backend for tests. It
// speaks the channel's frame protocol over websocket, records every
// inbound frame, and injects failures: handshake rejection and dropped
// connections.
package fakeserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Frame mirrors the channel's wire shape.
type Frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Server is one fake backend instance.
type Server struct {
	hs       *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	conns      []*websocket.Conn
	frames     []Frame
	handshakes int
	rejectNext int
	rejectAll  bool
	lastAuth   string
}

func New() *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.hs = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL returns the websocket endpoint.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.hs.URL, "http")
}

func (s *Server) Close() {
	s.DropConnections()
	s.hs.Close()
}

// RejectNext makes the server fail the next n handshakes with a 500.
func (s *Server) RejectNext(n int) {
	s.mu.Lock()
	s.rejectNext = n
	s.mu.Unlock()
}

// RejectAll makes every further handshake fail.
func (s *Server) RejectAll(reject bool) {
	s.mu.Lock()
	s.rejectAll = reject
	s.mu.Unlock()
}

// DropConnections closes every active connection without a close
// handshake, simulating a network fault.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// PushEvent sends an event frame to every connected client.
func (s *Server) PushEvent(room, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame := Frame{Type: "event", Room: room, Kind: kind, Payload: data}
	msg, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return err
		}
	}
	return nil
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Handshakes returns how many upgrade attempts the server has seen,
// including rejected ones.
func (s *Server) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// LastAuth returns the Authorization header of the latest handshake.
func (s *Server) LastAuth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Frames returns a copy of every inbound frame so far.
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

// CountFrames returns how many inbound frames have the given type.
func (s *Server) CountFrames(frameType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.frames {
		if f.Type == frameType {
			n++
		}
	}
	return n
}

// JoinedRooms returns rooms that received a join frame, in order.
func (s *Server) JoinedRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []string
	for _, f := range s.frames {
		if f.Type == "join" {
			rooms = append(rooms, f.Room)
		}
	}
	return rooms
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.handshakes++
	s.lastAuth = r.Header.Get("Authorization")
	reject := s.rejectAll
	if s.rejectNext > 0 {
		s.rejectNext--
		reject = true
	}
	s.mu.Unlock()

	if reject {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		for i, c := range s.conns {
			if c == conn {
				s.conns = append(s.conns[:i], s.conns[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		s.mu.Lock()
		s.frames = append(s.frames, f)
		s.mu.Unlock()
	}
}
