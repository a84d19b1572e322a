package realtime

import "fmt"

// State is the channel's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

// TransitionTo validates a state change and returns the new state.
// Connecting is only reachable from Disconnected, Connected from
// Connecting or Reconnecting, Reconnecting from Connected, and every
// state may drop to Disconnected.
func (s State) TransitionTo(newState State) (State, error) {
	switch s {
	case StateDisconnected:
		if newState == StateConnecting {
			return newState, nil
		}
	case StateConnecting:
		switch newState {
		case StateConnected, StateDisconnected:
			return newState, nil
		}
	case StateConnected:
		switch newState {
		case StateReconnecting, StateDisconnected:
			return newState, nil
		}
	case StateReconnecting:
		switch newState {
		case StateConnected, StateDisconnected:
			return newState, nil
		}
	}
	return s, fmt.Errorf("invalid state transition from %v to %v", s, newState)
}
