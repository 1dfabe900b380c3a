// Package state implements the frontend's conversational state machine.
// Transitions are driven exclusively by backend DispatchResponse
// actions; the frontend never decides to activate or deactivate on its
// own.
package state

import (
	"sync"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

// AssistantState is one of DORMANT or LISTENING. DORMANT is the initial
// state of every frontend process.
type AssistantState string

const (
	Dormant   AssistantState = "DORMANT"
	Listening AssistantState = "LISTENING"
)

// Action mirrors DispatchResponse.Action: the backend's instruction for
// how the frontend should react to a dispatched utterance.
type Action string

const (
	ActionCommand    Action = "COMMAND"
	ActionActivate   Action = "ACTIVATE"
	ActionDeactivate Action = "DEACTIVATE"
	ActionExit       Action = "EXIT"
	ActionIgnore     Action = "IGNORE"
)

// Machine holds the authoritative AssistantState for one frontend process
// and publishes state.changed on every transition.
type Machine struct {
	mu    sync.Mutex
	state AssistantState
	bus   *eventbus.Bus
}

// New constructs a Machine in the DORMANT state, publishing transitions
// onto bus.
func New(bus *eventbus.Bus) *Machine {
	return &Machine{state: Dormant, bus: bus}
}

// Current returns the machine's current state.
func (m *Machine) Current() AssistantState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply transitions the machine according to action. It reports whether
// the action requires the caller to begin graceful shutdown
// (ActionExit).
func (m *Machine) Apply(action Action) (shouldExit bool) {
	m.mu.Lock()
	from := m.state

	switch action {
	case ActionActivate:
		m.state = Listening
	case ActionDeactivate:
		m.state = Dormant
	case ActionExit:
		m.mu.Unlock()
		return true
	case ActionCommand, ActionIgnore:
		// state unchanged
	}
	to := m.state
	m.mu.Unlock()

	if to != from && m.bus != nil {
		m.bus.Publish(eventbus.TopicStateChanged, eventbus.StateChanged{From: string(from), To: string(to)})
	}
	return false
}
