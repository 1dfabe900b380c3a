package state

import (
	"testing"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

func TestMachineStartsDormant(t *testing.T) {
	m := New(eventbus.New())
	if m.Current() != Dormant {
		t.Fatalf("Current() = %v, want DORMANT", m.Current())
	}
}

func TestMachineActivateTransitionsToListening(t *testing.T) {
	m := New(eventbus.New())
	if exit := m.Apply(ActionActivate); exit {
		t.Fatal("ActionActivate should not request shutdown")
	}
	if m.Current() != Listening {
		t.Fatalf("Current() = %v, want LISTENING", m.Current())
	}
}

func TestMachinePublishesStateChanged(t *testing.T) {
	bus := eventbus.New()
	var got eventbus.StateChanged
	bus.Subscribe(eventbus.TopicStateChanged, func(payload any) {
		got = payload.(eventbus.StateChanged)
	})

	m := New(bus)
	m.Apply(ActionActivate)

	if got.From != "DORMANT" || got.To != "LISTENING" {
		t.Fatalf("got %+v, want From=DORMANT To=LISTENING", got)
	}
}

func TestMachineCommandAndIgnoreLeaveStateUnchanged(t *testing.T) {
	m := New(eventbus.New())
	m.Apply(ActionCommand)
	if m.Current() != Dormant {
		t.Fatalf("ActionCommand changed state to %v", m.Current())
	}
	m.Apply(ActionIgnore)
	if m.Current() != Dormant {
		t.Fatalf("ActionIgnore changed state to %v", m.Current())
	}
}

func TestMachineExitRequestsShutdownWithoutChangingState(t *testing.T) {
	m := New(eventbus.New())
	m.Apply(ActionActivate)
	if exit := m.Apply(ActionExit); !exit {
		t.Fatal("ActionExit should request shutdown")
	}
	if m.Current() != Listening {
		t.Fatalf("Current() = %v, want unchanged LISTENING", m.Current())
	}
}
