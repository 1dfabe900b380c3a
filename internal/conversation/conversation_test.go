package conversation

import "testing"

func TestManagerAddAndHistory(t *testing.T) {
	m := New(2)
	m.Add(RoleUser, "hello")
	m.Add(RoleAssistant, "hi there")

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "hello" {
		t.Fatalf("history[0] = %+v", history[0])
	}
}

func TestManagerEvictsOldestBeyondCapacity(t *testing.T) {
	m := New(1) // capacity = 2 turns
	m.Add(RoleUser, "first")
	m.Add(RoleAssistant, "first reply")
	m.Add(RoleUser, "second")
	m.Add(RoleAssistant, "second reply")

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Content != "second" {
		t.Fatalf("history[0].Content = %q, want %q", history[0].Content, "second")
	}
}

func TestManagerClearEmptiesHistory(t *testing.T) {
	m := New(3)
	m.Add(RoleUser, "hello")
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Clear", m.Len())
	}
}
