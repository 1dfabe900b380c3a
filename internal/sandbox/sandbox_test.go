package sandbox

import (
	"context"
	"testing"
	"time"
)

func TestInvokeWithMissingWorkerBinaryIsCrash(t *testing.T) {
	originalPath := WorkerPath
	WorkerPath = "/nonexistent/skillworker-binary"
	defer func() { WorkerPath = originalPath }()

	result := Invoke(context.Background(), Request{SkillID: "time", Intent: "get_current_time"}, time.Second)
	if result.Outcome != OutcomeCrash {
		t.Fatalf("Outcome = %v, want OutcomeCrash", result.Outcome)
	}
}

func TestInvokeWithNonJSONOutputIsCrash(t *testing.T) {
	originalPath := WorkerPath
	WorkerPath = "cat" // echoes stdin verbatim, which is not a valid Result frame by itself
	defer func() { WorkerPath = originalPath }()

	result := Invoke(context.Background(), Request{SkillID: "time", Intent: "get_current_time"}, time.Second)
	if result.Outcome != OutcomeCrash {
		t.Fatalf("Outcome = %v, want OutcomeCrash for malformed result frame", result.Outcome)
	}
}

func TestInvokeBlocksDestructiveIntentBeforeSpawning(t *testing.T) {
	originalPath := WorkerPath
	WorkerPath = "/nonexistent/skillworker-binary"
	defer func() { WorkerPath = originalPath }()

	result := Invoke(context.Background(), Request{
		SkillID: "files",
		Intent:  "run rm -rf / on the disk",
	}, time.Second)
	if result.Outcome != OutcomeBlocked {
		t.Fatalf("Outcome = %v, want OutcomeBlocked", result.Outcome)
	}
}
