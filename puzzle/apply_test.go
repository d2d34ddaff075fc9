package puzzle

import (
	"testing"

	"github.com/wfunc/escaperoom/game"
)

func sequencePuzzle() *game.Puzzle {
	return &game.Puzzle{
		ID: "seq", Type: game.PuzzleSequence,
		Order:        []string{"v2", "v3", "v1"},
		ResetOnError: true, LockMs: 2000,
	}
}

func valveSnapshot() *game.Snapshot {
	return snapshotWith(
		&game.Object{ID: "v1", Type: game.TypeValve, State: game.StateOff},
		&game.Object{ID: "v2", Type: game.TypeValve, State: game.StateOff},
		&game.Object{ID: "v3", Type: game.TypeValve, State: game.StateOff},
	)
}

func activate(objectID string, ts int64) Action {
	return Action{Type: ActionActivate, ObjectID: objectID, Timestamp: ts}
}

func TestApply_SequenceCorrectOrder(t *testing.T) {
	p := sequencePuzzle()
	snap := valveSnapshot()

	if solved := Apply(p, activate("v2", 1000), snap, nil, false); solved {
		t.Fatal("Puzzle should not be solved after one step")
	}
	Apply(p, activate("v3", 2000), snap, nil, false)
	solved := Apply(p, activate("v1", 3000), snap, nil, false)

	if !solved {
		t.Fatal("Expected the final step to solve the puzzle")
	}
	if !snap.Puzzles["seq"].Success {
		t.Fatal("Progress record should be marked solved")
	}
	if snap.Errors != 0 {
		t.Errorf("Expected no errors, got %d", snap.Errors)
	}
}

func TestApply_SequenceWrongStepLocksOut(t *testing.T) {
	p := sequencePuzzle()
	snap := valveSnapshot()

	// v1 first is wrong: reset, lock for 2000ms, one error.
	Apply(p, activate("v1", 1000), snap, nil, false)

	progress := snap.Puzzles["seq"]
	if !progress.Locked {
		t.Fatal("Expected lockout after wrong step")
	}
	if progress.CurrentStep != 0 {
		t.Errorf("Expected step reset to 0, got %d", progress.CurrentStep)
	}
	if progress.LockUntil != 3000 {
		t.Errorf("Expected lock until 3000, got %d", progress.LockUntil)
	}
	if snap.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", snap.Errors)
	}

	// A correct activation during the lockout is swallowed.
	Apply(p, activate("v2", 2000), snap, nil, false)
	if progress.CurrentStep != 0 {
		t.Errorf("Activation during lockout must not advance, step = %d", progress.CurrentStep)
	}

	// After the lock expires the sequence restarts from the beginning.
	Apply(p, activate("v2", 3001), snap, nil, false)
	if progress.Locked {
		t.Fatal("Lock should have expired")
	}
	if progress.CurrentStep != 1 {
		t.Errorf("Expected step 1 after restart, got %d", progress.CurrentStep)
	}

	Apply(p, activate("v3", 4000), snap, nil, false)
	if !Apply(p, activate("v1", 5000), snap, nil, false) {
		t.Fatal("Expected full sequence to solve after restart")
	}
	if snap.Errors != 1 {
		t.Errorf("Error count should stay at 1, got %d", snap.Errors)
	}
}

func TestApply_SequenceNoResetOnError(t *testing.T) {
	p := &game.Puzzle{
		ID: "seq", Type: game.PuzzleSequence,
		Order: []string{"v2", "v3"},
	}
	snap := valveSnapshot()

	Apply(p, activate("v2", 1000), snap, nil, false)
	// Wrong step, but resetOnError is off: progress is simply kept.
	Apply(p, activate("v2", 2000), snap, nil, false)

	progress := snap.Puzzles["seq"]
	if progress.Locked {
		t.Fatal("Lockout must not engage without resetOnError")
	}
	if progress.CurrentStep != 1 {
		t.Errorf("Expected step kept at 1, got %d", progress.CurrentStep)
	}
	if snap.Errors != 0 {
		t.Errorf("Expected no errors, got %d", snap.Errors)
	}
}

func TestApply_SequenceStaysSolved(t *testing.T) {
	p := sequencePuzzle()
	snap := valveSnapshot()

	Apply(p, activate("v2", 1000), snap, nil, false)
	Apply(p, activate("v3", 2000), snap, nil, false)
	Apply(p, activate("v1", 3000), snap, nil, false)

	// Further activations must not regress a solved puzzle.
	if solved := Apply(p, activate("v3", 4000), snap, nil, false); solved {
		t.Fatal("Apply must not report solving twice")
	}
	if !snap.Puzzles["seq"].Success {
		t.Fatal("Solved sequence must stay solved")
	}
	if snap.Errors != 0 {
		t.Errorf("Expected no errors after solve, got %d", snap.Errors)
	}
}

func TestApply_ToggleActivationBookkeeping(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleMultiSwitch,
		IDs:          []string{"sw1", "sw2"},
		Simultaneous: true, WindowMs: 3000,
	}
	snap := snapshotWith(
		&game.Object{ID: "sw1", Type: game.TypeSwitch, State: game.StateOn},
		&game.Object{ID: "sw2", Type: game.TypeSwitch, State: game.StateOff},
	)

	Apply(p, Action{Type: ActionToggle, ObjectID: "sw1", Timestamp: 1000}, snap, nil, false)

	progress := snap.Puzzles["p1"]
	if progress.Activations["sw1"] != 1000 {
		t.Errorf("Expected sw1 activation at 1000, got %d", progress.Activations["sw1"])
	}

	// Toggling off clears the stamp so a stale timestamp cannot decide a
	// later window.
	snap.Objects["sw1"].State = game.StateOff
	Apply(p, Action{Type: ActionToggle, ObjectID: "sw1", Timestamp: 2000}, snap, nil, false)
	if _, ok := progress.Activations["sw1"]; ok {
		t.Error("Expected sw1 activation cleared on off toggle")
	}

	// Back on much later, with sw2 close behind: window measured from the
	// fresh timestamps only.
	snap.Objects["sw1"].State = game.StateOn
	Apply(p, Action{Type: ActionToggle, ObjectID: "sw1", Timestamp: 60000}, snap, nil, false)
	snap.Objects["sw2"].State = game.StateOn
	solved := Apply(p, Action{Type: ActionToggle, ObjectID: "sw2", Timestamp: 61000}, snap, nil, false)

	if !solved {
		t.Fatalf("Expected solve with fresh activations, reason %q", progress.Reason)
	}
}

func TestApply_SelfReferentialPanelRead(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleInfoSplit,
		SourcePanel: "panel1", TargetConsole: "panel1",
	}
	snap := snapshotWith(
		&game.Object{ID: "panel1", Type: game.TypePanel, Content: &game.PanelContent{Text: "briefing"}},
	)

	solved := Apply(p, Action{Type: ActionPanelRead, ObjectID: "panel1", Timestamp: 1000}, snap, nil, false)
	if !solved {
		t.Fatal("Reading a self-referential panel should solve the puzzle")
	}
}
