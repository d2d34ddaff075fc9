package puzzle

import (
	"testing"

	"github.com/wfunc/escaperoom/game"
)

func authDefinition() *game.Definition {
	return &game.Definition{
		UI: game.UIConfig{AdjacencyRange: 2},
		Rooms: []*game.Room{
			{
				ID: "R1",
				Puzzles: []*game.Puzzle{
					{ID: "pSwitch", Type: game.PuzzleMultiSwitch, IDs: []string{"sw1"}},
					{ID: "pCode", Type: game.PuzzleInfoSplit, SourcePanel: "panel1", TargetConsole: "console1"},
				},
			},
		},
	}
}

func TestCanInteract_Range(t *testing.T) {
	def := authDefinition()
	player := &game.PlayerState{SessionID: "a", X: 5, Y: 5}

	inRange := &game.Object{ID: "sw1", Type: game.TypeSwitch, X: 7, Y: 7}
	outOfRange := &game.Object{ID: "sw1", Type: game.TypeSwitch, X: 8, Y: 8}
	snap := snapshotWith()

	if ok, _ := CanInteract(player, inRange, 2, snap, false, def); !ok {
		t.Error("Chebyshev distance 2 should be within range 2")
	}

	ok, reason := CanInteract(player, outOfRange, 2, snap, false, def)
	if ok || reason != ReasonOutOfRange {
		t.Errorf("Expected out of range rejection, got ok=%v reason=%q", ok, reason)
	}

	// Range is enforced even under the debug bypass.
	if ok, reason := CanInteract(player, outOfRange, 2, snap, true, def); ok || reason != ReasonOutOfRange {
		t.Errorf("Debug mode must not bypass range, got ok=%v reason=%q", ok, reason)
	}
}

func TestCanInteract_RoleLock(t *testing.T) {
	def := authDefinition()
	obj := &game.Object{ID: "sw1", Type: game.TypeSwitch, X: 0, Y: 0, RoleLock: game.RoleTech}
	snap := snapshotWith()

	analyst := &game.PlayerState{SessionID: "a", X: 0, Y: 0, Role: game.RoleAnalyst}
	ok, reason := CanInteract(analyst, obj, 2, snap, false, def)
	if ok || reason != ReasonWrongRole {
		t.Errorf("Expected wrong role rejection, got ok=%v reason=%q", ok, reason)
	}

	tech := &game.PlayerState{SessionID: "b", X: 0, Y: 0, Role: game.RoleTech}
	if ok, _ := CanInteract(tech, obj, 2, snap, false, def); !ok {
		t.Error("Matching role should pass the lock")
	}

	// Debug bypass waives the role lock.
	if ok, _ := CanInteract(analyst, obj, 2, snap, true, def); !ok {
		t.Error("Debug mode should bypass the role lock")
	}
}

func TestCanInteract_Prerequisites(t *testing.T) {
	def := authDefinition()
	obj := &game.Object{ID: "console1", Type: game.TypeConsole, X: 0, Y: 0, Requires: []string{"pSwitch"}}
	player := &game.PlayerState{SessionID: "a", X: 0, Y: 0}
	snap := snapshotWith()

	ok, reason := CanInteract(player, obj, 2, snap, false, def)
	if ok || reason != ReasonPrerequisites {
		t.Errorf("Expected prerequisites rejection, got ok=%v reason=%q", ok, reason)
	}

	snap.Puzzles["pSwitch"] = &game.PuzzleProgress{Success: true}
	if ok, _ := CanInteract(player, obj, 2, snap, false, def); !ok {
		t.Error("Solved prerequisite should unlock the object")
	}
}

func TestCanInteract_AlreadySolved(t *testing.T) {
	def := authDefinition()
	player := &game.PlayerState{SessionID: "a", X: 0, Y: 0}

	snap := snapshotWith()
	snap.Puzzles["pSwitch"] = &game.PuzzleProgress{Success: true}
	snap.Puzzles["pCode"] = &game.PuzzleProgress{Success: true}

	// The switch belongs to the solved multiSwitch puzzle: blocked.
	sw := &game.Object{ID: "sw1", Type: game.TypeSwitch, X: 0, Y: 0}
	ok, reason := CanInteract(player, sw, 2, snap, false, def)
	if ok || reason != ReasonAlreadySolved {
		t.Errorf("Expected already solved rejection, got ok=%v reason=%q", ok, reason)
	}

	// The console is the target of the solved infoSplit: blocked too.
	console := &game.Object{ID: "console1", Type: game.TypeConsole, X: 0, Y: 0}
	if ok, reason := CanInteract(player, console, 2, snap, false, def); ok || reason != ReasonAlreadySolved {
		t.Errorf("Expected already solved rejection, got ok=%v reason=%q", ok, reason)
	}

	// The panel only feeds the console puzzle; it stays readable.
	panel := &game.Object{ID: "panel1", Type: game.TypePanel, X: 0, Y: 0}
	if ok, _ := CanInteract(player, panel, 2, snap, false, def); !ok {
		t.Error("Source panel of a non-self-referential puzzle should stay readable")
	}
}

func TestReferences(t *testing.T) {
	multi := &game.Puzzle{ID: "p1", Type: game.PuzzleMultiSwitch, IDs: []string{"sw1", "sw2"}}
	info := &game.Puzzle{ID: "p2", Type: game.PuzzleInfoSplit, SourcePanel: "panel1", TargetConsole: "console1"}
	selfInfo := &game.Puzzle{ID: "p3", Type: game.PuzzleInfoSplit, SourcePanel: "note1", TargetConsole: "note1"}

	tests := []struct {
		p    *game.Puzzle
		obj  *game.Object
		want bool
	}{
		{multi, &game.Object{ID: "sw1", Type: game.TypeSwitch}, true},
		{multi, &game.Object{ID: "sw3", Type: game.TypeSwitch}, false},
		{info, &game.Object{ID: "console1", Type: game.TypeConsole}, true},
		{info, &game.Object{ID: "panel1", Type: game.TypePanel}, false},
		{selfInfo, &game.Object{ID: "note1", Type: game.TypePanel}, true},
	}

	for _, tt := range tests {
		if got := References(tt.p, tt.obj); got != tt.want {
			t.Errorf("References(%s, %s) = %v, want %v", tt.p.ID, tt.obj.ID, got, tt.want)
		}
	}
}
