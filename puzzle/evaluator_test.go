package puzzle

import (
	"testing"

	"github.com/wfunc/escaperoom/game"
)

func snapshotWith(objects ...*game.Object) *game.Snapshot {
	snap := &game.Snapshot{
		Objects:   make(map[string]*game.Object),
		Puzzles:   make(map[string]*game.PuzzleProgress),
		Keys:      []string{},
		CodeParts: make(map[string]string),
	}
	for _, obj := range objects {
		snap.Objects[obj.ID] = obj
	}
	return snap
}

func onSwitch(id string, x, y int) *game.Object {
	return &game.Object{ID: id, Type: game.TypeSwitch, X: x, Y: y, State: game.StateOn}
}

func TestCheckMultiSwitch_AllOn(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleMultiSwitch,
		IDs: []string{"sw1", "sw2"},
	}
	snap := snapshotWith(onSwitch("sw1", 0, 0), onSwitch("sw2", 5, 0))

	result := CheckMultiSwitch(p, snap, nil, false)
	if !result.Success {
		t.Fatalf("Expected success, got reason %q", result.Reason)
	}
}

func TestCheckMultiSwitch_NotAllOn(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleMultiSwitch,
		IDs: []string{"sw1", "sw2"},
	}
	snap := snapshotWith(onSwitch("sw1", 0, 0),
		&game.Object{ID: "sw2", Type: game.TypeSwitch, X: 5, Y: 0, State: game.StateOff})

	result := CheckMultiSwitch(p, snap, nil, false)
	if result.Success {
		t.Fatal("Expected failure with one switch off")
	}
	if result.Reason != "Not all switches activated" {
		t.Errorf("Unexpected reason %q", result.Reason)
	}
}

func TestCheckMultiSwitch_SimultaneityWindow(t *testing.T) {
	tests := []struct {
		name string
		ts1  int64
		ts2  int64
		want bool
	}{
		{"inside window", 10000, 12999, true},
		{"exactly at window", 10000, 13000, true},
		{"outside window", 10000, 13001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &game.Puzzle{
				ID: "p1", Type: game.PuzzleMultiSwitch,
				IDs:          []string{"sw1", "sw2"},
				Simultaneous: true, WindowMs: 3000,
			}
			snap := snapshotWith(onSwitch("sw1", 0, 0), onSwitch("sw2", 5, 0))
			snap.Puzzles["p1"] = &game.PuzzleProgress{
				Activations: map[string]int64{"sw1": tt.ts1, "sw2": tt.ts2},
			}

			result := CheckMultiSwitch(p, snap, nil, false)
			if result.Success != tt.want {
				t.Errorf("Success = %v, want %v (reason %q)", result.Success, tt.want, result.Reason)
			}
			if !tt.want && result.Reason != "Switches not activated simultaneously" {
				t.Errorf("Unexpected reason %q", result.Reason)
			}
		})
	}
}

func TestCheckMultiSwitch_SimultaneityBypassedInDebugSolo(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleMultiSwitch,
		IDs:          []string{"sw1", "sw2"},
		Simultaneous: true, WindowMs: 3000,
		DistanceGate: &game.DistanceGate{MinTiles: 3},
	}
	snap := snapshotWith(onSwitch("sw1", 0, 0), onSwitch("sw2", 5, 0))
	snap.Puzzles["p1"] = &game.PuzzleProgress{
		Activations: map[string]int64{"sw1": 1000, "sw2": 99000},
	}
	players := map[string]*game.PlayerState{
		"a": {SessionID: "a", X: 0, Y: 0},
		"b": {SessionID: "b", X: 1, Y: 0},
	}

	if result := CheckMultiSwitch(p, snap, players, false); result.Success {
		t.Fatal("Expected failure without debug bypass")
	}
	if result := CheckMultiSwitch(p, snap, players, true); !result.Success {
		t.Fatalf("Expected debug solo bypass to succeed, got reason %q", result.Reason)
	}
}

func TestCheckMultiValve_DistanceGate(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleMultiValve,
		IDs:          []string{"v1", "v2"},
		DistanceGate: &game.DistanceGate{MinTiles: 3},
	}
	snap := snapshotWith(
		&game.Object{ID: "v1", Type: game.TypeValve, X: 0, Y: 0, State: game.StateOn},
		&game.Object{ID: "v2", Type: game.TypeValve, X: 6, Y: 0, State: game.StateOn},
	)

	near := map[string]*game.PlayerState{
		"a": {SessionID: "a", X: 0, Y: 0},
		"b": {SessionID: "b", X: 2, Y: 0},
	}
	result := CheckMultiValve(p, snap, near, false)
	if result.Success {
		t.Fatal("Expected failure with players too close")
	}
	if result.Reason != "Players too close together" {
		t.Errorf("Unexpected reason %q", result.Reason)
	}

	apart := map[string]*game.PlayerState{
		"a": {SessionID: "a", X: 0, Y: 0},
		"b": {SessionID: "b", X: 6, Y: 0},
	}
	if result := CheckMultiValve(p, snap, apart, false); !result.Success {
		t.Fatalf("Expected success with separated players, got reason %q", result.Reason)
	}
}

func TestCheckMulti_Prerequisites(t *testing.T) {
	p := &game.Puzzle{
		ID: "p2", Type: game.PuzzleMultiSwitch,
		IDs:      []string{"sw1"},
		Requires: []string{"p1"},
	}
	snap := snapshotWith(onSwitch("sw1", 0, 0))

	result := CheckMultiSwitch(p, snap, nil, false)
	if result.Success || result.Reason != "Prerequisites not met" {
		t.Fatalf("Expected prerequisites failure, got %+v", result)
	}

	snap.Puzzles["p1"] = &game.PuzzleProgress{Success: true}
	if result := CheckMultiSwitch(p, snap, nil, false); !result.Success {
		t.Fatalf("Expected success with prerequisite solved, got reason %q", result.Reason)
	}
}

func TestCheckInfoSplit(t *testing.T) {
	newSnap := func(input string) (*game.Puzzle, *game.Snapshot) {
		p := &game.Puzzle{
			ID: "p1", Type: game.PuzzleInfoSplit,
			SourcePanel: "panel1", TargetConsole: "console1",
		}
		snap := snapshotWith(
			&game.Object{ID: "panel1", Type: game.TypePanel, Content: &game.PanelContent{Code: "B14"}},
			&game.Object{ID: "console1", Type: game.TypeConsole, LastInput: input},
		)
		return p, snap
	}

	tests := []struct {
		input      string
		want       bool
		wantReason string
	}{
		{"B14", true, ""},
		{"b14", false, "Incorrect code"}, // case-sensitive
		{"B140", false, "Incorrect code"},
		{" B14", false, "Incorrect code"},
		{"", false, "No code entered"},
	}

	for _, tt := range tests {
		p, snap := newSnap(tt.input)
		result := CheckInfoSplit(p, snap)
		if result.Success != tt.want {
			t.Errorf("input %q: Success = %v, want %v", tt.input, result.Success, tt.want)
		}
		if result.Reason != tt.wantReason {
			t.Errorf("input %q: Reason = %q, want %q", tt.input, result.Reason, tt.wantReason)
		}
	}
}

func TestCheckInfoSplit_MissingPanelCode(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleInfoSplit,
		SourcePanel: "panel1", TargetConsole: "console1",
	}
	snap := snapshotWith(
		&game.Object{ID: "panel1", Type: game.TypePanel, Content: &game.PanelContent{Text: "no code here"}},
		&game.Object{ID: "console1", Type: game.TypeConsole, LastInput: "B14"},
	)

	result := CheckInfoSplit(p, snap)
	if result.Success || result.Reason != "Panel code not found" {
		t.Fatalf("Expected panel code failure, got %+v", result)
	}
}

func TestCheckSequence_Progress(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleSequence,
		Order: []string{"v2", "v3", "v1"},
	}
	snap := snapshotWith()

	result := CheckSequence(p, snap)
	if result.Success {
		t.Fatal("Expected unsolved sequence")
	}
	if result.Reason != "Step 1/3" {
		t.Errorf("Unexpected reason %q", result.Reason)
	}

	snap.Puzzles["p1"] = &game.PuzzleProgress{CurrentStep: 2}
	result = CheckSequence(p, snap)
	if result.Reason != "Step 3/3" {
		t.Errorf("Unexpected reason %q", result.Reason)
	}

	snap.Puzzles["p1"] = &game.PuzzleProgress{CurrentStep: 3}
	result = CheckSequence(p, snap)
	if !result.Success || result.Progress != 3 {
		t.Errorf("Expected success at step 3, got %+v", result)
	}
}

func TestCheckWeightPlate(t *testing.T) {
	p := &game.Puzzle{
		ID: "p1", Type: game.PuzzleWeightPlate,
		Plates: []game.PlateRequirement{
			{ID: "plate1", Need: "players"},
			{ID: "plate2", Need: "item"},
		},
	}
	snap := snapshotWith(
		&game.Object{ID: "plate1", Type: game.TypeWeightPlate, X: 2, Y: 3, RequiredWeight: 1},
		&game.Object{ID: "plate2", Type: game.TypeWeightPlate, X: 5, Y: 3, RequiredWeight: 2},
	)

	players := map[string]*game.PlayerState{
		"a": {SessionID: "a", X: 2, Y: 3},
		"b": {SessionID: "b", X: 5, Y: 3},
	}

	result := CheckWeightPlate(p, snap, players)
	if result.Success {
		t.Fatal("Expected failure with plate2 underweight")
	}
	if result.Reason != "Plate plate2 needs more weight" {
		t.Errorf("Unexpected reason %q", result.Reason)
	}

	// An accepted item adds one unit of weight.
	snap.Objects["plate2"].HasItem = true
	if result := CheckWeightPlate(p, snap, players); !result.Success {
		t.Fatalf("Expected success with item placed, got reason %q", result.Reason)
	}
}

func TestCheckRoomCompletion(t *testing.T) {
	room := &game.Room{
		ID: "R1",
		Puzzles: []*game.Puzzle{
			{ID: "p1", Type: game.PuzzleMultiSwitch},
			{ID: "p2", Type: game.PuzzleInfoSplit},
		},
	}
	snap := snapshotWith()
	snap.Puzzles["p1"] = &game.PuzzleProgress{Success: true}

	if CheckRoomCompletion(room, snap) {
		t.Fatal("Room should not be complete with one puzzle unsolved")
	}

	snap.Puzzles["p2"] = &game.PuzzleProgress{Success: true}
	if !CheckRoomCompletion(room, snap) {
		t.Fatal("Room should be complete with every puzzle solved")
	}
}
