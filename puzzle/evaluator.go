// Package puzzle contains the pure evaluation and authorization logic of
// the engine: one check function per puzzle kind, the activation
// bookkeeping applied on interactions, and the interaction gate. Nothing
// here touches a clock or performs I/O; callers pass timestamps in, so
// every function can be re-invoked at any time with the same result.
package puzzle

import (
	"fmt"

	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/geometry"
)

// Result 谜题判定结果
type Result struct {
	Success  bool
	Reason   string
	Progress int // 仅 sequence 谜题使用
}

// CheckPrerequisites reports whether every listed puzzle is already
// solved. An empty list trivially passes.
func CheckPrerequisites(requires []string, snap *game.Snapshot) bool {
	for _, id := range requires {
		progress, ok := snap.Puzzles[id]
		if !ok || !progress.Success {
			return false
		}
	}
	return true
}

// CheckRoomCompletion 房间内全部谜题成功即视为通关
func CheckRoomCompletion(room *game.Room, snap *game.Snapshot) bool {
	for _, p := range room.Puzzles {
		progress, ok := snap.Puzzles[p.ID]
		if !ok || !progress.Success {
			return false
		}
	}
	return true
}

// playerPoints collects current grid positions for separation checks.
func playerPoints(players map[string]*game.PlayerState) []geometry.Point {
	points := make([]geometry.Point, 0, len(players))
	for _, p := range players {
		points = append(points, geometry.Point{X: p.X, Y: p.Y})
	}
	return points
}

// CheckMultiSwitch evaluates a multiSwitch puzzle: prerequisites, all
// member switches on, the optional distance gate, then the optional
// simultaneity window. The first failing check provides the reason.
func CheckMultiSwitch(p *game.Puzzle, snap *game.Snapshot, players map[string]*game.PlayerState, debugSolo bool) Result {
	return checkMulti(p, snap, players, debugSolo, "switches")
}

// CheckMultiValve is the same evaluation over valve objects.
func CheckMultiValve(p *game.Puzzle, snap *game.Snapshot, players map[string]*game.PlayerState, debugSolo bool) Result {
	return checkMulti(p, snap, players, debugSolo, "valves")
}

func checkMulti(p *game.Puzzle, snap *game.Snapshot, players map[string]*game.PlayerState, debugSolo bool, noun string) Result {
	if !CheckPrerequisites(p.Requires, snap) {
		return Result{Reason: "Prerequisites not met"}
	}

	for _, id := range p.IDs {
		obj, ok := snap.Objects[id]
		if !ok || obj.State != game.StateOn {
			return Result{Reason: fmt.Sprintf("Not all %s activated", noun)}
		}
	}

	if p.DistanceGate != nil && !debugSolo {
		if !geometry.CheckMinSeparation(playerPoints(players), p.DistanceGate.MinTiles) {
			return Result{Reason: "Players too close together"}
		}
	}

	if p.Simultaneous && !debugSolo {
		progress := snap.Puzzles[p.ID]
		var minTS, maxTS int64
		for _, id := range p.IDs {
			ts := int64(0)
			if progress != nil {
				ts = progress.Activations[id]
			}
			if ts == 0 {
				continue
			}
			if minTS == 0 || ts < minTS {
				minTS = ts
			}
			if ts > maxTS {
				maxTS = ts
			}
		}
		if maxTS-minTS > p.WindowMs {
			return Result{Reason: fmt.Sprintf("%s not activated simultaneously", properNoun(noun))}
		}
	}

	return Result{Success: true}
}

func properNoun(noun string) string {
	if noun == "switches" {
		return "Switches"
	}
	return "Valves"
}

// CheckInfoSplit evaluates a code-transcription puzzle: the target console
// must hold a non-empty input exactly equal to the source panel's code.
// Comparison is case-sensitive and exact.
func CheckInfoSplit(p *game.Puzzle, snap *game.Snapshot) Result {
	if !CheckPrerequisites(p.Requires, snap) {
		return Result{Reason: "Prerequisites not met"}
	}

	consoleObj, ok := snap.Objects[p.TargetConsole]
	if !ok || consoleObj.LastInput == "" {
		return Result{Reason: "No code entered"}
	}

	panelObj, ok := snap.Objects[p.SourcePanel]
	if !ok || panelObj.Content == nil || panelObj.Content.Code == "" {
		return Result{Reason: "Panel code not found"}
	}

	if consoleObj.LastInput != panelObj.Content.Code {
		return Result{Reason: "Incorrect code"}
	}
	return Result{Success: true}
}

// CheckSequence reports whether the ordered activation list has been
// walked to the end. Step advancement itself happens in Apply.
func CheckSequence(p *game.Puzzle, snap *game.Snapshot) Result {
	progress := snap.Puzzles[p.ID]
	step := 0
	if progress != nil {
		step = progress.CurrentStep
	}
	if step >= len(p.Order) {
		return Result{Success: true, Progress: len(p.Order)}
	}
	return Result{
		Progress: step,
		Reason:   fmt.Sprintf("Step %d/%d", step+1, len(p.Order)),
	}
}

// CheckWeightPlate requires every declared plate to reach its required
// weight. Weight = players standing on the plate's tile, plus one when
// an accepted item sits on the plate.
func CheckWeightPlate(p *game.Puzzle, snap *game.Snapshot, players map[string]*game.PlayerState) Result {
	for _, plate := range p.Plates {
		obj, ok := snap.Objects[plate.ID]
		if !ok {
			continue
		}
		weight := 0
		for _, player := range players {
			if player.X == obj.X && player.Y == obj.Y {
				weight++
			}
		}
		if obj.HasItem {
			weight++
		}
		if weight < obj.RequiredWeight {
			return Result{Reason: fmt.Sprintf("Plate %s needs more weight", plate.ID)}
		}
	}
	return Result{Success: true}
}
