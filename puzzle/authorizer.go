package puzzle

import (
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/geometry"
)

// Rejection reasons surfaced to the presentation layer. Rejected
// interactions are routine, so these are plain strings, not errors.
const (
	ReasonOutOfRange    = "out of range"
	ReasonWrongRole     = "wrong role"
	ReasonPrerequisites = "prerequisites not met"
	ReasonAlreadySolved = "already completed"
)

// CanInteract decides whether the acting player may interact with the
// object right now. Checks short-circuit in order: range (always
// enforced), debug bypass, role lock, prerequisite puzzles, and the
// already-solved guard. The returned reason is empty on success.
func CanInteract(player *game.PlayerState, obj *game.Object, adjacencyRange int, snap *game.Snapshot, debugMode bool, def *game.Definition) (bool, string) {
	if geometry.ChebyshevDistance(player.X, player.Y, obj.X, obj.Y) > adjacencyRange {
		return false, ReasonOutOfRange
	}

	// QA override: range still applies, everything after it does not.
	if debugMode {
		return true, ""
	}

	if obj.RoleLock != "" && player.Role != obj.RoleLock {
		return false, ReasonWrongRole
	}

	if len(obj.Requires) > 0 && !CheckPrerequisites(obj.Requires, snap) {
		return false, ReasonPrerequisites
	}

	// Anti-exploit guard: an object tied to an already-solved puzzle must
	// not re-trigger that puzzle's mechanism.
	for _, p := range Referencing(def, obj) {
		if progress, ok := snap.Puzzles[p.ID]; ok && progress.Success {
			return false, ReasonAlreadySolved
		}
	}

	return true, ""
}

// References reports whether the puzzle's success criteria involve the
// object, by the type-specific association rule:
//
//   - panel ↔ infoSplit with sourcePanel == targetConsole == object id
//     (the self-referential "read" puzzle),
//   - console ↔ infoSplit with targetConsole == object id,
//   - switch/valve ↔ multiSwitch/multiValve listing the object id.
func References(p *game.Puzzle, obj *game.Object) bool {
	switch {
	case obj.Type == game.TypePanel && p.Type == game.PuzzleInfoSplit:
		return p.SourcePanel == obj.ID && p.TargetConsole == obj.ID
	case obj.Type == game.TypeConsole && p.Type == game.PuzzleInfoSplit:
		return p.TargetConsole == obj.ID
	case obj.Type == game.TypeSwitch || obj.Type == game.TypeValve:
		if p.Type != game.PuzzleMultiSwitch && p.Type != game.PuzzleMultiValve {
			return false
		}
		for _, id := range p.IDs {
			if id == obj.ID {
				return true
			}
		}
	}
	return false
}

// Referencing collects every puzzle in the definition that references the
// object. Used by the already-solved guard and by debriefing lookups.
func Referencing(def *game.Definition, obj *game.Object) []*game.Puzzle {
	var out []*game.Puzzle
	for _, room := range def.Rooms {
		for _, p := range room.Puzzles {
			if References(p, obj) {
				out = append(out, p)
			}
		}
	}
	return out
}
