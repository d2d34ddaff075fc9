package puzzle

import (
	"github.com/wfunc/escaperoom/game"
)

// ActionType 作用于谜题的动作类型
type ActionType string

const (
	ActionToggle        ActionType = "toggle"        // 开关/阀门翻转
	ActionActivate      ActionType = "activate"      // sequence 谜题的按序激活
	ActionPanelRead     ActionType = "panelRead"     // 打开自引用面板（纯阅读谜题）
	ActionConsoleSubmit ActionType = "consoleSubmit" // 控制台提交代码
)

// Action 描述一次到达谜题的交互及其墙钟时间戳（毫秒）。
type Action struct {
	Type      ActionType
	ObjectID  string
	Timestamp int64
}

// Apply records an action against a puzzle's progress and re-evaluates it.
// It mutates only the snapshot's progress record for this puzzle (plus the
// global error counter on sequence resets) and returns whether the puzzle
// flipped to solved on this call.
//
// Timestamps come in with the action; nothing here reads a clock, so
// Apply is idempotent for a repeated action at the same timestamp and can
// be driven from both the action path and the periodic tick.
func Apply(p *game.Puzzle, action Action, snap *game.Snapshot, players map[string]*game.PlayerState, debugSolo bool) bool {
	progress, ok := snap.Puzzles[p.ID]
	if !ok {
		progress = &game.PuzzleProgress{}
		snap.Puzzles[p.ID] = progress
	}
	wasSolved := progress.Success

	switch p.Type {
	case game.PuzzleMultiSwitch, game.PuzzleMultiValve:
		if action.Type == ActionToggle && action.ObjectID != "" {
			recordActivation(progress, snap, action)
		}
		var result Result
		if p.Type == game.PuzzleMultiSwitch {
			result = CheckMultiSwitch(p, snap, players, debugSolo)
		} else {
			result = CheckMultiValve(p, snap, players, debugSolo)
		}
		progress.Success = result.Success
		progress.Reason = result.Reason

	case game.PuzzleSequence:
		applySequence(p, action, progress, snap)

	case game.PuzzleWeightPlate:
		result := CheckWeightPlate(p, snap, players)
		progress.Success = result.Success
		progress.Reason = result.Reason

	case game.PuzzleInfoSplit:
		if action.Type == ActionPanelRead && p.SourcePanel == p.TargetConsole {
			// Self-referential infoSplit: reading the panel is the puzzle.
			progress.Success = true
			progress.Reason = ""
		}
		if action.Type == ActionConsoleSubmit {
			result := CheckInfoSplit(p, snap)
			progress.Success = result.Success
			progress.Reason = result.Reason
		}
	}

	return progress.Success && !wasSolved
}

// recordActivation keeps the per-object activation timestamp in sync with
// the object's on/off state. Clearing the stamp on the off transition
// prevents a stale early timestamp from deciding a later all-on window.
func recordActivation(progress *game.PuzzleProgress, snap *game.Snapshot, action Action) {
	obj := snap.Objects[action.ObjectID]
	if obj == nil {
		return
	}
	if obj.State == game.StateOn {
		if progress.Activations == nil {
			progress.Activations = make(map[string]int64)
		}
		progress.Activations[action.ObjectID] = action.Timestamp
	} else {
		delete(progress.Activations, action.ObjectID)
	}
}

func applySequence(p *game.Puzzle, action Action, progress *game.PuzzleProgress, snap *game.Snapshot) {
	// Lock expiry resolves by timestamp comparison, never by callback.
	if progress.Locked && action.Timestamp > progress.LockUntil {
		progress.Locked = false
		progress.LockUntil = 0
	}

	if action.Type == ActionActivate && action.ObjectID != "" && !progress.Success {
		if progress.Locked {
			// Lockout penalty in force: the activation is swallowed.
			return
		}
		expected := ""
		if progress.CurrentStep < len(p.Order) {
			expected = p.Order[progress.CurrentStep]
		}
		if action.ObjectID == expected {
			progress.CurrentStep++
			progress.LastStepTS = action.Timestamp
			if progress.CurrentStep >= len(p.Order) {
				progress.Success = true
				progress.Reason = ""
			}
		} else if p.ResetOnError {
			progress.CurrentStep = 0
			progress.Locked = true
			progress.LockUntil = action.Timestamp + p.LockMs
			snap.Errors++
		}
	}

	if !progress.Success {
		result := CheckSequence(p, snap)
		progress.Reason = result.Reason
	}
}
