// Package engine implements the authoritative game state machine. Exactly
// one Engine owns the mutable snapshot for a session; player actions and
// the once-per-second tick are serialized against it through a single
// mutex, so the simultaneity-window and distance-gate checks always see a
// consistent joint view of all players and activations.
package engine

import (
	"sync"

	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/puzzle"
	"github.com/wfunc/escaperoom/scoring"
)

// Mode 会话模式。DebugSolo 豁免同时性/间距约束并启用自锁宽限，
// 供单人测试多人谜题；构造时一次性确定，不再逐调用传布尔。
type Mode int

const (
	ModeNormal Mode = iota
	ModeDebugSolo
)

// Outcome 会话结局
type Outcome string

const (
	OutcomePlaying Outcome = "playing"
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

// ActionResult reports whether an action was applied. Rejections are
// expected and frequent; the reason is a hint for the UI, not an error.
type ActionResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func accepted() ActionResult              { return ActionResult{Accepted: true} }
func rejected(reason string) ActionResult { return ActionResult{Reason: reason} }

// Engine 权威状态机
type Engine struct {
	def   *game.Definition
	mode  Mode
	clock Clock
	pub   Publisher

	mu      sync.Mutex
	snap    *game.Snapshot
	players map[string]*game.PlayerState
	granted map[string]bool  // roomID -> outputs already granted
	latches map[string]int64 // objectID -> solo latch deadline (ms)
	outcome Outcome
}

// New builds an engine for one session: deep-copied runtime objects,
// unsolved puzzle records, full timer, base score.
func New(def *game.Definition, mode Mode, clock Clock, pub Publisher) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Engine{
		def:     def,
		mode:    mode,
		clock:   clock,
		pub:     pub,
		snap:    game.NewSnapshot(def),
		players: make(map[string]*game.PlayerState),
		granted: make(map[string]bool),
		latches: make(map[string]int64),
		outcome: OutcomePlaying,
	}
}

func (e *Engine) debugSolo() bool { return e.mode == ModeDebugSolo }

// Outcome returns the current terminal state, OutcomePlaying while live.
func (e *Engine) Outcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome
}

// Snapshot returns a deep copy safe for external consumers.
func (e *Engine) Snapshot() *game.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

// Players returns a copy of the current roster.
func (e *Engine) Players() []game.PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]game.PlayerState, 0, len(e.players))
	for _, p := range e.players {
		out = append(out, *p)
	}
	return out
}

// Join adds a participant at the current room's spawn point.
func (e *Engine) Join(sessionID, displayName string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.def.RoomByID(e.snap.RoomID)
	p := &game.PlayerState{
		SessionID:   sessionID,
		DisplayName: displayName,
		Facing:      game.FacingSouth,
	}
	if room != nil {
		p.X = room.Spawn.X
		p.Y = room.Spawn.Y
	}
	e.players[sessionID] = p
	e.pub.PublishEvent(Event{Type: EventPlayerJoined, SessionID: sessionID, Name: displayName})
	e.publish()
}

// Leave removes a participant.
func (e *Engine) Leave(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.players[sessionID]; !ok {
		return
	}
	delete(e.players, sessionID)
	e.pub.PublishEvent(Event{Type: EventPlayerLeft, SessionID: sessionID})
	e.reevaluateWeightPlates()
	e.publish()
}

// ChooseRole assigns the player's role.
func (e *Engine) ChooseRole(sessionID string, role game.Role) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[sessionID]
	if !ok {
		return rejected("unknown session")
	}
	p.Role = role
	e.pub.PublishEvent(Event{Type: EventRoleChosen, SessionID: sessionID, Role: string(role)})
	return accepted()
}

// Move updates a player's grid position, bounded by the current room.
// Weight plates react to positions, so they are re-evaluated afterwards.
func (e *Engine) Move(sessionID string, x, y int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[sessionID]
	if !ok {
		return rejected("unknown session")
	}
	room := e.def.RoomByID(e.snap.RoomID)
	if room != nil && (x < 0 || y < 0 || x >= room.Grid.Cols || y >= room.Grid.Rows) {
		return rejected("outside room grid")
	}
	p.X, p.Y = x, y
	e.pub.PublishEvent(Event{Type: EventPlayerMoved, SessionID: sessionID, X: x, Y: y})
	e.reevaluateWeightPlates()
	e.checkCompletions()
	e.publish()
	return accepted()
}

// Interact applies a state-changing interaction with an object. Missing
// actors/objects and authorization failures are silent no-ops with a
// reason; they never abort the session.
func (e *Engine) Interact(sessionID, objectID string, debugMode bool) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.outcome != OutcomePlaying {
		return rejected("session over")
	}
	actor, ok := e.players[sessionID]
	if !ok {
		return rejected("unknown session")
	}
	obj, ok := e.snap.Objects[objectID]
	if !ok {
		return rejected("object not found")
	}

	allowed, reason := puzzle.CanInteract(actor, obj, e.def.UI.AdjacencyRange, e.snap, debugMode, e.def)
	if !allowed {
		return rejected(reason)
	}

	ts := nowMs(e.clock)
	room := e.roomOfObject(objectID)

	switch obj.Type {
	case game.TypeSwitch, game.TypeValve:
		e.toggle(obj, room, ts)

	case game.TypePanel:
		e.readPanel(obj, room, ts)

	case game.TypeConsole:
		// Opening a console has no puzzle effect; evaluation happens on
		// explicit code submission.

	case game.TypeDoor:
		return e.useDoor(obj)

	default:
		return rejected("object not interactive")
	}

	e.checkCompletions()
	e.publish()
	return accepted()
}

// toggle flips a switch or valve and routes the activation into every
// puzzle that references it.
func (e *Engine) toggle(obj *game.Object, room *game.Room, ts int64) {
	if obj.State == game.StateOn {
		obj.State = game.StateOff
		delete(e.latches, obj.ID)
	} else {
		obj.State = game.StateOn
	}

	// Switch with a bound LED mirrors its state into it.
	if obj.Type == game.TypeSwitch && obj.LEDID != "" {
		if led, ok := e.snap.Objects[obj.LEDID]; ok {
			if obj.State == game.StateOn {
				led.State = game.StateGreen
				led.Label = "ON"
			} else {
				led.State = game.StateRed
				led.Label = "OFF"
			}
		}
	}

	for _, p := range puzzle.Referencing(e.def, obj) {
		if e.debugSolo() && obj.State == game.StateOn && p.DebugSolo != nil && p.DebugSolo.Latched {
			e.latches[obj.ID] = ts + p.DebugSolo.LatchMs
		}
		solved := puzzle.Apply(p, puzzle.Action{Type: puzzle.ActionToggle, ObjectID: obj.ID, Timestamp: ts}, e.snap, e.players, e.debugSolo())
		if solved {
			e.pub.PublishEvent(Event{Type: EventPuzzleSolved, PuzzleID: p.ID})
		}
	}

	// A valve activation also walks the room's sequence puzzles, in or
	// out of order.
	if obj.Type == game.TypeValve && room != nil {
		for _, p := range room.Puzzles {
			if p.Type != game.PuzzleSequence {
				continue
			}
			solved := puzzle.Apply(p, puzzle.Action{Type: puzzle.ActionActivate, ObjectID: obj.ID, Timestamp: ts}, e.snap, e.players, e.debugSolo())
			if solved {
				e.pub.PublishEvent(Event{Type: EventPuzzleSolved, PuzzleID: p.ID})
			}
		}
	}
}

// readPanel satisfies self-referential infoSplit puzzles, where reading
// the panel is the whole task.
func (e *Engine) readPanel(obj *game.Object, room *game.Room, ts int64) {
	if room == nil {
		return
	}
	for _, p := range room.Puzzles {
		if p.Type != game.PuzzleInfoSplit || p.SourcePanel != obj.ID || p.TargetConsole != obj.ID {
			continue
		}
		solved := puzzle.Apply(p, puzzle.Action{Type: puzzle.ActionPanelRead, ObjectID: obj.ID, Timestamp: ts}, e.snap, e.players, e.debugSolo())
		if solved {
			e.pub.PublishEvent(Event{Type: EventPuzzleSolved, PuzzleID: p.ID})
		}
	}
}

// useDoor passes through an open door, or resolves unlock dependencies on
// a closed one. Dependencies are "<roomID>_complete" markers or collected
// key ids; a closed door with no dependencies opens unconditionally.
func (e *Engine) useDoor(obj *game.Object) ActionResult {
	if obj.Open {
		e.transitionRoom()
		e.publish()
		return accepted()
	}

	if len(obj.LockedBy) > 0 {
		for _, dep := range obj.LockedBy {
			if !e.dependencySatisfied(dep) {
				return rejected("door locked")
			}
		}
	}
	obj.Open = true
	e.pub.PublishEvent(Event{Type: EventDoorOpened, ObjectID: obj.ID})
	e.publish()
	return accepted()
}

func (e *Engine) dependencySatisfied(dep string) bool {
	const marker = "_complete"
	if len(dep) > len(marker) && dep[len(dep)-len(marker):] == marker {
		roomID := dep[:len(dep)-len(marker)]
		if room := e.def.RoomByID(roomID); room != nil {
			return puzzle.CheckRoomCompletion(room, e.snap)
		}
	}
	return e.snap.HasKey(dep)
}

// transitionRoom advances the team to the next room in declaration order
// and places everyone at its spawn point.
func (e *Engine) transitionRoom() {
	next := e.def.NextRoomID(e.snap.RoomID)
	if next == "" {
		return
	}
	e.snap.RoomID = next
	room := e.def.RoomByID(next)
	if room != nil {
		for _, p := range e.players {
			p.X = room.Spawn.X
			p.Y = room.Spawn.Y
		}
	}
	logger.Log.Infof("Team entered room %s", next)
	e.pub.PublishEvent(Event{Type: EventRoomEntered, RoomID: next})
}

// SubmitConsole records the input and evaluates every infoSplit puzzle
// targeting the console. Comparison is strict; callers uppercase before
// submitting per the console UI contract, the engine does not fold case.
func (e *Engine) SubmitConsole(consoleID, input string) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.outcome != OutcomePlaying {
		return rejected("session over")
	}
	obj, ok := e.snap.Objects[consoleID]
	if !ok || obj.Type != game.TypeConsole {
		return rejected("console not found")
	}

	obj.LastInput = input
	ts := nowMs(e.clock)
	correct := false
	for _, room := range e.def.Rooms {
		for _, p := range room.Puzzles {
			if p.Type != game.PuzzleInfoSplit || p.TargetConsole != consoleID {
				continue
			}
			if progress, ok := e.snap.Puzzles[p.ID]; ok && progress.Success {
				// Success is monotonic; a later bad submission must not
				// regress a solved puzzle (or count as an error).
				correct = true
				continue
			}
			solved := puzzle.Apply(p, puzzle.Action{Type: puzzle.ActionConsoleSubmit, ObjectID: consoleID, Timestamp: ts}, e.snap, e.players, e.debugSolo())
			if e.snap.Puzzles[p.ID].Success {
				correct = true
			} else {
				e.snap.Errors++
			}
			if solved {
				e.pub.PublishEvent(Event{Type: EventPuzzleSolved, PuzzleID: p.ID})
			}
		}
	}
	obj.Correct = correct

	e.checkCompletions()
	e.publish()
	if !correct {
		return rejected("incorrect code")
	}
	return accepted()
}

// PickPlace picks an item up or places it down. Placing an accepted item
// on a weight plate's tile contributes one unit of weight.
func (e *Engine) PickPlace(sessionID, itemID, action string, targetX, targetY int) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.outcome != OutcomePlaying {
		return rejected("session over")
	}
	actor, ok := e.players[sessionID]
	if !ok {
		return rejected("unknown session")
	}
	item, ok := e.snap.Objects[itemID]
	if !ok || item.Type != game.TypeItem {
		return rejected("item not found")
	}

	switch action {
	case "pick":
		if item.CarriedBy != "" {
			return rejected("item already carried")
		}
		if allowed, reason := puzzle.CanInteract(actor, item, e.def.UI.AdjacencyRange, e.snap, false, e.def); !allowed {
			return rejected(reason)
		}
		item.CarriedBy = sessionID
		e.setPlateItem(item.X, item.Y, false)

	case "place":
		if item.CarriedBy != sessionID {
			return rejected("item not carried by player")
		}
		if dx, dy := targetX-actor.X, targetY-actor.Y; dx > e.def.UI.AdjacencyRange || -dx > e.def.UI.AdjacencyRange || dy > e.def.UI.AdjacencyRange || -dy > e.def.UI.AdjacencyRange {
			return rejected(puzzle.ReasonOutOfRange)
		}
		item.CarriedBy = ""
		item.X, item.Y = targetX, targetY
		e.setPlateItemFor(item, targetX, targetY)

	default:
		return rejected("unknown pick/place action")
	}

	e.reevaluateWeightPlates()
	e.checkCompletions()
	e.publish()
	return accepted()
}

func (e *Engine) setPlateItem(x, y int, hasItem bool) {
	for _, obj := range e.snap.Objects {
		if obj.Type == game.TypeWeightPlate && obj.X == x && obj.Y == y {
			obj.HasItem = hasItem
		}
	}
}

func (e *Engine) setPlateItemFor(item *game.Object, x, y int) {
	for _, obj := range e.snap.Objects {
		if obj.Type != game.TypeWeightPlate || obj.X != x || obj.Y != y {
			continue
		}
		if obj.AcceptsItemID == "" || obj.AcceptsItemID == item.ID {
			obj.HasItem = true
		}
	}
}

// RequestHint spends one of the limited hints and deducts its cost.
func (e *Engine) RequestHint(roomID string) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap.HintsUsed >= e.def.Scoring.MaxHints {
		return rejected("no hints remaining")
	}
	e.snap.HintsUsed++
	e.snap.Score -= e.def.Scoring.HintCost
	if e.snap.Score < 0 {
		e.snap.Score = 0
	}
	e.pub.PublishEvent(Event{
		Type:      EventHintUsed,
		RoomID:    roomID,
		Remaining: e.def.Scoring.MaxHints - e.snap.HintsUsed,
	})
	e.publish()
	return accepted()
}

// Tick advances the session by one second: timer decrement, solo-latch
// expiry, score recompute, snapshot publish. Timer exhaustion is a
// terminal one-shot defeat. Callers drive this once per second while the
// session is playing; after a terminal state ticking has no effect.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.outcome != OutcomePlaying {
		return
	}

	now := nowMs(e.clock)
	e.expireLatches(now)

	e.snap.TimerMs -= 1000
	if e.snap.TimerMs < 0 {
		e.snap.TimerMs = 0
	}

	e.reevaluateWeightPlates()
	e.checkCompletions()
	e.recomputeScore()
	e.publish()

	if e.snap.TimerMs == 0 && e.outcome == OutcomePlaying {
		e.outcome = OutcomeDefeat
		logger.Log.Info("Session over: timer exhausted")
		e.pub.PublishEvent(Event{Type: EventGameOver, Cause: CauseTimeout})
	}
}

// expireLatches turns a solo-latched switch back off once its grace
// period lapses, unless its puzzle already succeeded.
func (e *Engine) expireLatches(now int64) {
	for objectID, until := range e.latches {
		if now < until {
			continue
		}
		delete(e.latches, objectID)
		obj, ok := e.snap.Objects[objectID]
		if !ok || obj.State != game.StateOn {
			continue
		}
		refs := puzzle.Referencing(e.def, obj)
		solved := false
		for _, p := range refs {
			if progress, ok := e.snap.Puzzles[p.ID]; ok && progress.Success {
				solved = true
			}
		}
		if solved {
			continue
		}
		e.toggle(obj, e.roomOfObject(objectID), now)
	}
}

func (e *Engine) recomputeScore() {
	breakdown := scoring.Calculate(
		e.snap.TimerMs,
		e.def.Timer.DurationMs,
		e.snap.HintsUsed,
		e.snap.Errors,
		e.completedRoomCount(),
		e.scorableRoomCount(),
		e.def.Scoring.HintCost,
		e.def.Scoring.ErrorPenalty,
	)
	e.snap.Score = breakdown.FinalScore
}

// ScoreBreakdown returns the current full scoring breakdown.
func (e *Engine) ScoreBreakdown() scoring.Breakdown {
	e.mu.Lock()
	defer e.mu.Unlock()
	return scoring.Calculate(
		e.snap.TimerMs,
		e.def.Timer.DurationMs,
		e.snap.HintsUsed,
		e.snap.Errors,
		e.completedRoomCount(),
		e.scorableRoomCount(),
		e.def.Scoring.HintCost,
		e.def.Scoring.ErrorPenalty,
	)
}

// SessionSummary reports the figures persisted alongside a finished session.
type SessionSummary struct {
	TimerRemainingMs int64
	HintsUsed        int
	Errors           int
	RoomsCompleted   int
	TotalRooms       int
}

// Summary returns the current session figures.
func (e *Engine) Summary() SessionSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SessionSummary{
		TimerRemainingMs: e.snap.TimerMs,
		HintsUsed:        e.snap.HintsUsed,
		Errors:           e.snap.Errors,
		RoomsCompleted:   e.completedRoomCount(),
		TotalRooms:       e.scorableRoomCount(),
	}
}

// scorableRoomCount counts rooms that declare puzzles; a terminal room
// with none (an exit hall) does not affect completion scoring.
func (e *Engine) scorableRoomCount() int {
	n := 0
	for _, room := range e.def.Rooms {
		if len(room.Puzzles) > 0 {
			n++
		}
	}
	return n
}

func (e *Engine) completedRoomCount() int {
	n := 0
	for _, room := range e.def.Rooms {
		if len(room.Puzzles) > 0 && puzzle.CheckRoomCompletion(room, e.snap) {
			n++
		}
	}
	return n
}

// reevaluateWeightPlates re-runs every weightPlate puzzle; plates respond
// to player positions and placed items, not to direct interaction.
func (e *Engine) reevaluateWeightPlates() {
	for _, room := range e.def.Rooms {
		for _, p := range room.Puzzles {
			if p.Type != game.PuzzleWeightPlate {
				continue
			}
			if progress, ok := e.snap.Puzzles[p.ID]; ok && progress.Success {
				// Solved plates stay solved; stepping off must not regress.
				continue
			}
			solved := puzzle.Apply(p, puzzle.Action{Timestamp: nowMs(e.clock)}, e.snap, e.players, e.debugSolo())
			if solved {
				e.pub.PublishEvent(Event{Type: EventPuzzleSolved, PuzzleID: p.ID})
			}
		}
	}
}

// checkCompletions grants each completed room's outputs exactly once,
// opens its paired door, and derives the one-shot victory transition.
func (e *Engine) checkCompletions() {
	for _, room := range e.def.Rooms {
		if len(room.Puzzles) == 0 || e.granted[room.ID] {
			continue
		}
		if !puzzle.CheckRoomCompletion(room, e.snap) {
			continue
		}
		e.granted[room.ID] = true
		logger.Log.Infof("Room %s completed", room.ID)

		if room.Outputs != nil {
			for _, key := range room.Outputs.Keys {
				if !e.snap.HasKey(key) {
					e.snap.Keys = append(e.snap.Keys, key)
				}
			}
			if room.Outputs.CodePart != "" {
				e.snap.CodeParts[room.ID] = room.Outputs.CodePart
			}
		}

		if door, ok := e.snap.Objects["door"+room.ID]; ok && door.Type == game.TypeDoor && !door.Open {
			door.Open = true
			e.pub.PublishEvent(Event{Type: EventDoorOpened, ObjectID: door.ID})
		}

		e.pub.PublishEvent(Event{Type: EventRoomCompleted, RoomID: room.ID})
	}

	if e.outcome == OutcomePlaying && e.allPuzzlesSolved() {
		e.outcome = OutcomeVictory
		e.recomputeScore()
		logger.Log.Info("Session over: all puzzles solved")
		e.pub.PublishEvent(Event{Type: EventGameOver, Cause: CauseWin})
	}
}

func (e *Engine) allPuzzlesSolved() bool {
	any := false
	for _, room := range e.def.Rooms {
		for _, p := range room.Puzzles {
			any = true
			progress, ok := e.snap.Puzzles[p.ID]
			if !ok || !progress.Success {
				return false
			}
		}
	}
	return any
}

func (e *Engine) roomOfObject(objectID string) *game.Room {
	for _, room := range e.def.Rooms {
		for _, obj := range room.Objects {
			if obj.ID == objectID {
				return room
			}
		}
	}
	return nil
}

// publish hands a copy of the snapshot to the replication layer. Must be
// called with the mutex held; delivery is fire-and-forget.
func (e *Engine) publish() {
	e.pub.PublishSnapshot(e.snap.Clone())
}

// DebugTeleport jumps the whole team to a room. DebugSolo mode only.
func (e *Engine) DebugTeleport(roomID string) ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.debugSolo() {
		return rejected("debug mode only")
	}
	room := e.def.RoomByID(roomID)
	if room == nil {
		return rejected("unknown room")
	}
	e.snap.RoomID = roomID
	for _, p := range e.players {
		p.X = room.Spawn.X
		p.Y = room.Spawn.Y
	}
	e.pub.PublishEvent(Event{Type: EventRoomEntered, RoomID: roomID})
	e.publish()
	return accepted()
}

// DebugUnlockAllDoors opens every door. DebugSolo mode only.
func (e *Engine) DebugUnlockAllDoors() ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.debugSolo() {
		return rejected("debug mode only")
	}
	for _, obj := range e.snap.Objects {
		if obj.Type == game.TypeDoor {
			obj.Open = true
		}
	}
	e.publish()
	return accepted()
}
