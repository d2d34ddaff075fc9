package engine

import "github.com/wfunc/escaperoom/game"

// Event 类型常量，随快照之外的增量通知下发给表现层
const (
	EventPlayerJoined  = "PlayerJoined"
	EventPlayerLeft    = "PlayerLeft"
	EventPlayerMoved   = "PlayerMoved"
	EventRoleChosen    = "RoleChosen"
	EventPuzzleSolved  = "PuzzleSolved"
	EventRoomCompleted = "RoomCompleted"
	EventDoorOpened    = "DoorOpened"
	EventRoomEntered   = "RoomEntered"
	EventHintUsed      = "HintUsed"
	EventGameOver      = "GameOver"
)

// 终局原因
const (
	CauseWin     = "win"
	CauseTimeout = "timeout"
)

// Event is a discrete notification emitted alongside snapshots.
type Event struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId,omitempty"`
	ObjectID  string `json:"objectId,omitempty"`
	PuzzleID  string `json:"puzzleId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
	Cause     string `json:"cause,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

// Publisher is the replication layer's contract as the engine sees it:
// fire-and-forget delivery of snapshots and events to every participant.
// The engine never waits for acknowledgment.
type Publisher interface {
	PublishSnapshot(snap *game.Snapshot)
	PublishEvent(evt Event)
}

// NopPublisher discards everything. Used when no replication is attached.
type NopPublisher struct{}

func (NopPublisher) PublishSnapshot(*game.Snapshot) {}
func (NopPublisher) PublishEvent(Event)             {}
