package room

import (
	"github.com/wfunc/escaperoom/models"
)

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, msgID uint16, data []byte) error
}

// ResultRecorder persists a finished session. The room fires it once when
// the engine reaches a terminal state; persistence failures are logged,
// never surfaced to players.
type ResultRecorder interface {
	RecordResult(result *models.SessionResult) error
}

// EventSink receives coarse gameplay signals for metrics. May be nil.
type EventSink interface {
	OnPuzzleSolved()
	OnSessionEnded(outcome string)
}
