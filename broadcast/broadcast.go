// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/escaperoom/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// Broadcaster 向一批参与者投递同一份数据。这是复制层的投递侧契约：
// 快照、事件、聊天都走这里，发送失败不回传给发送者。
type Broadcaster interface {
	BroadcastToRoom(roomCode string, msgID uint16, data []byte) error
}

// RoomBroadcaster 基于房间管理器的广播器
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager: roomManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomCode string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomCode)
	if !exists {
		return ErrRoomNotFound
	}

	// Get a thread-safe copy of the sessions
	sessions := r.GetSessions()

	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			continue
		}
	}

	return nil
}
