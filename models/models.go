// models/models.go
package models

import (
	"time"
)

// SessionResult 一局对局的最终结果
type SessionResult struct {
	RoomCode         string         `json:"room_code"`
	Outcome          string         `json:"outcome"` // victory/defeat
	Score            int            `json:"score"`
	Rank             string         `json:"rank"`
	TimerRemainingMs int64          `json:"timer_remaining_ms"`
	HintsUsed        int            `json:"hints_used"`
	Errors           int            `json:"errors"`
	RoomsCompleted   int            `json:"rooms_completed"`
	TotalRooms       int            `json:"total_rooms"`
	Players          []PlayerResult `json:"players"`
	CreatedAt        time.Time      `json:"created_at"`
}

// PlayerResult 结果记录中的单个玩家信息
type PlayerResult struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	RoomCode         string    `json:"room_code"`
	Score            int       `json:"score"`
	Rank             string    `json:"rank"`
	TimerRemainingMs int64     `json:"timer_remaining_ms"`
	PlayerCount      int       `json:"player_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// RoomState 房间状态模型（用于运维检查）
type RoomState struct {
	RoomCode  string                 `json:"room_code"`
	Mode      string                 `json:"mode"`
	Status    string                 `json:"status"`
	Snapshot  map[string]interface{} `json:"snapshot"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}
