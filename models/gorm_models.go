// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormSessionResult 对局结果模型
type GormSessionResult struct {
	gorm.Model
	RoomCode         string                 `gorm:"index;not null"`
	Outcome          string                 `gorm:"not null"`
	Score            int                    `gorm:"not null;index"`
	Rank             string                 `gorm:"not null"`
	TimerRemainingMs int64                  `gorm:"default:0"`
	HintsUsed        int                    `gorm:"default:0"`
	Errors           int                    `gorm:"default:0"`
	RoomsCompleted   int                    `gorm:"default:0"`
	TotalRooms       int                    `gorm:"default:0"`
	Players          map[string]interface{} `gorm:"type:jsonb"`
}

// GormRoomState 房间状态模型
type GormRoomState struct {
	gorm.Model
	RoomCode string                 `gorm:"uniqueIndex;not null"`
	Mode     string                 `gorm:"not null"`
	Status   string                 `gorm:"not null"`
	Snapshot map[string]interface{} `gorm:"type:jsonb"`
}

// TeamStats 同一房间码下的历史统计
type TeamStats struct {
	TotalSessions int `json:"total_sessions"`
	Victories     int `json:"victories"`
	Defeats       int `json:"defeats"`
	BestScore     int `json:"best_score"`
}
