// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/escaperoom/models"
)

// Database 数据库接口
type Database interface {
	SaveSessionResult(result *models.SessionResult) error
	SaveRoomState(roomCode, mode, status string, snapshot interface{}) error
	LoadRoomState(roomCode string, result interface{}) error
	Leaderboard(limit int) ([]models.LeaderboardEntry, error)
	TeamStats(roomCode string) (*models.TeamStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
