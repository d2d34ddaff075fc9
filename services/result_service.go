// services/result_service.go
package services

import (
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/persistence"
)

// ResultService 负责终局结果的落库与查询
type ResultService struct {
	db persistence.Database
}

func NewResultService(db persistence.Database) *ResultService {
	return &ResultService{db: db}
}

// RecordResult 保存一局结果。房间在引擎终局时调用一次。
func (s *ResultService) RecordResult(result *models.SessionResult) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.SaveSessionResult(result); err != nil {
		return err
	}
	logger.Log.Infof("Recorded %s result for room %s: score %d rank %s",
		result.Outcome, result.RoomCode, result.Score, result.Rank)
	return nil
}

// Leaderboard 返回历史最好成绩
func (s *ResultService) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.db.Leaderboard(limit)
}

// TeamStats 返回同一房间码下的历史统计
func (s *ResultService) TeamStats(roomCode string) (*models.TeamStats, error) {
	return s.db.TeamStats(roomCode)
}

// SaveRoomState 把当前房间快照写入数据库，供运维排查
func (s *ResultService) SaveRoomState(roomCode, mode, status string, snapshot interface{}) error {
	if s.db == nil {
		return nil
	}
	return s.db.SaveRoomState(roomCode, mode, status, snapshot)
}
