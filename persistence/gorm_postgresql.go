// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/escaperoom/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormSessionResult{},
		&models.GormRoomState{},
	)
}

// SaveSessionResult 保存一局对局结果
func (p *GormPostgreSQL) SaveSessionResult(result *models.SessionResult) error {
	playersJSON, err := toJSONMap(result.Players)
	if err != nil {
		return err
	}

	record := models.GormSessionResult{
		RoomCode:         result.RoomCode,
		Outcome:          result.Outcome,
		Score:            result.Score,
		Rank:             result.Rank,
		TimerRemainingMs: result.TimerRemainingMs,
		HintsUsed:        result.HintsUsed,
		Errors:           result.Errors,
		RoomsCompleted:   result.RoomsCompleted,
		TotalRooms:       result.TotalRooms,
		Players:          playersJSON,
	}

	return p.db.Create(&record).Error
}

// SaveRoomState 保存房间状态
func (p *GormPostgreSQL) SaveRoomState(roomCode, mode, status string, snapshot interface{}) error {
	snapshotJSON, err := toJSONMap(snapshot)
	if err != nil {
		return err
	}

	var state models.GormRoomState
	result := p.db.Where("room_code = ?", roomCode).First(&state)

	if result.Error == gorm.ErrRecordNotFound {
		// 创建新记录
		state = models.GormRoomState{
			RoomCode: roomCode,
			Mode:     mode,
			Status:   status,
			Snapshot: snapshotJSON,
		}
		return p.db.Create(&state).Error
	} else if result.Error != nil {
		return result.Error
	}

	// 更新现有记录
	state.Mode = mode
	state.Status = status
	state.Snapshot = snapshotJSON
	return p.db.Save(&state).Error
}

// LoadRoomState 加载房间状态
func (p *GormPostgreSQL) LoadRoomState(roomCode string, result interface{}) error {
	var state models.GormRoomState
	if err := p.db.Where("room_code = ?", roomCode).First(&state).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrRecordNotFound
		}
		return err
	}

	data, err := json.Marshal(state.Snapshot)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

// Leaderboard 按分数取最好的若干局
func (p *GormPostgreSQL) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry

	err := p.db.Raw(
		`
        SELECT room_code, score, rank, timer_remaining_ms,
               jsonb_array_length(players->'items') as player_count, created_at
        FROM gorm_session_results
        WHERE outcome = 'victory' AND deleted_at IS NULL
        ORDER BY score DESC, timer_remaining_ms DESC
        LIMIT ?`,
		limit,
	).Scan(&entries).Error

	return entries, err
}

// TeamStats 同一房间码下的历史统计
func (p *GormPostgreSQL) TeamStats(roomCode string) (*models.TeamStats, error) {
	var stats models.TeamStats

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_sessions,
            COALESCE(SUM(CASE WHEN outcome = 'victory' THEN 1 ELSE 0 END), 0) as victories,
            COALESCE(SUM(CASE WHEN outcome = 'defeat' THEN 1 ELSE 0 END), 0) as defeats,
            COALESCE(MAX(score), 0) as best_score
        FROM gorm_session_results
        WHERE room_code = ? AND deleted_at IS NULL`,
		roomCode,
	).Scan(&stats).Error

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// 添加事务支持
func (p *GormPostgreSQL) Transaction(fn func(tx *gorm.DB) error) error {
	return p.db.Transaction(fn)
}

// toJSONMap 把任意结构体序列化成 jsonb 兼容的 map
func toJSONMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(map[string]interface{}{"items": v})
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
