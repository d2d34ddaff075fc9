// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/escaperoom/models"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 创建对局结果表
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS session_results (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(16) NOT NULL,
            outcome VARCHAR(20) NOT NULL,
            score INT NOT NULL,
            rank VARCHAR(4) NOT NULL,
            timer_remaining_ms BIGINT NOT NULL DEFAULT 0,
            hints_used INT NOT NULL DEFAULT 0,
            errors INT NOT NULL DEFAULT 0,
            rooms_completed INT NOT NULL DEFAULT 0,
            total_rooms INT NOT NULL DEFAULT 0,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建房间状态表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS room_states (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(16) UNIQUE NOT NULL,
            mode VARCHAR(20) NOT NULL,
            status VARCHAR(20) NOT NULL,
            snapshot JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_session_results_room_code ON session_results(room_code);
        CREATE INDEX IF NOT EXISTS idx_session_results_score ON session_results(score DESC);
        CREATE INDEX IF NOT EXISTS idx_session_results_created_at ON session_results(created_at);
        CREATE INDEX IF NOT EXISTS idx_room_states_room_code ON room_states(room_code);
    `)

	return err
}

// SaveSessionResult 保存一局对局结果
func (p *PostgreSQL) SaveSessionResult(result *models.SessionResult) error {
	playersJSON, err := json.Marshal(result.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO session_results
            (room_code, outcome, score, rank, timer_remaining_ms,
             hints_used, errors, rooms_completed, total_rooms, players)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err = p.db.ExecContext(ctx, query,
		result.RoomCode,
		result.Outcome,
		result.Score,
		result.Rank,
		result.TimerRemainingMs,
		result.HintsUsed,
		result.Errors,
		result.RoomsCompleted,
		result.TotalRooms,
		playersJSON)

	return err
}

// SaveRoomState 保存房间状态
func (p *PostgreSQL) SaveRoomState(roomCode, mode, status string, snapshot interface{}) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO room_states (room_code, mode, status, snapshot)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (room_code)
        DO UPDATE SET mode = $2, status = $3, snapshot = $4, updated_at = CURRENT_TIMESTAMP
    `

	_, err = p.db.ExecContext(ctx, query, roomCode, mode, status, snapshotJSON)
	return err
}

// LoadRoomState 加载房间状态
func (p *PostgreSQL) LoadRoomState(roomCode string, result interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := `SELECT snapshot FROM room_states WHERE room_code = $1`
	err := p.db.QueryRowContext(ctx, query, roomCode).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRecordNotFound
		}
		return err
	}

	return json.Unmarshal(data, result)
}

// Leaderboard 按分数取最好的若干局
func (p *PostgreSQL) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT room_code, score, rank, timer_remaining_ms,
               jsonb_array_length(players), created_at
        FROM session_results
        WHERE outcome = 'victory'
        ORDER BY score DESC, timer_remaining_ms DESC
        LIMIT $1
    `

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.RoomCode, &e.Score, &e.Rank,
			&e.TimerRemainingMs, &e.PlayerCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TeamStats 同一房间码下的历史统计
func (p *PostgreSQL) TeamStats(roomCode string) (*models.TeamStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT
            COUNT(*) as total_sessions,
            COALESCE(SUM(CASE WHEN outcome = 'victory' THEN 1 ELSE 0 END), 0) as victories,
            COALESCE(SUM(CASE WHEN outcome = 'defeat' THEN 1 ELSE 0 END), 0) as defeats,
            COALESCE(MAX(score), 0) as best_score
        FROM session_results
        WHERE room_code = $1
    `

	var stats models.TeamStats
	err := p.db.QueryRowContext(ctx, query, roomCode).Scan(
		&stats.TotalSessions, &stats.Victories, &stats.Defeats, &stats.BestScore)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
