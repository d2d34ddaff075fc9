// room/room.go
package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/escaperoom/engine"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/network"
	"github.com/wfunc/escaperoom/session"
)

// Status 表示房间的业务状态
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

// RoomCodeChars 房间码字符集，排除易混淆字符
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength 房间码长度
const RoomCodeLength = 4

// maxChatMessages 聊天记录上限，只保留最近的
const maxChatMessages = 100

// ChatMessage 一条聊天消息
type ChatMessage struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"`
}

// RosterEntry 房间成员表条目
type RosterEntry struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

// Room 是一局合作解谜会话：房间码、成员连接、一个权威引擎实例。
// Room 同时实现 engine.Publisher，把引擎发布的快照/事件转成广播。
type Room struct {
	Code       string
	MaxPlayers int
	Engine     *engine.Engine

	status      Status
	statusMutex sync.RWMutex

	sessions    map[string]*session.Session
	playerMutex sync.RWMutex

	chat      []ChatMessage
	chatMutex sync.Mutex

	broadcaster Broadcaster
	recorder    ResultRecorder
	sink        EventSink

	CreatedAt  time.Time
	lastActive time.Time

	ticker    *time.Ticker
	closeChan chan bool
	stopOnce  sync.Once
}

// NewRoom 创建一个新房间并初始化它的引擎
func NewRoom(code string, def *game.Definition, mode engine.Mode, maxPlayers int, broadcaster Broadcaster, recorder ResultRecorder, sink EventSink) *Room {
	now := time.Now()
	r := &Room{
		Code:        code,
		MaxPlayers:  maxPlayers,
		status:      StatusWaiting,
		sessions:    make(map[string]*session.Session),
		broadcaster: broadcaster,
		recorder:    recorder,
		sink:        sink,
		CreatedAt:   now,
		lastActive:  now,
		closeChan:   make(chan bool),
	}
	r.Engine = engine.New(def, mode, engine.SystemClock(), r)
	return r
}

// --- engine.Publisher ---

// PublishSnapshot 把引擎快照广播给房间内所有成员
func (r *Room) PublishSnapshot(snap *game.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		logger.Log.Errorf("Error marshalling snapshot for room %s: %v", r.Code, err)
		return
	}
	r.broadcast(network.MsgTypeSnapshot, data)
}

// PublishEvent 广播增量事件；终局事件同时落库并停止心跳
func (r *Room) PublishEvent(evt engine.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Errorf("Error marshalling event for room %s: %v", r.Code, err)
		return
	}
	r.broadcast(network.MsgTypeEvent, data)

	if r.sink != nil && evt.Type == engine.EventPuzzleSolved {
		r.sink.OnPuzzleSolved()
	}
	if evt.Type == engine.EventGameOver {
		r.finish(evt.Cause)
	}
}

func (r *Room) broadcast(msgID uint16, data []byte) {
	if r.broadcaster == nil {
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.Code, msgID, data); err != nil {
		logger.Log.Warnf("Broadcast to room %s failed: %v", r.Code, err)
	}
}

// --- 成员管理 ---

// AddPlayer 添加一个玩家到房间
func (r *Room) AddPlayer(s *session.Session) bool {
	r.playerMutex.Lock()
	if len(r.sessions) >= r.MaxPlayers {
		r.playerMutex.Unlock()
		return false
	}
	r.sessions[s.ID] = s
	s.RoomCode = r.Code
	r.lastActive = time.Now()
	r.playerMutex.Unlock()

	r.Engine.Join(s.ID, s.GetDisplayName())
	r.broadcastRoster()
	return true
}

// RemovePlayer 从房间移除一个玩家
func (r *Room) RemovePlayer(sessionID string) {
	r.playerMutex.Lock()
	s, exists := r.sessions[sessionID]
	if exists {
		s.RoomCode = ""
		delete(r.sessions, sessionID)
	}
	r.lastActive = time.Now()
	r.playerMutex.Unlock()

	if exists {
		r.Engine.Leave(sessionID)
		r.broadcastRoster()
	}
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// PlayerCount 房间内玩家数
func (r *Room) PlayerCount() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.sessions)
}

// IdleSince 无人房间的闲置起点；有人时返回当前活跃时间
func (r *Room) IdleSince() time.Time {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return r.lastActive
}

func (r *Room) broadcastRoster() {
	roster := make([]RosterEntry, 0)
	for _, s := range r.GetSessions() {
		roster = append(roster, RosterEntry{
			SessionID:   s.ID,
			DisplayName: s.GetDisplayName(),
			Role:        s.GetRole(),
		})
	}
	data, err := json.Marshal(roster)
	if err != nil {
		return
	}
	r.broadcast(network.MsgTypeRoster, data)
}

// --- 会话生命周期 ---

// SetStatus 设置房间的业务状态
func (r *Room) SetStatus(status Status) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.status = status
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() Status {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.status
}

// StartGame 开始对局：启动每秒一次的心跳驱动引擎 Tick
func (r *Room) StartGame() {
	if r.GetStatus() != StatusWaiting {
		return
	}
	r.SetStatus(StatusPlaying)
	r.ticker = time.NewTicker(time.Second)
	go r.loop()
	logger.Log.Infof("Room %s started playing", r.Code)
}

// loop 是房间的主循环，按秒驱动引擎
func (r *Room) loop() {
	for {
		select {
		case <-r.ticker.C:
			r.Engine.Tick()
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

// finish 记录终局并停止心跳。只会生效一次。
func (r *Room) finish(cause string) {
	r.stopOnce.Do(func() {
		r.SetStatus(StatusFinished)
		if r.ticker != nil {
			close(r.closeChan)
		}
		outcome := string(engine.OutcomeDefeat)
		if cause == engine.CauseWin {
			outcome = string(engine.OutcomeVictory)
		}
		if r.sink != nil {
			r.sink.OnSessionEnded(outcome)
		}
		if r.recorder != nil {
			// The engine publishes terminal events while holding its own
			// lock; querying it back must happen outside this callback.
			go func() {
				breakdown := r.Engine.ScoreBreakdown()
				summary := r.Engine.Summary()
				result := &models.SessionResult{
					RoomCode:         r.Code,
					Outcome:          outcome,
					Score:            breakdown.FinalScore,
					Rank:             string(breakdown.Rank),
					TimerRemainingMs: summary.TimerRemainingMs,
					HintsUsed:        summary.HintsUsed,
					Errors:           summary.Errors,
					RoomsCompleted:   summary.RoomsCompleted,
					TotalRooms:       summary.TotalRooms,
					CreatedAt:        time.Now(),
				}
				for _, p := range r.Engine.Players() {
					result.Players = append(result.Players, models.PlayerResult{
						SessionID:   p.SessionID,
						DisplayName: p.DisplayName,
						Role:        string(p.Role),
					})
				}
				if err := r.recorder.RecordResult(result); err != nil {
					logger.Log.Errorf("Failed to record result for room %s: %v", r.Code, err)
				}
			}()
		}
		logger.Log.Infof("Room %s finished: %s", r.Code, cause)
	})
}

// Close 关闭房间，停止主循环
func (r *Room) Close() {
	r.stopOnce.Do(func() {
		r.SetStatus(StatusFinished)
		if r.ticker != nil {
			close(r.closeChan)
		}
	})
}

// --- 聊天 ---

// AppendChat 追加一条聊天消息并广播，只保留最近 100 条
func (r *Room) AppendChat(sessionID, displayName, text string) ChatMessage {
	msg := ChatMessage{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		DisplayName: displayName,
		Text:        text,
		Timestamp:   time.Now().UnixMilli(),
	}

	r.chatMutex.Lock()
	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatMessages {
		r.chat = r.chat[len(r.chat)-maxChatMessages:]
	}
	r.chatMutex.Unlock()

	if data, err := json.Marshal(msg); err == nil {
		r.broadcast(network.MsgTypeChatMessage, data)
	}
	return msg
}

// ChatHistory 返回聊天记录副本
func (r *Room) ChatHistory() []ChatMessage {
	r.chatMutex.Lock()
	defer r.chatMutex.Unlock()
	return append([]ChatMessage(nil), r.chat...)
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

// NewManager 创建一个新的房间管理器
func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// GenerateCode 生成一个未被占用的房间码
func (m *Manager) GenerateCode() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for {
		code := make([]byte, RoomCodeLength)
		for i := range code {
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
		}
		if _, taken := m.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(code string, def *game.Definition, mode engine.Mode, maxPlayers int, broadcaster Broadcaster, recorder ResultRecorder, sink EventSink) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(code, def, mode, maxPlayers, broadcaster, recorder, sink)
	m.rooms[code] = room
	return room
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[code]; exists {
		room.Close()
		delete(m.rooms, code)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[code]
	return room, exists
}

// Count 当前房间数量
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// SweepIdle removes empty rooms idle longer than ttl and returns their
// codes. Driven by the server's timer manager.
func (m *Manager) SweepIdle(ttl time.Duration) []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	var removed []string
	for code, room := range m.rooms {
		if room.PlayerCount() == 0 && now.Sub(room.IdleSince()) > ttl {
			room.Close()
			delete(m.rooms, code)
			removed = append(removed, code)
		}
	}
	return removed
}
