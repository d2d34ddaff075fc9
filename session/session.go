// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/escaperoom/network"
)

// Session 是一条玩家连接的服务端表示。权威的游戏内状态（位置、
// 角色判定）归引擎所有；这里只缓存连接层需要的展示信息。
type Session struct {
	ID          string
	Conn        network.Connection
	DisplayName string
	Role        string
	RoomCode    string
	CreatedAt   time.Time
	LastActive  time.Time
	mutex       sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) SetDisplayName(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.DisplayName = name
}

func (s *Session) GetDisplayName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.DisplayName
}

func (s *Session) SetRole(role string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Role = role
}

func (s *Session) GetRole() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Role
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v interface{}) error {
	s.LastActive = time.Now()
	return s.Conn.SendJSON(msgID, v)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
