package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/escaperoom/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error       { return nil }
func (m *MockConnection) SendJSON(msgID uint16, v interface{}) error { return nil }
func (m *MockConnection) Close() error                               { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                       { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)        {}
func (m *MockConnection) ReadPacket() (*network.Packet, error)       { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestSession_DisplayNameAndRole(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})

	if sess.GetDisplayName() != "" {
		t.Errorf("Expected empty display name, got %q", sess.GetDisplayName())
	}

	sess.SetDisplayName("Nova")
	if sess.GetDisplayName() != "Nova" {
		t.Errorf("Expected display name Nova, got %q", sess.GetDisplayName())
	}

	sess.SetRole("Tech")
	if sess.GetRole() != "Tech" {
		t.Errorf("Expected role Tech, got %q", sess.GetRole())
	}
}
