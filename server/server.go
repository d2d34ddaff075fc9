package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/escaperoom/broadcast"
	"github.com/wfunc/escaperoom/config"
	"github.com/wfunc/escaperoom/engine"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/monitor"
	"github.com/wfunc/escaperoom/network"
	"github.com/wfunc/escaperoom/persistence"
	"github.com/wfunc/escaperoom/room"
	escaperoom_rpc "github.com/wfunc/escaperoom/rpc"
	"github.com/wfunc/escaperoom/services"
	"github.com/wfunc/escaperoom/session"
	"github.com/wfunc/escaperoom/timer"
)

type GameServer struct {
	addr           string
	def            *game.Definition
	mode           engine.Mode
	maxPlayers     int
	idleRoomTTL    time.Duration
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	resultService  *services.ResultService
	broadcaster    *broadcast.RoomBroadcaster
	rpcServer      *escaperoom_rpc.Server
	monitor        *monitor.Monitor
	timerManager   *timer.TimerManager
	mutex          sync.Mutex
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, def *game.Definition, db persistence.Database) *GameServer {
	mode := engine.ModeNormal
	if cfg.Game.Mode == "debug_solo" {
		mode = engine.ModeDebugSolo
	}

	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		def:            def,
		mode:           mode,
		maxPlayers:     cfg.Game.MaxPlayers,
		idleRoomTTL:    time.Duration(cfg.Game.IdleRoomTTLSec) * time.Second,
		roomManager:    room.NewManager(),
		sessionManager: session.NewManager(),
		resultService:  services.NewResultService(db),
		monitor:        monitor.NewMonitor("escaperoom"),
		timerManager:   timer.NewTimerManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)

	// 初始化RPC服务器
	rpcServer, err := escaperoom_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := escaperoom_rpc.NewAdminService(s.resultService)
	if err := adminService.Register(); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	// 空闲房间定期清理
	s.timerManager.AddTimer(s.idleRoomTTL, s.idleRoomTTL, s.sweepIdleRooms)

	s.monitor.StartServer(cfg.Server.MonitorAddress)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Escape room server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timerManager.Stop()
}

// OnPuzzleSolved implements room.EventSink.
func (s *GameServer) OnPuzzleSolved() {
	s.monitor.IncPuzzlesSolved()
}

// OnSessionEnded implements room.EventSink.
func (s *GameServer) OnSessionEnded(outcome string) {
	s.monitor.IncSessionsEnded(outcome)
}

func (s *GameServer) sweepIdleRooms() {
	removed := s.roomManager.SweepIdle(s.idleRoomTTL)
	for _, code := range removed {
		logger.Log.Infof("Removed idle room %s", code)
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		if sess.RoomCode != "" {
			if r, exists := s.roomManager.GetRoom(sess.RoomCode); exists {
				r.RemovePlayer(sess.GetID())
			}
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncActionsReceived()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgTypeChooseRole:
		s.handleChooseRole(sess, packet)
	case network.MsgTypeMove:
		s.handleMove(sess, packet)
	case network.MsgTypeInteract:
		s.handleInteract(sess, packet)
	case network.MsgTypeConsoleSubmit:
		s.handleConsoleSubmit(sess, packet)
	case network.MsgTypePickPlace:
		s.handlePickPlace(sess, packet)
	case network.MsgTypeUseHint:
		s.handleUseHint(sess, packet)
	case network.MsgTypeRequestSnapshot:
		s.handleRequestSnapshot(sess)
	case network.MsgTypeChat:
		s.handleChat(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}

	s.monitor.ObserveActionLatency(time.Since(start))
}

// roomOf 找到会话所在的房间
func (s *GameServer) roomOf(sess *session.Session) (*room.Room, bool) {
	if sess.RoomCode == "" {
		return nil, false
	}
	return s.roomManager.GetRoom(sess.RoomCode)
}

func (s *GameServer) sendResult(sess *session.Session, action string, res engine.ActionResult) {
	sess.SendJSON(network.MsgTypeActionResult, network.ActionResultResponse{
		Action:   action,
		Accepted: res.Accepted,
		Reason:   res.Reason,
	})
}

func (s *GameServer) sendError(sess *session.Session, code, message string) {
	sess.SendJSON(network.MsgTypeError, network.ErrorResponse{Code: code, Message: message})
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid create room payload")
		return
	}
	if req.DisplayName != "" {
		sess.SetDisplayName(req.DisplayName)
	}

	code := s.roomManager.GenerateCode()
	r := s.roomManager.CreateRoom(code, s.def, s.mode, s.maxPlayers, s.broadcaster, s.resultService, s)
	r.AddPlayer(sess)
	r.StartGame()
	s.monitor.SetActiveRooms(s.roomManager.Count())

	logger.Log.Infof("Session %s created room %s", sess.GetID(), code)

	sess.SendJSON(network.MsgTypeCreateRoom, network.CreateRoomResponse{RoomCode: code})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid join room payload")
		return
	}
	if req.DisplayName != "" {
		sess.SetDisplayName(req.DisplayName)
	}

	r, exists := s.roomManager.GetRoom(req.RoomCode)
	if !exists {
		s.sendError(sess, "room_not_found", "no room with that code")
		return
	}

	if !r.AddPlayer(sess) {
		s.sendError(sess, "room_full", "room is full")
		return
	}

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), req.RoomCode)
	sess.SendJSON(network.MsgTypeJoinRoom, network.CreateRoomResponse{RoomCode: req.RoomCode})

	// 新加入者需要一份完整状态
	if data, err := json.Marshal(r.Engine.Snapshot()); err == nil {
		sess.Send(network.MsgTypeSnapshot, data)
	}
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	if r, ok := s.roomOf(sess); ok {
		r.RemovePlayer(sess.GetID())
	}
}

func (s *GameServer) handleChooseRole(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.ChooseRoleRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid role payload")
		return
	}
	res := r.Engine.ChooseRole(sess.GetID(), game.Role(req.Role))
	if res.Accepted {
		sess.SetRole(req.Role)
	}
	s.sendResult(sess, "chooseRole", res)
}

func (s *GameServer) handleMove(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.MoveRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid move payload")
		return
	}
	s.sendResult(sess, "move", r.Engine.Move(sess.GetID(), req.X, req.Y))
}

func (s *GameServer) handleInteract(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.InteractRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid interact payload")
		return
	}
	// 客户端的调试标记只在调试模式的服务器上生效
	debug := req.DebugMode && s.mode == engine.ModeDebugSolo
	s.sendResult(sess, "interact", r.Engine.Interact(sess.GetID(), req.ObjectID, debug))
}

func (s *GameServer) handleConsoleSubmit(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.ConsoleSubmitRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid console payload")
		return
	}
	s.sendResult(sess, "consoleSubmit", r.Engine.SubmitConsole(req.ConsoleID, req.Input))
}

func (s *GameServer) handlePickPlace(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.PickPlaceRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid pick/place payload")
		return
	}
	s.sendResult(sess, "pickPlace", r.Engine.PickPlace(sess.GetID(), req.ItemID, req.Action, req.TargetX, req.TargetY))
}

func (s *GameServer) handleUseHint(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.UseHintRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", "invalid hint payload")
		return
	}
	s.sendResult(sess, "useHint", r.Engine.RequestHint(req.RoomID))
}

func (s *GameServer) handleRequestSnapshot(sess *session.Session) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	data, err := json.Marshal(r.Engine.Snapshot())
	if err != nil {
		logger.Log.Errorf("Error marshalling snapshot for session %s: %v", sess.GetID(), err)
		return
	}
	sess.Send(network.MsgTypeSnapshot, data)
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) {
	r, ok := s.roomOf(sess)
	if !ok {
		s.sendError(sess, "not_in_room", "join a room first")
		return
	}
	var req network.ChatRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Text == "" {
		return
	}
	r.AppendChat(sess.GetID(), sess.GetDisplayName(), req.Text)
}
