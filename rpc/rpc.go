package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operator queries over net/rpc.
type AdminService struct {
	resultService *services.ResultService
}

// NewAdminService creates a new AdminService.
func NewAdminService(rs *services.ResultService) *AdminService {
	return &AdminService{resultService: rs}
}

// Register registers the service with the net/rpc default server.
func (as *AdminService) Register() error {
	return rpc.RegisterName("Admin", as)
}

type LeaderboardArgs struct {
	Limit int
}

type LeaderboardReply struct {
	Entries []models.LeaderboardEntry
}

// Leaderboard returns the best recorded sessions.
func (as *AdminService) Leaderboard(args *LeaderboardArgs, reply *LeaderboardReply) error {
	entries, err := as.resultService.Leaderboard(args.Limit)
	if err != nil {
		return err
	}
	reply.Entries = entries
	return nil
}

type TeamStatsArgs struct {
	RoomCode string
}

type TeamStatsReply struct {
	Stats *models.TeamStats
}

// TeamStats returns historical figures for a room code.
func (as *AdminService) TeamStats(args *TeamStatsArgs, reply *TeamStatsReply) error {
	stats, err := as.resultService.TeamStats(args.RoomCode)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
