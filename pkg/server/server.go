package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/vmtri/cardroom/pkg/poker"
	"github.com/vmtri/cardroom/pkg/protocol"
	"github.com/vmtri/cardroom/pkg/tienlen"
)

// Config holds the server's runtime settings.
type Config struct {
	Addr string
	DB   Database
	Log  slog.Logger

	StartingCredits int64
	SmallBlind      int64
	BigBlind        int64
	GracePeriod     time.Duration
}

// Server accepts websocket connections, authenticates them with a hello
// exchange and routes their requests to the room manager.
type Server struct {
	cfg     Config
	log     slog.Logger
	db      Database
	manager *Manager

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewServer creates a server ready to Run.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg: cfg,
		log: cfg.Log,
		db:  cfg.DB,
		manager: NewManager(ManagerConfig{
			Log:         cfg.Log,
			DB:          cfg.DB,
			SmallBlind:  cfg.SmallBlind,
			BigBlind:    cfg.BigBlind,
			GracePeriod: cfg.GracePeriod,
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[int64]*Session),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Manager exposes the room registry, mainly for tests.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Run serves until the context is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutCtx)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	sess := NewSession(conn, s.log)
	defer sess.Close()

	if err := s.hello(sess); err != nil {
		s.log.Debugf("hello from %s failed: %v", r.RemoteAddr, err)
		return
	}

	s.mu.Lock()
	if old, ok := s.sessions[sess.UserID]; ok {
		old.Close()
	}
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()

	// A preserved seat from a dropped connection picks up right here.
	s.manager.Reattach(sess)

	s.serveSession(sess)

	s.mu.Lock()
	if s.sessions[sess.UserID] == sess {
		delete(s.sessions, sess.UserID)
	}
	s.mu.Unlock()

	s.manager.HandleDisconnection(sess)
}

// hello performs the identity exchange: the first frame must be a
// HelloRequest naming the player.
func (s *Server) hello(sess *Session) error {
	frame, err := sess.ReadFrame()
	if err != nil {
		return err
	}
	op, msg, err := protocol.Decode(frame)
	if err != nil {
		return err
	}
	req, ok := msg.(*protocol.HelloRequest)
	if !ok {
		sess.SendError(protocol.CodeNotAuthenticated, "hello required before any request")
		return fmt.Errorf("expected hello, got %s", op)
	}
	if req.Username == "" {
		sess.SendError(protocol.CodeNotAuthenticated, "username required")
		return errors.New("empty username")
	}

	id, balance, err := s.db.GetOrCreatePlayer(req.Username, s.cfg.StartingCredits)
	if err != nil {
		sess.SendError(protocol.CodeInternal, "player lookup failed")
		return err
	}
	sess.UserID = id
	sess.Username = req.Username

	s.log.Infof("%s connected as user %d (balance %d)", req.Username, id, balance)
	return sess.SendPacket(protocol.OpHelloResponse, &protocol.HelloResponse{
		UserID:  id,
		Balance: balance,
	})
}

func (s *Server) serveSession(sess *Session) {
	for {
		frame, err := sess.ReadFrame()
		if err != nil {
			s.log.Debugf("%s read loop ended: %v", sess.Username, err)
			return
		}
		op, msg, err := protocol.Decode(frame)
		if err != nil {
			sess.SendError(protocol.CodeInvalidAction, err.Error())
			continue
		}
		s.dispatch(sess, op, msg)
	}
}

func (s *Server) dispatch(sess *Session, op protocol.Op, msg interface{}) {
	switch req := msg.(type) {
	case *protocol.CreateRoomRequest:
		s.handleCreateRoom(sess, req)
	case *protocol.JoinRoomRequest:
		s.handleJoinRoom(sess, req)
	case *protocol.LeaveRoomRequest:
		s.manager.LeaveRoom(req.RoomID, sess.UserID)
	case *protocol.ListRoomsRequest:
		sess.SendPacket(protocol.OpListRoomsResponse, &protocol.ListRoomsResponse{
			Rooms: s.manager.ListRooms(req.GameKindFilter),
		})
	case *protocol.StartGameRequest:
		s.handleStartGame(sess, req)
	case *protocol.PlayerActionPacket:
		s.handleAction(sess, req)
	default:
		sess.SendError(protocol.CodeInvalidAction,
			fmt.Sprintf("unexpected %s from client", op))
	}
}

func (s *Server) handleCreateRoom(sess *Session, req *protocol.CreateRoomRequest) {
	fail := func(msg string) {
		sess.SendPacket(protocol.OpCreateRoomResponse, &protocol.CreateRoomResponse{
			Success:      false,
			ErrorMessage: msg,
		})
	}

	if !req.GameKind.Valid() {
		fail(fmt.Sprintf("unknown game kind %q", req.GameKind))
		return
	}
	maxSeats := req.MaxPlayers
	if maxSeats < 2 {
		fail("room needs at least 2 seats")
		return
	}
	if req.GameKind == protocol.GameKindTienLen && maxSeats > tienlen.MaxPlayers {
		fail(fmt.Sprintf("tien len rooms seat at most %d players", tienlen.MaxPlayers))
		return
	}

	balance, err := s.db.GetPlayerBalance(sess.UserID)
	if err != nil {
		fail("balance lookup failed")
		return
	}

	room, err := s.manager.CreateRoom(req.RoomName, req.GameKind, maxSeats, sess, balance)
	if err != nil {
		fail(err.Error())
		return
	}
	info := room.Info()
	sess.SendPacket(protocol.OpCreateRoomResponse, &protocol.CreateRoomResponse{
		Success:  true,
		RoomInfo: &info,
	})
}

func (s *Server) handleJoinRoom(sess *Session, req *protocol.JoinRoomRequest) {
	fail := func(msg string) {
		sess.SendPacket(protocol.OpJoinRoomResponse, &protocol.JoinRoomResponse{
			Success:      false,
			ErrorMessage: msg,
		})
	}

	balance, err := s.db.GetPlayerBalance(sess.UserID)
	if err != nil {
		fail("balance lookup failed")
		return
	}

	room, err := s.manager.JoinRoom(req.RoomID, sess, balance)
	if err != nil {
		fail(err.Error())
		return
	}
	info := room.Info()
	sess.SendPacket(protocol.OpJoinRoomResponse, &protocol.JoinRoomResponse{
		Success:  true,
		RoomInfo: &info,
	})
}

func (s *Server) handleStartGame(sess *Session, req *protocol.StartGameRequest) {
	room, ok := s.manager.GetRoom(req.RoomID)
	if !ok {
		sess.SendError(protocol.CodeRoomNotFound, "room not found")
		return
	}
	if err := room.StartGame(sess.UserID); err != nil {
		sess.SendError(errorCode(err), err.Error())
	}
}

func (s *Server) handleAction(sess *Session, pkt *protocol.PlayerActionPacket) {
	room, ok := s.manager.RoomFor(sess.UserID)
	if !ok {
		sess.SendError(protocol.CodeRoomNotFound, "not seated in any room")
		return
	}
	if err := room.HandleAction(sess.UserID, pkt); err != nil {
		sess.SendError(errorCode(err), err.Error())
	}
}

// errorCode maps engine and manager errors onto wire error codes.
func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return protocol.CodeRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return protocol.CodeRoomFull
	case errors.Is(err, ErrRoomNotJoinable):
		return protocol.CodeRoomNotJoinable
	case errors.Is(err, ErrAlreadyInRoom):
		return protocol.CodeAlreadyInRoom
	case errors.Is(err, poker.ErrNotYourTurn), errors.Is(err, tienlen.ErrNotYourTurn):
		return protocol.CodeNotYourTurn
	case errors.Is(err, poker.ErrInsufficientChips):
		return protocol.CodeInsufficientFund
	default:
		return protocol.CodeInvalidAction
	}
}
