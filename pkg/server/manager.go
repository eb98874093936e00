package server

import (
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vmtri/cardroom/pkg/protocol"
)

// Manager is the registry of all rooms. It routes connection-scoped
// requests to rooms and tracks which room each player occupies.
type Manager struct {
	log slog.Logger
	db  Database

	smallBlind  int64
	bigBlind    int64
	gracePeriod time.Duration

	mu         sync.RWMutex
	rooms      map[int64]*Room
	roomOf     map[int64]*Room // player id -> occupied room
	nextRoomID int64
}

// ManagerConfig holds the settings the manager passes down to rooms.
type ManagerConfig struct {
	Log         slog.Logger
	DB          Database
	SmallBlind  int64
	BigBlind    int64
	GracePeriod time.Duration
}

// NewManager creates an empty room registry.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		log:         cfg.Log,
		db:          cfg.DB,
		smallBlind:  cfg.SmallBlind,
		bigBlind:    cfg.BigBlind,
		gracePeriod: cfg.GracePeriod,
		rooms:       make(map[int64]*Room),
		roomOf:      make(map[int64]*Room),
	}
}

// CreateRoom creates a room with the caller as host at seat 0. Fails with
// ErrAlreadyInRoom if the caller already occupies a seat elsewhere.
func (m *Manager) CreateRoom(name string, kind protocol.GameKind, maxPlayers int, sess *Session, balance int64) (*Room, error) {
	m.mu.Lock()
	if _, ok := m.roomOf[sess.UserID]; ok {
		m.mu.Unlock()
		return nil, ErrAlreadyInRoom
	}

	m.nextRoomID++
	room := newRoom(m.nextRoomID, name, kind, maxPlayers, m.log, m.db)
	room.smallBlind = m.smallBlind
	room.bigBlind = m.bigBlind
	room.gracePeriod = m.gracePeriod
	room.onGraceExpire = m.graceExpired
	m.rooms[room.ID] = room
	m.roomOf[sess.UserID] = room
	m.mu.Unlock()

	if _, err := room.addPlayer(sess, balance); err != nil {
		// Seat 0 of a fresh room cannot be taken; treat as internal.
		m.mu.Lock()
		delete(m.rooms, room.ID)
		delete(m.roomOf, sess.UserID)
		m.mu.Unlock()
		return nil, err
	}

	m.log.Infof("room %d (%s, %s) created by %s", room.ID, name, kind, sess.Username)
	return room, nil
}

// JoinRoom seats the caller at the lowest free position of the room.
func (m *Manager) JoinRoom(roomID int64, sess *Session, balance int64) (*Room, error) {
	m.mu.Lock()
	if _, ok := m.roomOf[sess.UserID]; ok {
		m.mu.Unlock()
		return nil, ErrAlreadyInRoom
	}
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	m.roomOf[sess.UserID] = room
	m.mu.Unlock()

	if _, err := room.addPlayer(sess, balance); err != nil {
		m.mu.Lock()
		delete(m.roomOf, sess.UserID)
		m.mu.Unlock()
		return nil, err
	}
	return room, nil
}

// LeaveRoom vacates the player's seat; an empty room is removed from the
// registry.
func (m *Manager) LeaveRoom(roomID, userID int64) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	delete(m.roomOf, userID)
	m.mu.Unlock()

	if room.removePlayer(userID) {
		m.mu.Lock()
		delete(m.rooms, roomID)
		m.mu.Unlock()
	}
	return nil
}

// ListRooms returns WAITING rooms with free seats, newest first, optionally
// filtered by game kind.
func (m *Manager) ListRooms(filter protocol.GameKind) []protocol.RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	// Room ids are monotonic, so descending id is newest first.
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID > rooms[j].ID })

	out := []protocol.RoomInfo{}
	for _, r := range rooms {
		if filter != "" && r.Kind != filter {
			continue
		}
		info := r.Info()
		if info.Status != protocol.RoomWaiting || info.CurrentPlayers >= info.MaxPlayers {
			continue
		}
		out = append(out, info)
	}
	return out
}

// RoomFor returns the room a player currently occupies, if any.
func (m *Manager) RoomFor(userID int64) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.roomOf[userID]
	return room, ok
}

// GetRoom looks a room up by id.
func (m *Manager) GetRoom(roomID int64) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// HandleDisconnection marks the session's seat as absent and starts the
// grace window. The seat survives until the window elapses. A session that
// was already replaced by a reconnect is ignored.
func (m *Manager) HandleDisconnection(sess *Session) {
	m.mu.RLock()
	room, ok := m.roomOf[sess.UserID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	room.markDisconnected(sess)
}

// Reattach binds a fresh session to a preserved seat after a reconnect.
// Returns the room when the player had one.
func (m *Manager) Reattach(sess *Session) (*Room, bool) {
	m.mu.RLock()
	room, ok := m.roomOf[sess.UserID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	room.reattach(sess)
	return room, true
}

// graceExpired converts an elapsed grace window into an explicit leave.
func (m *Manager) graceExpired(roomID, userID int64) {
	m.log.Infof("grace window expired for user %d in room %d", userID, roomID)
	m.LeaveRoom(roomID, userID)
}
