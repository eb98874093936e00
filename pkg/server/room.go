package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vmtri/cardroom/pkg/poker"
	"github.com/vmtri/cardroom/pkg/protocol"
	"github.com/vmtri/cardroom/pkg/statemachine"
	"github.com/vmtri/cardroom/pkg/tienlen"
)

// Seat binds a player to a stable position in a room. The session is nil
// while the player is disconnected inside the grace window.
type Seat struct {
	UserID   int64
	Username string
	Position int
	Balance  int64

	sess *Session
}

// Room is one table: seat assignment, lifecycle status and the running
// game engine. All mutation happens under mu; broadcasts are sent after
// the mutation completes so every seat observes a consistent snapshot.
type Room struct {
	ID         int64
	Name       string
	Kind       protocol.GameKind
	MaxPlayers int
	CreatedAt  time.Time

	log slog.Logger
	db  Database

	smallBlind int64
	bigBlind   int64

	// onGraceExpire runs the leave path when a disconnect grace window
	// elapses. Set by the manager that owns this room.
	onGraceExpire func(roomID, userID int64)
	gracePeriod   time.Duration

	mu     sync.Mutex
	status protocol.RoomStatus
	hostID int64
	seats  []*Seat // indexed by position; nil entries are free

	lifecycle *statemachine.StateMachine[Room]

	// playing is the engine seat order captured at game start; engine seat
	// i belongs to playing[i].
	playing   []*Seat
	pokerGame *poker.Game
	tlGame    *tienlen.Game
	nextHand  int // rotates the poker dealer button

	graceTimers map[int64]*time.Timer
}

func stateWaiting(r *Room) statemachine.StateFn[Room] {
	r.status = protocol.RoomWaiting
	return nil
}

func statePlaying(r *Room) statemachine.StateFn[Room] {
	r.status = protocol.RoomPlaying
	return nil
}

// stateFinished clears the finished game and falls through to WAITING so
// the host can start a rematch or new players can join.
func stateFinished(r *Room) statemachine.StateFn[Room] {
	r.status = protocol.RoomFinished
	r.pokerGame = nil
	r.tlGame = nil
	r.playing = nil
	return stateWaiting
}

func newRoom(id int64, name string, kind protocol.GameKind, maxPlayers int, log slog.Logger, db Database) *Room {
	r := &Room{
		ID:          id,
		Name:        name,
		Kind:        kind,
		MaxPlayers:  maxPlayers,
		CreatedAt:   time.Now(),
		log:         log,
		db:          db,
		status:      protocol.RoomWaiting,
		seats:       make([]*Seat, maxPlayers),
		graceTimers: make(map[int64]*time.Timer),
	}
	r.lifecycle = statemachine.NewStateMachine(r, stateWaiting)
	return r
}

// seatedCount counts occupied seats. Caller holds mu.
func (r *Room) seatedCount() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// freeSeat returns the lowest free position, or -1. Caller holds mu.
func (r *Room) freeSeat() int {
	for i, s := range r.seats {
		if s == nil {
			return i
		}
	}
	return -1
}

func (r *Room) seatOf(userID int64) *Seat {
	for _, s := range r.seats {
		if s != nil && s.UserID == userID {
			return s
		}
	}
	return nil
}

// roomInfo builds the public room snapshot. Caller holds mu.
func (r *Room) roomInfo() protocol.RoomInfo {
	info := protocol.RoomInfo{
		RoomID:         r.ID,
		RoomName:       r.Name,
		GameKind:       r.Kind,
		HostUserID:     r.hostID,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: r.seatedCount(),
		Status:         r.status,
		Players:        []protocol.PlayerInfo{},
	}
	for _, s := range r.seats {
		if s == nil {
			continue
		}
		info.Players = append(info.Players, protocol.PlayerInfo{
			UserID:   s.UserID,
			Username: s.Username,
			Position: s.Position,
			Balance:  s.Balance,
		})
	}
	return info
}

// Info returns the public room snapshot.
func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomInfo()
}

// broadcast encodes msg once and queues it on every connected seat.
// Disconnected seats are skipped; they resynchronize on reattach.
func (r *Room) broadcast(op protocol.Op, msg interface{}) {
	frame, err := protocol.Encode(op, msg)
	if err != nil {
		r.log.Errorf("room %d: encode %s: %v", r.ID, op, err)
		return
	}
	for _, s := range r.seats {
		if s != nil && s.sess != nil {
			s.sess.Send(frame)
		}
	}
}

// broadcastRoomUpdate pushes the current room snapshot to all seats.
// Caller holds mu.
func (r *Room) broadcastRoomUpdate() {
	r.broadcast(protocol.OpRoomUpdate, &protocol.RoomUpdatePacket{RoomInfo: r.roomInfo()})
}

// addPlayer seats a player at the lowest free position.
func (r *Room) addPlayer(sess *Session, balance int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != protocol.RoomWaiting {
		return 0, ErrRoomNotJoinable
	}
	pos := r.freeSeat()
	if pos < 0 {
		return 0, ErrRoomFull
	}

	r.seats[pos] = &Seat{
		UserID:   sess.UserID,
		Username: sess.Username,
		Position: pos,
		Balance:  balance,
		sess:     sess,
	}
	if r.seatedCount() == 1 {
		r.hostID = sess.UserID
	}

	r.log.Infof("room %d: %s seated at position %d", r.ID, sess.Username, pos)
	r.broadcastRoomUpdate()
	return pos, nil
}

// removePlayer vacates the player's seat and reassigns the host to the
// lowest remaining position. Returns true when the room became empty.
func (r *Room) removePlayer(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatOf(userID)
	if seat == nil {
		return r.seatedCount() == 0
	}

	r.cancelGraceLocked(userID)
	r.seats[seat.Position] = nil
	seat.sess = nil

	// A leaver mid-game is retired from the running engine so the turn
	// can never stall on the vacated seat.
	engineID := strconv.FormatInt(userID, 10)
	switch {
	case r.pokerGame != nil && !r.pokerGame.Finished():
		if err := r.pokerGame.RetirePlayer(engineID); err != nil {
			r.log.Warnf("room %d: retire %d from poker hand: %v", r.ID, userID, err)
		} else {
			r.afterGameMutation()
		}
	case r.tlGame != nil && !r.tlGame.Finished():
		if err := r.tlGame.RetirePlayer(engineID); err != nil {
			r.log.Warnf("room %d: retire %d from tien len round: %v", r.ID, userID, err)
		} else {
			r.afterGameMutation()
		}
	}

	if r.seatedCount() == 0 {
		r.log.Infof("room %d: empty, destroying", r.ID)
		return true
	}

	if r.hostID == userID {
		for _, s := range r.seats {
			if s != nil {
				r.hostID = s.UserID
				r.log.Infof("room %d: host migrated to %s", r.ID, s.Username)
				break
			}
		}
	}

	r.broadcastRoomUpdate()
	return false
}

// markDisconnected detaches the session from its seat and starts the
// grace window. The seat and its state are preserved until expiry. The
// disconnect is scoped to the given session: a replaced connection closing
// after a reconnect must not detach the fresh one.
func (r *Room) markDisconnected(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := sess.UserID
	seat := r.seatOf(userID)
	if seat == nil || seat.sess != sess {
		return
	}
	seat.sess = nil

	r.cancelGraceLocked(userID)
	roomID := r.ID
	r.graceTimers[userID] = time.AfterFunc(r.gracePeriod, func() {
		r.onGraceExpire(roomID, userID)
	})

	r.log.Infof("room %d: user %d disconnected, grace window %s", r.ID, userID, r.gracePeriod)
	r.broadcastRoomUpdate()
}

// reattach binds a fresh session to the player's preserved seat, cancels
// the pending removal and resynchronizes the client.
func (r *Room) reattach(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatOf(sess.UserID)
	if seat == nil {
		return
	}
	r.cancelGraceLocked(sess.UserID)
	seat.sess = sess

	r.log.Infof("room %d: %s reconnected", r.ID, sess.Username)
	r.broadcastRoomUpdate()

	// Push the full current game state so the client catches up.
	if state, ok := r.stateFor(seat); ok {
		sess.SendPacket(protocol.OpGameState, &protocol.GameStatePacket{
			RoomID:    r.ID,
			GameState: state,
		})
		if turnID, ok := r.currentTurnLocked(); ok {
			sess.SendPacket(protocol.OpPlayerTurn, &protocol.PlayerTurnPacket{
				RoomID:          r.ID,
				CurrentPlayerID: turnID,
			})
		}
	}
}

func (r *Room) cancelGraceLocked(userID int64) {
	if t, ok := r.graceTimers[userID]; ok {
		t.Stop()
		delete(r.graceTimers, userID)
	}
}

// StartGame begins the room's game. Only the host may start, at least two
// seats must be filled, and no game may already be running.
func (r *Room) StartGame(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.hostID {
		return ErrNotHost
	}
	if r.status == protocol.RoomPlaying {
		return ErrGameInProgress
	}
	if r.seatedCount() < 2 {
		return ErrNotEnoughPlayers
	}

	// Engine seat order is room position order at start time.
	r.playing = nil
	for _, s := range r.seats {
		if s != nil {
			r.playing = append(r.playing, s)
		}
	}

	var err error
	switch r.Kind {
	case protocol.GameKindPoker:
		err = r.startPokerLocked()
	case protocol.GameKindTienLen:
		err = r.startTienLenLocked()
	default:
		err = fmt.Errorf("unknown game kind %q", r.Kind)
	}
	if err != nil {
		r.playing = nil
		return err
	}

	r.lifecycle.Dispatch(statePlaying)
	r.nextHand++

	r.log.Infof("room %d: %s game started with %d players", r.ID, r.Kind, len(r.playing))
	r.broadcastRoomUpdate()
	r.pushGameStartLocked()
	r.pushTurnLocked()
	return nil
}

func (r *Room) startPokerLocked() error {
	infos := make([]poker.PlayerInfo, len(r.playing))
	for i, s := range r.playing {
		infos[i] = poker.PlayerInfo{
			ID:    strconv.FormatInt(s.UserID, 10),
			Name:  s.Username,
			Chips: s.Balance,
		}
	}
	game, err := poker.NewGame(poker.GameConfig{
		Players:    infos,
		SmallBlind: r.smallBlind,
		BigBlind:   r.bigBlind,
		Dealer:     r.nextHand % len(r.playing),
		Log:        r.log,
	})
	if err != nil {
		return err
	}
	r.pokerGame = game
	return nil
}

func (r *Room) startTienLenLocked() error {
	if len(r.playing) > tienlen.MaxPlayers {
		return fmt.Errorf("tien len seats at most %d players", tienlen.MaxPlayers)
	}
	infos := make([]tienlen.PlayerInfo, len(r.playing))
	for i, s := range r.playing {
		infos[i] = tienlen.PlayerInfo{
			ID:   strconv.FormatInt(s.UserID, 10),
			Name: s.Username,
		}
	}
	game, err := tienlen.NewGame(tienlen.GameConfig{
		Players: infos,
		Log:     r.log,
	})
	if err != nil {
		return err
	}
	r.tlGame = game
	return nil
}

// HandleAction applies a validated player action to the running engine.
// Rejections are returned to the caller only; accepted mutations are
// followed by a state push to every seat.
func (r *Room) HandleAction(userID int64, pkt *protocol.PlayerActionPacket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatOf(userID) == nil {
		return ErrNotInRoom
	}
	engineID := strconv.FormatInt(userID, 10)

	var err error
	switch {
	case r.pokerGame != nil:
		err = r.applyPokerLocked(engineID, pkt)
	case r.tlGame != nil:
		err = r.applyTienLenLocked(engineID, pkt)
	default:
		return ErrNoActiveGame
	}
	if err != nil {
		return err
	}

	r.afterGameMutation()
	return nil
}

func (r *Room) applyPokerLocked(engineID string, pkt *protocol.PlayerActionPacket) error {
	switch pkt.ActionType {
	case protocol.ActionFold:
		return r.pokerGame.HandleFold(engineID)
	case protocol.ActionCheck:
		return r.pokerGame.HandleCheck(engineID)
	case protocol.ActionCall:
		return r.pokerGame.HandleCall(engineID)
	case protocol.ActionRaise:
		return r.pokerGame.HandleRaise(engineID, pkt.Amount)
	case protocol.ActionAllIn:
		return r.pokerGame.HandleAllIn(engineID)
	default:
		return fmt.Errorf("action %q not valid for poker", pkt.ActionType)
	}
}

func (r *Room) applyTienLenLocked(engineID string, pkt *protocol.PlayerActionPacket) error {
	switch pkt.ActionType {
	case protocol.ActionPlay:
		return r.tlGame.HandlePlay(engineID, pkt.Cards)
	case protocol.ActionPass:
		return r.tlGame.HandlePass(engineID)
	default:
		return fmt.Errorf("action %q not valid for tien len", pkt.ActionType)
	}
}

// afterGameMutation pushes the post-mutation state and settles the game if
// it just ended. Caller holds mu.
func (r *Room) afterGameMutation() {
	r.pushGameStateLocked()

	switch {
	case r.pokerGame != nil && r.pokerGame.Finished():
		r.settlePokerLocked()
	case r.tlGame != nil && r.tlGame.Finished():
		r.settleTienLenLocked()
	default:
		r.pushTurnLocked()
	}
}

func (r *Room) pushGameStartLocked() {
	order := make([]int64, len(r.playing))
	for i, s := range r.playing {
		order[i] = s.UserID
	}
	for _, s := range r.playing {
		if s.sess == nil {
			continue
		}
		state, ok := r.stateFor(s)
		if !ok {
			continue
		}
		s.sess.SendPacket(protocol.OpGameStart, &protocol.GameStartPacket{
			RoomID:       r.ID,
			PlayerOrder:  order,
			InitialState: state,
		})
	}
}

func (r *Room) pushGameStateLocked() {
	for _, s := range r.playing {
		if s.sess == nil {
			continue
		}
		state, ok := r.stateFor(s)
		if !ok {
			continue
		}
		s.sess.SendPacket(protocol.OpGameState, &protocol.GameStatePacket{
			RoomID:    r.ID,
			GameState: state,
		})
	}
}

func (r *Room) pushTurnLocked() {
	turnID, ok := r.currentTurnLocked()
	if !ok {
		return
	}
	r.broadcast(protocol.OpPlayerTurn, &protocol.PlayerTurnPacket{
		RoomID:          r.ID,
		CurrentPlayerID: turnID,
	})
}

func (r *Room) currentTurnLocked() (int64, bool) {
	var engineID string
	switch {
	case r.pokerGame != nil:
		engineID = r.pokerGame.CurrentPlayerID()
	case r.tlGame != nil:
		engineID = r.tlGame.CurrentPlayerID()
	}
	if engineID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(engineID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// stateFor serializes the running game redacted for one recipient: the
// recipient sees their own cards, every other hand is stripped to counts.
func (r *Room) stateFor(seat *Seat) (json.RawMessage, bool) {
	engineID := strconv.FormatInt(seat.UserID, 10)

	switch {
	case r.pokerGame != nil:
		snap := r.pokerGame.Snapshot()
		for i := range snap.Players {
			p := &snap.Players[i]
			if p.ID == engineID {
				continue
			}
			// Showdown reveals the hands still in contention.
			if snap.Finished && !p.HasFolded {
				continue
			}
			p.Hand = nil
			p.HandDescription = ""
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			r.log.Errorf("room %d: marshal poker state: %v", r.ID, err)
			return nil, false
		}
		return raw, true

	case r.tlGame != nil:
		snap := r.tlGame.Snapshot()
		for i := range snap.Players {
			p := &snap.Players[i]
			if p.ID != engineID {
				p.Hand = nil
			}
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			r.log.Errorf("room %d: marshal tien len state: %v", r.ID, err)
			return nil, false
		}
		return raw, true
	}
	return nil, false
}

// settlePokerLocked applies the hand's chip deltas to credit balances and
// announces the result.
func (r *Room) settlePokerLocked() {
	deltas := r.pokerGame.ChipDeltas()
	winners := r.pokerGame.Winners()

	changes := make([]protocol.CreditChange, 0, len(r.playing))
	for _, s := range r.playing {
		engineID := strconv.FormatInt(s.UserID, 10)
		delta := deltas[engineID]
		if delta != 0 {
			desc := fmt.Sprintf("poker hand in room %d", r.ID)
			if err := r.db.UpdatePlayerBalance(s.UserID, delta, "poker", desc); err != nil {
				r.log.Errorf("room %d: settle %d: %v", r.ID, s.UserID, err)
			}
			s.Balance += delta
		}
		changes = append(changes, protocol.CreditChange{UserID: s.UserID, Delta: delta})
	}

	var winnerID int64
	if len(winners) > 0 {
		winnerID, _ = strconv.ParseInt(winners[0], 10, 64)
	}
	r.broadcast(protocol.OpGameEnd, &protocol.GameEndPacket{
		RoomID:        r.ID,
		WinnerID:      winnerID,
		CreditChanges: changes,
	})

	r.log.Infof("room %d: poker hand settled, winner %d", r.ID, winnerID)
	r.lifecycle.Dispatch(stateFinished)
	r.broadcastRoomUpdate()
}

// settleTienLenLocked settles a finished round: every loser pays the
// winner one stake (the room's big blind).
func (r *Room) settleTienLenLocked() {
	finishers := r.tlGame.Finishers()
	if len(finishers) == 0 {
		return
	}
	winnerID, _ := strconv.ParseInt(finishers[0], 10, 64)
	stake := r.bigBlind

	changes := make([]protocol.CreditChange, 0, len(r.playing))
	for _, s := range r.playing {
		var delta int64
		if s.UserID == winnerID {
			delta = stake * int64(len(r.playing)-1)
		} else {
			delta = -stake
		}
		desc := fmt.Sprintf("tien len round in room %d", r.ID)
		if err := r.db.UpdatePlayerBalance(s.UserID, delta, "tienlen", desc); err != nil {
			r.log.Errorf("room %d: settle %d: %v", r.ID, s.UserID, err)
		}
		s.Balance += delta
		changes = append(changes, protocol.CreditChange{UserID: s.UserID, Delta: delta})
	}

	r.broadcast(protocol.OpGameEnd, &protocol.GameEndPacket{
		RoomID:        r.ID,
		WinnerID:      winnerID,
		CreditChanges: changes,
	})

	r.log.Infof("room %d: tien len round settled, winner %d", r.ID, winnerID)
	r.lifecycle.Dispatch(stateFinished)
	r.broadcastRoomUpdate()
}
