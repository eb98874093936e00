package server

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmtri/cardroom/pkg/poker"
	"github.com/vmtri/cardroom/pkg/protocol"
	"github.com/vmtri/cardroom/pkg/tienlen"
)

func testLogger(t *testing.T) slog.Logger {
	t.Helper()
	return slog.NewBackend(io.Discard).Logger("TEST")
}

// waitForOps blocks until the connection's writer goroutine has flushed
// all the wanted opcodes.
func waitForOps(t *testing.T, conn *fakeConn, want ...protocol.Op) {
	t.Helper()
	require.Eventually(t, func() bool {
		ops := conn.ops()
		for _, w := range want {
			found := false
			for _, op := range ops {
				if op == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "opcodes %v never all arrived", want)
}

func TestStartGameRequiresHost(t *testing.T) {
	env := newTestEnv(t, 0)

	host, _ := env.session(t, "host")
	room, err := env.mgr.CreateRoom("table", protocol.GameKindPoker, 4, host, 1000)
	require.NoError(t, err)

	require.ErrorIs(t, room.StartGame(host.UserID), ErrNotEnoughPlayers)

	guest, _ := env.session(t, "guest")
	_, err = env.mgr.JoinRoom(room.ID, guest, 1000)
	require.NoError(t, err)

	require.ErrorIs(t, room.StartGame(guest.UserID), ErrNotHost)
	require.NoError(t, room.StartGame(host.UserID))
	require.ErrorIs(t, room.StartGame(host.UserID), ErrGameInProgress)
}

func TestPokerHandLifecycle(t *testing.T) {
	env := newTestEnv(t, 0)

	host, hostConn := env.session(t, "host")
	room, err := env.mgr.CreateRoom("table", protocol.GameKindPoker, 2, host, 1000)
	require.NoError(t, err)
	guest, guestConn := env.session(t, "guest")
	_, err = env.mgr.JoinRoom(room.ID, guest, 1000)
	require.NoError(t, err)

	require.NoError(t, room.StartGame(host.UserID))
	assert.Equal(t, protocol.RoomPlaying, room.Info().Status)

	// A PLAYING room rejects new joins.
	late, _ := env.session(t, "late")
	_, err = env.mgr.JoinRoom(room.ID, late, 1000)
	require.ErrorIs(t, err, ErrRoomNotJoinable)

	// Heads-up the dealer (the host, first hand) posts the small blind and
	// acts first; folding ends the hand immediately.
	require.ErrorIs(t, room.HandleAction(guest.UserID, &protocol.PlayerActionPacket{
		ActionType: protocol.ActionFold,
	}), poker.ErrNotYourTurn)
	require.NoError(t, room.HandleAction(host.UserID, &protocol.PlayerActionPacket{
		ActionType: protocol.ActionFold,
	}))

	// Settlement is zero-sum and persisted.
	hostBal, err := env.db.GetPlayerBalance(host.UserID)
	require.NoError(t, err)
	guestBal, err := env.db.GetPlayerBalance(guest.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(990), hostBal)
	assert.Equal(t, int64(1010), guestBal)

	// The room returns to WAITING for a rematch and now accepts the join
	// it refused while playing.
	assert.Equal(t, protocol.RoomWaiting, room.Info().Status)
	_, err = env.mgr.JoinRoom(room.ID, late, 1000)
	require.NoError(t, err)

	waitForOps(t, hostConn, protocol.OpGameStart, protocol.OpGameState, protocol.OpGameEnd)
	waitForOps(t, guestConn, protocol.OpGameStart, protocol.OpGameState, protocol.OpGameEnd)
}

func TestPokerLeaveMidHandSettles(t *testing.T) {
	env := newTestEnv(t, 0)

	host, _ := env.session(t, "host")
	room, err := env.mgr.CreateRoom("table", protocol.GameKindPoker, 2, host, 1000)
	require.NoError(t, err)
	guest, _ := env.session(t, "guest")
	_, err = env.mgr.JoinRoom(room.ID, guest, 1000)
	require.NoError(t, err)
	require.NoError(t, room.StartGame(host.UserID))

	// The guest is not on the clock; leaving must still fold their seat so
	// the hand cannot stall waiting on it.
	require.NoError(t, env.mgr.LeaveRoom(room.ID, guest.UserID))

	hostBal, err := env.db.GetPlayerBalance(host.UserID)
	require.NoError(t, err)
	guestBal, err := env.db.GetPlayerBalance(guest.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1010), hostBal)
	assert.Equal(t, int64(990), guestBal)

	info := room.Info()
	assert.Equal(t, protocol.RoomWaiting, info.Status)
	assert.Equal(t, 1, info.CurrentPlayers)
	assert.Equal(t, host.UserID, info.HostUserID)
}

func TestTienLenLeaveMidRoundSettles(t *testing.T) {
	env := newTestEnv(t, 0)

	host, _ := env.session(t, "host")
	room, err := env.mgr.CreateRoom("climb", protocol.GameKindTienLen, 4, host, 1000)
	require.NoError(t, err)
	guest, _ := env.session(t, "guest")
	_, err = env.mgr.JoinRoom(room.ID, guest, 1000)
	require.NoError(t, err)
	require.NoError(t, room.StartGame(host.UserID))

	// Whoever holds the clock, leaving retires the seat and the remaining
	// player takes the round.
	require.NoError(t, env.mgr.LeaveRoom(room.ID, guest.UserID))

	hostBal, err := env.db.GetPlayerBalance(host.UserID)
	require.NoError(t, err)
	guestBal, err := env.db.GetPlayerBalance(guest.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1020), hostBal)
	assert.Equal(t, int64(980), guestBal)
	assert.Equal(t, protocol.RoomWaiting, room.Info().Status)
}

func TestTienLenActionRouting(t *testing.T) {
	env := newTestEnv(t, 0)

	host, _ := env.session(t, "host")
	room, err := env.mgr.CreateRoom("climb", protocol.GameKindTienLen, 4, host, 1000)
	require.NoError(t, err)
	guest, _ := env.session(t, "guest")
	_, err = env.mgr.JoinRoom(room.ID, guest, 1000)
	require.NoError(t, err)

	require.NoError(t, room.StartGame(host.UserID))

	// Exactly one player is on the clock, and passing on the opening trick
	// is rejected for them while the other is simply out of turn.
	pass := &protocol.PlayerActionPacket{ActionType: protocol.ActionPass}
	errHost := room.HandleAction(host.UserID, pass)
	errGuest := room.HandleAction(guest.UserID, pass)

	var opening, outOfTurn int
	for _, err := range []error{errHost, errGuest} {
		switch {
		case errors.Is(err, tienlen.ErrCannotPassOpening):
			opening++
		case errors.Is(err, tienlen.ErrNotYourTurn):
			outOfTurn++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, opening)
	assert.Equal(t, 1, outOfTurn)
	assert.Equal(t, protocol.RoomPlaying, room.Info().Status)
}
