package poker

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPlayerGame(t *testing.T, chipsA, chipsB int64) *Game {
	t.Helper()
	game, err := NewGame(GameConfig{
		Players: []PlayerInfo{
			{ID: "a", Name: "Alice", Chips: chipsA},
			{ID: "b", Name: "Bob", Chips: chipsB},
		},
		SmallBlind: 10,
		BigBlind:   20,
		Dealer:     0,
		Seed:       42,
	})
	require.NoError(t, err)
	return game
}

// assertConservation verifies that chips never leak: stacks plus pot always
// sum to the starting stacks.
func assertConservation(t *testing.T, g *Game, total int64) {
	t.Helper()
	snap := g.Snapshot()
	var sum int64
	for _, p := range snap.Players {
		sum += p.Balance
	}
	if !snap.Finished {
		sum += snap.Pot
	}
	require.Equal(t, total, sum, "chip conservation violated:\n%s", spew.Sdump(snap))
}

func TestHeadsUpBlindsAndFlop(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	// Heads-up: the dealer posts the small blind and acts first preflop.
	snap := game.Snapshot()
	assert.Equal(t, int64(990), snap.Players[0].Balance)
	assert.Equal(t, int64(980), snap.Players[1].Balance)
	assert.Equal(t, int64(30), snap.Pot)
	assert.Equal(t, "a", game.CurrentPlayerID())
	assertConservation(t, game, 2000)

	require.NoError(t, game.HandleCall("a"))
	snap = game.Snapshot()
	assert.Equal(t, int64(980), snap.Players[0].Balance)
	assert.Equal(t, int64(20), snap.Players[0].CurrentBet)
	assert.Equal(t, PhasePreFlop, game.GetPhase(), "big blind still has the option")

	require.NoError(t, game.HandleCheck("b"))

	assert.Equal(t, PhaseFlop, game.GetPhase())
	assert.Equal(t, int64(40), game.GetPot())
	assert.Equal(t, int64(0), game.GetCurrentBet())
	assert.Len(t, game.GetCommunityCards(), 3)
	assertConservation(t, game, 2000)

	// Postflop heads-up the big blind acts first.
	assert.Equal(t, "b", game.CurrentPlayerID())
}

func TestRejectionIsSideEffectFree(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	before := game.Snapshot()

	// Out of turn.
	err := game.HandleFold("b")
	require.ErrorIs(t, err, ErrNotYourTurn)

	// Check with a bet outstanding.
	err = game.HandleCheck("a")
	require.ErrorIs(t, err, ErrCheckNotAllowed)

	// Undersized raise.
	err = game.HandleRaise("a", 30)
	require.ErrorIs(t, err, ErrRaiseTooSmall)

	// Unknown player.
	err = game.HandleCall("nobody")
	require.ErrorIs(t, err, ErrUnknownPlayer)

	after := game.Snapshot()
	require.Equal(t, before, after, "rejected actions must not mutate state")
}

func TestFoldAwardsPotUncontested(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	require.NoError(t, game.HandleFold("a"))

	require.True(t, game.Finished())
	assert.Equal(t, []string{"b"}, game.Winners())

	// Bob's uncalled 10 comes back, then he wins the 20 pot.
	deltas := game.ChipDeltas()
	assert.Equal(t, int64(-10), deltas["a"])
	assert.Equal(t, int64(10), deltas["b"])
	assertConservation(t, game, 2000)
}

func TestRaiseReopensAction(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	require.NoError(t, game.HandleRaise("a", 60))
	assert.Equal(t, int64(60), game.GetCurrentBet())
	assert.Equal(t, "b", game.CurrentPlayerID())

	// Bob re-raises; Alice must respond even though she already acted.
	require.NoError(t, game.HandleRaise("b", 120))
	assert.Equal(t, PhasePreFlop, game.GetPhase())
	assert.Equal(t, "a", game.CurrentPlayerID())

	require.NoError(t, game.HandleCall("a"))
	assert.Equal(t, PhaseFlop, game.GetPhase())
	assert.Equal(t, int64(240), game.GetPot())
	assertConservation(t, game, 2000)
}

func TestShortCallBecomesAllIn(t *testing.T) {
	game := twoPlayerGame(t, 1000, 50)

	require.NoError(t, game.HandleRaise("a", 200))
	require.NoError(t, game.HandleCall("b"))

	// Bob could only cover 50 total; the uncalled 150 returns to Alice and
	// the board runs out to showdown.
	require.True(t, game.Finished())
	snap := game.Snapshot()
	assert.Equal(t, "SHOWDOWN", snap.Phase)
	assert.Len(t, snap.CommunityCards, 5)
	assertConservation(t, game, 1050)

	var totalDelta int64
	for _, d := range game.ChipDeltas() {
		totalDelta += d
	}
	assert.Zero(t, totalDelta, "settlement must be zero-sum")
}

func TestCheckdownReachesShowdown(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	require.NoError(t, game.HandleCall("a"))
	require.NoError(t, game.HandleCheck("b"))

	for _, phase := range []Phase{PhaseTurn, PhaseRiver, PhaseShowdown} {
		require.NoError(t, game.HandleCheck("b"))
		require.NoError(t, game.HandleCheck("a"))
		assert.Equal(t, phase, game.GetPhase())
	}

	require.True(t, game.Finished())
	require.NotEmpty(t, game.Winners())
	assertConservation(t, game, 2000)

	// Actions after settlement are rejected.
	err := game.HandleCheck("a")
	require.ErrorIs(t, err, ErrHandOver)
}

func TestRetireOffTurnSeatSettlesHeadsUp(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	// Alice is on the clock; Bob leaves anyway. His seat folds and the
	// hand settles uncontested for Alice.
	require.Equal(t, "a", game.CurrentPlayerID())
	require.NoError(t, game.RetirePlayer("b"))

	require.True(t, game.Finished())
	assert.Equal(t, []string{"a"}, game.Winners())

	deltas := game.ChipDeltas()
	assert.Equal(t, int64(10), deltas["a"])
	assert.Equal(t, int64(-10), deltas["b"])
	assertConservation(t, game, 2000)
}

func TestRetireOffTurnSeatThreeWay(t *testing.T) {
	game, err := NewGame(GameConfig{
		Players: []PlayerInfo{
			{ID: "a", Name: "Alice", Chips: 500},
			{ID: "b", Name: "Bob", Chips: 500},
			{ID: "c", Name: "Carol", Chips: 500},
		},
		SmallBlind: 10,
		BigBlind:   20,
		Dealer:     0,
		Seed:       7,
	})
	require.NoError(t, err)

	// Bob retires while Alice is on the clock; the clock must not move and
	// the hand keeps flowing around the vacated seat.
	require.Equal(t, "a", game.CurrentPlayerID())
	require.NoError(t, game.RetirePlayer("b"))
	require.Equal(t, "a", game.CurrentPlayerID())

	require.NoError(t, game.HandleCall("a"))
	require.NoError(t, game.HandleCheck("c"))

	require.Equal(t, PhaseFlop, game.GetPhase())
	require.Equal(t, "c", game.CurrentPlayerID())
	require.NoError(t, game.HandleCheck("c"))
	require.NoError(t, game.HandleCheck("a"))
	require.Equal(t, PhaseTurn, game.GetPhase())
	assertConservation(t, game, 1500)

	// Retiring an already folded seat is harmless.
	require.NoError(t, game.RetirePlayer("b"))
}

func TestRetireCurrentPlayerAdvancesTurn(t *testing.T) {
	game := twoPlayerGame(t, 1000, 1000)

	require.Equal(t, "a", game.CurrentPlayerID())
	require.NoError(t, game.RetirePlayer("a"))

	// Only Bob is left unfolded, so the hand settles straight away.
	require.True(t, game.Finished())
	assert.Equal(t, []string{"b"}, game.Winners())
	deltas := game.ChipDeltas()
	assert.Equal(t, int64(-10), deltas["a"])
	assert.Equal(t, int64(10), deltas["b"])
}

func TestThreeWayFoldSkipsSeat(t *testing.T) {
	game, err := NewGame(GameConfig{
		Players: []PlayerInfo{
			{ID: "a", Name: "Alice", Chips: 500},
			{ID: "b", Name: "Bob", Chips: 500},
			{ID: "c", Name: "Carol", Chips: 500},
		},
		SmallBlind: 10,
		BigBlind:   20,
		Dealer:     0,
		Seed:       7,
	})
	require.NoError(t, err)

	// Seats: dealer 0, small blind 1, big blind 2; seat 0 opens.
	require.Equal(t, "a", game.CurrentPlayerID())
	require.NoError(t, game.HandleFold("a"))
	require.NoError(t, game.HandleCall("b"))
	require.NoError(t, game.HandleCheck("c"))

	require.Equal(t, PhaseFlop, game.GetPhase())

	// Folded seat stays out of the rotation for the rest of the hand.
	require.Equal(t, "b", game.CurrentPlayerID())
	require.NoError(t, game.HandleCheck("b"))
	require.NoError(t, game.HandleCheck("c"))
	require.Equal(t, PhaseTurn, game.GetPhase())
	assertConservation(t, game, 1500)
}
