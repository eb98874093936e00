package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidePotsFromShortAllIn(t *testing.T) {
	players := []*Player{
		NewPlayer("a", "Alice", 0, 0),
		NewPlayer("b", "Bob", 1, 0),
		NewPlayer("c", "Carol", 2, 0),
	}

	pm := NewPotManager(3, nil)
	pm.AddBet(0, 100)
	pm.AddBet(1, 60) // short all-in
	pm.AddBet(2, 100)

	pm.BuildPotsFromTotals(players)
	require.Len(t, pm.Pots, 2)

	// Main pot: 60 from each of the three players.
	assert.Equal(t, int64(180), pm.Pots[0].Amount)
	assert.Equal(t, []bool{true, true, true}, pm.Pots[0].Eligibility)

	// Side pot: the 40 overage from the two full stacks.
	assert.Equal(t, int64(80), pm.Pots[1].Amount)
	assert.Equal(t, []bool{true, false, true}, pm.Pots[1].Eligibility)

	// Bob holds the best hand but can only win the main pot.
	players[0].HandValue = &HandValue{RankValue: 500}
	players[1].HandValue = &HandValue{RankValue: 1}
	players[2].HandValue = &HandValue{RankValue: 500}

	pm.DistributePots(players, 0)
	assert.Equal(t, int64(180), players[1].Balance)
	assert.Equal(t, int64(40), players[0].Balance)
	assert.Equal(t, int64(40), players[2].Balance)
}

func TestTieRemainderGoesToSeatAfterDealer(t *testing.T) {
	players := []*Player{
		NewPlayer("a", "Alice", 0, 0),
		NewPlayer("b", "Bob", 1, 0),
		NewPlayer("c", "Carol", 2, 0),
	}
	players[2].HasFolded = true

	pm := NewPotManager(3, nil)
	pm.AddBet(0, 25)
	pm.AddBet(1, 25)
	pm.AddBet(2, 25)

	players[0].HandValue = &HandValue{RankValue: 10}
	players[1].HandValue = &HandValue{RankValue: 10}

	pm.BuildPotsFromTotals(players)
	require.Len(t, pm.Pots, 1)
	require.Equal(t, int64(75), pm.Pots[0].Amount)

	// 75 split two ways leaves a remainder chip for the winner seated
	// closest after the dealer (seat 1 when the dealer is seat 0).
	pm.DistributePots(players, 0)
	assert.Equal(t, int64(38), players[1].Balance)
	assert.Equal(t, int64(37), players[0].Balance)
}

func TestReturnUncalledBet(t *testing.T) {
	players := []*Player{
		NewPlayer("a", "Alice", 0, 100),
		NewPlayer("b", "Bob", 1, 0),
	}
	players[0].CurrentBet = 200

	pm := NewPotManager(2, nil)
	pm.AddBet(0, 200)
	pm.AddBet(1, 50)

	pm.ReturnUncalledBet(players)
	assert.Equal(t, int64(250), players[0].Balance)
	assert.Equal(t, int64(50), players[0].CurrentBet)
	assert.Equal(t, int64(50), pm.TotalBets[0])
	assert.Equal(t, int64(100), pm.GetTotalPot())
}
