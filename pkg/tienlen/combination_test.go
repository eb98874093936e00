package tienlen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmtri/cardroom/pkg/cards"
)

func c(suit cards.Suit, value cards.Value) cards.Card {
	return cards.New(suit, value)
}

func TestDetectShapes(t *testing.T) {
	tests := []struct {
		name string
		set  []cards.Card
		want Kind
	}{
		{"single", []cards.Card{c(cards.Hearts, cards.Seven)}, Single},
		{"pair", []cards.Card{c(cards.Hearts, cards.Seven), c(cards.Spades, cards.Seven)}, Pair},
		{"mismatched pair", []cards.Card{c(cards.Hearts, cards.Seven), c(cards.Spades, cards.Eight)}, Invalid},
		{"triple", []cards.Card{c(cards.Hearts, cards.King), c(cards.Spades, cards.King), c(cards.Clubs, cards.King)}, Triple},
		{"quad", []cards.Card{c(cards.Hearts, cards.Nine), c(cards.Spades, cards.Nine), c(cards.Clubs, cards.Nine), c(cards.Diamonds, cards.Nine)}, FourOfAKind},
		{"straight", []cards.Card{c(cards.Hearts, cards.Three), c(cards.Spades, cards.Four), c(cards.Clubs, cards.Five)}, Straight},
		{"long straight", []cards.Card{
			c(cards.Hearts, cards.Five), c(cards.Spades, cards.Six), c(cards.Clubs, cards.Seven),
			c(cards.Diamonds, cards.Eight), c(cards.Hearts, cards.Nine), c(cards.Spades, cards.Ten),
		}, Straight},
		{"straight with gap", []cards.Card{c(cards.Hearts, cards.Three), c(cards.Spades, cards.Four), c(cards.Clubs, cards.Six)}, Invalid},
		{"straight through two", []cards.Card{c(cards.Hearts, cards.King), c(cards.Spades, cards.Ace), c(cards.Clubs, cards.Two)}, Invalid},
		{"three consecutive pairs", []cards.Card{
			c(cards.Hearts, cards.Three), c(cards.Spades, cards.Three),
			c(cards.Clubs, cards.Four), c(cards.Diamonds, cards.Four),
			c(cards.Hearts, cards.Five), c(cards.Spades, cards.Five),
		}, ThreeConsecutivePairs},
		{"four consecutive pairs", []cards.Card{
			c(cards.Hearts, cards.Three), c(cards.Spades, cards.Three),
			c(cards.Clubs, cards.Four), c(cards.Diamonds, cards.Four),
			c(cards.Hearts, cards.Five), c(cards.Spades, cards.Five),
			c(cards.Clubs, cards.Six), c(cards.Diamonds, cards.Six),
		}, FourConsecutivePairs},
		{"pairs with rank gap", []cards.Card{
			c(cards.Hearts, cards.Three), c(cards.Spades, cards.Three),
			c(cards.Clubs, cards.Four), c(cards.Diamonds, cards.Four),
			c(cards.Hearts, cards.Six), c(cards.Spades, cards.Six),
		}, Invalid},
		{"empty", nil, Invalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.set).Kind)
		})
	}
}

func TestSingleOrdering(t *testing.T) {
	// Rank dominates, suit breaks ties, 2 outranks everything.
	low := Detect([]cards.Card{c(cards.Spades, cards.Three)})
	sameRank := Detect([]cards.Card{c(cards.Clubs, cards.Three)})
	ace := Detect([]cards.Card{c(cards.Hearts, cards.Ace)})
	two := Detect([]cards.Card{c(cards.Spades, cards.Two)})

	assert.True(t, CanBeat(low, sameRank))
	assert.False(t, CanBeat(sameRank, low))
	assert.True(t, CanBeat(ace, two))
	assert.False(t, CanBeat(two, ace))
}

func TestBeatRequiresSameShapeAndLength(t *testing.T) {
	pair := Detect([]cards.Card{c(cards.Hearts, cards.Seven), c(cards.Spades, cards.Seven)})
	single := Detect([]cards.Card{c(cards.Hearts, cards.King)})
	shortStraight := Detect([]cards.Card{c(cards.Hearts, cards.Three), c(cards.Spades, cards.Four), c(cards.Clubs, cards.Five)})
	longStraight := Detect([]cards.Card{
		c(cards.Hearts, cards.Four), c(cards.Spades, cards.Five),
		c(cards.Clubs, cards.Six), c(cards.Diamonds, cards.Seven),
	})

	assert.False(t, CanBeat(pair, single))
	assert.False(t, CanBeat(shortStraight, longStraight), "straights of different length never compare")

	higher := Detect([]cards.Card{c(cards.Hearts, cards.Four), c(cards.Spades, cards.Five), c(cards.Clubs, cards.Six)})
	assert.True(t, CanBeat(shortStraight, higher))
}

func TestBombPrecedence(t *testing.T) {
	singleTwo := Detect([]cards.Card{c(cards.Hearts, cards.Two)})
	pairTwo := Detect([]cards.Card{c(cards.Hearts, cards.Two), c(cards.Spades, cards.Two)})
	quad := Detect([]cards.Card{
		c(cards.Hearts, cards.Nine), c(cards.Spades, cards.Nine),
		c(cards.Clubs, cards.Nine), c(cards.Diamonds, cards.Nine),
	})
	higherQuad := Detect([]cards.Card{
		c(cards.Hearts, cards.Jack), c(cards.Spades, cards.Jack),
		c(cards.Clubs, cards.Jack), c(cards.Diamonds, cards.Jack),
	})
	threePine := Detect([]cards.Card{
		c(cards.Hearts, cards.Three), c(cards.Spades, cards.Three),
		c(cards.Clubs, cards.Four), c(cards.Diamonds, cards.Four),
		c(cards.Hearts, cards.Five), c(cards.Spades, cards.Five),
	})
	fourPine := Detect([]cards.Card{
		c(cards.Hearts, cards.Three), c(cards.Spades, cards.Three),
		c(cards.Clubs, cards.Four), c(cards.Diamonds, cards.Four),
		c(cards.Hearts, cards.Five), c(cards.Spades, cards.Five),
		c(cards.Clubs, cards.Six), c(cards.Diamonds, cards.Six),
	})

	// Three consecutive pairs chop a single 2 but not a pair of 2s.
	assert.True(t, CanBeat(singleTwo, threePine))
	assert.False(t, CanBeat(pairTwo, threePine))

	// A quad beats twos and the lesser bomb.
	assert.True(t, CanBeat(singleTwo, quad))
	assert.True(t, CanBeat(pairTwo, quad))
	assert.True(t, CanBeat(threePine, quad))
	assert.True(t, CanBeat(quad, higherQuad))
	assert.False(t, CanBeat(higherQuad, quad))

	// Four consecutive pairs outrank quads.
	assert.True(t, CanBeat(quad, fourPine))
	assert.False(t, CanBeat(fourPine, quad))

	// A bomb never beats an ordinary non-2 single.
	plainKing := Detect([]cards.Card{c(cards.Hearts, cards.King)})
	assert.False(t, CanBeat(plainKing, quad))
}
