package cards

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckDealsUniqueCards(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, deck.Size())

	seen := make(map[string]bool)
	for {
		card, ok := deck.Draw()
		if !ok {
			break
		}
		key := card.String()
		require.False(t, seen[key], "card %s drawn twice", key)
		seen[key] = true
	}
	assert.Len(t, seen, 52)
	assert.Equal(t, 0, deck.Size())

	_, ok := deck.Draw()
	assert.False(t, ok)
}

func TestDealRefusesOverdraw(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(2)))

	hand, ok := deck.Deal(13)
	require.True(t, ok)
	assert.Len(t, hand, 13)
	assert.Equal(t, 39, deck.Size())

	_, ok = deck.Deal(40)
	assert.False(t, ok)
	assert.Equal(t, 39, deck.Size(), "failed deal must not consume cards")
}

func TestShuffleIsSeedDeterministic(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(7)))
	b := NewDeck(rand.New(rand.NewSource(7)))

	for i := 0; i < 52; i++ {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		require.True(t, ca.Equal(cb), "same seed must give the same order")
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	card := New(Hearts, Queen)

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var back Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, card.Equal(back))
	assert.Equal(t, Hearts, back.GetSuit())
	assert.Equal(t, Queen, back.GetValue())
}
