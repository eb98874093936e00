package poker

import (
	"github.com/chehsunliu/poker"

	"github.com/vmtri/cardroom/pkg/cards"
)

// HandRank represents the rank of a poker hand
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// HandValue represents a complete evaluation of a hand.
type HandValue struct {
	Rank            HandRank
	RankValue       int // chehsunliu rank value; lower is better
	HandDescription string
}

// convertCard converts our card type to the chehsunliu/poker card type.
func convertCard(card cards.Card) poker.Card {
	var rankChar byte
	switch card.GetValue() {
	case cards.Ten:
		rankChar = 'T'
	case cards.Jack:
		rankChar = 'J'
	case cards.Queen:
		rankChar = 'Q'
	case cards.King:
		rankChar = 'K'
	case cards.Ace:
		rankChar = 'A'
	default:
		rankChar = string(card.GetValue())[0]
	}

	var suitChar byte
	switch card.GetSuit() {
	case cards.Spades:
		suitChar = 's'
	case cards.Hearts:
		suitChar = 'h'
	case cards.Diamonds:
		suitChar = 'd'
	default:
		suitChar = 'c'
	}

	return poker.NewCard(string([]byte{rankChar, suitChar}))
}

// convertRankClass converts a chehsunliu rank class to our HandRank.
// chehsunliu classifies a royal flush as a straight flush.
func convertRankClass(rankClass int32) HandRank {
	switch rankClass {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}

// EvaluateHand evaluates a player's best 5-card hand from their hole cards
// and the community cards.
func EvaluateHand(holeCards, communityCards []cards.Card) HandValue {
	allCards := append([]cards.Card{}, holeCards...)
	allCards = append(allCards, communityCards...)

	converted := make([]poker.Card, len(allCards))
	for i, card := range allCards {
		converted[i] = convertCard(card)
	}

	rank := poker.Evaluate(converted)

	return HandValue{
		Rank:            convertRankClass(poker.RankClass(rank)),
		RankValue:       int(rank),
		HandDescription: poker.RankString(rank),
	}
}

// CompareHands compares two hand values and returns -1/0/1 for
// worse/tie/better. chehsunliu rank values order low-is-best, so the
// comparison is inverted here.
func CompareHands(handA, handB HandValue) int {
	if handA.RankValue > handB.RankValue {
		return -1
	}
	if handA.RankValue < handB.RankValue {
		return 1
	}
	return 0
}
