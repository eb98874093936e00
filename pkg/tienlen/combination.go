package tienlen

import (
	"sort"

	"github.com/vmtri/cardroom/pkg/cards"
)

// Kind classifies a set of cards as a Tien Len combination.
type Kind int

const (
	Invalid Kind = iota
	Single
	Pair
	Triple
	Straight
	FourOfAKind
	ThreeConsecutivePairs
	FourConsecutivePairs
	FiveConsecutivePairs
)

// String returns the wire name of the combination kind.
func (k Kind) String() string {
	switch k {
	case Single:
		return "SINGLE"
	case Pair:
		return "PAIR"
	case Triple:
		return "TRIPLE"
	case Straight:
		return "STRAIGHT"
	case FourOfAKind:
		return "FOUR_OF_A_KIND"
	case ThreeConsecutivePairs:
		return "THREE_CONSECUTIVE_PAIRS"
	case FourConsecutivePairs:
		return "FOUR_CONSECUTIVE_PAIRS"
	case FiveConsecutivePairs:
		return "FIVE_CONSECUTIVE_PAIRS"
	default:
		return "INVALID"
	}
}

// rankTwo is the climbing rank of the 2, the highest card in Tien Len.
const rankTwo = 12

// climbingRank maps a card value onto the Tien Len ordering: 3 is lowest
// (0) and 2 is highest (12).
func climbingRank(c cards.Card) int {
	switch c.GetValue() {
	case cards.Three:
		return 0
	case cards.Four:
		return 1
	case cards.Five:
		return 2
	case cards.Six:
		return 3
	case cards.Seven:
		return 4
	case cards.Eight:
		return 5
	case cards.Nine:
		return 6
	case cards.Ten:
		return 7
	case cards.Jack:
		return 8
	case cards.Queen:
		return 9
	case cards.King:
		return 10
	case cards.Ace:
		return 11
	default: // Two
		return rankTwo
	}
}

// suitOrder breaks rank ties: spades lowest, hearts highest.
func suitOrder(c cards.Card) int {
	switch c.GetSuit() {
	case cards.Spades:
		return 0
	case cards.Clubs:
		return 1
	case cards.Diamonds:
		return 2
	default: // Hearts
		return 3
	}
}

// Power is the total ordering over single cards used for all tie-breaks.
func Power(c cards.Card) int {
	return climbingRank(c)*4 + suitOrder(c)
}

// SortHand orders cards by ascending power in place.
func SortHand(hand []cards.Card) {
	sort.Slice(hand, func(i, j int) bool {
		return Power(hand[i]) < Power(hand[j])
	})
}

// Combination is a detected play: the cards, their shape and the power of
// the highest card.
type Combination struct {
	Kind     Kind
	Cards    []cards.Card
	TopPower int
}

// Detect classifies a set of cards. The returned combination holds a sorted
// copy of the input; an unrecognizable set yields Kind == Invalid.
func Detect(set []cards.Card) Combination {
	if len(set) == 0 {
		return Combination{Kind: Invalid}
	}

	sorted := make([]cards.Card, len(set))
	copy(sorted, set)
	SortHand(sorted)

	top := Power(sorted[len(sorted)-1])

	if len(sorted) == 1 {
		return Combination{Kind: Single, Cards: sorted, TopPower: top}
	}

	if allSameRank(sorted) {
		switch len(sorted) {
		case 2:
			return Combination{Kind: Pair, Cards: sorted, TopPower: top}
		case 3:
			return Combination{Kind: Triple, Cards: sorted, TopPower: top}
		case 4:
			return Combination{Kind: FourOfAKind, Cards: sorted, TopPower: top}
		}
		return Combination{Kind: Invalid}
	}

	if isStraight(sorted) {
		return Combination{Kind: Straight, Cards: sorted, TopPower: top}
	}

	if isConsecutivePairs(sorted) {
		switch len(sorted) {
		case 6:
			return Combination{Kind: ThreeConsecutivePairs, Cards: sorted, TopPower: top}
		case 8:
			return Combination{Kind: FourConsecutivePairs, Cards: sorted, TopPower: top}
		case 10:
			return Combination{Kind: FiveConsecutivePairs, Cards: sorted, TopPower: top}
		}
	}

	return Combination{Kind: Invalid}
}

// CanBeat reports whether next beats prev on the table. Plain combinations
// must match shape and length and carry a strictly higher top card; bombs
// beat twos and lesser bombs per the standard precedence table.
func CanBeat(prev, next Combination) bool {
	if next.Kind == Invalid || prev.Kind == Invalid {
		return false
	}

	prevSingleTwo := prev.Kind == Single && climbingRank(prev.Cards[0]) == rankTwo
	prevPairTwo := prev.Kind == Pair && climbingRank(prev.Cards[0]) == rankTwo

	switch next.Kind {
	case FiveConsecutivePairs:
		if prevSingleTwo || prevPairTwo || prev.Kind == FourOfAKind ||
			prev.Kind == ThreeConsecutivePairs || prev.Kind == FourConsecutivePairs {
			return true
		}
		if prev.Kind == FiveConsecutivePairs {
			return next.TopPower > prev.TopPower
		}
		return false
	case FourConsecutivePairs:
		if prevSingleTwo || prevPairTwo || prev.Kind == FourOfAKind ||
			prev.Kind == ThreeConsecutivePairs {
			return true
		}
		if prev.Kind == FourConsecutivePairs {
			return next.TopPower > prev.TopPower
		}
		return false
	case FourOfAKind:
		if prevSingleTwo || prevPairTwo || prev.Kind == ThreeConsecutivePairs {
			return true
		}
		if prev.Kind == FourOfAKind {
			return next.TopPower > prev.TopPower
		}
		return false
	case ThreeConsecutivePairs:
		if prevSingleTwo {
			return true
		}
		if prev.Kind == ThreeConsecutivePairs {
			return next.TopPower > prev.TopPower
		}
		return false
	}

	if prev.Kind != next.Kind || len(prev.Cards) != len(next.Cards) {
		return false
	}
	return next.TopPower > prev.TopPower
}

func allSameRank(set []cards.Card) bool {
	r := climbingRank(set[0])
	for _, c := range set {
		if climbingRank(c) != r {
			return false
		}
	}
	return true
}

// isStraight requires length >= 3, consecutive ranks, no duplicates and no
// 2s. Input must be sorted.
func isStraight(set []cards.Card) bool {
	if len(set) < 3 {
		return false
	}
	for i, c := range set {
		if climbingRank(c) == rankTwo {
			return false
		}
		if i > 0 && climbingRank(c) != climbingRank(set[i-1])+1 {
			return false
		}
	}
	return true
}

// isConsecutivePairs requires an even length >= 6 of same-rank pairs with
// consecutive ranks and no 2s. Input must be sorted.
func isConsecutivePairs(set []cards.Card) bool {
	if len(set) < 6 || len(set)%2 != 0 {
		return false
	}
	for _, c := range set {
		if climbingRank(c) == rankTwo {
			return false
		}
	}
	prevRank := -1
	for i := 0; i < len(set); i += 2 {
		if climbingRank(set[i]) != climbingRank(set[i+1]) {
			return false
		}
		if prevRank != -1 && climbingRank(set[i]) != prevRank+1 {
			return false
		}
		prevRank = climbingRank(set[i])
	}
	return true
}
