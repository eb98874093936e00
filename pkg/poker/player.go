package poker

import (
	"fmt"

	"github.com/vmtri/cardroom/pkg/cards"
)

// Player represents one seat's state inside a poker hand.
type Player struct {
	ID   string
	Name string

	// Seat is the stable 0-based position within the room.
	Seat int

	Balance         int64 // chips remaining in the stack
	StartingBalance int64 // stack at the start of the current hand
	CurrentBet      int64 // amount bet in the current betting round
	Hand            []cards.Card

	HasFolded bool
	IsAllIn   bool

	// Populated during showdown.
	HandValue       *HandValue
	HandDescription string
}

// NewPlayer creates a new player with the given starting chips.
func NewPlayer(id, name string, seat int, chips int64) *Player {
	return &Player{
		ID:              id,
		Name:            name,
		Seat:            seat,
		Balance:         chips,
		StartingBalance: chips,
		Hand:            make([]cards.Card, 0, 2),
	}
}

// IsActive reports whether the player can still be asked to act this round.
func (p *Player) IsActive() bool {
	return !p.HasFolded && !p.IsAllIn
}

// ResetForNewHand clears per-hand state while keeping the chip stack.
func (p *Player) ResetForNewHand() {
	p.Hand = make([]cards.Card, 0, 2)
	p.StartingBalance = p.Balance
	p.CurrentBet = 0
	p.HasFolded = false
	p.IsAllIn = false
	p.HandValue = nil
	p.HandDescription = ""
}

// GetHandString returns a string representation of the player's hole cards.
func (p *Player) GetHandString() string {
	if len(p.Hand) == 0 {
		return "No cards"
	}
	str := ""
	for i, card := range p.Hand {
		if i > 0 {
			str += " "
		}
		str += card.String()
	}
	return str
}

// String returns a short status line for logs.
func (p *Player) String() string {
	return fmt.Sprintf("%s seat=%d stack=%d bet=%d folded=%v allin=%v",
		p.ID, p.Seat, p.Balance, p.CurrentBet, p.HasFolded, p.IsAllIn)
}
