package tienlen

import "github.com/vmtri/cardroom/pkg/cards"

// PlayerSnapshot is a copy of one seat's state safe to serialize without
// holding the game lock.
type PlayerSnapshot struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Seat      int          `json:"seat"`
	Hand      []cards.Card `json:"hand,omitempty"`
	CardCount int          `json:"cardCount"`
	HasPassed bool         `json:"hasPassed"`
	Finished  bool         `json:"finished"`
}

// GameSnapshot is a copy of the full game state. Hands are included for
// every seat; callers redact other players' hands before sending.
type GameSnapshot struct {
	Players         []PlayerSnapshot `json:"players"`
	TrickCards      []cards.Card     `json:"trickCards,omitempty"`
	TrickKind       string           `json:"trickKind"`
	CurrentPlayerID string           `json:"currentPlayerId"`
	LastPlayerID    string           `json:"lastPlayerId"`
	Finishers       []string         `json:"finishers,omitempty"`
	Finished        bool             `json:"finished"`
}

// Snapshot returns a deep copy of the current game state.
func (g *Game) Snapshot() GameSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := GameSnapshot{
		Players:      make([]PlayerSnapshot, len(g.players)),
		TrickKind:    g.trick.Kind.String(),
		LastPlayerID: g.players[g.lastPlaySeat].ID,
		Finished:     g.finished,
	}
	if !g.finished {
		snap.CurrentPlayerID = g.players[g.currentTurn].ID
	}
	if g.trick.Kind != Invalid {
		snap.TrickCards = append([]cards.Card{}, g.trick.Cards...)
	}
	snap.Finishers = append([]string{}, g.finishers...)

	for i, p := range g.players {
		snap.Players[i] = PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Hand:      append([]cards.Card{}, p.Hand...),
			CardCount: len(p.Hand),
			HasPassed: p.HasPassed,
			Finished:  p.Finished,
		}
	}
	return snap
}
