package tienlen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vmtri/cardroom/pkg/cards"
)

// MaxPlayers is the seat limit for a Tien Len game; a standard deck deals
// 13 cards to each of at most 4 players.
const MaxPlayers = 4

// HandSize is the number of cards dealt to each player.
const HandSize = 13

// PlayerInfo identifies one participant at game start.
type PlayerInfo struct {
	ID   string
	Name string
}

// Player is one seat's state inside a Tien Len game.
type Player struct {
	ID   string
	Name string
	Seat int

	Hand      []cards.Card
	HasPassed bool
	Finished  bool
}

// GameConfig holds the parameters for starting a game.
type GameConfig struct {
	Players []PlayerInfo
	Seed    int64 // 0 means seed from the clock
	Log     slog.Logger
}

// Game is a single Tien Len game. All methods are safe for concurrent use.
type Game struct {
	mu  sync.RWMutex
	log slog.Logger

	players []*Player

	// currentTurn is the seat on the clock.
	currentTurn int

	// trick is the combination to beat; trick.Kind == Invalid means the
	// player on the clock is opening a fresh trick.
	trick Combination

	// lastPlaySeat is the seat that played the current trick's top
	// combination.
	lastPlaySeat int

	// firstMove forces the opening play to include the three of spades.
	firstMove bool

	// finishers lists player IDs in the order they emptied their hands;
	// once the game ends the last remaining player is appended as loser.
	finishers []string

	finished bool
}

// NewGame deals a shuffled deck and seats the players. The holder of the
// three of spades opens; if it was not dealt, seat 0 opens freely.
func NewGame(cfg GameConfig) (*Game, error) {
	if len(cfg.Players) < 2 || len(cfg.Players) > MaxPlayers {
		return nil, fmt.Errorf("tien len needs 2-%d players, got %d", MaxPlayers, len(cfg.Players))
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	g := &Game{
		log:     cfg.Log,
		players: make([]*Player, len(cfg.Players)),
	}

	deck := cards.NewDeck(rng)
	for i, info := range cfg.Players {
		hand, ok := deck.Deal(HandSize)
		if !ok {
			return nil, fmt.Errorf("deck exhausted dealing seat %d", i)
		}
		SortHand(hand)
		g.players[i] = &Player{
			ID:   info.ID,
			Name: info.Name,
			Seat: i,
			Hand: hand,
		}
	}

	threeSpades := cards.New(cards.Spades, cards.Three)
	opener := -1
	for _, p := range g.players {
		for _, c := range p.Hand {
			if c.Equal(threeSpades) {
				opener = p.Seat
				break
			}
		}
		if opener >= 0 {
			break
		}
	}
	if opener >= 0 {
		g.currentTurn = opener
		g.firstMove = true
	}
	g.lastPlaySeat = g.currentTurn

	if g.log != nil {
		g.log.Debugf("new tien len game: players=%d opener=%d seed=%d",
			len(g.players), g.currentTurn, seed)
	}
	return g, nil
}

// HandlePlay applies a PLAY action. The played cards must be held by the
// player, form a valid combination, satisfy the opening rule, and beat the
// current trick if one is on the table. Invalid plays leave the game
// unchanged.
func (g *Game) HandlePlay(playerID string, played []cards.Card) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	idxs, ok := handIndexes(p.Hand, played)
	if !ok {
		return ErrCardNotHeld
	}

	comb := Detect(played)
	if comb.Kind == Invalid {
		return ErrInvalidCombination
	}

	if g.firstMove {
		threeSpades := cards.New(cards.Spades, cards.Three)
		holds := false
		for _, c := range played {
			if c.Equal(threeSpades) {
				holds = true
				break
			}
		}
		if !holds {
			return ErrInvalidFirstMove
		}
	}

	if g.trick.Kind != Invalid && !CanBeat(g.trick, comb) {
		return ErrCannotBeat
	}

	// Validation done; mutate.
	g.firstMove = false
	p.Hand = removeIndexes(p.Hand, idxs)
	g.trick = comb
	g.lastPlaySeat = p.Seat

	if g.log != nil {
		g.log.Debugf("seat %d played %s (%d cards left)", p.Seat, comb.Kind, len(p.Hand))
	}

	if len(p.Hand) == 0 {
		p.Finished = true
		g.finishers = append(g.finishers, p.ID)
		if g.log != nil {
			g.log.Infof("seat %d (%s) finished in place %d", p.Seat, p.ID, len(g.finishers))
		}
		if g.countUnfinished() == 1 {
			g.endGame()
			return nil
		}
	}

	g.advanceTurn()
	g.maybeResetTrick()
	return nil
}

// HandlePass applies a PASS action. Passing is not allowed when the player
// is opening a fresh trick. A passed player is skipped until the trick
// resets.
func (g *Game) HandlePass(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	if g.trick.Kind == Invalid {
		return ErrCannotPassOpening
	}

	p.HasPassed = true
	if g.log != nil {
		g.log.Debugf("seat %d passed", p.Seat)
	}

	g.advanceTurn()
	g.maybeResetTrick()
	return nil
}

// RetirePlayer removes a seat from play when its player leaves mid-round.
// The seat counts as finished without a placement: the clock skips it, its
// remaining cards are dead, and trick leadership falls through it like any
// finished seat. Retiring the opener lifts the three-of-spades rule.
func (g *Game) RetirePlayer(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return ErrGameOver
	}
	p := g.findPlayer(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.Finished {
		return nil
	}

	p.Finished = true
	if g.log != nil {
		g.log.Infof("seat %d (%s) retired with %d cards left", p.Seat, p.ID, len(p.Hand))
	}

	if g.countUnfinished() == 1 {
		g.endGame()
		return nil
	}
	if g.currentTurn == p.Seat {
		g.firstMove = false
		g.advanceTurn()
	}
	g.maybeResetTrick()
	return nil
}

func (g *Game) validateTurn(playerID string) (*Player, error) {
	if g.finished {
		return nil, ErrGameOver
	}
	p := g.findPlayer(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.Finished {
		return nil, ErrPlayerFinished
	}
	if p.Seat != g.currentTurn {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *Game) findPlayer(playerID string) *Player {
	for _, p := range g.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (g *Game) countUnfinished() int {
	n := 0
	for _, p := range g.players {
		if !p.Finished {
			n++
		}
	}
	return n
}

// advanceTurn moves the clock to the next seat that is neither finished
// nor passed.
func (g *Game) advanceTurn() {
	n := len(g.players)
	seat := g.currentTurn
	for i := 0; i < n; i++ {
		seat = (seat + 1) % n
		p := g.players[seat]
		if !p.Finished && !p.HasPassed {
			g.currentTurn = seat
			return
		}
	}
	// Everyone else is passed or finished; the trick reset below will put
	// the clock on the new leader.
}

// maybeResetTrick clears the table when every unfinished player other than
// the last to play has passed. Leadership returns to the last player to
// play, or to the next unfinished seat after them if they went out.
func (g *Game) maybeResetTrick() {
	if g.trick.Kind == Invalid {
		return
	}
	for _, p := range g.players {
		if p.Seat == g.lastPlaySeat {
			continue
		}
		if !p.Finished && !p.HasPassed {
			return
		}
	}

	g.trick = Combination{Kind: Invalid}
	for _, p := range g.players {
		p.HasPassed = false
	}

	leader := g.lastPlaySeat
	if g.players[leader].Finished {
		n := len(g.players)
		for i := 0; i < n; i++ {
			leader = (leader + 1) % n
			if !g.players[leader].Finished {
				break
			}
		}
	}
	g.currentTurn = leader
	g.lastPlaySeat = leader

	if g.log != nil {
		g.log.Debugf("trick cleared; seat %d leads", leader)
	}
}

// endGame appends the last remaining player to the finisher list and marks
// the game over.
func (g *Game) endGame() {
	for _, p := range g.players {
		if !p.Finished {
			p.Finished = true
			g.finishers = append(g.finishers, p.ID)
		}
	}
	g.finished = true
	if g.log != nil {
		g.log.Infof("game over: finishers=%v", g.finishers)
	}
}

// Finished reports whether the game has ended.
func (g *Game) Finished() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.finished
}

// Finishers returns player IDs in finishing order; the last entry is the
// loser once the game has ended.
func (g *Game) Finishers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.finishers))
	copy(out, g.finishers)
	return out
}

// CurrentPlayerID returns the ID of the player on the clock, or "" after
// the game has ended.
func (g *Game) CurrentPlayerID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.finished {
		return ""
	}
	return g.players[g.currentTurn].ID
}

// handIndexes resolves each requested card to a distinct index in hand.
func handIndexes(hand, req []cards.Card) ([]int, bool) {
	used := make([]bool, len(hand))
	idxs := make([]int, 0, len(req))
	for _, want := range req {
		found := -1
		for i, c := range hand {
			if !used[i] && c.Equal(want) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		used[found] = true
		idxs = append(idxs, found)
	}
	return idxs, true
}

func removeIndexes(hand []cards.Card, idxs []int) []cards.Card {
	drop := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		drop[i] = true
	}
	out := hand[:0]
	for i, c := range hand {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}
