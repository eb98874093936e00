package poker

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vmtri/cardroom/pkg/cards"
)

// Phase is the discrete stage of a poker hand.
type Phase int

const (
	PhasePreFlop Phase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePreFlop:
		return "PREFLOP"
	case PhaseFlop:
		return "FLOP"
	case PhaseTurn:
		return "TURN"
	case PhaseRiver:
		return "RIVER"
	case PhaseShowdown:
		return "SHOWDOWN"
	default:
		return "UNKNOWN"
	}
}

// PlayerInfo describes one participant when a hand is created.
type PlayerInfo struct {
	ID    string
	Name  string
	Chips int64
}

// GameConfig holds configuration for a new poker hand.
type GameConfig struct {
	Players    []PlayerInfo // ordered by seat
	SmallBlind int64
	BigBlind   int64
	Dealer     int   // dealer seat index; rotates between hands
	Seed       int64 // optional seed for deterministic decks
	Log        slog.Logger
}

// Game is the authoritative state of a single poker hand. All exported
// methods validate before mutating: a rejected action leaves the game
// untouched.
type Game struct {
	log slog.Logger
	cfg GameConfig

	players       []*Player
	dealer        int
	currentPlayer int

	deck           *cards.Deck
	communityCards []cards.Card

	potManager *PotManager
	currentBet int64
	phase      Phase

	// acted[i] reports whether seat i has acted since the last raise in
	// the current betting round.
	acted []bool

	finished bool
	winners  []string

	mu sync.RWMutex
}

// NewGame creates a poker hand: shuffles, deals hole cards, posts blinds and
// sets the first player to act.
func NewGame(cfg GameConfig) (*Game, error) {
	if len(cfg.Players) < 2 {
		return nil, fmt.Errorf("poker: need at least 2 players, got %d", len(cfg.Players))
	}
	if cfg.BigBlind <= 0 || cfg.SmallBlind <= 0 {
		return nil, fmt.Errorf("poker: blinds must be positive")
	}
	if cfg.Dealer < 0 || cfg.Dealer >= len(cfg.Players) {
		return nil, fmt.Errorf("poker: dealer seat %d out of range", cfg.Dealer)
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g := &Game{
		log:        cfg.Log,
		cfg:        cfg,
		dealer:     cfg.Dealer,
		deck:       cards.NewDeck(rng),
		potManager: NewPotManager(len(cfg.Players), cfg.Log),
		phase:      PhasePreFlop,
		acted:      make([]bool, len(cfg.Players)),
	}

	for seat, info := range cfg.Players {
		g.players = append(g.players, NewPlayer(info.ID, info.Name, seat, info.Chips))
	}

	if err := g.setupHand(); err != nil {
		return nil, err
	}
	return g, nil
}

// setupHand deals hole cards, posts blinds and picks the first actor.
func (g *Game) setupHand() error {
	// Two hole cards each, dealt one at a time around the table.
	for i := 0; i < 2; i++ {
		for _, p := range g.players {
			card, ok := g.deck.Draw()
			if !ok {
				return fmt.Errorf("poker: deck exhausted while dealing")
			}
			p.Hand = append(p.Hand, card)
		}
	}

	n := len(g.players)
	smallBlindPos := (g.dealer + 1) % n
	bigBlindPos := (g.dealer + 2) % n
	// Heads-up: the dealer posts the small blind.
	if n == 2 {
		smallBlindPos = g.dealer
		bigBlindPos = (g.dealer + 1) % n
	}

	g.postBlind(smallBlindPos, g.cfg.SmallBlind)
	g.postBlind(bigBlindPos, g.cfg.BigBlind)
	g.currentBet = g.cfg.BigBlind

	g.currentPlayer = g.nextActiveSeat(bigBlindPos)

	if g.log != nil {
		g.log.Debugf("new hand: dealer=%d sb=%d bb=%d first=%d",
			g.dealer, smallBlindPos, bigBlindPos, g.currentPlayer)
	}

	// Both blinds may have gone all-in posting; if nobody can act, run the
	// board out immediately.
	if g.countActive() == 0 {
		g.runOutBoard()
	}
	return nil
}

// postBlind moves a blind from the seat's stack into its bet, clamping to an
// all-in when the stack cannot cover it.
func (g *Game) postBlind(seat int, amount int64) {
	p := g.players[seat]
	if amount >= p.Balance {
		amount = p.Balance
		p.IsAllIn = true
	}
	p.Balance -= amount
	p.CurrentBet += amount
	g.potManager.AddBet(seat, amount)
}

// nextActiveSeat returns the first seat after the given one that can act.
// Returns the input seat when no other seat is active.
func (g *Game) nextActiveSeat(seat int) int {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		candidate := (seat + i) % n
		if g.players[candidate].IsActive() {
			return candidate
		}
	}
	return seat
}

func (g *Game) countActive() int {
	count := 0
	for _, p := range g.players {
		if p.IsActive() {
			count++
		}
	}
	return count
}

func (g *Game) countUnfolded() int {
	count := 0
	for _, p := range g.players {
		if !p.HasFolded {
			count++
		}
	}
	return count
}

// findPlayer returns the seat index for a player id, or -1.
func (g *Game) findPlayer(playerID string) int {
	for i, p := range g.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// validateTurn is the shared gate for every action: the hand must be live,
// the player known, active, and on the clock.
func (g *Game) validateTurn(playerID string) (int, error) {
	if g.finished {
		return -1, ErrHandOver
	}
	seat := g.findPlayer(playerID)
	if seat == -1 {
		return -1, ErrUnknownPlayer
	}
	p := g.players[seat]
	if p.HasFolded {
		return -1, ErrPlayerFolded
	}
	if p.IsAllIn {
		return -1, ErrPlayerAllIn
	}
	if seat != g.currentPlayer {
		return -1, ErrNotYourTurn
	}
	return seat, nil
}

// HandleFold folds the acting player.
func (g *Game) HandleFold(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	g.players[seat].HasFolded = true
	g.acted[seat] = true
	g.afterAction(seat)
	return nil
}

// RetirePlayer folds a seat out of the hand regardless of whose turn it
// is, for players who leave mid-hand. If the retired seat was on the
// clock the turn advances; if the fold closes the round or the hand, the
// usual completion runs.
func (g *Game) RetirePlayer(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return ErrHandOver
	}
	seat := g.findPlayer(playerID)
	if seat == -1 {
		return ErrUnknownPlayer
	}
	p := g.players[seat]
	if p.HasFolded {
		return nil
	}

	p.HasFolded = true
	g.acted[seat] = true
	if g.log != nil {
		g.log.Debugf("seat %d retired from the hand", seat)
	}

	if g.countUnfolded() == 1 {
		g.settleUncontested()
		return nil
	}
	if g.bettingRoundComplete() {
		g.completeBettingRound()
		return nil
	}
	if g.currentPlayer == seat {
		g.currentPlayer = g.nextActiveSeat(seat)
	}
	return nil
}

// HandleCheck checks; only legal when the player already matches the
// current bet.
func (g *Game) HandleCheck(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}
	if g.players[seat].CurrentBet != g.currentBet {
		return ErrCheckNotAllowed
	}

	g.acted[seat] = true
	g.afterAction(seat)
	return nil
}

// HandleCall matches the current bet. A stack too short to cover the call
// becomes an implicit all-in for the available amount.
func (g *Game) HandleCall(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	p := g.players[seat]
	delta := g.currentBet - p.CurrentBet
	if delta >= p.Balance {
		delta = p.Balance
		p.IsAllIn = true
	}
	p.Balance -= delta
	p.CurrentBet += delta
	g.potManager.AddBet(seat, delta)

	g.acted[seat] = true
	g.afterAction(seat)
	return nil
}

// HandleRaise raises the current bet to newBet (the player's total bet for
// this round). The raise must be at least a big blind above the previous
// high bet unless it puts the player all-in.
func (g *Game) HandleRaise(playerID string, newBet int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	p := g.players[seat]
	required := newBet - p.CurrentBet
	if required <= 0 || newBet <= g.currentBet {
		return ErrRaiseTooSmall
	}
	if required > p.Balance {
		return ErrInsufficientChips
	}
	if newBet < g.currentBet+g.cfg.BigBlind && required != p.Balance {
		return ErrRaiseTooSmall
	}

	if required == p.Balance {
		p.IsAllIn = true
	}
	p.Balance -= required
	p.CurrentBet = newBet
	g.potManager.AddBet(seat, required)
	g.currentBet = newBet

	// Everyone else must respond to the raise.
	g.resetActedExcept(seat)
	g.acted[seat] = true
	g.afterAction(seat)
	return nil
}

// HandleAllIn bets the player's entire remaining stack.
func (g *Game) HandleAllIn(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, err := g.validateTurn(playerID)
	if err != nil {
		return err
	}

	p := g.players[seat]
	if p.Balance == 0 {
		return ErrInsufficientChips
	}

	amount := p.Balance
	p.Balance = 0
	p.CurrentBet += amount
	p.IsAllIn = true
	g.potManager.AddBet(seat, amount)

	if p.CurrentBet > g.currentBet {
		g.currentBet = p.CurrentBet
		g.resetActedExcept(seat)
	}
	g.acted[seat] = true
	g.afterAction(seat)
	return nil
}

func (g *Game) resetActedExcept(seat int) {
	for i := range g.acted {
		if i != seat {
			g.acted[i] = false
		}
	}
}

// afterAction advances the turn and completes the betting round or the whole
// hand when the action closes it. Caller holds the lock.
func (g *Game) afterAction(seat int) {
	// Everyone else folded: award the pot without a showdown.
	if g.countUnfolded() == 1 {
		g.settleUncontested()
		return
	}

	if g.bettingRoundComplete() {
		g.completeBettingRound()
		return
	}

	g.currentPlayer = g.nextActiveSeat(seat)
}

// bettingRoundComplete reports whether every player who is neither folded
// nor all-in has acted and matched the current bet.
func (g *Game) bettingRoundComplete() bool {
	for i, p := range g.players {
		if !p.IsActive() {
			continue
		}
		if !g.acted[i] || p.CurrentBet != g.currentBet {
			return false
		}
	}
	return true
}

// completeBettingRound folds the round's bets into the pot and advances the
// stage, running the board out when no further betting is possible.
func (g *Game) completeBettingRound() {
	if g.phase == PhaseRiver {
		g.settleShowdown()
		return
	}

	// With at most one player able to act there is no more betting; refund
	// any uncalled portion, deal the remaining streets and settle.
	if g.countActive() <= 1 {
		g.runOutBoard()
		return
	}

	g.startNextStreet()
	g.currentPlayer = g.nextActiveSeat(g.dealer)
}

// startNextStreet deals the next community cards and resets round-local
// betting state. Caller holds the lock.
func (g *Game) startNextStreet() {
	switch g.phase {
	case PhasePreFlop:
		g.dealCommunity(3)
		g.phase = PhaseFlop
	case PhaseFlop:
		g.dealCommunity(1)
		g.phase = PhaseTurn
	case PhaseTurn:
		g.dealCommunity(1)
		g.phase = PhaseRiver
	}

	g.currentBet = 0
	g.potManager.ResetCurrentBets()
	for _, p := range g.players {
		p.CurrentBet = 0
	}
	for i := range g.acted {
		g.acted[i] = false
	}
}

func (g *Game) dealCommunity(n int) {
	for i := 0; i < n; i++ {
		card, ok := g.deck.Draw()
		if !ok {
			return
		}
		g.communityCards = append(g.communityCards, card)
	}
}

// runOutBoard deals all remaining streets and settles the showdown.
func (g *Game) runOutBoard() {
	// Refund any uncalled portion before dealing further streets so side
	// pots stay consistent.
	g.potManager.ReturnUncalledBet(g.players)
	for g.phase != PhaseRiver {
		g.startNextStreet()
	}
	g.settleShowdown()
}

// settleUncontested pays the pot to the last unfolded player.
func (g *Game) settleUncontested() {
	g.potManager.ReturnUncalledBet(g.players)
	g.potManager.BuildPotsFromTotals(g.players)

	var winner *Player
	for _, p := range g.players {
		if !p.HasFolded {
			winner = p
			break
		}
	}
	g.potManager.DistributePots(g.players, g.dealer)
	g.phase = PhaseShowdown
	g.finished = true
	if winner != nil {
		g.winners = []string{winner.ID}
	}
	if g.log != nil && winner != nil {
		g.log.Debugf("hand settled uncontested: winner=%s", winner.ID)
	}
}

// settleShowdown evaluates every unfolded hand and distributes the pots.
func (g *Game) settleShowdown() {
	g.phase = PhaseShowdown
	g.potManager.ReturnUncalledBet(g.players)

	var best *HandValue
	for _, p := range g.players {
		if p.HasFolded {
			continue
		}
		hv := EvaluateHand(p.Hand, g.communityCards)
		p.HandValue = &hv
		p.HandDescription = hv.HandDescription
		if best == nil || CompareHands(hv, *best) > 0 {
			best = &hv
		}
	}

	g.potManager.BuildPotsFromTotals(g.players)
	g.potManager.DistributePots(g.players, g.dealer)

	for _, p := range g.players {
		if p.HasFolded || p.HandValue == nil || best == nil {
			continue
		}
		if CompareHands(*p.HandValue, *best) == 0 {
			g.winners = append(g.winners, p.ID)
		}
	}
	g.finished = true

	if g.log != nil {
		g.log.Debugf("showdown settled: winners=%v pot=%d", g.winners, g.potManager.GetTotalPot())
	}
}

// Finished reports whether the hand has been settled.
func (g *Game) Finished() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.finished
}

// Winners returns the ids of the hand's winners once it is finished.
func (g *Game) Winners() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.winners))
	copy(out, g.winners)
	return out
}

// GetPhase returns the current phase of the hand.
func (g *Game) GetPhase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// GetCurrentBet returns the highest bet of the current betting round.
func (g *Game) GetCurrentBet() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentBet
}

// GetPot returns the total pot amount.
func (g *Game) GetPot() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.potManager.GetTotalPot()
}

// GetCommunityCards returns a copy of the community cards.
func (g *Game) GetCommunityCards() []cards.Card {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cards.Card, len(g.communityCards))
	copy(out, g.communityCards)
	return out
}

// CurrentPlayerID returns the id of the player on the clock, or "" when the
// hand is over.
func (g *Game) CurrentPlayerID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.finished {
		return ""
	}
	return g.players[g.currentPlayer].ID
}

// ChipDeltas returns each player's net chip change for the hand.
func (g *Game) ChipDeltas() map[string]int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deltas := make(map[string]int64, len(g.players))
	for _, p := range g.players {
		deltas[p.ID] = p.Balance - p.StartingBalance
	}
	return deltas
}

// PlayerSnapshot is a point-in-time copy of one seat's state.
type PlayerSnapshot struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Seat            int          `json:"seat"`
	Balance         int64        `json:"balance"`
	CurrentBet      int64        `json:"currentBet"`
	HasFolded       bool         `json:"hasFolded"`
	IsAllIn         bool         `json:"isAllIn"`
	Hand            []cards.Card `json:"hand,omitempty"`
	HandDescription string       `json:"handDescription,omitempty"`
}

// GameSnapshot is a consistent copy of the whole hand, safe to serialize
// outside the game lock.
type GameSnapshot struct {
	Phase           string           `json:"phase"`
	Pot             int64            `json:"pot"`
	CurrentBet      int64            `json:"currentBet"`
	Dealer          int              `json:"dealer"`
	CurrentSeat     int              `json:"currentSeat"`
	CurrentPlayerID string           `json:"currentPlayerId"`
	CommunityCards  []cards.Card     `json:"communityCards"`
	Players         []PlayerSnapshot `json:"players"`
	Finished        bool             `json:"finished"`
	Winners         []string         `json:"winners,omitempty"`
}

// Snapshot returns an atomic snapshot of the hand.
func (g *Game) Snapshot() GameSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := GameSnapshot{
		Phase:       g.phase.String(),
		Pot:         g.potManager.GetTotalPot(),
		CurrentBet:  g.currentBet,
		Dealer:      g.dealer,
		CurrentSeat: g.currentPlayer,
		Finished:    g.finished,
	}
	if !g.finished {
		snap.CurrentPlayerID = g.players[g.currentPlayer].ID
	}
	snap.CommunityCards = make([]cards.Card, len(g.communityCards))
	copy(snap.CommunityCards, g.communityCards)
	snap.Winners = make([]string, len(g.winners))
	copy(snap.Winners, g.winners)

	for _, p := range g.players {
		hand := make([]cards.Card, len(p.Hand))
		copy(hand, p.Hand)
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:              p.ID,
			Name:            p.Name,
			Seat:            p.Seat,
			Balance:         p.Balance,
			CurrentBet:      p.CurrentBet,
			HasFolded:       p.HasFolded,
			IsAllIn:         p.IsAllIn,
			Hand:            hand,
			HandDescription: p.HandDescription,
		})
	}
	return snap
}
