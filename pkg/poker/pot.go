package poker

import (
	"sort"

	"github.com/decred/slog"
)

// Pot represents a pot of chips in the game
type Pot struct {
	Amount      int64  // Total amount in the pot
	Eligibility []bool // len == len(players); seat-aligned mask
}

// NewPot creates a new empty pot for the given number of players
func NewPot(nPlayers int) *Pot {
	return &Pot{
		Amount:      0,
		Eligibility: make([]bool, nPlayers),
	}
}

// IsEligible checks if a player is eligible to win this pot
func (p *Pot) IsEligible(playerIndex int) bool {
	return p.Eligibility[playerIndex]
}

// PotManager manages the main pot and any side pots created by all-ins.
type PotManager struct {
	log         slog.Logger
	Pots        []*Pot        // Main pot followed by side pots
	CurrentBets map[int]int64 // Current bet for each player in this round
	TotalBets   map[int]int64 // Total bet for each player across all rounds
}

func NewPotManager(nPlayers int, log slog.Logger) *PotManager {
	return &PotManager{
		log:         log,
		Pots:        []*Pot{NewPot(nPlayers)}, // placeholder; real amounts built later
		CurrentBets: make(map[int]int64),
		TotalBets:   make(map[int]int64),
	}
}

// Track bets only; DO NOT touch pm.Pots here.
func (pm *PotManager) AddBet(playerIndex int, amount int64) {
	pm.CurrentBets[playerIndex] += amount
	pm.TotalBets[playerIndex] += amount
}

// ResetCurrentBets resets the current bets for a new betting round
func (pm *PotManager) ResetCurrentBets() {
	pm.CurrentBets = make(map[int]int64)
}

// GetTotalPot returns the total amount across all pots, or the sum of all
// bets if pots have not been built yet.
func (pm *PotManager) GetTotalPot() int64 {
	var total int64
	for _, pot := range pm.Pots {
		total += pot.Amount
	}
	if total == 0 {
		for _, b := range pm.TotalBets {
			total += b
		}
	}
	return total
}

// GetCurrentBet returns the current round bet for a player
func (pm *PotManager) GetCurrentBet(playerIndex int) int64 {
	return pm.CurrentBets[playerIndex]
}

// BuildPotsFromTotals rebuilds main/side pots from TotalBets and fold status.
// Call after ReturnUncalledBet (if any) and before distribution.
func (pm *PotManager) BuildPotsFromTotals(players []*Player) {
	n := len(players)

	// Collect unique bet thresholds
	seen := map[int64]bool{}
	for i := 0; i < n; i++ {
		b := pm.TotalBets[i]
		if b > 0 {
			seen[b] = true
		}
	}
	if len(seen) == 0 {
		pm.Pots = []*Pot{NewPot(n)}
		return
	}

	levels := make([]int64, 0, len(seen))
	for b := range seen {
		levels = append(levels, b)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]*Pot, 0, len(levels))
	prev := int64(0)

	for _, lvl := range levels {
		p := NewPot(n)
		// eligibility: any non-folded player who contributed at least lvl
		for i := 0; i < n; i++ {
			if players[i] != nil && !players[i].HasFolded && pm.TotalBets[i] >= lvl {
				p.Eligibility[i] = true
			}
		}
		// contributions: each player pays min(TotalBets[i], lvl) - prev
		for i := 0; i < n; i++ {
			tb := pm.TotalBets[i]
			if tb > prev {
				c := tb
				if c > lvl {
					c = lvl
				}
				c -= prev
				if c > 0 {
					p.Amount += c
				}
			}
		}
		pots = append(pots, p)
		prev = lvl
	}

	pm.Pots = pots
}

// DistributePots pays out all pots to the winning players. Ties split a pot
// evenly; any indivisible remainder goes to the winner seated closest after
// the dealer.
func (pm *PotManager) DistributePots(players []*Player, dealer int) {
	for pi, pot := range pm.Pots {
		var alive []int
		for idx, elig := range pot.Eligibility {
			if elig && players[idx] != nil && !players[idx].HasFolded {
				alive = append(alive, idx)
			}
		}

		// Uncontested pot: pay the single remaining player.
		if len(alive) == 1 {
			players[alive[0]].Balance += pot.Amount
			continue
		}

		if len(alive) == 0 {
			if pm.log != nil {
				pm.log.Errorf("[pot %d] no eligible alive players; pot=%d", pi, pot.Amount)
			}
			continue
		}

		var winners []int
		var best *HandValue
		for _, idx := range alive {
			hv := players[idx].HandValue
			if hv == nil {
				if pm.log != nil {
					pm.log.Errorf("[pot %d] player %d eligible at showdown but HandValue == nil", pi, idx)
				}
				continue
			}
			if best == nil || CompareHands(*hv, *best) > 0 {
				best = hv
				winners = []int{idx}
			} else if CompareHands(*hv, *best) == 0 {
				winners = append(winners, idx)
			}
		}

		if len(winners) == 0 {
			if pm.log != nil {
				pm.log.Errorf("[pot %d] showdown produced no winners (logic bug)", pi)
			}
			continue
		}

		// Order winners starting from the seat after the dealer so the
		// remainder chip lands on the closest winner.
		n := len(players)
		sort.Slice(winners, func(a, b int) bool {
			da := (winners[a] - dealer - 1 + n) % n
			db := (winners[b] - dealer - 1 + n) % n
			return da < db
		})

		share := pot.Amount / int64(len(winners))
		rem := pot.Amount % int64(len(winners))
		for i, idx := range winners {
			add := share
			if i == 0 {
				add += rem
			}
			players[idx].Balance += add
		}
	}
}

// ReturnUncalledBet returns any uncalled portion of a bet to the player who made it
func (pm *PotManager) ReturnUncalledBet(players []*Player) {
	var hi, second int64
	hiPlayer := -1

	for idx, bet := range pm.CurrentBets {
		if bet > hi {
			second = hi
			hi = bet
			hiPlayer = idx
		} else if bet > second {
			second = bet
		}
	}

	if hiPlayer >= 0 && hi > second {
		uncalled := hi - second
		players[hiPlayer].Balance += uncalled
		players[hiPlayer].CurrentBet -= uncalled
		pm.CurrentBets[hiPlayer] -= uncalled
		pm.TotalBets[hiPlayer] -= uncalled
	}
}
