package poker

import "errors"

// Rule violations are rejected to the caller before any state is touched;
// none of these ever leave the game mutated.
var (
	ErrNotYourTurn       = errors.New("not your turn to act")
	ErrUnknownPlayer     = errors.New("player not in this game")
	ErrPlayerFolded      = errors.New("player has already folded")
	ErrPlayerAllIn       = errors.New("player is all-in and cannot act")
	ErrCheckNotAllowed   = errors.New("cannot check while a bet is outstanding")
	ErrRaiseTooSmall     = errors.New("raise must be at least a big blind above the current bet")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrHandOver          = errors.New("hand is already over")
)
