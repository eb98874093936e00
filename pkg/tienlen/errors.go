package tienlen

import "errors"

var (
	// ErrNotYourTurn is returned when a player acts out of turn.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrUnknownPlayer is returned for an action from a player not in the game.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrGameOver is returned for actions after the game has finished.
	ErrGameOver = errors.New("game is over")

	// ErrPlayerFinished is returned when a player with an empty hand acts.
	ErrPlayerFinished = errors.New("player already finished")

	// ErrCardNotHeld is returned when a play includes a card the player
	// does not hold.
	ErrCardNotHeld = errors.New("card not in hand")

	// ErrInvalidCombination is returned when the played cards do not form a
	// recognized combination.
	ErrInvalidCombination = errors.New("cards do not form a valid combination")

	// ErrCannotBeat is returned when the play does not beat the current trick.
	ErrCannotBeat = errors.New("combination does not beat the current play")

	// ErrInvalidFirstMove is returned when the opening play of the game does
	// not include the three of spades.
	ErrInvalidFirstMove = errors.New("first play must include the three of spades")

	// ErrCannotPassOpening is returned when a player passes while leading a
	// fresh trick.
	ErrCannotPassOpening = errors.New("cannot pass when opening a trick")
)
