package server

import "errors"

var (
	// ErrAlreadyInRoom is returned when a connection that already occupies
	// a seat tries to create or join another room.
	ErrAlreadyInRoom = errors.New("already in a room")

	// ErrRoomNotFound is returned for an unknown room id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when every seat is taken.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomNotJoinable is returned when the room is not in WAITING status.
	ErrRoomNotJoinable = errors.New("room is not joinable")

	// ErrNotInRoom is returned for room actions from a player without a
	// seat there.
	ErrNotInRoom = errors.New("not in this room")

	// ErrNotHost is returned when a non-host player tries to start the game.
	ErrNotHost = errors.New("only the host may start the game")

	// ErrNotEnoughPlayers is returned when a game start needs more seats
	// filled.
	ErrNotEnoughPlayers = errors.New("not enough players to start")

	// ErrGameInProgress is returned when a start request arrives while a
	// game is already running.
	ErrGameInProgress = errors.New("game already in progress")

	// ErrNoActiveGame is returned for game actions while no game runs.
	ErrNoActiveGame = errors.New("no active game")
)
