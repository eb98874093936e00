package protocol

import (
	"encoding/json"

	"github.com/vmtri/cardroom/pkg/cards"
)

// GameKind selects which rule engine a room runs.
type GameKind string

const (
	GameKindPoker   GameKind = "POKER"
	GameKindTienLen GameKind = "TIEN_LEN"
)

// Valid reports whether the kind is one this build knows how to run.
func (k GameKind) Valid() bool {
	return k == GameKindPoker || k == GameKindTienLen
}

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "WAITING"
	RoomPlaying  RoomStatus = "PLAYING"
	RoomFinished RoomStatus = "FINISHED"
)

// ActionType names a client game action.
type ActionType string

const (
	ActionFold  ActionType = "FOLD"
	ActionCheck ActionType = "CHECK"
	ActionCall  ActionType = "CALL"
	ActionRaise ActionType = "RAISE"
	ActionAllIn ActionType = "ALL_IN"
	ActionPlay  ActionType = "PLAY"
	ActionPass  ActionType = "PASS"
)

// ErrorCode classifies a rejection sent back to a single connection.
type ErrorCode string

const (
	CodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	CodeAlreadyInRoom    ErrorCode = "ALREADY_IN_ROOM"
	CodeRoomNotFound     ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull         ErrorCode = "ROOM_FULL"
	CodeRoomNotJoinable  ErrorCode = "ROOM_NOT_JOINABLE"
	CodeNotYourTurn      ErrorCode = "NOT_YOUR_TURN"
	CodeInvalidAction    ErrorCode = "INVALID_ACTION"
	CodeInsufficientFund ErrorCode = "INSUFFICIENT_FUNDS"
	CodeInternal         ErrorCode = "INTERNAL"
)

// PlayerInfo is one seat inside a RoomInfo.
type PlayerInfo struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Position int    `json:"position"`
	Balance  int64  `json:"balance"`
}

// RoomInfo is the full public description of a room.
type RoomInfo struct {
	RoomID         int64        `json:"roomId"`
	RoomName       string       `json:"roomName"`
	GameKind       GameKind     `json:"gameKind"`
	HostUserID     int64        `json:"hostUserId"`
	MaxPlayers     int          `json:"maxPlayers"`
	CurrentPlayers int          `json:"currentPlayers"`
	Status         RoomStatus   `json:"status"`
	Players        []PlayerInfo `json:"players"`
}

// HelloRequest identifies the connection before any room operation.
type HelloRequest struct {
	Username string `json:"username"`
}

// HelloResponse carries the identity and credit balance assigned to the
// connection.
type HelloResponse struct {
	UserID  int64  `json:"userId"`
	Balance int64  `json:"balance"`
	Message string `json:"message,omitempty"`
}

type CreateRoomRequest struct {
	RoomName   string   `json:"roomName"`
	GameKind   GameKind `json:"gameKind"`
	MaxPlayers int      `json:"maxPlayers"`
}

type CreateRoomResponse struct {
	Success      bool      `json:"success"`
	RoomInfo     *RoomInfo `json:"roomInfo,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

type JoinRoomRequest struct {
	RoomID int64 `json:"roomId"`
}

type JoinRoomResponse struct {
	Success      bool      `json:"success"`
	RoomInfo     *RoomInfo `json:"roomInfo,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

type LeaveRoomRequest struct {
	RoomID int64 `json:"roomId"`
}

type ListRoomsRequest struct {
	GameKindFilter GameKind `json:"gameKindFilter,omitempty"`
}

type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// StartGameRequest asks the server to begin the room's game. Only the host
// may start; rejections come back as an ErrorPacket.
type StartGameRequest struct {
	RoomID int64 `json:"roomId"`
}

// RoomUpdatePacket is pushed to all seats on any membership change.
type RoomUpdatePacket struct {
	RoomInfo RoomInfo `json:"roomInfo"`
}

// GameStartPacket is pushed once when a hand or round begins. InitialState
// is the recipient's redacted view of the opening game state.
type GameStartPacket struct {
	RoomID       int64           `json:"roomId"`
	PlayerOrder  []int64         `json:"playerOrder"`
	InitialState json.RawMessage `json:"initialState"`
}

// GameStatePacket is pushed on every accepted in-hand mutation. GameState
// is redacted per recipient.
type GameStatePacket struct {
	RoomID    int64           `json:"roomId"`
	GameState json.RawMessage `json:"gameState"`
}

// PlayerTurnPacket is pushed whenever the turn changes.
type PlayerTurnPacket struct {
	RoomID          int64 `json:"roomId"`
	CurrentPlayerID int64 `json:"currentPlayerId"`
}

// PlayerActionPacket is a client game action. Amount is used by RAISE;
// Cards is used by PLAY.
type PlayerActionPacket struct {
	RoomID     int64        `json:"roomId"`
	PlayerID   int64        `json:"playerId"`
	GameKind   GameKind     `json:"gameKind"`
	ActionType ActionType   `json:"actionType"`
	Amount     int64        `json:"amount,omitempty"`
	Cards      []cards.Card `json:"cards,omitempty"`
}

// CreditChange records one player's net result for a finished hand/game.
type CreditChange struct {
	UserID int64 `json:"userId"`
	Delta  int64 `json:"delta"`
}

// GameEndPacket is pushed once per finished hand/game.
type GameEndPacket struct {
	RoomID        int64          `json:"roomId"`
	WinnerID      int64          `json:"winnerId"`
	CreditChanges []CreditChange `json:"creditChanges"`
}

// ErrorPacket reports a rejection to the requesting connection only.
type ErrorPacket struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
