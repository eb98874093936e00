package client

import (
	"github.com/vmtri/cardroom/pkg/cards"
	"github.com/vmtri/cardroom/pkg/protocol"
)

// CreateRoom asks the server to create a room with the caller as host.
// The result arrives as a CreateRoomResponse packet.
func (c *Client) CreateRoom(name string, kind protocol.GameKind, maxPlayers int) error {
	return c.Send(protocol.OpCreateRoomRequest, &protocol.CreateRoomRequest{
		RoomName:   name,
		GameKind:   kind,
		MaxPlayers: maxPlayers,
	})
}

// JoinRoom requests a seat in the given room.
func (c *Client) JoinRoom(roomID int64) error {
	return c.Send(protocol.OpJoinRoomRequest, &protocol.JoinRoomRequest{RoomID: roomID})
}

// LeaveRoom vacates the caller's seat. No direct reply; the room update
// broadcast reflects the change.
func (c *Client) LeaveRoom(roomID int64) error {
	return c.Send(protocol.OpLeaveRoomRequest, &protocol.LeaveRoomRequest{RoomID: roomID})
}

// ListRooms requests the joinable room list, optionally filtered by kind.
func (c *Client) ListRooms(filter protocol.GameKind) error {
	return c.Send(protocol.OpListRoomsRequest, &protocol.ListRoomsRequest{GameKindFilter: filter})
}

// StartGame asks the server to start the room's game (host only).
func (c *Client) StartGame(roomID int64) error {
	return c.Send(protocol.OpStartGameRequest, &protocol.StartGameRequest{RoomID: roomID})
}

// SendPokerAction submits a poker action; amount is the total round bet
// for RAISE and ignored otherwise.
func (c *Client) SendPokerAction(roomID int64, action protocol.ActionType, amount int64) error {
	return c.Send(protocol.OpPlayerAction, &protocol.PlayerActionPacket{
		RoomID:     roomID,
		PlayerID:   c.UserID(),
		GameKind:   protocol.GameKindPoker,
		ActionType: action,
		Amount:     amount,
	})
}

// PlayCards submits a Tien Len PLAY action.
func (c *Client) PlayCards(roomID int64, play []cards.Card) error {
	return c.Send(protocol.OpPlayerAction, &protocol.PlayerActionPacket{
		RoomID:     roomID,
		PlayerID:   c.UserID(),
		GameKind:   protocol.GameKindTienLen,
		ActionType: protocol.ActionPlay,
		Cards:      play,
	})
}

// PassTurn submits a Tien Len PASS action.
func (c *Client) PassTurn(roomID int64) error {
	return c.Send(protocol.OpPlayerAction, &protocol.PlayerActionPacket{
		RoomID:     roomID,
		PlayerID:   c.UserID(),
		GameKind:   protocol.GameKindTienLen,
		ActionType: protocol.ActionPass,
	})
}
