// Package protocol defines the wire format between cardroom clients and the
// server: a single opcode byte followed by a JSON-encoded message body,
// carried in binary websocket frames.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Op identifies the message type carried in a frame.
type Op byte

const (
	OpHelloRequest Op = iota + 1
	OpHelloResponse
	OpCreateRoomRequest
	OpCreateRoomResponse
	OpJoinRoomRequest
	OpJoinRoomResponse
	OpLeaveRoomRequest
	OpListRoomsRequest
	OpListRoomsResponse
	OpStartGameRequest
	OpRoomUpdate
	OpGameStart
	OpGameState
	OpPlayerTurn
	OpPlayerAction
	OpGameEnd
	OpError
)

// String returns the opcode name for logs.
func (op Op) String() string {
	switch op {
	case OpHelloRequest:
		return "HelloRequest"
	case OpHelloResponse:
		return "HelloResponse"
	case OpCreateRoomRequest:
		return "CreateRoomRequest"
	case OpCreateRoomResponse:
		return "CreateRoomResponse"
	case OpJoinRoomRequest:
		return "JoinRoomRequest"
	case OpJoinRoomResponse:
		return "JoinRoomResponse"
	case OpLeaveRoomRequest:
		return "LeaveRoomRequest"
	case OpListRoomsRequest:
		return "ListRoomsRequest"
	case OpListRoomsResponse:
		return "ListRoomsResponse"
	case OpStartGameRequest:
		return "StartGameRequest"
	case OpRoomUpdate:
		return "RoomUpdate"
	case OpGameStart:
		return "GameStart"
	case OpGameState:
		return "GameState"
	case OpPlayerTurn:
		return "PlayerTurn"
	case OpPlayerAction:
		return "PlayerAction"
	case OpGameEnd:
		return "GameEnd"
	case OpError:
		return "Error"
	default:
		return fmt.Sprintf("Op(%d)", byte(op))
	}
}

// ErrEmptyFrame is returned when decoding a zero-length frame.
var ErrEmptyFrame = errors.New("empty frame")

// ErrUnknownOpcode is returned when a frame carries an opcode this build
// does not recognize.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Encode marshals msg and prepends the opcode byte.
func Encode(op Op, msg interface{}) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op, err)
	}
	frame := make([]byte, 0, 1+len(body))
	frame = append(frame, byte(op))
	frame = append(frame, body...)
	return frame, nil
}

// Decode splits a frame into its opcode and a typed message. Every opcode
// maps to exactly one message type; an unrecognized opcode is an error, not
// a skip.
func Decode(frame []byte) (Op, interface{}, error) {
	if len(frame) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	op := Op(frame[0])
	body := frame[1:]

	var msg interface{}
	switch op {
	case OpHelloRequest:
		msg = &HelloRequest{}
	case OpHelloResponse:
		msg = &HelloResponse{}
	case OpCreateRoomRequest:
		msg = &CreateRoomRequest{}
	case OpCreateRoomResponse:
		msg = &CreateRoomResponse{}
	case OpJoinRoomRequest:
		msg = &JoinRoomRequest{}
	case OpJoinRoomResponse:
		msg = &JoinRoomResponse{}
	case OpLeaveRoomRequest:
		msg = &LeaveRoomRequest{}
	case OpListRoomsRequest:
		msg = &ListRoomsRequest{}
	case OpListRoomsResponse:
		msg = &ListRoomsResponse{}
	case OpStartGameRequest:
		msg = &StartGameRequest{}
	case OpRoomUpdate:
		msg = &RoomUpdatePacket{}
	case OpGameStart:
		msg = &GameStartPacket{}
	case OpGameState:
		msg = &GameStatePacket{}
	case OpPlayerTurn:
		msg = &PlayerTurnPacket{}
	case OpPlayerAction:
		msg = &PlayerActionPacket{}
	case OpGameEnd:
		msg = &GameEndPacket{}
	case OpError:
		msg = &ErrorPacket{}
	default:
		return op, nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, byte(op))
	}

	if err := json.Unmarshal(body, msg); err != nil {
		return op, nil, fmt.Errorf("decode %s: %w", op, err)
	}
	return op, msg, nil
}
