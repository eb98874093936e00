package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmtri/cardroom/pkg/cards"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pkt := &PlayerActionPacket{
		RoomID:     3,
		PlayerID:   9,
		GameKind:   GameKindTienLen,
		ActionType: ActionPlay,
		Cards: []cards.Card{
			cards.New(cards.Spades, cards.Three),
			cards.New(cards.Hearts, cards.Three),
		},
	}

	frame, err := Encode(OpPlayerAction, pkt)
	require.NoError(t, err)
	assert.Equal(t, byte(OpPlayerAction), frame[0])

	op, msg, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, OpPlayerAction, op)

	decoded, ok := msg.(*PlayerActionPacket)
	require.True(t, ok)
	assert.Equal(t, pkt.RoomID, decoded.RoomID)
	assert.Equal(t, pkt.ActionType, decoded.ActionType)
	require.Len(t, decoded.Cards, 2)
	assert.True(t, decoded.Cards[0].Equal(pkt.Cards[0]))
}

func TestDecodeRoomInfoContract(t *testing.T) {
	info := RoomInfo{
		RoomID:         1,
		RoomName:       "table",
		GameKind:       GameKindPoker,
		HostUserID:     5,
		MaxPlayers:     4,
		CurrentPlayers: 2,
		Status:         RoomWaiting,
		Players: []PlayerInfo{
			{UserID: 5, Username: "alice", Position: 0, Balance: 1000},
			{UserID: 6, Username: "bob", Position: 1, Balance: 900},
		},
	}

	frame, err := Encode(OpRoomUpdate, &RoomUpdatePacket{RoomInfo: info})
	require.NoError(t, err)

	_, msg, err := Decode(frame)
	require.NoError(t, err)
	decoded := msg.(*RoomUpdatePacket)
	assert.Equal(t, info, decoded.RoomInfo)
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	_, _, err := Decode(nil)
	require.ErrorIs(t, err, ErrEmptyFrame)

	_, _, err = Decode([]byte{0xFF, '{', '}'})
	require.ErrorIs(t, err, ErrUnknownOpcode)

	frame, err := Encode(OpJoinRoomRequest, &JoinRoomRequest{RoomID: 1})
	require.NoError(t, err)
	frame[1] = '!' // corrupt the body
	_, _, err = Decode(frame)
	require.Error(t, err)
}
