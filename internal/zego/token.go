package zego

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ZEGOCLOUD/zego_server_assistant/token/go/src/token04"
	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/session"
)

// RtcRoomPayload is the payload for room-based token04 tokens. See ZEGOCLOUD docs.
type RtcRoomPayload struct {
	RoomID       string      `json:"RoomId"`
	Privilege    map[int]int `json:"Privilege"`
	StreamIDList []string    `json:"StreamIdList,omitempty"`
}

// Minter mints ZEGOCLOUD call-room credentials. The room id is the appointment
// id; both parties may publish in a one-to-one call.
type Minter struct {
	appID        uint32
	serverSecret string
	tokenTTLSec  int64
}

// NewMinter creates a ZEGOCLOUD credential minter. serverSecret must be 32
// characters (ZEGOCLOUD console requirement). tokenTTLSec bounds the validity
// of each generated token on the provider side.
func NewMinter(appID uint32, serverSecret string, tokenTTLSec int64) (*Minter, error) {
	if appID == 0 || serverSecret == "" {
		return nil, fmt.Errorf("zego: app_id and server_secret required")
	}
	if len(serverSecret) != 32 {
		return nil, fmt.Errorf("zego: server_secret must be 32 characters")
	}
	return &Minter{appID: appID, serverSecret: serverSecret, tokenTTLSec: tokenTTLSec}, nil
}

// Mint generates a fresh pair of role tokens for the appointment's room.
func (m *Minter) Mint(ctx context.Context, appointmentID uuid.UUID) (session.MintResult, error) {
	if err := ctx.Err(); err != nil {
		return session.MintResult{}, err
	}
	room := appointmentID.String()

	expertToken, err := m.roomToken(room, room+":expert")
	if err != nil {
		return session.MintResult{}, fmt.Errorf("expert token: %w", err)
	}
	clientToken, err := m.roomToken(room, room+":client")
	if err != nil {
		return session.MintResult{}, fmt.Errorf("client token: %w", err)
	}
	return session.MintResult{
		Room:        room,
		ExpertToken: expertToken,
		ClientToken: clientToken,
	}, nil
}

func (m *Minter) roomToken(roomID, userID string) (string, error) {
	payload := RtcRoomPayload{
		RoomID: roomID,
		Privilege: map[int]int{
			token04.PrivilegeKeyLogin:   token04.PrivilegeEnable,
			token04.PrivilegeKeyPublish: token04.PrivilegeEnable,
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return token04.GenerateToken04(m.appID, userID, m.serverSecret, m.tokenTTLSec, string(payloadJSON))
}
