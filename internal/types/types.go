package types

import (
	"encoding/json"
	"fmt"
)

const (
	MsgPing      = "ping"
	MsgStartGame = "start_game"

	MsgRosterUpdate  = "roster_update"
	MsgPlayersUpdate = "players_update" // older servers still send this name
	MsgGameStart     = "game_start"
	MsgError         = "error"
	MsgPong          = "pong"
)

// ClientMessage is what the client writes to the lobby server.
type ClientMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ServerMessage is the envelope every server frame is decoded into. The
// payload is decoded again once the type is known.
type ServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WirePlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsVIP       bool   `json:"isVIP"`
	IsConnected bool   `json:"isConnected"`
}

type RosterPayload struct {
	Players  []WirePlayer `json:"players"`
	GameType *string      `json:"gameType,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// WebSocket close codes the client cares about.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseUnsupportedData = 1003
	CloseAbnormal        = 1006
	ClosePolicyViolation = 1008
)

// CloseError reports why the transport went away. Code is CloseAbnormal
// when the connection dropped without a close frame.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection closed (%d)", e.Code)
	}
	return fmt.Sprintf("connection closed (%d): %s", e.Code, e.Reason)
}

// Retryable reports whether a connection closed with code may be reopened.
// The server uses 1003 and 1008 to reject the room or identity outright.
func Retryable(code int) bool {
	switch code {
	case CloseUnsupportedData, ClosePolicyViolation:
		return false
	default:
		return true
	}
}
