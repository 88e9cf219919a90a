package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	itypes "github.com/DoyleJ11/lobby-client/internal/types"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

var ErrMalformedFrame = errors.New("malformed frame")
var ErrUnknownFrame = errors.New("unknown frame type")
var ErrUnsupportedEvent = errors.New("unsupported event")

type EventType string

const (
	// Server frames
	EvtRosterUpdated EventType = "RosterUpdated"
	EvtGameStarted   EventType = "GameStarted"
	EvtServerError   EventType = "ServerError"
	EvtPong          EventType = "Pong"

	// Connection lifecycle, raised by the channel itself
	EvtOpened         EventType = "Opened"
	EvtDisconnected   EventType = "Disconnected"
	EvtErrorDismissed EventType = "ErrorDismissed"
)

type Event struct {
	Type    EventType
	Players []types.Player
	// GameType is only applied when HasGameType is set; a roster frame
	// without a game type leaves the previous one in place.
	GameType    string
	HasGameType bool
	Message     string
}

// Decode turns one raw server frame into an Event. Frames that are not JSON
// envelopes, or whose payload does not match their type, return
// ErrMalformedFrame; unknown types return ErrUnknownFrame.
func Decode(data []byte) (Event, error) {
	var msg itypes.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch msg.Type {
	case itypes.MsgRosterUpdate, itypes.MsgPlayersUpdate:
		var p itypes.RosterPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return Event{}, err
		}
		ev := Event{Type: EvtRosterUpdated, Players: make([]types.Player, 0, len(p.Players))}
		for _, wp := range p.Players {
			ev.Players = append(ev.Players, types.Player{
				ID:          wp.ID,
				Name:        wp.Name,
				IsHost:      wp.IsVIP,
				IsConnected: wp.IsConnected,
			})
		}
		if p.GameType != nil {
			ev.GameType, ev.HasGameType = *p.GameType, true
		}
		return ev, nil

	case itypes.MsgError:
		var p itypes.ErrorPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return Event{}, err
		}
		return Event{Type: EvtServerError, Message: p.Message}, nil

	case itypes.MsgGameStart:
		return Event{Type: EvtGameStarted}, nil

	case itypes.MsgPong:
		return Event{Type: EvtPong}, nil

	case "":
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)

	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownFrame, msg.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing payload", ErrMalformedFrame)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}

// Apply folds ev into s. The returned bool reports whether anything a reader
// can observe changed; Version is only bumped when it did, so applying the
// same roster twice is a no-op.
func Apply(s types.Snapshot, ev Event) (types.Snapshot, bool, error) {
	next := s.Clone()

	switch ev.Type {
	case EvtRosterUpdated:
		// The server owns membership: replace, never merge. LastError is
		// left alone: it clears when the connection opens or is dismissed,
		// as the browser client only reset it in onopen.
		next.Players = append(make([]types.Player, 0, len(ev.Players)), ev.Players...)
		if ev.HasGameType {
			next.GameType = ev.GameType
		}

	case EvtServerError:
		next.LastError = ev.Message

	case EvtGameStarted:
		next.Started = true

	case EvtPong:
		return s, false, nil

	case EvtOpened:
		next.Connected = true
		next.LastError = ""

	case EvtDisconnected:
		next.Connected = false
		next.LastError = ev.Message

	case EvtErrorDismissed:
		next.LastError = ""

	default:
		return s, false, ErrUnsupportedEvent
	}

	if equal(s, next) {
		return s, false, nil
	}
	next.Version = s.Version + 1
	return next, true, nil
}
