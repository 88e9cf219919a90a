package devserver

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-client/internal/types"
)

var ErrUnknownClient = errors.New("unknown client")

type roomMsg interface{ isRoomMsg() }

type register struct {
	ClientID string
	Name     string
	VIP      bool
	Reply    chan struct{}
}

type attach struct {
	ClientID string
	Outbox   chan []byte
	Reply    chan error
}

type detach struct {
	ClientID string
	Outbox   chan []byte
}

type fromClient struct {
	ClientID string
	Msg      types.ClientMessage
}

type getRoom struct {
	Reply chan RoomView
}

func (register) isRoomMsg()   {}
func (attach) isRoomMsg()     {}
func (detach) isRoomMsg()     {}
func (fromClient) isRoomMsg() {}
func (getRoom) isRoomMsg()    {}

type member struct {
	player types.WirePlayer
	outbox chan []byte // nil while detached
}

type RoomView struct {
	Code     string
	GameType string
	Players  []types.WirePlayer
	Started  bool
}

// Room is one lobby. Its loop owns the roster; socket handlers talk to it
// only through the inbox.
type Room struct {
	code     string
	gameType string
	inbox    chan roomMsg
	members  []*member
	started  bool
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func newRoom(parent context.Context, code, gameType string, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:     code,
		gameType: gameType,
		inbox:    make(chan roomMsg, 64),
		log:      log.With(zap.String("room_code", code)),
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.loop()
	return r
}

func (r *Room) post(m roomMsg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// Register adds a player to the roster before their socket connects.
func (r *Room) Register(clientID, name string, vip bool) {
	reply := make(chan struct{}, 1)
	if r.post(register{ClientID: clientID, Name: name, VIP: vip, Reply: reply}) {
		select {
		case <-reply:
		case <-r.ctx.Done():
		}
	}
}

func (r *Room) Attach(clientID string, outbox chan []byte) error {
	reply := make(chan error, 1)
	if !r.post(attach{ClientID: clientID, Outbox: outbox, Reply: reply}) {
		return context.Canceled
	}
	select {
	case err := <-reply:
		return err
	case <-r.ctx.Done():
		return context.Canceled
	}
}

func (r *Room) Detach(clientID string, outbox chan []byte) {
	r.post(detach{ClientID: clientID, Outbox: outbox})
}

func (r *Room) Deliver(clientID string, msg types.ClientMessage) {
	r.post(fromClient{ClientID: clientID, Msg: msg})
}

// View is a point-in-time copy of the room.
func (r *Room) View() RoomView {
	reply := make(chan RoomView, 1)
	if !r.post(getRoom{Reply: reply}) {
		return RoomView{Code: r.code}
	}
	select {
	case v := <-reply:
		return v
	case <-r.ctx.Done():
		return RoomView{Code: r.code}
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case register:
				if r.find(msg.ClientID) == nil {
					r.members = append(r.members, &member{player: types.WirePlayer{
						ID:    msg.ClientID,
						Name:  msg.Name,
						IsVIP: msg.VIP,
					}})
				}
				msg.Reply <- struct{}{}

			case attach:
				mb := r.find(msg.ClientID)
				if mb == nil {
					msg.Reply <- ErrUnknownClient
					break
				}
				// A reconnect replaces the previous socket.
				if mb.outbox != nil {
					close(mb.outbox)
				}
				mb.outbox = msg.Outbox
				mb.player.IsConnected = true
				msg.Reply <- nil
				r.log.Debug("client attached", zap.String("client_id", msg.ClientID))
				r.broadcastRoster()

			case detach:
				mb := r.find(msg.ClientID)
				if mb == nil || mb.outbox != msg.Outbox {
					break // superseded socket
				}
				close(mb.outbox)
				mb.outbox = nil
				mb.player.IsConnected = false
				r.log.Debug("client detached", zap.String("client_id", msg.ClientID))
				r.broadcastRoster()

			case fromClient:
				r.handleClient(msg)

			case getRoom:
				msg.Reply <- r.view()
			}
		}
	}
}

func (r *Room) handleClient(msg fromClient) {
	mb := r.find(msg.ClientID)
	if mb == nil || mb.outbox == nil {
		return
	}
	switch msg.Msg.Type {
	case types.MsgPing:
		r.sendTo(mb, frame(types.MsgPong, nil))

	case types.MsgStartGame:
		if !mb.player.IsVIP {
			r.sendTo(mb, frame(types.MsgError, types.ErrorPayload{Message: "Only the host can start the game"}))
			return
		}
		r.started = true
		r.log.Info("game started", zap.String("game_type", r.gameType))
		r.broadcast(frame(types.MsgGameStart, nil))

	default:
		r.sendTo(mb, frame(types.MsgError, types.ErrorPayload{Message: "unknown message type: " + msg.Msg.Type}))
	}
}

func (r *Room) find(clientID string) *member {
	for _, mb := range r.members {
		if mb.player.ID == clientID {
			return mb
		}
	}
	return nil
}

func (r *Room) view() RoomView {
	v := RoomView{Code: r.code, GameType: r.gameType, Started: r.started}
	for _, mb := range r.members {
		v.Players = append(v.Players, mb.player)
	}
	return v
}

func (r *Room) broadcastRoster() {
	gameType := r.gameType
	r.broadcast(frame(types.MsgRosterUpdate, types.RosterPayload{
		Players:  r.view().Players,
		GameType: &gameType,
	}))
}

func (r *Room) broadcast(data []byte) {
	for _, mb := range r.members {
		if mb.outbox != nil {
			r.sendTo(mb, data)
		}
	}
}

func (r *Room) sendTo(mb *member, data []byte) {
	select {
	case mb.outbox <- data:
	default:
		// Client is slow/full - drop them. The handler closes the socket.
		r.log.Warn("dropping slow client", zap.String("client_id", mb.player.ID))
		close(mb.outbox)
		mb.outbox = nil
		mb.player.IsConnected = false
	}
}

func (r *Room) shutdown() {
	for _, mb := range r.members {
		if mb.outbox != nil {
			close(mb.outbox)
			mb.outbox = nil
		}
	}
	r.cancel()
}

func frame(typ string, payload any) []byte {
	msg := struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: typ, Payload: payload}
	data, _ := json.Marshal(msg)
	return data
}
