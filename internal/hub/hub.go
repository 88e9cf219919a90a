package hub

import (
	"context"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/lobby-client/internal/lobby"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

// Factory opens a channel for a session. The hub passes its own context so
// channels die with it.
type Factory func(ctx context.Context, s types.Session) *lobby.Channel

type HubMsg interface{ isHubMsg() }

type EnsureChannel struct {
	Session types.Session
	Reply   chan *lobby.Channel
}

type GetChannel struct {
	Session types.Session
	Reply   chan *lobby.Channel
}

type RemoveChannel struct {
	Session types.Session
	Reply   chan error // optional
}

type ShutdownHub struct {
	Reply chan error // optional
}

func (EnsureChannel) isHubMsg() {}
func (GetChannel) isHubMsg()    {}
func (RemoveChannel) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub keeps at most one Channel per (clientId, roomCode).
type Hub struct {
	inbox    chan HubMsg
	channels map[string]*lobby.Channel
	open     Factory
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, open Factory) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		channels: make(map[string]*lobby.Channel),
		open:     open,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure returns the channel for s, opening one if none is registered.
// It returns nil once the hub has shut down.
func (h *Hub) Ensure(s types.Session) *lobby.Channel {
	reply := make(chan *lobby.Channel, 1)
	if !h.post(EnsureChannel{Session: s, Reply: reply}) {
		return nil
	}
	ch, _ := await(h, reply)
	return ch
}

func (h *Hub) Get(s types.Session) *lobby.Channel {
	reply := make(chan *lobby.Channel, 1)
	if !h.post(GetChannel{Session: s, Reply: reply}) {
		return nil
	}
	ch, _ := await(h, reply)
	return ch
}

// Remove unregisters the channel for s and tears it down.
func (h *Hub) Remove(s types.Session) error {
	reply := make(chan error, 1)
	if !h.post(RemoveChannel{Session: s, Reply: reply}) {
		return nil
	}
	err, _ := await(h, reply)
	return err
}

// Shutdown tears down every channel and stops the hub. Safe to call more
// than once.
func (h *Hub) Shutdown() error {
	reply := make(chan error, 1)
	if !h.post(ShutdownHub{Reply: reply}) {
		return nil
	}
	err, _ := await(h, reply)
	return err
}

// Done is closed once the hub loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) post(m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

// await waits for a reply, giving up once the loop has exited. A reply sent
// before exit still wins.
func await[T any](h *Hub, reply chan T) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-h.done:
		select {
		case v := <-reply:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureChannel:
				key := msg.Session.Key()
				if ch := h.channels[key]; ch != nil {
					msg.Reply <- ch
					break
				}
				ch := h.open(h.ctx, msg.Session)
				h.channels[key] = ch
				msg.Reply <- ch

			case GetChannel:
				msg.Reply <- h.channels[msg.Session.Key()] // May be nil

			case RemoveChannel:
				var err error
				if ch := h.channels[msg.Session.Key()]; ch != nil {
					delete(h.channels, msg.Session.Key())
					err = ch.Close()
				}
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case ShutdownHub:
				err := h.shutdown()
				h.cancel()
				if msg.Reply != nil {
					msg.Reply <- err
				}
				return
			}
		}
	}
}

func (h *Hub) shutdown() error {
	var err error
	for key, ch := range h.channels {
		err = multierr.Append(err, ch.Close())
		delete(h.channels, key)
	}
	return err
}
