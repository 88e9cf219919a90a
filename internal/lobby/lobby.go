package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-client/internal/engine"
	itypes "github.com/DoyleJ11/lobby-client/internal/types"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

var ErrClosed = errors.New("channel closed")

const (
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultRetryDelay        = 2 * time.Second
	DefaultConnectTimeout    = 5 * time.Second
	DefaultWriteTimeout      = 3 * time.Second
	DefaultMaxAttempts       = 3
)

// User-facing lastError values.
const (
	MsgReconnecting     = "Connection lost. Reconnecting..."
	MsgRetriesExhausted = "Connection lost. Please refresh the page to reconnect."
	MsgRejected         = "Server rejected the connection. Please refresh the page."
	MsgPolicyViolation  = "Connection rejected due to policy violation."
)

type ChannelState int

const (
	StateIdle ChannelState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s ChannelState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one transport handle to the lobby server.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

type Msg interface{ isChannelMsg() }

// Notifications from the transport and timers. Each carries the generation
// of the connection attempt that produced it.
type dialed struct {
	gen  int
	conn Conn
	err  error
	// claimed is closed once the loop owns conn. A dial goroutine that sees
	// the loop exit without a claim closes conn itself.
	claimed chan struct{}
}

type frameReceived struct {
	gen  int
	data []byte
}

type transportClosed struct {
	gen int
	err error
}

type heartbeatTick struct{ gen int }

type retryDue struct{ gen int }

type connectTimedOut struct{ gen int }

// Caller requests.
type subscribe struct {
	outbox chan types.Snapshot
	added  chan struct{}
}

type unsubscribe struct{ outbox chan types.Snapshot }

type send struct{ msg itypes.ClientMessage }

type dismissError struct{}

type getState struct{ reply chan View }

func (dialed) isChannelMsg()          {}
func (frameReceived) isChannelMsg()   {}
func (transportClosed) isChannelMsg() {}
func (heartbeatTick) isChannelMsg()   {}
func (retryDue) isChannelMsg()        {}
func (connectTimedOut) isChannelMsg() {}
func (subscribe) isChannelMsg()       {}
func (unsubscribe) isChannelMsg()     {}
func (send) isChannelMsg()            {}
func (dismissError) isChannelMsg()    {}
func (getState) isChannelMsg()        {}

// View exposes the channel internals for diagnostics and tests.
type View struct {
	State       ChannelState
	Attempts    int
	Gen         int
	Terminal    bool
	Subscribers int
	Snapshot    types.Snapshot
}

type Option func(*Channel)

func WithLogger(log *zap.Logger) Option {
	return func(c *Channel) { c.log = log }
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Channel) { c.heartbeatInterval = d }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) { c.retryDelay = d }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(c *Channel) { c.connectTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Channel) { c.writeTimeout = d }
}

func WithMaxAttempts(n int) Option {
	return func(c *Channel) { c.maxAttempts = n }
}

// Channel keeps one logical connection to the lobby server for a single
// session and projects server frames into a Snapshot. All state lives on the
// loop goroutine; everything else talks to it through the inbox.
type Channel struct {
	session  types.Session
	endpoint string
	dialer   Dialer
	log      *zap.Logger

	heartbeatInterval time.Duration
	retryDelay        time.Duration
	connectTimeout    time.Duration
	writeTimeout      time.Duration
	maxAttempts       int

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error

	// Owned by loop.
	state        ChannelState
	gen          int
	attempts     int
	terminal     bool
	conn         Conn
	outgoing     chan []byte
	connCtx      context.Context
	connCancel   context.CancelFunc
	connectTimer *time.Timer
	retryTimer   *time.Timer
	snapshot     types.Snapshot
	subscribers  map[chan types.Snapshot]struct{}
}

// NewChannel starts connecting to endpoint right away. The session must
// already be validated; the room code is forwarded untouched. Callers must
// Close the channel on every exit path.
func NewChannel(parent context.Context, session types.Session, dialer Dialer, endpoint string, opts ...Option) *Channel {
	ctx, cancel := context.WithCancel(parent)

	c := &Channel{
		session:           session,
		endpoint:          endpoint,
		dialer:            dialer,
		log:               zap.NewNop(),
		heartbeatInterval: DefaultHeartbeatInterval,
		retryDelay:        DefaultRetryDelay,
		connectTimeout:    DefaultConnectTimeout,
		writeTimeout:      DefaultWriteTimeout,
		maxAttempts:       DefaultMaxAttempts,
		inbox:             make(chan Msg, 64),
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
		state:             StateIdle,
		snapshot:          engine.NewEmptySnapshot(),
		subscribers:       make(map[chan types.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("client_id", session.ClientID), zap.String("room_code", session.RoomCode))

	go c.loop()
	return c
}

func (c *Channel) Session() types.Session { return c.session }

// Subscribe registers outbox for snapshots. The current snapshot is delivered
// right away. outbox must be buffered; when it is full the stale snapshot is
// replaced by the newest one so the loop never blocks on a slow reader.
// On a channel that is already closed, outbox is closed right away.
func (c *Channel) Subscribe(outbox chan types.Snapshot) {
	msg := subscribe{outbox: outbox, added: make(chan struct{})}
	if c.post(msg) && c.taken(msg.added) {
		return
	}
	close(outbox)
}

// Unsubscribe removes and closes outbox.
func (c *Channel) Unsubscribe(outbox chan types.Snapshot) {
	c.post(unsubscribe{outbox: outbox})
}

// Send queues msg for the server. It is a no-op unless the channel is open.
func (c *Channel) Send(msg itypes.ClientMessage) {
	c.post(send{msg: msg})
}

func (c *Channel) DismissError() {
	c.post(dismissError{})
}

func (c *Channel) View() (View, error) {
	reply := make(chan View, 1)
	if !c.post(getState{reply: reply}) {
		return View{}, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.done:
		return View{}, ErrClosed
	}
}

func (c *Channel) Snapshot() (types.Snapshot, error) {
	v, err := c.View()
	return v.Snapshot, err
}

// Close stops all timers and closes the transport. No reconnect is scheduled
// afterwards. Safe to call more than once; returns once the loop has exited.
func (c *Channel) Close() error {
	c.closeOnce.Do(c.cancel)
	<-c.done
	return c.closeErr
}

// Done is closed once the channel has been torn down.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) post(m Msg) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.inbox <- m:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// taken waits until the loop has taken ownership of a posted message. It
// reports false when the loop exited first, leaving cleanup to the caller.
func (c *Channel) taken(ack <-chan struct{}) bool {
	select {
	case <-ack:
		return true
	case <-c.done:
		select {
		case <-ack:
			return true
		default:
			return false
		}
	}
}

func (c *Channel) loop() {
	defer close(c.done)

	c.connect()
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case m := <-c.inbox:
			// Teardown wins over anything still queued.
			if c.ctx.Err() != nil {
				c.discard(m)
				c.shutdown()
				return
			}
			c.handle(m)
		}
	}
}

func (c *Channel) handle(m Msg) {
	switch msg := m.(type) {
	case dialed:
		c.handleDialed(msg)

	case frameReceived:
		if msg.gen != c.gen || c.state != StateOpen {
			return
		}
		c.handleFrame(msg.data)

	case transportClosed:
		if msg.gen != c.gen || (c.state != StateOpen && c.state != StateConnecting) {
			return
		}
		c.fail(msg.err)

	case connectTimedOut:
		if msg.gen != c.gen || c.state != StateConnecting {
			return
		}
		c.log.Debug("connect timed out", zap.Int("gen", msg.gen))
		c.fail(&itypes.CloseError{Code: itypes.CloseAbnormal, Reason: "connect timeout"})

	case heartbeatTick:
		if msg.gen != c.gen || c.state != StateOpen {
			return
		}
		c.write(itypes.ClientMessage{Type: itypes.MsgPing})

	case retryDue:
		if msg.gen != c.gen || c.state != StateClosed || c.terminal {
			return
		}
		c.connect()

	case subscribe:
		c.subscribers[msg.outbox] = struct{}{}
		deliver(msg.outbox, c.snapshot.Clone())
		close(msg.added)

	case unsubscribe:
		if _, ok := c.subscribers[msg.outbox]; ok {
			delete(c.subscribers, msg.outbox)
			close(msg.outbox)
		}

	case send:
		if c.state != StateOpen {
			c.log.Debug("send dropped, channel not open", zap.String("type", msg.msg.Type), zap.Stringer("state", c.state))
			return
		}
		c.write(msg.msg)

	case dismissError:
		c.apply(engine.Event{Type: engine.EvtErrorDismissed})

	case getState:
		msg.reply <- View{
			State:       c.state,
			Attempts:    c.attempts,
			Gen:         c.gen,
			Terminal:    c.terminal,
			Subscribers: len(c.subscribers),
			Snapshot:    c.snapshot.Clone(),
		}
	}
}

// connect starts a new connection attempt. Never called while an attempt is
// in flight or a connection is open.
func (c *Channel) connect() {
	if c.state == StateConnecting || c.state == StateOpen {
		return
	}
	c.stopConn()

	c.gen++
	gen := c.gen
	c.state = StateConnecting

	connCtx, cancel := context.WithCancel(c.ctx)
	c.connCtx, c.connCancel = connCtx, cancel
	c.connectTimer = time.AfterFunc(c.connectTimeout, func() { c.post(connectTimedOut{gen: gen}) })

	c.log.Debug("connecting", zap.Int("gen", gen), zap.Int("attempt", c.attempts))

	go func() {
		conn, err := c.dialer.Dial(connCtx, c.endpoint)
		msg := dialed{gen: gen, conn: conn, err: err, claimed: make(chan struct{})}
		if c.post(msg) && c.taken(msg.claimed) {
			return
		}
		if conn != nil {
			_ = conn.Close(itypes.CloseGoingAway, "")
		}
	}()
}

func (c *Channel) handleDialed(msg dialed) {
	close(msg.claimed)
	if msg.gen != c.gen || c.state != StateConnecting {
		// Superseded attempt: close whatever it produced before dropping it.
		if msg.conn != nil {
			_ = msg.conn.Close(itypes.CloseGoingAway, "superseded")
		}
		return
	}
	if msg.err != nil {
		c.log.Debug("dial failed", zap.Int("gen", msg.gen), zap.Error(msg.err))
		c.fail(msg.err)
		return
	}

	if c.connectTimer != nil {
		c.connectTimer.Stop()
		c.connectTimer = nil
	}
	c.conn = msg.conn
	c.state = StateOpen
	c.attempts = 0
	c.apply(engine.Event{Type: engine.EvtOpened})
	c.log.Info("channel open", zap.Int("gen", msg.gen))

	c.outgoing = make(chan []byte, 16)
	go c.readPump(c.connCtx, msg.gen, msg.conn)
	go c.writePump(c.connCtx, msg.gen, msg.conn, c.outgoing)
	go c.heartbeat(c.connCtx, msg.gen)
}

func (c *Channel) handleFrame(data []byte) {
	ev, err := engine.Decode(data)
	if err != nil {
		c.log.Debug("dropping frame", zap.Error(err), zap.ByteString("frame", data))
		return
	}
	c.apply(ev)
}

// fail handles a failed attempt or a lost connection and decides whether to
// retry.
func (c *Channel) fail(err error) {
	c.stopConn()
	c.state = StateClosed

	code := closeCode(err)
	var message string
	switch {
	case !itypes.Retryable(code):
		c.terminal = true
		message = MsgPolicyViolation
		if code == itypes.CloseUnsupportedData {
			message = MsgRejected
		}
		c.log.Warn("connection rejected by server", zap.Int("code", code), zap.Error(err))

	case c.attempts < c.maxAttempts:
		c.attempts++
		gen := c.gen
		c.retryTimer = time.AfterFunc(c.retryDelay, func() { c.post(retryDue{gen: gen}) })
		message = MsgReconnecting
		c.log.Info("connection lost, reconnecting", zap.Int("code", code), zap.Int("attempt", c.attempts), zap.Error(err))

	default:
		c.terminal = true
		message = MsgRetriesExhausted
		c.log.Warn("connection lost, retries exhausted", zap.Int("code", code), zap.Error(err))
	}

	c.apply(engine.Event{Type: engine.EvtDisconnected, Message: message})
}

// stopConn cancels the heartbeat and pumps of the current attempt and closes
// its transport handle.
func (c *Channel) stopConn() {
	if c.connectTimer != nil {
		c.connectTimer.Stop()
		c.connectTimer = nil
	}
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.connCancel != nil {
		c.connCancel()
		c.connCtx, c.connCancel = nil, nil
	}
	if c.conn != nil {
		_ = c.conn.Close(itypes.CloseGoingAway, "")
		c.conn = nil
	}
	c.outgoing = nil
}

func (c *Channel) shutdown() {
	c.state = StateClosing
	if c.conn != nil {
		c.closeErr = c.conn.Close(itypes.CloseNormal, "bye")
		c.conn = nil
	}
	c.stopConn()
	c.state = StateClosed
	c.terminal = true

	for ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, ch)
	}

	// Anything still queued will never be handled.
	for {
		select {
		case m := <-c.inbox:
			c.discard(m)
		default:
			c.log.Debug("channel closed")
			return
		}
	}
}

// discard releases what an unhandled message holds: a dialed transport is
// closed, a pending subscription is ended.
func (c *Channel) discard(m Msg) {
	switch msg := m.(type) {
	case dialed:
		close(msg.claimed)
		if msg.conn != nil {
			_ = msg.conn.Close(itypes.CloseGoingAway, "")
		}
	case subscribe:
		close(msg.outbox)
		close(msg.added)
	}
}

func (c *Channel) apply(ev engine.Event) {
	next, changed, err := engine.Apply(c.snapshot, ev)
	if err != nil {
		c.log.Debug("event not applied", zap.String("event", string(ev.Type)), zap.Error(err))
		return
	}
	if !changed {
		return
	}
	c.snapshot = next
	c.broadcast()
}

func (c *Channel) broadcast() {
	for ch := range c.subscribers {
		deliver(ch, c.snapshot.Clone())
	}
}

func (c *Channel) write(msg itypes.ClientMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Debug("encode outgoing", zap.Error(err))
		return
	}
	select {
	case c.outgoing <- data:
	default:
		c.log.Debug("outgoing queue full, dropping", zap.String("type", msg.Type))
	}
}

func (c *Channel) readPump(ctx context.Context, gen int, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			c.post(transportClosed{gen: gen, err: err})
			return
		}
		if !c.post(frameReceived{gen: gen, data: data}) {
			return
		}
	}
}

func (c *Channel) writePump(ctx context.Context, gen int, conn Conn, out <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-out:
			wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
			err := conn.Write(wctx, data)
			cancel()
			if err != nil {
				c.post(transportClosed{gen: gen, err: fmt.Errorf("write: %w", err)})
				return
			}
		}
	}
}

func (c *Channel) heartbeat(ctx context.Context, gen int) {
	t := time.NewTicker(c.heartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !c.post(heartbeatTick{gen: gen}) {
				return
			}
		}
	}
}

// deliver hands s to outbox without blocking, replacing a stale snapshot
// that the reader hasn't picked up yet.
func deliver(outbox chan types.Snapshot, s types.Snapshot) {
	for i := 0; i < 2; i++ {
		select {
		case outbox <- s:
			return
		default:
		}
		select {
		case <-outbox:
		default:
		}
	}
}

func closeCode(err error) int {
	var ce *itypes.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return itypes.CloseAbnormal
}
