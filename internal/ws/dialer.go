package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/lobby-client/internal/lobby"
	"github.com/DoyleJ11/lobby-client/internal/types"
)

const maxMessageSize = 64 * 1024

// Dialer opens lobby channels over coder/websocket.
type Dialer struct {
	// Origin is sent as the Origin header, as a browser would.
	Origin     string
	HTTPClient *http.Client
}

func NewDialer(origin string) *Dialer {
	return &Dialer{Origin: origin}
}

func (d *Dialer) Dial(ctx context.Context, endpoint string) (lobby.Conn, error) {
	opts := &websocket.DialOptions{HTTPClient: d.HTTPClient}
	if d.Origin != "" {
		opts.HTTPHeader = http.Header{"Origin": []string{d.Origin}}
	}

	conn, resp, err := websocket.Dial(ctx, endpoint, opts)
	if err != nil {
		if resp != nil {
			return nil, handshakeError(resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &Conn{ws: conn}, nil
}

// handshakeError maps an HTTP rejection of the upgrade onto the close code
// the server would have used had it accepted first.
func handshakeError(status int, err error) error {
	switch status {
	case http.StatusBadRequest:
		return &types.CloseError{Code: types.CloseUnsupportedData, Reason: err.Error()}
	case http.StatusForbidden, http.StatusNotFound:
		return &types.CloseError{Code: types.ClosePolicyViolation, Reason: err.Error()}
	default:
		return fmt.Errorf("handshake rejected (%d): %w", status, err)
	}
}

type Conn struct {
	ws *websocket.Conn
}

// Read returns the next data frame. Any failure is reported as a
// *types.CloseError; drops without a close frame carry code 1006.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, closeError(err)
	}
	return data, nil
}

func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *Conn) Close(code int, reason string) error {
	err := c.ws.Close(websocket.StatusCode(code), reason)
	// Closing a socket the peer already closed is not worth reporting.
	if errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}

func closeError(err error) error {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return &types.CloseError{Code: int(ce.Code), Reason: ce.Reason}
	}
	return &types.CloseError{Code: types.CloseAbnormal, Reason: err.Error()}
}
