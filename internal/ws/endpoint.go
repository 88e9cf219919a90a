package ws

import (
	"net"
	"net/url"
	"strconv"

	"github.com/DoyleJ11/lobby-client/internal/config"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

// Endpoint builds the channel URL for a session:
// ws(s)://<host>:<port>/ws/<clientId>?game_code=<roomCode>&origin=<origin>
func Endpoint(cfg *config.Config, s types.Session) string {
	scheme := "ws"
	if cfg.Secure {
		scheme = "wss"
	}
	u := url.URL{
		Scheme:  scheme,
		Host:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:    "/ws/" + s.ClientID,
		RawPath: "/ws/" + url.PathEscape(s.ClientID),
	}
	q := url.Values{}
	q.Set("game_code", s.RoomCode)
	q.Set("origin", cfg.Origin)
	u.RawQuery = q.Encode()
	return u.String()
}
