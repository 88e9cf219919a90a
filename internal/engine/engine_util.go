package engine

import (
	"slices"

	"github.com/DoyleJ11/lobby-client/pkg/types"
)

func NewEmptySnapshot() types.Snapshot {
	return types.Snapshot{Players: []types.Player{}}
}

// IsHost reports whether clientID is the first host-flagged player in the
// roster. It is derived on every call and never cached, since the roster can
// be replaced at any time.
func IsHost(players []types.Player, clientID string) bool {
	for _, p := range players {
		if p.IsHost {
			return p.ID == clientID
		}
	}
	return false
}

// CanStart reports whether clientID may start the game: it must be the host
// and the roster must meet the game type's minimum player count.
func CanStart(s types.Snapshot, clientID string) bool {
	return IsHost(s.Players, clientID) && len(s.Players) >= MinPlayers(s.GameType)
}

func equal(a, b types.Snapshot) bool {
	return a.Connected == b.Connected &&
		a.GameType == b.GameType &&
		a.LastError == b.LastError &&
		a.Started == b.Started &&
		slices.Equal(a.Players, b.Players)
}
