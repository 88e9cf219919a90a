package types

// Player is one roster entry as last reported by the server.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"is_host"`
	IsConnected bool   `json:"is_connected"`
}

// Snapshot is the roster projection the UI renders.
//   - Players is replaced wholesale on every roster update
//   - GameType and LastError are empty when absent
//   - Version increments on every observable change
type Snapshot struct {
	Version   int      `json:"version"`
	Connected bool     `json:"connected"`
	Players   []Player `json:"players"`
	GameType  string   `json:"game_type,omitempty"`
	LastError string   `json:"last_error,omitempty"`
	Started   bool     `json:"started"`
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	if s.Players != nil {
		s.Players = append([]Player(nil), s.Players...)
	}
	return s
}

// Session identifies one participant in one room. It comes from the join or
// create request and does not change for the lifetime of a channel.
type Session struct {
	ClientID   string `json:"client_id"`
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name,omitempty"`
}

// Key identifies the (client, room) pair a channel is bound to.
func (s Session) Key() string { return s.ClientID + "@" + s.RoomCode }
