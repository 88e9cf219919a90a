package engine

import (
	"errors"
	"testing"

	"github.com/DoyleJ11/lobby-client/pkg/types"
)

func roster(ids ...string) []types.Player {
	out := make([]types.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Player{ID: id, Name: "player-" + id, IsConnected: true})
	}
	return out
}

func ids(players []types.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

func mustApply(t *testing.T, s types.Snapshot, ev Event) types.Snapshot {
	t.Helper()
	next, _, err := Apply(s, ev)
	if err != nil {
		t.Fatalf("apply %s: %v", ev.Type, err)
	}
	return next
}

func TestRosterUpdateReplacesPlayers(t *testing.T) {
	s := NewEmptySnapshot()
	s = mustApply(t, s, Event{Type: EvtRosterUpdated, Players: roster("A", "B")})
	s = mustApply(t, s, Event{Type: EvtRosterUpdated, Players: roster("A", "B", "C")})
	s = mustApply(t, s, Event{Type: EvtRosterUpdated, Players: roster("B", "C")})

	got := ids(s.Players)
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Fatalf("want roster [B C], got %v", got)
	}
}

func TestRosterUpdateIsIdempotent(t *testing.T) {
	ev := Event{Type: EvtRosterUpdated, Players: roster("A", "B"), GameType: "trivia", HasGameType: true}

	first, changed, err := Apply(NewEmptySnapshot(), ev)
	if err != nil || !changed {
		t.Fatalf("first apply: changed=%v err=%v", changed, err)
	}

	second, changed, err := Apply(first, ev)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if changed {
		t.Fatalf("second apply should not report a change")
	}
	if second.Version != first.Version {
		t.Fatalf("version moved on a no-op: %d -> %d", first.Version, second.Version)
	}
}

func TestRosterUpdateKeepsDuplicateIDsAsReceived(t *testing.T) {
	s := mustApply(t, NewEmptySnapshot(), Event{Type: EvtRosterUpdated, Players: roster("A", "A")})
	if len(s.Players) != 2 {
		t.Fatalf("server roster must be applied as received, got %v", ids(s.Players))
	}
}

func TestRosterUpdateGameType(t *testing.T) {
	cases := []struct {
		name string
		prev string
		ev   Event
		want string
	}{
		{
			name: "sets game type when carried",
			ev:   Event{Type: EvtRosterUpdated, GameType: "trivia", HasGameType: true},
			want: "trivia",
		},
		{
			name: "keeps previous game type when absent",
			prev: "wordplay",
			ev:   Event{Type: EvtRosterUpdated, Players: roster("A")},
			want: "wordplay",
		},
		{
			name: "stays absent until carried",
			ev:   Event{Type: EvtRosterUpdated, Players: roster("A")},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewEmptySnapshot()
			s.GameType = tc.prev
			s = mustApply(t, s, tc.ev)
			if s.GameType != tc.want {
				t.Fatalf("want game type %q, got %q", tc.want, s.GameType)
			}
		})
	}
}

func TestApplyDoesNotAliasEventPlayers(t *testing.T) {
	players := roster("A", "B")
	s := mustApply(t, NewEmptySnapshot(), Event{Type: EvtRosterUpdated, Players: players})
	players[0].Name = "mutated"
	if s.Players[0].Name == "mutated" {
		t.Fatalf("snapshot shares memory with the event")
	}
}

func TestConnectionEvents(t *testing.T) {
	s := NewEmptySnapshot()
	s = mustApply(t, s, Event{Type: EvtDisconnected, Message: "Connection lost. Reconnecting..."})
	if s.Connected || s.LastError == "" {
		t.Fatalf("after disconnect: %+v", s)
	}

	s = mustApply(t, s, Event{Type: EvtOpened})
	if !s.Connected || s.LastError != "" {
		t.Fatalf("open should connect and clear the error: %+v", s)
	}

	s = mustApply(t, s, Event{Type: EvtServerError, Message: "room is full"})
	if !s.Connected || s.LastError != "room is full" {
		t.Fatalf("error frame should not disconnect: %+v", s)
	}

	s = mustApply(t, s, Event{Type: EvtErrorDismissed})
	if s.LastError != "" {
		t.Fatalf("dismiss should clear the error: %+v", s)
	}
}

func TestRosterUpdateLeavesErrorVisible(t *testing.T) {
	s := mustApply(t, NewEmptySnapshot(), Event{Type: EvtOpened})
	s = mustApply(t, s, Event{Type: EvtServerError, Message: "room is full"})
	s = mustApply(t, s, Event{Type: EvtRosterUpdated, Players: roster("A", "B")})
	if s.LastError != "room is full" {
		t.Fatalf("roster update cleared the error, got %q", s.LastError)
	}

	s = mustApply(t, s, Event{Type: EvtDisconnected, Message: "lost"})
	s = mustApply(t, s, Event{Type: EvtOpened})
	if s.LastError != "" {
		t.Fatalf("opening must clear the error, got %q", s.LastError)
	}
}

func TestPongChangesNothing(t *testing.T) {
	s := mustApply(t, NewEmptySnapshot(), Event{Type: EvtOpened})
	next, changed, err := Apply(s, Event{Type: EvtPong})
	if err != nil || changed || next.Version != s.Version {
		t.Fatalf("pong: changed=%v err=%v version %d -> %d", changed, err, s.Version, next.Version)
	}
}

func TestApplyUnsupportedEvent(t *testing.T) {
	_, _, err := Apply(NewEmptySnapshot(), Event{Type: "Bogus"})
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("want ErrUnsupportedEvent, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name    string
		frame   string
		want    EventType
		wantErr error
	}{
		{name: "roster update", frame: `{"type":"roster_update","payload":{"players":[{"id":"u1","name":"Rob","isVIP":true,"isConnected":true}],"gameType":"trivia"}}`, want: EvtRosterUpdated},
		{name: "legacy players update", frame: `{"type":"players_update","payload":{"players":[]}}`, want: EvtRosterUpdated},
		{name: "error", frame: `{"type":"error","payload":{"message":"nope"}}`, want: EvtServerError},
		{name: "pong", frame: `{"type":"pong"}`, want: EvtPong},
		{name: "game start", frame: `{"type":"game_start","payload":{}}`, want: EvtGameStarted},
		{name: "not json", frame: `hello`, wantErr: ErrMalformedFrame},
		{name: "missing type", frame: `{"payload":{}}`, wantErr: ErrMalformedFrame},
		{name: "roster without payload", frame: `{"type":"roster_update"}`, wantErr: ErrMalformedFrame},
		{name: "roster with wrong payload", frame: `{"type":"roster_update","payload":{"players":"x"}}`, wantErr: ErrMalformedFrame},
		{name: "unknown type", frame: `{"type":"draw_stroke","payload":{}}`, wantErr: ErrUnknownFrame},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Decode([]byte(tc.frame))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if ev.Type != tc.want {
				t.Fatalf("want %s, got %s", tc.want, ev.Type)
			}
		})
	}
}

func TestDecodeRosterMapsVIPToHost(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"roster_update","payload":{"players":[{"id":"u1","name":"Rob","isVIP":true,"isConnected":true},{"id":"u2","name":"Ann","isVIP":false,"isConnected":false}],"gameType":"trivia"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ev.HasGameType || ev.GameType != "trivia" {
		t.Fatalf("game type not decoded: %+v", ev)
	}
	want := []types.Player{
		{ID: "u1", Name: "Rob", IsHost: true, IsConnected: true},
		{ID: "u2", Name: "Ann"},
	}
	if len(ev.Players) != len(want) || ev.Players[0] != want[0] || ev.Players[1] != want[1] {
		t.Fatalf("want %+v, got %+v", want, ev.Players)
	}
}

func TestIsHost(t *testing.T) {
	players := []types.Player{
		{ID: "u2", Name: "Ann"},
		{ID: "u1", Name: "Rob", IsHost: true},
		{ID: "u3", Name: "Kim", IsHost: true},
	}
	cases := []struct {
		name     string
		clientID string
		want     bool
	}{
		{name: "first host matches", clientID: "u1", want: true},
		{name: "later host does not count", clientID: "u3", want: false},
		{name: "non host", clientID: "u2", want: false},
		{name: "not in roster", clientID: "zz", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHost(players, tc.clientID); got != tc.want {
				t.Fatalf("IsHost(%s) = %v, want %v", tc.clientID, got, tc.want)
			}
		})
	}

	if IsHost(nil, "u1") {
		t.Fatalf("empty roster has no host")
	}
}

func TestCanStart(t *testing.T) {
	host := types.Player{ID: "u1", Name: "Rob", IsHost: true}
	guest := types.Player{ID: "u2", Name: "Ann"}

	s := types.Snapshot{GameType: "wordplay", Players: []types.Player{host, guest}}
	if CanStart(s, "u1") {
		t.Fatalf("wordplay needs 4 players")
	}

	s.GameType = "trivia"
	if !CanStart(s, "u1") {
		t.Fatalf("host with 2 players should be able to start trivia")
	}
	if CanStart(s, "u2") {
		t.Fatalf("guest can never start")
	}
}

func TestCatalog(t *testing.T) {
	if got := DisplayName("drawguess"); got != "Draw & Guess" {
		t.Fatalf("DisplayName(drawguess) = %q", got)
	}
	if got := DisplayName("mystery"); got != "mystery" {
		t.Fatalf("unknown ids fall back to themselves, got %q", got)
	}
	if got := MinPlayers("partypack"); got != 3 {
		t.Fatalf("MinPlayers(partypack) = %d", got)
	}
	if got := MinPlayers(""); got != 0 {
		t.Fatalf("MinPlayers of unset game = %d", got)
	}
	if got := MaxPlayers("trivia"); got != 8 {
		t.Fatalf("MaxPlayers(trivia) = %d", got)
	}
	if _, ok := LookupGame("WORDPLAY"); !ok {
		t.Fatalf("lookup is case-insensitive")
	}
}
