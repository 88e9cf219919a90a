package engine

import "strings"

type GameType struct {
	ID          string
	Name        string
	Description string
	MinPlayers  int
	MaxPlayers  int
}

var Catalog = []GameType{
	{ID: "drawguess", Name: "Draw & Guess", Description: "Draw pictures and let others guess what it is!", MinPlayers: 2, MaxPlayers: 12},
	{ID: "trivia", Name: "Trivia Master", Description: "Test your knowledge across various categories", MinPlayers: 2, MaxPlayers: 8},
	{ID: "wordplay", Name: "Word Play", Description: "Create the funniest combinations of words", MinPlayers: 4, MaxPlayers: 10},
	{ID: "partypack", Name: "Party Pack", Description: "A mix of mini-games for maximum fun", MinPlayers: 3, MaxPlayers: 8},
}

func LookupGame(id string) (GameType, bool) {
	for _, g := range Catalog {
		if strings.EqualFold(g.ID, id) {
			return g, true
		}
	}
	return GameType{}, false
}

// DisplayName falls back to the raw id for games the client doesn't know.
func DisplayName(id string) string {
	if g, ok := LookupGame(id); ok {
		return g.Name
	}
	return id
}

// MinPlayers is 0 for an unknown or unset game type.
func MinPlayers(id string) int {
	if g, ok := LookupGame(id); ok {
		return g.MinPlayers
	}
	return 0
}

// MaxPlayers is 0 for an unknown or unset game type.
func MaxPlayers(id string) int {
	if g, ok := LookupGame(id); ok {
		return g.MaxPlayers
	}
	return 0
}
