package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/DoyleJ11/lobby-client/internal/engine"
)

// GamesTable renders the game catalog for "lobby games".
func GamesTable(games []engine.GameType) string {
	if len(games) == 0 {
		return MutedStyle.Render("No games")
	}

	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			g.ID,
			g.Name,
			fmt.Sprintf("%d-%d", g.MinPlayers, g.MaxPlayers),
			g.Description,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("ID", "Name", "Players", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return BoldStyle.Foreground(Primary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}
