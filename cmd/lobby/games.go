package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/engine"
	"github.com/DoyleJ11/lobby-client/internal/ui"
)

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List the game types a room can be created for",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.GamesTable(engine.Catalog))
		},
	}
}
