package main

import (
	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/engine"
	"github.com/DoyleJ11/lobby-client/internal/httpapi"
	"github.com/DoyleJ11/lobby-client/internal/ui"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

func newHostCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "host <game-type>",
		Short: "Create a new room and join it as host",
		Long: `Create a new room for a game type and join it as host.
Run "lobby games" to list the game types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			api := httpapi.NewClient(cfg.APIBase(), nil)
			resp, err := api.CreateGame(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			ui.PrintSuccessf("Created %s room %s", engine.DisplayName(args[0]), resp.GameCode)

			return runLobby(cmd.Context(), cfg, types.Session{
				ClientID:   resp.UUID,
				RoomCode:   resp.GameCode,
				PlayerName: name,
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "your display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
