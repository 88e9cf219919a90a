package main

import (
	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/httpapi"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

func newJoinCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "join <room-code>",
		Aliases: []string{"j"},
		Short:   "Join an existing room by its 4 character code",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			code, err := httpapi.NormalizeRoomCode(args[0])
			if err != nil {
				return err
			}

			api := httpapi.NewClient(cfg.APIBase(), nil)
			resp, err := api.JoinGame(cmd.Context(), code, name)
			if err != nil {
				return err
			}
			return runLobby(cmd.Context(), cfg, types.Session{
				ClientID:   resp.UUID,
				RoomCode:   code,
				PlayerName: name,
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "your display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
