package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/store"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Reconnect to the last room you joined or hosted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.SessionDSN)
			if err != nil {
				return err
			}
			session, err := st.Load()
			closeErr := st.Close()
			if errors.Is(err, store.ErrNoSession) {
				return fmt.Errorf("%w: join or host a game first", err)
			}
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}
			return runLobby(cmd.Context(), cfg, session)
		},
	}
}
