package main

import (
	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/devserver"
	"github.com/DoyleJ11/lobby-client/internal/logging"
)

func newDevserverCmd() *cobra.Command {
	var addr, level string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory lobby server for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(level, "")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return devserver.ListenAndServe(cmd.Context(), addr, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&level, "log-level", "info", "log level")
	return cmd
}
