package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/devserver"
	"github.com/DoyleJ11/lobby-client/internal/logging"
)

// lobby-devserver is the dev server on its own, for running next to a
// browser client without installing the lobby CLI.
func main() {
	var addr, level string
	root := &cobra.Command{
		Use:          "lobby-devserver",
		Short:        "In-memory lobby server for local development",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(level, "")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return devserver.ListenAndServe(cmd.Context(), addr, log)
		},
	}
	root.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	root.Flags().StringVar(&level, "log-level", "info", "log level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
