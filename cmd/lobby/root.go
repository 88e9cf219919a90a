package main

import (
	"github.com/spf13/cobra"

	"github.com/DoyleJ11/lobby-client/internal/config"
)

var (
	flagHost       string
	flagPort       int
	flagSecure     bool
	flagOrigin     string
	flagSessionDSN string
	flagEnvFile    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lobby",
		Short: "Join and host real-time party game lobbies from the terminal",
		Long: `lobby connects to a party game lobby server, shows the live roster of a
room and lets the host start the game.

Examples:
  lobby host drawguess --name Alice
  lobby join AB12 --name Bob
  lobby resume`,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "lobby server host (env LOBBY_HOST)")
	pf.IntVar(&flagPort, "port", 0, "lobby server port (env LOBBY_PORT)")
	pf.BoolVar(&flagSecure, "secure", false, "use wss/https (env LOBBY_SECURE)")
	pf.StringVar(&flagOrigin, "origin", "", "Origin reported to the server (env LOBBY_ORIGIN)")
	pf.StringVar(&flagSessionDSN, "session-dsn", "", "where to remember the last session (env LOBBY_SESSION_DSN)")
	pf.StringVar(&flagEnvFile, "env-file", "", "load environment from this file instead of .env")

	root.AddCommand(
		newJoinCmd(),
		newHostCmd(),
		newResumeCmd(),
		newGamesCmd(),
		newDevserverCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		Host:       flagHost,
		Port:       flagPort,
		Secure:     flagSecure,
		Origin:     flagOrigin,
		SessionDSN: flagSessionDSN,
		EnvFile:    flagEnvFile,
	})
}
