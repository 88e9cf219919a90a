package main

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-client/internal/config"
	"github.com/DoyleJ11/lobby-client/internal/hub"
	"github.com/DoyleJ11/lobby-client/internal/lobby"
	"github.com/DoyleJ11/lobby-client/internal/logging"
	"github.com/DoyleJ11/lobby-client/internal/store"
	"github.com/DoyleJ11/lobby-client/internal/ui"
	"github.com/DoyleJ11/lobby-client/internal/ws"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

// runLobby remembers session, opens its channel and shows the lobby until
// the user quits.
func runLobby(ctx context.Context, cfg *config.Config, session types.Session) (err error) {
	log, err := logging.New(cfg.LogLevel, logFile(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// A session we cannot remember only costs "lobby resume".
	if st, err := store.Open(cfg.SessionDSN); err != nil {
		log.Warn("session store unavailable", zap.Error(err))
	} else {
		if err := st.Save(session); err != nil {
			log.Warn("save session", zap.Error(err))
		}
		if err := st.Close(); err != nil {
			log.Warn("close session store", zap.Error(err))
		}
	}

	dialer := ws.NewDialer(cfg.Origin)
	h := hub.NewHub(ctx, func(ctx context.Context, s types.Session) *lobby.Channel {
		return lobby.NewChannel(ctx, s, dialer, ws.Endpoint(cfg, s), lobby.WithLogger(log))
	})
	defer func() { err = multierr.Append(err, h.Shutdown()) }()

	ch := h.Ensure(session)
	if ch == nil {
		return ctx.Err()
	}
	log.Info("lobby opened",
		zap.String("client_id", session.ClientID),
		zap.String("room_code", session.RoomCode))
	return ui.RunLobby(ctx, ch, session)
}

// logFile keeps logs off the terminal the lobby view draws on.
func logFile(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lobby.log")
	}
	dir := filepath.Join(home, ".lobby")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return filepath.Join(os.TempDir(), "lobby.log")
	}
	return filepath.Join(dir, "lobby.log")
}
