package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DoyleJ11/lobby-client/pkg/types"
)

// Subscribable is a Channel the view can follow.
type Subscribable interface {
	Channel
	Subscribe(outbox chan types.Snapshot)
	Unsubscribe(outbox chan types.Snapshot)
}

// RunLobby shows the lobby until the user quits, ctx is cancelled, or the
// channel is torn down.
func RunLobby(ctx context.Context, ch Subscribable, session types.Session, opts ...tea.ProgramOption) error {
	out := make(chan types.Snapshot, 8)
	ch.Subscribe(out)
	defer ch.Unsubscribe(out)

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewLobbyModel(ch, session, out), opts...)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("lobby view: %w", err)
	}
	return nil
}
