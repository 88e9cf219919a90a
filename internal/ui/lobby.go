package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DoyleJ11/lobby-client/internal/engine"
	itypes "github.com/DoyleJ11/lobby-client/internal/types"
	"github.com/DoyleJ11/lobby-client/pkg/types"
)

// ErrorDisplayDuration is how long a server error stays on screen.
const ErrorDisplayDuration = 5 * time.Second

// Channel is the part of lobby.Channel the view drives.
type Channel interface {
	Send(msg itypes.ClientMessage)
	DismissError()
}

type snapshotMsg types.Snapshot

type subscriptionClosedMsg struct{}

// dismissMsg fires ErrorDisplayDuration after an error appeared. It carries
// the version that first showed the error so a newer one is not cut short.
type dismissMsg struct{ version int }

// LobbyModel renders the roster projection of one channel.
type LobbyModel struct {
	ch      Channel
	session types.Session
	updates <-chan types.Snapshot
	snap    types.Snapshot
	// errorSince is the version at which the current error first showed.
	errorSince int
	spinner    spinner.Model
	closed     bool
	quitting   bool
}

func NewLobbyModel(ch Channel, session types.Session, updates <-chan types.Snapshot) *LobbyModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &LobbyModel{
		ch:      ch,
		session: session,
		updates: updates,
		spinner: s,
	}
}

// Snapshot is the last snapshot the view rendered.
func (m *LobbyModel) Snapshot() types.Snapshot { return m.snap }

func (m *LobbyModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *LobbyModel) listen() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.updates
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m *LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "s":
			if engine.CanStart(m.snap, m.session.ClientID) && !m.snap.Started {
				m.ch.Send(itypes.ClientMessage{Type: itypes.MsgStartGame})
			}
		case "esc":
			if m.snap.LastError != "" {
				m.ch.DismissError()
			}
		}

	case snapshotMsg:
		prev := m.snap
		m.snap = types.Snapshot(msg)
		cmds := []tea.Cmd{m.listen()}
		if m.snap.LastError != prev.LastError {
			m.errorSince = m.snap.Version
		}
		// Transport errors stay until the connection recovers; only errors
		// shown on a live connection time out.
		if m.snap.LastError != "" && m.snap.Connected && m.snap.LastError != prev.LastError {
			version := m.errorSince
			cmds = append(cmds, tea.Tick(ErrorDisplayDuration, func(time.Time) tea.Msg {
				return dismissMsg{version: version}
			}))
		}
		return m, tea.Batch(cmds...)

	case dismissMsg:
		if m.snap.LastError != "" && m.snap.Connected && m.errorSince == msg.version {
			m.ch.DismissError()
		}

	case subscriptionClosedMsg:
		m.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *LobbyModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "Game Lobby"
	if m.snap.GameType != "" {
		title = engine.DisplayName(m.snap.GameType)
	}
	b.WriteString(TitleStyle.Render(IconGame+" "+title) + "\n")
	if n := engine.MinPlayers(m.snap.GameType); n > 0 {
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Minimum %d players", n)) + "\n")
	}
	b.WriteString("\n" + MutedStyle.Render("Room code") + "\n")
	b.WriteString(CodeStyle.Render(m.session.RoomCode) + "\n\n")

	if m.snap.LastError != "" {
		b.WriteString(ErrorBoxStyle.Render(m.snap.LastError) + "\n\n")
	}

	b.WriteString(BoldStyle.Render(fmt.Sprintf("Players (%d)", len(m.snap.Players))) + "\n")
	if len(m.snap.Players) == 0 {
		b.WriteString(MutedStyle.Render("  Waiting for players...") + "\n")
	}
	for _, p := range m.snap.Players {
		b.WriteString("  " + m.playerLine(p) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.snap.Started:
		b.WriteString(SuccessStyle.Render("Game starting!") + "\n")
	case engine.CanStart(m.snap, m.session.ClientID):
		b.WriteString(ButtonStyle.Render("Start Game") + MutedStyle.Render("  press s") + "\n")
	case engine.IsHost(m.snap.Players, m.session.ClientID):
		need := engine.MinPlayers(m.snap.GameType)
		b.WriteString(DisabledButtonStyle.Render("Start Game") +
			MutedStyle.Render(fmt.Sprintf("  needs %d players", need)) + "\n")
	default:
		b.WriteString(DisabledButtonStyle.Render("Waiting for host") + "\n")
	}

	b.WriteString("\n" + m.statusLine() + "\n")
	b.WriteString(FooterStyle.Render("q quit • esc dismiss error"))
	return ContainerStyle.Render(b.String())
}

func (m *LobbyModel) playerLine(p types.Player) string {
	icon := IconPlayer
	if p.IsHost {
		icon = IconCrown
	}
	name := p.Name
	if p.ID == m.session.ClientID {
		name += " (you)"
	}
	if !p.IsConnected {
		return MutedStyle.Render(icon + " " + name + " (disconnected)")
	}
	return icon + " " + name
}

func (m *LobbyModel) statusLine() string {
	switch {
	case m.closed:
		return MutedStyle.Render("Disconnected")
	case m.snap.Connected:
		return SuccessStyle.Render("● Connected")
	default:
		return m.spinner.View() + " " + WarningStyle.Render("Connecting...")
	}
}
