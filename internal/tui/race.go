package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/typewarrior/typewarrior/internal/engine"
	"github.com/typewarrior/typewarrior/internal/model"
	"github.com/typewarrior/typewarrior/internal/race"
	"github.com/typewarrior/typewarrior/internal/raceclient"
	"github.com/typewarrior/typewarrior/internal/words"
)

type bridgeMsg struct{}

var emoteKeys = map[string]string{
	"1": "🔥",
	"2": "😎",
	"3": "💪",
	"4": "🎉",
}

var (
	barFillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	winnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
)

// RaceModel implements the Bubble Tea multiplayer racing UI: a lobby
// table over the server's room list, then the live race room.
type RaceModel struct {
	bridge  *raceclient.Bridge
	profile race.Profile
	gen     *words.Generator

	eng *engine.Engine
	tbl table.Model

	width  int
	height int

	notice string
}

// NewRaceModel constructs the multiplayer TUI model.
func NewRaceModel(bridge *raceclient.Bridge, profile race.Profile) *RaceModel {
	columns := []table.Column{
		{Title: "Room", Width: 24},
		{Title: "Players", Width: 9},
		{Title: "Difficulty", Width: 10},
		{Title: "Status", Width: 12},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	return &RaceModel{
		bridge:  bridge,
		profile: profile,
		gen:     words.New(),
		tbl:     tbl,
	}
}

// Init implements tea.Model.
func (m *RaceModel) Init() tea.Cmd {
	return tea.Batch(m.waitUpdate(), tickCmd())
}

func (m *RaceModel) waitUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.bridge.Updates()
		return bridgeMsg{}
	}
}

// Update implements tea.Model.
func (m *RaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case bridgeMsg:
		m.syncState()
		return m, m.waitUpdate()
	case tickMsg:
		if m.eng != nil && m.eng.Status() == engine.StatusRunning {
			m.eng.Tick()
			m.forwardProgress()
		}
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

// syncState folds the latest bridge snapshot into the view state.
func (m *RaceModel) syncState() {
	st := m.bridge.State()
	if st.JoinError != "" {
		m.notice = st.JoinError
	}
	if st.Room == nil {
		m.eng = nil
		m.tbl.SetRows(lobbyRows(st.Rooms))
		return
	}
	if st.Started && m.eng == nil {
		eng := engine.New(engine.Config{Mode: model.ModeWords}, m.gen)
		eng.SetText(st.Room.Text)
		m.eng = eng
	}
}

func lobbyRows(rooms []race.Summary) []table.Row {
	rows := make([]table.Row, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, table.Row{
			r.Name,
			fmt.Sprintf("%d/%d", r.Players, r.MaxPlayers),
			r.Difficulty,
			string(r.Status),
		})
	}
	return rows
}

func (m *RaceModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.bridge.State()
	if st.Room == nil {
		return m.handleLobbyKey(msg, st)
	}
	return m.handleRoomKey(msg, st)
}

func (m *RaceModel) handleLobbyKey(msg tea.KeyMsg, st raceclient.State) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "enter":
		idx := m.tbl.Cursor()
		if idx >= 0 && idx < len(st.Rooms) {
			m.notice = ""
			if err := m.bridge.JoinRoom(st.Rooms[idx].ID, m.profile); err != nil {
				m.notice = err.Error()
			}
		}
		return m, nil
	case "n":
		m.notice = ""
		name := fmt.Sprintf("%s's race", m.profile.Name)
		if err := m.bridge.CreateRoom(name, 4, "Medium", m.profile); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m *RaceModel) handleRoomKey(msg tea.KeyMsg, st raceclient.State) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.eng = nil
		if err := m.bridge.LeaveRoom(); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	}

	racing := st.Started && !st.Finished && m.eng != nil
	if !racing {
		switch msg.String() {
		case "r":
			if err := m.bridge.Ready(); err != nil {
				m.notice = err.Error()
			}
		default:
			if emoji, ok := emoteKeys[msg.String()]; ok {
				if err := m.bridge.SendEmote(emoji); err != nil {
					m.notice = err.Error()
				}
			}
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		m.eng.DeleteRune(msg.Alt)
	case tea.KeyCtrlW:
		m.eng.DeleteRune(true)
	case tea.KeySpace:
		m.eng.InsertRune(' ')
		m.forwardProgress()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.eng.InsertRune(r)
		}
		m.forwardProgress()
	}
	return m, nil
}

func (m *RaceModel) forwardProgress() {
	if m.eng == nil {
		return
	}
	progress := m.eng.ProgressPercent()
	// Typing the whole text crosses the line even with uncorrected
	// errors; accuracy carries the damage.
	if m.eng.Status() == engine.StatusFinished {
		progress = 100
	}
	if err := m.bridge.ForwardProgress(progress, m.eng.WPM(), m.eng.Accuracy()); err != nil {
		m.notice = err.Error()
	}
}

// View implements tea.Model.
func (m *RaceModel) View() string {
	st := m.bridge.State()
	if st.Closed {
		if st.Err != nil {
			return fmt.Sprintf("connection lost: %v\n", st.Err)
		}
		return "disconnected\n"
	}
	var content string
	if st.Room == nil {
		content = m.lobbyView(st)
	} else {
		content = m.roomView(st)
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *RaceModel) lobbyView(st raceclient.State) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TypeWarrior Races"))
	b.WriteString("\n\n")
	b.WriteString(m.tbl.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(incorrectStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("enter join · n new room · q quit"))
	return b.String()
}

func (m *RaceModel) roomView(st raceclient.State) string {
	room := st.Room
	var b strings.Builder
	b.WriteString(titleStyle.Render(room.Name))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s · %s", room.Difficulty, room.Status)))
	b.WriteString("\n\n")

	for _, p := range room.Players {
		marker := " "
		if st.Self != nil && p.ConnID == st.Self.ConnID {
			marker = ">"
		}
		status := ""
		switch {
		case p.Finished:
			status = fmt.Sprintf("#%d", p.Position)
		case room.Status == race.StatusWaiting && p.Ready:
			status = "ready"
		}
		b.WriteString(fmt.Sprintf("%s %s %-14s %s %3d%%  %3d WPM  %s\n",
			marker, p.Avatar, p.Name, progressBar(p.Progress, 24), int(p.Progress), p.WPM, status))
	}
	b.WriteString("\n")

	switch {
	case st.Finished:
		if st.Winner != nil {
			b.WriteString(winnerStyle.Render(fmt.Sprintf("%s wins!", st.Winner.Name)))
			b.WriteString("\n")
		}
		b.WriteString(footerStyle.Render("esc back to lobby"))
	case st.Countdown > 0:
		b.WriteString(titleStyle.Render(fmt.Sprintf("Starting in %d...", st.Countdown)))
	case st.Started && m.eng != nil:
		b.WriteString(m.raceText())
	default:
		b.WriteString(footerStyle.Render("r ready · 1-4 emote · esc leave"))
	}

	if st.LastEmote != nil {
		b.WriteString("\n")
		b.WriteString(footerStyle.Render(fmt.Sprintf("%s  %s", st.LastEmote.Emoji, st.LastEmote.PlayerID)))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(incorrectStyle.Render(m.notice))
	}
	return b.String()
}

func (m *RaceModel) raceText() string {
	targetRunes := []rune(m.eng.Reference())
	inputRunes := []rune(m.eng.Typed())
	cursorIndex := -1
	if len(inputRunes) < len(targetRunes) {
		cursorIndex = len(inputRunes)
	}
	styled := buildStyledRunes(targetRunes, inputRunes, cursorIndex)
	width := 60
	if m.width > 0 {
		width = int(float64(m.width) * 0.70)
		if width < 20 {
			width = 20
		}
	}
	return wrapStyledRunes(styled, width)
}

// progressBar renders a fixed-width bar for a 0-100 progress value.
func progressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := int(progress / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
