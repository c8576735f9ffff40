// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/typewarrior/typewarrior/internal/engine"
	"github.com/typewarrior/typewarrior/internal/model"
	statsPkg "github.com/typewarrior/typewarrior/internal/stats"
	"github.com/typewarrior/typewarrior/internal/store"
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// PracticeModel implements the Bubble Tea solo typing UI around an
// engine session.
type PracticeModel struct {
	eng   *engine.Engine
	store *store.Store

	width  int
	height int

	saved   bool
	lastWPM int
	lastAcc int
	hasLast bool
}

// NewPracticeModel constructs the solo practice TUI model.
func NewPracticeModel(eng *engine.Engine, st *store.Store) *PracticeModel {
	m := &PracticeModel{eng: eng, store: st}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *PracticeModel) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m *PracticeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.eng.Tick()
		if m.eng.Status() == engine.StatusFinished {
			m.saveResult()
		}
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *PracticeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyEnter:
		if m.eng.Status() == engine.StatusFinished {
			m.eng.Restart()
			m.saved = false
		}
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		m.eng.DeleteRune(msg.Alt)
		return m, nil
	case tea.KeyCtrlW:
		m.eng.DeleteRune(true)
		return m, nil
	case tea.KeySpace:
		m.insertRunes([]rune{' '})
		return m, nil
	case tea.KeyRunes:
		m.insertRunes(msg.Runes)
		return m, nil
	default:
		return m, nil
	}
}

func (m *PracticeModel) insertRunes(runes []rune) {
	for _, r := range runes {
		m.eng.InsertRune(r)
	}
	if m.eng.Status() == engine.StatusFinished {
		m.saveResult()
	}
}

// View implements tea.Model.
func (m *PracticeModel) View() string {
	if m.eng.Status() == engine.StatusFinished {
		return m.resultsView()
	}
	return m.typingView()
}

func (m *PracticeModel) typingView() string {
	targetRunes := []rune(m.eng.Reference())
	inputRunes := []rune(m.eng.Typed())
	if len(targetRunes) == 0 {
		return ""
	}
	cursorIndex := -1
	if len(inputRunes) < len(targetRunes) {
		cursorIndex = len(inputRunes)
	}
	styledRunes := buildStyledRunes(targetRunes, inputRunes, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *PracticeModel) renderFooter() string {
	segments := make([]string, 0, 4)
	if m.eng.Config().Mode == model.ModeTime {
		segments = append(segments, fmt.Sprintf("Time %ds", int(m.eng.TimeLeft()/time.Second)))
	} else {
		segments = append(segments, fmt.Sprintf("Progress %d%%", int(m.eng.ProgressPercent())))
	}
	segments = append(segments,
		fmt.Sprintf("%d WPM", m.eng.WPM()),
		fmt.Sprintf("Acc %d%%", m.eng.Accuracy()),
		fmt.Sprintf("Combo %d", m.eng.Combo()),
	)
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *PracticeModel) resultsView() string {
	result, ok := m.eng.Result()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Test complete"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("WPM       %d\n", result.WPM))
	b.WriteString(fmt.Sprintf("Raw WPM   %d\n", result.RawWPM))
	b.WriteString(fmt.Sprintf("Accuracy  %d%%\n", result.Accuracy))
	b.WriteString(fmt.Sprintf("Errors    %d\n", result.Errors))
	b.WriteString(fmt.Sprintf("Max combo %d\n", result.MaxCombo))

	history := m.eng.History()
	if len(history) > 1 {
		values := make([]float64, len(history))
		for i, sample := range history {
			values[i] = float64(sample.NetWPM)
		}
		b.WriteString("\n")
		b.WriteString(footerStyle.Render("WPM " + statsPkg.Sparkline(values)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("tab restart · esc quit"))
	content := b.String()
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *PracticeModel) saveResult() {
	if m.saved || m.store == nil {
		return
	}
	result, ok := m.eng.Result()
	if !ok {
		return
	}
	m.saved = true
	if _, err := m.store.InsertResult(context.Background(), result, m.eng.History()); err != nil {
		logErrf("failed to save result: %v\n", err)
	}
	m.lastWPM = result.WPM
	m.lastAcc = result.Accuracy
	m.hasLast = true
}

func (m *PracticeModel) loadFooterStats() {
	if m.store == nil {
		return
	}
	results, err := m.store.ListResults(context.Background(), model.StatsFilter{Last: 1})
	if err != nil {
		logErrf("failed to load result stats: %v\n", err)
		return
	}
	if len(results) == 0 {
		return
	}
	last := results[len(results)-1]
	m.lastWPM = last.WPM
	m.lastAcc = last.Accuracy
	m.hasLast = true
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
