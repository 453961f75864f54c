package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

func (m Model) handleDashboardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.Status = StatusBar{Text: "refreshing energy history", IsError: false}
		return m, m.loadHistoryCmd()
	case "esc":
		return m.switchView(ViewFeed)
	}
	return m, nil
}

func (m Model) loadHistoryCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return EnergyHistoryMsg{Logs: store.EnergyHistory(ctx)}
	}
}

func (m Model) renderDashboardView() string {
	history := m.Dashboard.History
	levels := make([]int, 0, len(history))
	total := 0
	for _, l := range history {
		levels = append(levels, l.Level)
		total += l.Level
	}
	data := views.DashboardPanelData{
		SessionStreak: m.store.Streak(),
		DailyStreak:   model.DailyStreak(history, m.store.Now(), time.Local),
		Levels:        levels,
		Width:         views.PaneWidth,
	}
	if len(levels) > 0 {
		data.Average = total / len(levels)
	}
	if u := m.store.User(); u != nil {
		data.Email = u.Email
	}
	return views.RenderDashboardPanel(data)
}
