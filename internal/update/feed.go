package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

func (m Model) handleFeedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Feed.Adding {
		return m.handleAddInputKey(msg)
	}
	if m.Feed.Bulk {
		return m.handleBulkKey(msg)
	}

	items := m.store.Feed()
	switch msg.String() {
	case "up", "k":
		if m.Feed.Cursor > 0 {
			m.Feed.Cursor--
		}
		m.syncSelectedTask(items)
	case "down", "j":
		if m.Feed.Cursor < len(items)-1 {
			m.Feed.Cursor++
		}
		m.syncSelectedTask(items)
	case "a":
		m.Feed.Adding = true
		m.addInput.SetValue("")
		m.addInput.Focus()
	case "A":
		m.Feed.Bulk = true
		m.bulkArea.Reset()
		m.bulkArea.Focus()
	case "x", "enter":
		task, ok := m.selectedTask()
		if !ok {
			m.Status = StatusBar{Text: "no task selected", IsError: false}
			return m, nil
		}
		return m.dispatch(m.store.CompleteTask(task.ID))
	case "f":
		task, ok := m.selectedTask()
		if !ok {
			m.Status = StatusBar{Text: "no task selected", IsError: false}
			return m, nil
		}
		m.store.SetActiveTask(task.ID)
		return m.switchView(ViewFocus)
	case "r":
		m.Status = StatusBar{Text: "reloading", IsError: false}
		return m.dispatch(m.store.Reload)
	}
	return m, nil
}

func (m Model) handleAddInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Feed.Adding = false
		m.addInput.Blur()
		m.addInput.SetValue("")
		return m, nil
	case "enter":
		title := m.addInput.Value()
		m.Feed.Adding = false
		m.addInput.Blur()
		m.addInput.SetValue("")
		m.Feed.Cursor = 0
		next, cmd := m.dispatch(m.store.AddTask(title))
		next.syncSelectedTask(next.store.Feed())
		return next, cmd
	}
	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m Model) handleBulkKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Feed.Bulk = false
		m.bulkArea.Blur()
		m.bulkArea.Reset()
		return m, nil
	case "ctrl+s":
		titles := model.SplitTitles(m.bulkArea.Value())
		m.Feed.Bulk = false
		m.bulkArea.Blur()
		m.bulkArea.Reset()
		m.Feed.Cursor = 0
		return m.dispatch(m.store.AddTasks(titles))
	}
	var cmd tea.Cmd
	m.bulkArea, cmd = m.bulkArea.Update(msg)
	return m, cmd
}

func (m Model) selectedTask() (model.Task, bool) {
	items := m.store.Feed()
	if m.Feed.Cursor < 0 || m.Feed.Cursor >= len(items) {
		return model.Task{}, false
	}
	return items[m.Feed.Cursor], true
}

func (m *Model) syncSelectedTask(items []model.Task) {
	if m.Feed.Cursor >= 0 && m.Feed.Cursor < len(items) {
		m.SelectedTaskID = items[m.Feed.Cursor].ID
		return
	}
	m.SelectedTaskID = ""
}

// clampCursor keeps the feed cursor on the selected task when the list
// reorders and inside the list when it shrinks.
func (m *Model) clampCursor() {
	items := m.store.Feed()
	if m.SelectedTaskID != "" {
		for i, t := range items {
			if t.ID == m.SelectedTaskID {
				m.Feed.Cursor = i
				return
			}
		}
	}
	if m.Feed.Cursor >= len(items) {
		m.Feed.Cursor = len(items) - 1
	}
	if m.Feed.Cursor < 0 {
		m.Feed.Cursor = 0
	}
	m.syncSelectedTask(items)
}

func (m Model) renderFeedView() string {
	items := m.store.Feed()
	data := views.FeedPanelData{Cursor: m.Feed.Cursor, Items: make([]views.TaskItemData, 0, len(items))}
	for _, t := range items {
		data.Items = append(data.Items, taskItem(t, m.store.IsProvisional(t.ID)))
	}
	if m.Feed.Adding {
		data.InputView = m.addInput.View()
	}
	if m.Feed.Bulk {
		data.BulkView = m.bulkArea.View()
	}
	return views.RenderFeedPanel(data)
}

func taskItem(t model.Task, provisional bool) views.TaskItemData {
	return views.TaskItemData{
		ID:          t.ID,
		Title:       t.Title,
		Status:      string(t.Status),
		Energy:      string(t.Energy),
		EnergyLabel: t.Energy.Label(),
		Provisional: provisional,
	}
}
