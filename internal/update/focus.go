package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

// Screen position of the dial's top-left cell: header row, panel border,
// then three text rows; border plus padding on the left.
const (
	dialTop  = 5
	dialLeft = 2
)

func (m Model) handleFocusKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Focus.Editing {
		return m.handleTitleEditKey(msg)
	}
	switch msg.String() {
	case " ":
		if m.Focus.Countdown.Toggle() {
			m.Focus.tickGen++
			m.Status = StatusBar{Text: "focus running", IsError: false}
			return m, focusTickCmd(m.Focus.tickGen)
		}
		m.stopFocusTicks()
		m.Status = StatusBar{Text: "focus paused", IsError: false}
	case "r":
		m.Focus.Countdown.Reset()
		m.Focus.tickGen++
		m.Status = StatusBar{Text: "focus reset", IsError: false}
	case "+", "=", "up":
		m.adjustFocusMinutes(m.Focus.Countdown.Minutes() + 1)
	case "-", "down":
		m.adjustFocusMinutes(m.Focus.Countdown.Minutes() - 1)
	case "e":
		task, ok := m.store.ActiveTask()
		if !ok {
			m.Status = StatusBar{Text: "no active task to edit", IsError: false}
			return m, nil
		}
		m.Focus.Editing = true
		m.titleInput.SetValue(task.Title)
		m.titleInput.CursorEnd()
		m.titleInput.Focus()
	case "c":
		return m.completeAndExit()
	case "esc":
		return m.switchView(ViewFeed)
	}
	return m, nil
}

func (m Model) handleTitleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Focus.Editing = false
		m.titleInput.Blur()
		return m, nil
	case "enter":
		m.Focus.Editing = false
		m.titleInput.Blur()
		task, ok := m.store.ActiveTask()
		if !ok {
			m.Status = StatusBar{Text: "active task is gone", IsError: true}
			return m, nil
		}
		return m.dispatch(m.store.RenameTask(task.ID, m.titleInput.Value()))
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) handleFocusMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return m, nil
	}
	cx, cy := views.DialCenter()
	dx := float64(msg.X-(dialLeft+cx)) / 2
	dy := float64(msg.Y - (dialTop + cy))
	if dx == 0 && dy == 0 {
		return m, nil
	}
	if abs(dx) > views.DialRadius+1 || abs(dy) > views.DialRadius+1 {
		return m, nil
	}
	m.adjustFocusMinutes(model.DialMinutes(dx, dy))
	return m, nil
}

func (m *Model) adjustFocusMinutes(minutes int) {
	if !m.Focus.Countdown.SetMinutes(minutes) {
		m.Status = StatusBar{Text: "pause the timer to change its length", IsError: false}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("focus length %dm", m.Focus.Countdown.Minutes()), IsError: false}
}

// completeAndExit completes the active task, clears focus and returns to
// the feed.
func (m Model) completeAndExit() (Model, tea.Cmd) {
	task, ok := m.store.ActiveTask()
	if !ok {
		m.Status = StatusBar{Text: "no active task", IsError: false}
		return m, nil
	}
	commit := m.store.CompleteTask(task.ID)
	m.store.SetActiveTask("")
	m.stopFocusTicks()
	m.Focus.Countdown.Reset()
	m.CurrentView = ViewFeed
	m.SelectedTaskID = task.ID
	return m.dispatch(commit)
}

func (m Model) onFocusTick(msg FocusTickMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.Focus.tickGen || m.CurrentView != ViewFocus || !m.Focus.Countdown.Running {
		return m, nil
	}
	if m.Focus.Countdown.Tick() {
		title := "your task"
		if task, ok := m.store.ActiveTask(); ok {
			title = task.Title
		}
		m.Status = StatusBar{Text: "focus session complete", IsError: false}
		m.notify("Focus complete", fmt.Sprintf("Time is up for %s", title), "info")
		return m, nil
	}
	return m, focusTickCmd(m.Focus.tickGen)
}

func (m *Model) stopFocusTicks() {
	m.Focus.Countdown.Pause()
	m.Focus.tickGen++
}

func (m *Model) bootstrapFocusTask() {
	if _, ok := m.store.ActiveTask(); ok {
		return
	}
	if task, ok := m.selectedTask(); ok && task.Status == model.StatusPending {
		m.store.SetActiveTask(task.ID)
	}
}

func (m Model) renderFocusView() string {
	c := m.Focus.Countdown
	data := views.FocusPanelData{
		Timer:   formatDuration(c.RemainingSec),
		Minutes: c.Minutes(),
		Running: c.Running,
		Dial:    views.RenderDial(c.Progress(), formatDuration(c.RemainingSec)),
	}
	if task, ok := m.store.ActiveTask(); ok {
		data.TaskTitle = task.Title
	}
	if m.Focus.Editing {
		data.EditView = m.titleInput.View()
	}
	if c.Running && c.DurationSec > 0 {
		data.ProgressView = m.focusProgress.ViewAs(1 - c.Progress())
	}
	return views.RenderFocusPanel(data)
}

func focusTickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return FocusTickMsg{Gen: gen} })
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
