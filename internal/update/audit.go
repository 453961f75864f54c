package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

// Approximate pixel size of a terminal cell, used to turn a mouse drag
// into a swipe distance.
const (
	cellWidthPx  = 10
	cellHeightPx = 20
)

func (m Model) handleAuditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "right", "l":
		return m.auditHead(model.EnergyGreen)
	case "up", "k":
		return m.auditHead(model.EnergyYellow)
	case "left", "h":
		return m.auditHead(model.EnergyRed)
	case "esc":
		return m.switchView(ViewFeed)
	}
	return m, nil
}

func (m Model) handleAuditMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		m.Audit = AuditState{Dragging: true, StartX: msg.X, StartY: msg.Y}
	case tea.MouseActionRelease:
		if !m.Audit.Dragging {
			return m, nil
		}
		dx := float64(msg.X-m.Audit.StartX) * cellWidthPx
		dy := float64(msg.Y-m.Audit.StartY) * cellHeightPx
		m.Audit = AuditState{}
		energy, ok := model.ClassifySwipe(dx, dy, m.cfg.SwipeThreshold)
		if !ok {
			m.Status = StatusBar{Text: "swipe further to tag", IsError: false}
			return m, nil
		}
		return m.auditHead(energy)
	}
	return m, nil
}

// auditHead tags the oldest completed task.
func (m Model) auditHead(energy model.Energy) (Model, tea.Cmd) {
	task, ok := m.store.AuditHead()
	if !ok {
		m.Status = StatusBar{Text: "nothing to audit", IsError: false}
		return m, nil
	}
	return m.audit(task, energy)
}

func (m Model) audit(task model.Task, energy model.Energy) (Model, tea.Cmd) {
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", energy.Label(), task.Title), IsError: false}
	return m.dispatch(m.store.AuditTask(task.ID, energy))
}

func (m Model) renderAuditView() string {
	queue := m.store.AuditQueue()
	data := views.AuditPanelData{Remaining: len(queue), Dragging: m.Audit.Dragging}
	if len(queue) > 0 {
		head := taskItem(queue[len(queue)-1], false)
		data.Head = &head
	}
	return views.RenderAuditPanel(data)
}
