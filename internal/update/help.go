package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/vibe/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- `%s` %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Feed, Action: "switch to Feed"},
		{Key: m.Keys.Focus, Action: "switch to Focus"},
		{Key: m.Keys.Audit, Action: "switch to Audit"},
		{Key: m.Keys.Dashboard, Action: "switch to Dashboard"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Logout, Action: "sign out"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewFeed:
		return []KeyBinding{
			{Key: "a", Action: "add a task"},
			{Key: "A", Action: "add several tasks, one per line"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "x", Action: "complete selected task"},
			{Key: "f", Action: "focus on selected task"},
			{Key: "r", Action: "reload from the store"},
		}
	case ViewFocus:
		return []KeyBinding{
			{Key: "space", Action: "start/pause timer"},
			{Key: "r", Action: "reset timer"},
			{Key: "+/-", Action: "change length"},
			{Key: "click", Action: "set length on the dial"},
			{Key: "e", Action: "edit title"},
			{Key: "c", Action: "complete and exit"},
		}
	case ViewAudit:
		return []KeyBinding{
			{Key: "right", Action: "energizing"},
			{Key: "up", Action: "neutral"},
			{Key: "left", Action: "draining"},
			{Key: "drag", Action: "swipe to tag"},
		}
	case ViewDashboard:
		return []KeyBinding{
			{Key: "r", Action: "refresh energy history"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
