package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/commands"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	if msg.Type == tea.KeyRunes {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		m.Palette.Input = m.commandInput.Value()
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var out tea.Cmd
	run := func(commit func() (Model, tea.Cmd)) {
		m, out = commit()
	}
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			m.CurrentView = ViewFeed
			m.Feed.Cursor = 0
			run(func() (Model, tea.Cmd) { return m.dispatch(m.store.AddTask(a.Title)) })
			return commands.Result{Message: fmt.Sprintf("adding: %s", a.Title)}, nil
		},
		Bulk: func(b commands.BulkArgs) (commands.Result, error) {
			m.CurrentView = ViewFeed
			m.Feed.Cursor = 0
			run(func() (Model, tea.Cmd) { return m.dispatch(m.store.AddTasks(b.Titles)) })
			return commands.Result{Message: fmt.Sprintf("adding %d task(s)", len(b.Titles))}, nil
		},
		Done: func(d commands.DoneArgs) (commands.Result, error) {
			task, err := m.resolveTarget(d.Target)
			if err != nil {
				return commands.Result{}, err
			}
			run(func() (Model, tea.Cmd) { return m.dispatch(m.store.CompleteTask(task.ID)) })
			return commands.Result{Message: fmt.Sprintf("completing: %s", task.Title)}, nil
		},
		Audit: func(a commands.AuditArgs) (commands.Result, error) {
			var task model.Task
			if a.Target.Selected() {
				head, ok := m.store.AuditHead()
				if !ok {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "nothing to audit"}
				}
				task = head
			} else {
				var err error
				if task, err = m.resolveTarget(a.Target); err != nil {
					return commands.Result{}, err
				}
			}
			run(func() (Model, tea.Cmd) { return m.audit(task, a.Energy) })
			return commands.Result{Message: fmt.Sprintf("%s: %s", a.Energy.Label(), task.Title)}, nil
		},
		Rename: func(r commands.RenameArgs) (commands.Result, error) {
			task, err := m.resolveTarget(r.Target)
			if err != nil {
				return commands.Result{}, err
			}
			run(func() (Model, tea.Cmd) { return m.dispatch(m.store.RenameTask(task.ID, r.Title)) })
			return commands.Result{Message: fmt.Sprintf("renaming: %s", task.Title)}, nil
		},
		Focus: func(f commands.FocusArgs) (commands.Result, error) {
			if !f.Target.Selected() || m.CurrentView != ViewFocus {
				task, err := m.resolveTarget(f.Target)
				if err != nil {
					return commands.Result{}, err
				}
				m.store.SetActiveTask(task.ID)
			}
			if f.Minutes > 0 && !m.Focus.Countdown.SetMinutes(f.Minutes) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "pause the timer to change its length"}
			}
			run(func() (Model, tea.Cmd) { return m.switchView(ViewFocus) })
			return commands.Result{Message: fmt.Sprintf("focus %dm", m.Focus.Countdown.Minutes())}, nil
		},
		View: func(v commands.ViewArgs) (commands.Result, error) {
			target := map[string]View{"feed": ViewFeed, "focus": ViewFocus, "audit": ViewAudit, "dashboard": ViewDashboard}[v.Name]
			run(func() (Model, tea.Cmd) { return m.switchView(target) })
			return commands.Result{Message: fmt.Sprintf("view: %s", target)}, nil
		},
		Reload: func() (commands.Result, error) {
			run(func() (Model, tea.Cmd) { return m.dispatch(m.store.Reload) })
			return commands.Result{Message: "reloading"}, nil
		},
		Logout: func() (commands.Result, error) {
			out = m.signOutCmd()
			return commands.Result{Message: "signing out"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	return m, out
}

// resolveTarget finds the task a command refers to. The selection is the
// active task in focus mode and the cursor row elsewhere.
func (m Model) resolveTarget(t commands.Target) (model.Task, error) {
	if t.Selected() {
		if m.CurrentView == ViewFocus {
			if task, ok := m.store.ActiveTask(); ok {
				return task, nil
			}
		}
		if task, ok := m.selectedTask(); ok {
			return task, nil
		}
		return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}
	}
	if n, ok := t.Position(); ok {
		items := m.store.Feed()
		if n > len(items) {
			return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task at position %d", n)}
		}
		return items[n-1], nil
	}
	if task, ok := m.store.Task(t.Ref); ok {
		return task, nil
	}
	return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown task %q", t.Ref)}
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}
