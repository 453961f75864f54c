package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/scheduler"
	"github.com/sandeepkv93/vibe/internal/vibe"
	"github.com/sandeepkv93/vibe/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForStoreChange(), m.waitForSignInRequest()}
	if m.Scheduler != nil {
		cmds = append(cmds, waitForEventCmd(m.Scheduler.C()))
	}
	if m.store.User() != nil {
		cmds = append(cmds, m.loadHistoryCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.MouseMsg:
		return m.handleMouse(typed)
	case spinner.TickMsg:
		if m.Pending > 0 {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			return m.switchView(typed.View)
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case CommitResultMsg:
		return m.onCommitResult(typed.Result)
	case StoreChangedMsg:
		m.clampCursor()
		if m.store.User() == nil && !isAuthView(m.CurrentView) {
			m = m.requireSignIn()
		}
		return m, m.waitForStoreChange()
	case RequireSignInMsg:
		if !isAuthView(m.CurrentView) {
			m = m.requireSignIn()
		}
		return m, m.waitForSignInRequest()
	case EnergyHistoryMsg:
		m.Dashboard.History = typed.Logs
		m.Dashboard.Loaded = true
		return m, nil
	case FocusTickMsg:
		return m.onFocusTick(typed)
	case ReconcileDueMsg:
		return m.onScheduledEvent(typed.Event)
	case SignInResultMsg:
		return m.onSignInResult(typed)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	switch m.CurrentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewAuthError:
		return m.handleAuthErrorKey(msg)
	}
	if m.capturingInput() {
		return m.routeViewKey(msg)
	}

	switch keyStr {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active", IsError: false}
		return m, nil
	case m.Keys.Feed:
		return m.switchView(ViewFeed)
	case m.Keys.Focus:
		return m.switchView(ViewFocus)
	case m.Keys.Audit:
		return m.switchView(ViewAudit)
	case m.Keys.Dashboard:
		return m.switchView(ViewDashboard)
	case m.Keys.Logout:
		return m, m.signOutCmd()
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown", IsError: false}
		} else {
			m.Status = StatusBar{Text: "help hidden", IsError: false}
		}
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	return m.routeViewKey(msg)
}

func (m Model) routeViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.CurrentView {
	case ViewFeed:
		return m.handleFeedKey(msg)
	case ViewFocus:
		return m.handleFocusKey(msg)
	case ViewAudit:
		return m.handleAuditKey(msg)
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch m.CurrentView {
	case ViewFocus:
		return m.handleFocusMouse(msg)
	case ViewAudit:
		return m.handleAuditMouse(msg)
	}
	return m, nil
}

func (m Model) capturingInput() bool {
	return m.Feed.Adding || m.Feed.Bulk || m.Focus.Editing
}

// switchView changes screens. Leaving focus pauses the countdown and
// invalidates its pending tick.
func (m Model) switchView(v View) (Model, tea.Cmd) {
	if m.CurrentView == ViewFocus && v != ViewFocus {
		m.stopFocusTicks()
		m.Focus.Editing = false
	}
	if v == ViewLogin || (m.store.User() == nil && v != ViewAuthError) {
		return m.requireSignIn(), nil
	}
	m.CurrentView = v
	switch v {
	case ViewFocus:
		m.bootstrapFocusTask()
	case ViewDashboard:
		return m, m.loadHistoryCmd()
	}
	return m, nil
}

// dispatch runs a store operation's remote write in the background.
func (m Model) dispatch(commit vibe.Commit) (Model, tea.Cmd) {
	m.Pending++
	cmds := []tea.Cmd{m.runCommit(commit)}
	if m.Pending == 1 {
		cmds = append(cmds, m.syncSpinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) runCommit(commit vibe.Commit) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return CommitResultMsg{Result: commit(ctx)}
	}
}

func (m Model) onCommitResult(res vibe.Result) (tea.Model, tea.Cmd) {
	if m.Pending > 0 {
		m.Pending--
	}
	if errors.Is(res.Err, vibe.ErrUnauthenticated) {
		return m.requireSignIn(), nil
	}

	switch {
	case res.Skipped:
		m.Status = StatusBar{Text: skipText(res), IsError: false}
	case res.Err != nil:
		m.LastError = res.Err
		m.Status = StatusBar{Text: fmt.Sprintf("%s failed: %v", res.Op, res.Err), IsError: true}
		m.notify("Error", m.Status.Text, "error")
	default:
		m.Status = StatusBar{Text: successText(res), IsError: false}
	}
	if res.LogErr != nil {
		m.LastError = res.LogErr
		m.Status = StatusBar{Text: fmt.Sprintf("energy log failed: %v", res.LogErr), IsError: true}
		m.notify("Error", m.Status.Text, "error")
	}
	if res.NeedsReconcile() {
		m.schedule(scheduler.KindReconcile, string(res.Op), m.cfg.ReconcileDelay)
	}
	m.clampCursor()

	if res.Op == vibe.OpAudit && !res.Skipped {
		if m.Scheduler != nil {
			m.schedule(scheduler.KindHistory, "audit", historyDelay)
			return m, nil
		}
		return m, m.loadHistoryCmd()
	}
	return m, nil
}

func (m Model) onScheduledEvent(ev scheduler.Event) (tea.Model, tea.Cmd) {
	var next tea.Cmd
	if m.Scheduler != nil {
		next = waitForEventCmd(m.Scheduler.C())
	}
	switch ev.Kind {
	case scheduler.KindReconcile:
		if m.store.User() == nil {
			return m, next
		}
		var cmd tea.Cmd
		m, cmd = m.dispatch(m.store.Reload)
		return m, tea.Batch(cmd, next)
	case scheduler.KindHistory:
		return m, tea.Batch(m.loadHistoryCmd(), next)
	}
	return m, next
}

func (m *Model) schedule(kind scheduler.Kind, reason string, delay time.Duration) {
	if m.Scheduler == nil {
		return
	}
	if _, err := m.Scheduler.After(kind, reason, delay); err != nil {
		m.LastError = err
	}
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := ""
	switch m.CurrentView {
	case ViewFeed:
		leftPane = m.renderFeedView()
	case ViewFocus:
		leftPane = m.renderFocusView()
	case ViewAudit:
		leftPane = m.renderAuditView()
	case ViewDashboard:
		leftPane = m.renderDashboardView()
	case ViewLogin:
		leftPane = m.renderLoginView()
	case ViewAuthError:
		leftPane = views.RenderAuthErrorPanel(views.AuthErrorPanelData{Code: m.AuthError.Code, Message: m.AuthError.Message})
	}
	rightPane := strings.TrimSpace(m.renderCommandPalette() + m.renderHelpIfVisible())

	notificationView := ""
	if m.Pending > 0 {
		notificationView = fmt.Sprintf("saving: %s %d pending", m.syncSpinner.View(), m.Pending)
	}
	notificationView = strings.TrimSpace(strings.Join([]string{
		notificationView,
		strings.TrimSpace(m.renderNotificationsView()),
	}, "\n"))

	user := "-"
	if u := m.store.User(); u != nil {
		user = u.Email
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("vibe | view: %s | user: %s | streak: %d", m.CurrentView, user, m.store.Streak()),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s feed | %s focus | %s audit | %s dashboard | / cmd | %s logout | %s help | %s quit",
			m.Keys.Feed, m.Keys.Focus, m.Keys.Audit, m.Keys.Dashboard, m.Keys.Logout, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewFeed, ViewFocus, ViewAudit, ViewDashboard, ViewLogin, ViewAuthError:
		return true
	default:
		return false
	}
}

func isAuthView(v View) bool {
	return v == ViewLogin || v == ViewAuthError
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReconcileDueMsg{Event: ev}
	}
}
