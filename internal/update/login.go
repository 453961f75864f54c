package update

import (
	"errors"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/views"
)

var errNoAuth = errors.New("sign-in is not available")

func (m Model) requireSignIn() Model {
	if m.CurrentView == ViewFocus {
		m.stopFocusTicks()
	}
	m.Feed.Adding, m.Feed.Bulk, m.Focus.Editing = false, false, false
	m.CurrentView = ViewLogin
	m.Login.Busy = false
	m.focusLoginField()
	m.Status = StatusBar{Text: "sign in to continue", IsError: false}
	return m
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Login.Busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "shift+tab":
		if m.Login.Mode != LoginModeCode {
			m.Login.Field = 1 - m.Login.Field
			m.focusLoginField()
		}
		return m, nil
	case "ctrl+n":
		if m.Login.Mode == LoginModeSignUp {
			m.Login.Mode = LoginModeSignIn
		} else {
			m.Login.Mode = LoginModeSignUp
		}
		m.Login.Field = 0
		m.Login.Err = ""
		m.focusLoginField()
		return m, nil
	case "ctrl+o":
		if m.Login.Mode == LoginModeCode {
			m.Login.Mode = LoginModeSignIn
		} else {
			m.Login.Mode = LoginModeCode
		}
		m.Login.Field = 0
		m.Login.Err = ""
		m.focusLoginField()
		return m, nil
	case "enter":
		if m.Login.Mode != LoginModeCode && m.Login.Field == 0 {
			m.Login.Field = 1
			m.focusLoginField()
			return m, nil
		}
		cmd := m.signInCmd()
		if cmd == nil {
			m.Login.Err = "enter your details first"
			return m, nil
		}
		m.Login.Busy = true
		m.Login.Err = ""
		return m, cmd
	case "esc":
		m.Quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch {
	case m.Login.Mode == LoginModeCode:
		m.codeInput, cmd = m.codeInput.Update(msg)
	case m.Login.Field == 0:
		m.emailInput, cmd = m.emailInput.Update(msg)
	default:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLoginField() {
	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.codeInput.Blur()
	switch {
	case m.Login.Mode == LoginModeCode:
		m.codeInput.Focus()
	case m.Login.Field == 0:
		m.emailInput.Focus()
	default:
		m.passwordInput.Focus()
	}
}

// signInCmd returns nil when required fields are blank.
func (m Model) signInCmd() tea.Cmd {
	authn, ctx := m.auth, m.ctx
	if authn == nil {
		return func() tea.Msg { return SignInResultMsg{Err: errNoAuth} }
	}
	switch m.Login.Mode {
	case LoginModeCode:
		raw := strings.TrimSpace(m.codeInput.Value())
		if raw == "" {
			return nil
		}
		opts := auth.CallbackOptions{Origin: m.cfg.Origin, Development: m.cfg.Development}
		return func() tea.Msg {
			return SignInResultMsg{Target: auth.ResolveCallback(ctx, callbackQuery(raw), authn, opts)}
		}
	case LoginModeSignUp:
		email, password := strings.TrimSpace(m.emailInput.Value()), m.passwordInput.Value()
		if email == "" || password == "" {
			return nil
		}
		return func() tea.Msg {
			_, err := authn.SignUp(ctx, email, password)
			return SignInResultMsg{Err: err}
		}
	default:
		email, password := strings.TrimSpace(m.emailInput.Value()), m.passwordInput.Value()
		if email == "" || password == "" {
			return nil
		}
		return func() tea.Msg {
			_, err := authn.SignInWithPassword(ctx, email, password)
			return SignInResultMsg{Err: err}
		}
	}
}

// callbackQuery accepts a full sign-in link or a bare code.
func callbackQuery(raw string) url.Values {
	if u, err := url.Parse(raw); err == nil && u.RawQuery != "" {
		return u.Query()
	}
	return url.Values{"code": {raw}}
}

func (m Model) onSignInResult(msg SignInResultMsg) (tea.Model, tea.Cmd) {
	m.Login.Busy = false
	if msg.Err != nil {
		m.Login.Err = msg.Err.Error()
		m.LastError = msg.Err
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return m, nil
	}
	if msg.Target != "" && auth.IsErrorRedirect(msg.Target) {
		cbErr, err := auth.ParseCallbackError(msg.Target)
		if err != nil {
			cbErr = auth.CallbackError{Code: "invalid_redirect", Message: err.Error()}
		}
		m.AuthError = cbErr
		m.codeInput.SetValue("")
		m.CurrentView = ViewAuthError
		m.Status = StatusBar{Text: "sign-in link failed", IsError: true}
		return m, nil
	}

	m.emailInput.SetValue("")
	m.passwordInput.SetValue("")
	m.codeInput.SetValue("")
	m.Login = LoginState{Mode: LoginModeSignIn}
	m.Feed.Cursor = 0
	m.SelectedTaskID = ""
	m.CurrentView = ViewFeed
	m.clampCursor()
	m.Status = StatusBar{Text: "signed in", IsError: false}
	return m, m.loadHistoryCmd()
}

func (m Model) handleAuthErrorKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.AuthError = auth.CallbackError{}
		m.codeInput.SetValue("")
		m.Login = LoginState{Mode: LoginModeSignIn}
		return m.requireSignIn(), nil
	case "q":
		m.Quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) signOutCmd() tea.Cmd {
	authn, ctx := m.auth, m.ctx
	return func() tea.Msg {
		if authn == nil {
			return AppErrorMsg{Err: errNoAuth}
		}
		if err := authn.SignOut(ctx); err != nil {
			return AppErrorMsg{Err: err}
		}
		return SwitchViewMsg{View: ViewLogin}
	}
}

func (m Model) renderLoginView() string {
	data := views.LoginPanelData{Mode: string(m.Login.Mode), ErrorMsg: m.Login.Err}
	if m.Login.Mode == LoginModeCode {
		data.Fields = []string{m.codeInput.View()}
	} else {
		data.Fields = []string{m.emailInput.View(), m.passwordInput.View()}
	}
	if m.Login.Busy {
		data.Busy = "signing in..."
	}
	return views.RenderLoginPanel(data)
}
