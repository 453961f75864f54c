package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/config"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/scheduler"
	"github.com/sandeepkv93/vibe/internal/vibe"
)

type View string

const (
	ViewFeed      View = "Feed"
	ViewFocus     View = "Focus"
	ViewAudit     View = "Audit"
	ViewDashboard View = "Dashboard"
	ViewLogin     View = "Login"
	ViewAuthError View = "AuthError"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Feed      string
	Focus     string
	Audit     string
	Dashboard string
	Logout    string
	Help      string
	Quit      string
}

// Authenticator is the part of the auth provider the sign-in screens use.
type Authenticator interface {
	auth.CodeExchanger
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
}

// Deps are the collaborators the model drives. Store is required.
type Deps struct {
	Store     *vibe.Store
	Auth      Authenticator
	Scheduler *scheduler.Engine
	Bridge    *Bridge
	Notifier  DesktopNotifier
	Context   context.Context
}

type FeedState struct {
	Cursor int
	Adding bool
	Bulk   bool
}

type FocusState struct {
	Countdown model.Countdown
	Editing   bool
	tickGen   int
}

type AuditState struct {
	Dragging bool
	StartX   int
	StartY   int
}

type LoginMode string

const (
	LoginModeSignIn LoginMode = "sign in"
	LoginModeSignUp LoginMode = "sign up"
	LoginModeCode   LoginMode = "sign in with code"
)

type LoginState struct {
	Mode  LoginMode
	Field int
	Busy  bool
	Err   string
}

type DashboardState struct {
	History []model.EnergyLog
	Loaded  bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Feed           FeedState
	Focus          FocusState
	Audit          AuditState
	Login          LoginState
	Dashboard      DashboardState
	AuthError      auth.CallbackError
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	Pending        int
	Scheduler      *scheduler.Engine

	store  *vibe.Store
	auth   Authenticator
	bridge *Bridge
	ctx    context.Context
	cfg    config.Config

	addInput      textinput.Model
	bulkArea      textarea.Model
	titleInput    textinput.Model
	commandInput  textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	codeInput     textinput.Model
	focusProgress progress.Model
	syncSpinner   spinner.Model
	helpModel     help.Model
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// CommitResultMsg carries the outcome of a store operation's remote write.
type CommitResultMsg struct {
	Result vibe.Result
}

type StoreChangedMsg struct{}

type RequireSignInMsg struct{}

type EnergyHistoryMsg struct {
	Logs []model.EnergyLog
}

type FocusTickMsg struct {
	Gen int
}

type ReconcileDueMsg struct {
	Event scheduler.Event
}

// SignInResultMsg reports a finished sign-in. Target is set for code
// sign-ins and is the resolved callback redirect.
type SignInResultMsg struct {
	Err    error
	Target string
}

func NewModel(deps Deps) Model {
	return NewModelWithConfig(deps, config.Default())
}

func NewModelWithConfig(deps Deps, cfg config.Config) Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		CurrentView:    ViewFeed,
		Scheduler:      deps.Scheduler,
		DesktopEnabled: cfg.DesktopNotifications,
		notifier:       NoopDesktopNotifier{},
		store:          deps.Store,
		auth:           deps.Auth,
		bridge:         deps.Bridge,
		ctx:            ctx,
		cfg:            cfg,
		Focus:          FocusState{Countdown: model.NewCountdown(cfg.FocusMinutes)},
		Login:          LoginState{Mode: LoginModeSignIn},
		Keys: GlobalKeyMap{
			Feed:      "1",
			Focus:     "2",
			Audit:     "3",
			Dashboard: "4",
			Logout:    "L",
			Help:      "?",
			Quit:      "q",
		},
	}
	if deps.Notifier != nil {
		m.notifier = deps.Notifier
	}
	m.initBubbleComponents()
	if m.store.User() == nil {
		m = m.requireSignIn()
		m.Status = StatusBar{}
	}
	return m
}

func (m *Model) initBubbleComponents() {
	m.addInput = textinput.New()
	m.addInput.Prompt = "add> "
	m.addInput.Placeholder = "What needs doing?"
	m.addInput.CharLimit = 256
	m.addInput.Width = 48

	m.bulkArea = textarea.New()
	m.bulkArea.SetWidth(54)
	m.bulkArea.SetHeight(6)
	m.bulkArea.ShowLineNumbers = false
	m.bulkArea.Placeholder = "One task per line, ctrl+s to add all"

	m.titleInput = textinput.New()
	m.titleInput.Prompt = "title> "
	m.titleInput.CharLimit = 256
	m.titleInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.emailInput = textinput.New()
	m.emailInput.Prompt = "email: "
	m.emailInput.CharLimit = 254
	m.emailInput.Width = 40

	m.passwordInput = textinput.New()
	m.passwordInput.Prompt = "password: "
	m.passwordInput.EchoMode = textinput.EchoPassword
	m.passwordInput.EchoCharacter = '•'
	m.passwordInput.CharLimit = 128
	m.passwordInput.Width = 40

	m.codeInput = textinput.New()
	m.codeInput.Prompt = "code or link: "
	m.codeInput.CharLimit = 2048
	m.codeInput.Width = 40

	m.focusProgress = progress.New(progress.WithDefaultGradient())
	m.focusProgress.Width = 40

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}
