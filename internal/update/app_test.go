package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/config"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/scheduler"
	"github.com/sandeepkv93/vibe/internal/storage"
	"github.com/sandeepkv93/vibe/internal/vibe"
	"github.com/sandeepkv93/vibe/internal/views"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "lovelace1"
)

type harness struct {
	repo     *storage.SQLRepository
	provider *auth.LocalProvider
	store    *vibe.Store
	bridge   *Bridge
}

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.MigrateUp(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo, err := storage.NewSQLRepository(db)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	provider := auth.NewLocalProvider(repo, tokens, auth.WithPasswordManager(auth.NewPasswordManager().WithCost(bcrypt.MinCost)))
	if _, err := provider.SignUp(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !signedIn {
		if err := provider.SignOut(ctx); err != nil {
			t.Fatalf("sign out: %v", err)
		}
	}

	bridge := NewBridge()
	store := vibe.New(repo, provider, vibe.WithChangeHook(bridge.Changed), vibe.WithNavigator(bridge))
	if err := store.Start(ctx); err != nil {
		t.Fatalf("start store: %v", err)
	}
	t.Cleanup(store.Close)
	return &harness{repo: repo, provider: provider, store: store, bridge: bridge}
}

func (h *harness) model() Model {
	return NewModel(Deps{Store: h.store, Auth: h.provider, Bridge: h.bridge})
}

func (h *harness) userID(t *testing.T) string {
	t.Helper()
	u := h.store.User()
	if u == nil {
		t.Fatal("expected a signed-in user")
	}
	return u.ID
}

// seed inserts titles directly and reloads the store. The last title ends
// up first in the feed.
func (h *harness) seed(t *testing.T, titles ...string) []storage.Task {
	t.Helper()
	ctx := context.Background()
	var out []storage.Task
	for _, title := range titles {
		rows, err := h.repo.CreateTasks(ctx, h.userID(t), []string{title})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, rows...)
		time.Sleep(2 * time.Millisecond)
	}
	if res := h.store.Reload(ctx); res.Err != nil {
		t.Fatalf("reload: %v", res.Err)
	}
	return out
}

func (h *harness) complete(t *testing.T, id string) {
	t.Helper()
	status := string(model.StatusCompleted)
	if _, err := h.repo.UpdateTask(context.Background(), h.userID(t), id, storage.TaskPatch{Status: &status}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res := h.store.Reload(context.Background()); res.Err != nil {
		t.Fatalf("reload: %v", res.Err)
	}
}

func (h *harness) row(t *testing.T, id string) storage.Task {
	t.Helper()
	task, err := h.repo.GetTask(context.Background(), h.userID(t), id)
	if err != nil {
		t.Fatalf("get task %s: %v", id, err)
	}
	return task
}

// collect runs cmd and returns the messages it yields. Batches are
// flattened; timers and waits that do not finish promptly are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		switch typed := msg.(type) {
		case nil, spinner.TickMsg, FocusTickMsg:
			return nil
		case tea.BatchMsg:
			var out []tea.Msg
			for _, c := range typed {
				out = append(out, collect(c)...)
			}
			return out
		default:
			return []tea.Msg{msg}
		}
	case <-time.After(2 * time.Second):
		return nil
	}
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		next, more := m.Update(msg)
		m = run(t, next.(Model), more)
	}
	return m
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelDefaults(t *testing.T) {
	m := newHarness(t, true).model()
	if m.CurrentView != ViewFeed {
		t.Fatalf("expected default view %q, got %q", ViewFeed, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if got := m.Focus.Countdown.Minutes(); got != model.DefaultFocusMinutes {
		t.Fatalf("expected %d minute countdown, got %d", model.DefaultFocusMinutes, got)
	}
}

func TestNewModelSignedOutStartsOnLogin(t *testing.T) {
	m := newHarness(t, false).model()
	if m.CurrentView != ViewLogin {
		t.Fatalf("expected login view, got %q", m.CurrentView)
	}
	next, _ := press(t, m, runes("2"))
	if next.CurrentView != ViewLogin {
		t.Fatalf("view keys should be typed into the form, got view %q", next.CurrentView)
	}
	if next.emailInput.Value() != "2" {
		t.Fatalf("expected key in email field, got %q", next.emailInput.Value())
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := newHarness(t, true).model()
	next, _ := press(t, m, runes("2"))
	if next.CurrentView != ViewFocus {
		t.Fatalf("expected focus view, got %q", next.CurrentView)
	}
	next, _ = press(t, next, runes("3"))
	if next.CurrentView != ViewAudit {
		t.Fatalf("expected audit view, got %q", next.CurrentView)
	}
	next, cmd := press(t, next, runes("4"))
	if next.CurrentView != ViewDashboard {
		t.Fatalf("expected dashboard view, got %q", next.CurrentView)
	}
	next = run(t, next, cmd)
	if !next.Dashboard.Loaded {
		t.Fatal("expected dashboard to load history")
	}
	if out := next.View(); !strings.Contains(out, views.EmptyChartText) {
		t.Fatalf("expected empty chart text: %q", out)
	}

	updated, _ := next.Update(SwitchViewMsg{View: View("Calendar")})
	if updated.(Model).CurrentView != ViewDashboard {
		t.Fatal("expected unknown view to be ignored")
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := newHarness(t, true).model()
	updated, _ := m.Update(SetStatusMsg{Text: "ready", IsError: false})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", next.LastError)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m := newHarness(t, true).model()
	next, cmd := press(t, m, runes("q"))
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m := newHarness(t, true).model()
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	for _, want := range []string{"view: Feed", "user: " + testEmail, "streak: 0", "status: all good", "No tasks yet"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %q", want, out)
		}
	}

	next, _ := press(t, m, runes("?"))
	if !next.HelpVisible || !strings.Contains(next.View(), "help:") {
		t.Fatal("expected help panel")
	}
}

func TestFeedQuickAddWithKeyboard(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m, _ = press(t, m, runes("a"))
	if !m.Feed.Adding {
		t.Fatal("expected add input to open")
	}
	m, _ = press(t, m, runes("write tests"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Feed.Adding {
		t.Fatal("expected add input to close")
	}

	tasks := h.store.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "write tests" || !h.store.IsProvisional(tasks[0].ID) {
		t.Fatalf("expected one provisional task, got %+v", tasks)
	}
	if m.Pending != 1 || !strings.Contains(m.View(), "(saving)") {
		t.Fatalf("expected pending save, pending=%d", m.Pending)
	}

	m = run(t, m, cmd)
	if m.Pending != 0 || m.Status.Text != "task added" {
		t.Fatalf("unexpected state after commit: pending=%d status=%+v", m.Pending, m.Status)
	}
	tasks = h.store.Tasks()
	if len(tasks) != 1 || h.store.IsProvisional(tasks[0].ID) {
		t.Fatalf("expected confirmed task, got %+v", tasks)
	}
	if h.row(t, tasks[0].ID).Title != "write tests" {
		t.Fatal("expected task persisted")
	}
}

func TestFeedQuickAddBlankIsSkipped(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, runes("   "))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if len(h.store.Tasks()) != 0 {
		t.Fatal("blank title must not add a task")
	}
	if m.Status.Text != "title is empty" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestFeedBulkAddKeepsInputOrder(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m, _ = press(t, m, runes("A"))
	if !m.Feed.Bulk {
		t.Fatal("expected bulk editor to open")
	}
	m.bulkArea.SetValue("one\n\n two \nthree")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)
	if m.Status.Text != "3 task(s) added" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	feed := h.store.Feed()
	if len(feed) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(feed))
	}
	for i, want := range []string{"one", "two", "three"} {
		if feed[i].Title != want {
			t.Fatalf("feed[%d] = %q, want %q", i, feed[i].Title, want)
		}
	}

	if res := h.store.Reload(context.Background()); res.Err != nil {
		t.Fatalf("reload: %v", res.Err)
	}
	for i, want := range []string{"one", "two", "three"} {
		if got := h.store.Feed()[i].Title; got != want {
			t.Fatalf("after reload feed[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestFeedCompleteMovesTaskDown(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "older", "newer")
	m := h.model()

	m, cmd := press(t, m, runes("x"))
	feed := h.store.Feed()
	if feed[0].ID != rows[0].ID || feed[1].Status != model.StatusCompleted {
		t.Fatalf("expected completed task to sort after pending, got %+v", feed)
	}
	m = run(t, m, cmd)
	if m.Status.Text != "task completed" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	if h.row(t, rows[1].ID).Status != string(model.StatusCompleted) {
		t.Fatal("expected completion persisted")
	}

	// Completing again is a no-op.
	m, _ = press(t, m, runes("j"))
	m, cmd = press(t, m, runes("x"))
	m = run(t, m, cmd)
	if !strings.Contains(m.Status.Text, "cannot complete") {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestFailedCommitRevertsAndSchedulesReconcile(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "fragile")
	engine := scheduler.NewEngine(4)
	m := NewModel(Deps{Store: h.store, Auth: h.provider, Bridge: h.bridge, Scheduler: engine})

	if err := h.repo.Close(); err != nil {
		t.Fatalf("close repo: %v", err)
	}
	m, cmd := press(t, m, runes("x"))
	m = run(t, m, cmd)

	if !m.Status.IsError || !strings.Contains(m.Status.Text, "complete failed") {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
	task, ok := h.store.Task(rows[0].ID)
	if !ok || task.Status != model.StatusPending {
		t.Fatalf("expected reverted task, got %+v", task)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one reconcile queued, got %d", engine.Pending())
	}
	if len(m.Notifications) == 0 || m.Notifications[len(m.Notifications)-1].Level != "error" {
		t.Fatal("expected error notification")
	}
}

func TestReconcileEventReloads(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	if _, err := h.repo.CreateTasks(context.Background(), h.userID(t), []string{"added elsewhere"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, cmd := m.Update(ReconcileDueMsg{Event: scheduler.Event{Kind: scheduler.KindReconcile, Reason: "complete"}})
	m = run(t, updated.(Model), cmd)
	if m.Status.Text != "tasks reloaded" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	if len(h.store.Tasks()) != 1 {
		t.Fatal("expected reconcile to pick up the new row")
	}
}

func TestAuditSwipeWithMouse(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "deep work")
	h.complete(t, rows[0].ID)
	m := h.model()
	m, _ = press(t, m, runes("3"))
	if !strings.Contains(m.View(), "deep work") {
		t.Fatal("expected audit head on screen")
	}

	updated, _ := m.Update(tea.MouseMsg{X: 10, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = updated.(Model)
	if !m.Audit.Dragging {
		t.Fatal("expected drag to start")
	}
	updated, cmd := m.Update(tea.MouseMsg{X: 25, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	m = run(t, updated.(Model), cmd)

	row := h.row(t, rows[0].ID)
	if row.Status != string(model.StatusAudited) || row.Energy != string(model.EnergyGreen) {
		t.Fatalf("expected green audit, got %+v", row)
	}
	if h.store.Streak() != 1 {
		t.Fatalf("expected streak 1, got %d", h.store.Streak())
	}
	if len(m.Dashboard.History) != 1 || m.Dashboard.History[0].Level != 90 {
		t.Fatalf("expected one energy log at 90, got %+v", m.Dashboard.History)
	}
	if !strings.Contains(m.View(), "All caught up") {
		t.Fatal("expected empty audit queue")
	}
}

func TestAuditShortSwipeAndKeys(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "a", "b")
	h.complete(t, rows[0].ID)
	h.complete(t, rows[1].ID)
	m := h.model()
	m, _ = press(t, m, runes("3"))

	updated, _ := m.Update(tea.MouseMsg{X: 10, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	updated, cmd := updated.(Model).Update(tea.MouseMsg{X: 15, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	m = updated.(Model)
	if cmd != nil || m.Status.Text != "swipe further to tag" {
		t.Fatalf("expected short swipe to be ignored, status=%+v", m.Status)
	}

	// The oldest completed task sits on top, so "a" is audited before "b".
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = run(t, m, cmd)
	if got := h.row(t, rows[0].ID); got.Energy != string(model.EnergyYellow) {
		t.Fatalf("expected yellow on oldest, got %+v", got)
	}
	if got := h.row(t, rows[1].ID); got.Status != string(model.StatusCompleted) {
		t.Fatalf("newer task must wait its turn, got %+v", got)
	}
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = run(t, m, cmd)
	if got := h.row(t, rows[1].ID); got.Energy != string(model.EnergyRed) {
		t.Fatalf("expected red on newest, got %+v", got)
	}
	if len(m.Dashboard.History) != 2 || m.Dashboard.History[0].Level != 50 || m.Dashboard.History[1].Level != 10 {
		t.Fatalf("unexpected history: %+v", m.Dashboard.History)
	}
	if h.store.Streak() != 2 {
		t.Fatalf("expected streak 2, got %d", h.store.Streak())
	}
}

func TestFocusTimerTicksOnlyWhileRunning(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "write report")
	m := h.model()

	m, _ = press(t, m, runes("f"))
	if m.CurrentView != ViewFocus || h.store.ActiveTaskID() != rows[0].ID {
		t.Fatalf("expected focus on task, view=%q active=%q", m.CurrentView, h.store.ActiveTaskID())
	}

	m, cmd := press(t, m, runes(" "))
	if !m.Focus.Countdown.Running || cmd == nil {
		t.Fatal("expected running timer with a tick")
	}
	start := m.Focus.Countdown.RemainingSec
	gen := m.Focus.tickGen

	updated, cmd := m.Update(FocusTickMsg{Gen: gen})
	m = updated.(Model)
	if m.Focus.Countdown.RemainingSec != start-1 || cmd == nil {
		t.Fatalf("expected one second elapsed and another tick, remaining=%d", m.Focus.Countdown.RemainingSec)
	}

	updated, cmd = m.Update(FocusTickMsg{Gen: gen - 1})
	m = updated.(Model)
	if m.Focus.Countdown.RemainingSec != start-1 || cmd != nil {
		t.Fatal("stale tick must be ignored")
	}

	m, _ = press(t, m, runes("1"))
	if m.Focus.Countdown.Running {
		t.Fatal("leaving focus should pause the timer")
	}
	updated, cmd = m.Update(FocusTickMsg{Gen: gen})
	if cmd != nil || updated.(Model).Focus.Countdown.RemainingSec != start-1 {
		t.Fatal("tick after leaving focus must not advance")
	}
}

func TestFocusCountdownFinishNotifies(t *testing.T) {
	h := newHarness(t, true)
	h.seed(t, "ship it")
	notifier := &recordingNotifier{}
	cfg := config.Default()
	cfg.DesktopNotifications = true
	m := NewModelWithConfig(Deps{Store: h.store, Auth: h.provider, Notifier: notifier}, cfg)
	m, _ = press(t, m, runes("2"))
	m.Focus.Countdown = model.Countdown{DefaultSec: 60, DurationSec: 60, RemainingSec: 1, Running: true}

	updated, cmd := m.Update(FocusTickMsg{Gen: m.Focus.tickGen})
	m = updated.(Model)
	if cmd != nil || m.Focus.Countdown.Running || m.Focus.Countdown.RemainingSec != 0 {
		t.Fatalf("expected countdown to stop at zero: %+v", m.Focus.Countdown)
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].Body, "ship it") {
		t.Fatalf("expected desktop notification, got %+v", notifier.sent)
	}
}

func TestFocusDialMouseSetsMinutes(t *testing.T) {
	h := newHarness(t, true)
	h.seed(t, "task")
	m := h.model()
	m, _ = press(t, m, runes("2"))

	cx, cy := views.DialCenter()
	updated, _ := m.Update(tea.MouseMsg{X: dialLeft + cx + 2*views.DialRadius, Y: dialTop + cy, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = updated.(Model)
	if got := m.Focus.Countdown.Minutes(); got != 15 {
		t.Fatalf("expected 15 minutes at 3 o'clock, got %d", got)
	}
	updated, _ = m.Update(tea.MouseMsg{X: dialLeft + cx, Y: dialTop, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	m = updated.(Model)
	if got := m.Focus.Countdown.Minutes(); got != 60 {
		t.Fatalf("expected 60 minutes at 12 o'clock, got %d", got)
	}

	m, _ = press(t, m, runes(" "))
	updated, _ = m.Update(tea.MouseMsg{X: dialLeft + cx + 2*views.DialRadius, Y: dialTop + cy, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := updated.(Model).Focus.Countdown.Minutes(); got != 60 {
		t.Fatalf("dial must be locked while running, got %d", got)
	}
}

func TestFocusEditTitleThenCompleteAndExit(t *testing.T) {
	h := newHarness(t, true)
	rows := h.seed(t, "draft")
	m := h.model()
	m, _ = press(t, m, runes("f"))

	m, _ = press(t, m, runes("e"))
	if !m.Focus.Editing || m.titleInput.Value() != "draft" {
		t.Fatalf("expected title editor with current title, got %q", m.titleInput.Value())
	}
	m.titleInput.SetValue("  final draft  ")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if got := h.row(t, rows[0].ID).Title; got != "final draft" {
		t.Fatalf("expected trimmed rename, got %q", got)
	}

	m, cmd = press(t, m, runes("c"))
	if m.CurrentView != ViewFeed || h.store.ActiveTaskID() != "" {
		t.Fatalf("expected exit to feed with focus cleared, view=%q", m.CurrentView)
	}
	m = run(t, m, cmd)
	if got := h.row(t, rows[0].ID).Status; got != string(model.StatusCompleted) {
		t.Fatalf("expected completed, got %q", got)
	}
}

func TestPaletteCommands(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()

	exec := func(line string) {
		t.Helper()
		m, _ = press(t, m, runes("/"))
		if !m.Palette.Active {
			t.Fatal("expected palette to open")
		}
		m, _ = press(t, m, runes(line))
		var cmd tea.Cmd
		m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = run(t, m, cmd)
	}

	exec("bulk pay rent; call mom")
	if len(h.store.Tasks()) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(h.store.Tasks()))
	}
	exec("done 2")
	if got := h.store.Feed()[1]; got.Title != "call mom" || got.Status != model.StatusCompleted {
		t.Fatalf("expected call mom completed, got %+v", got)
	}
	exec("audit green")
	if h.store.Streak() != 1 {
		t.Fatal("expected audit via palette")
	}
	exec("rename 1 pay rent today")
	if m.Status.IsError {
		t.Fatalf("unexpected error: %+v", m.Status)
	}
	exec("rename #1 pay rent today")
	if got := h.store.Feed()[0].Title; got != "pay rent today" {
		t.Fatalf("expected rename, got %q", got)
	}
	exec("view dashboard")
	if m.CurrentView != ViewDashboard || len(m.Dashboard.History) != 1 {
		t.Fatalf("expected dashboard with history, view=%q history=%d", m.CurrentView, len(m.Dashboard.History))
	}
	exec("done 9")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "no task at position 9") {
		t.Fatalf("expected position error, got %+v", m.Status)
	}
	exec("snooze everything")
	if !m.Status.IsError {
		t.Fatal("expected unknown command error")
	}
}

func TestSignOutReturnsToLogin(t *testing.T) {
	h := newHarness(t, true)
	h.seed(t, "private")
	m := h.model()

	m, cmd := press(t, m, runes("L"))
	m = run(t, m, cmd)
	if m.CurrentView != ViewLogin {
		t.Fatalf("expected login view, got %q", m.CurrentView)
	}
	if h.store.User() != nil || len(h.store.Tasks()) != 0 {
		t.Fatal("expected store cleared on sign out")
	}
}

func TestStoreChangeWithoutSessionShowsLogin(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	if err := h.provider.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	updated, cmd := m.Update(StoreChangedMsg{})
	if updated.(Model).CurrentView != ViewLogin {
		t.Fatal("expected login after session loss")
	}
	if cmd == nil {
		t.Fatal("expected to keep listening for changes")
	}
}

func TestMutationWhileSignedOutRequestsSignIn(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()
	m.CurrentView = ViewFeed

	commit := h.store.AddTask("sneaky")
	msg := m.waitForSignInRequest()()
	if _, ok := msg.(RequireSignInMsg); !ok {
		t.Fatalf("expected sign-in request, got %T", msg)
	}
	updated, _ := m.Update(msg)
	if updated.(Model).CurrentView != ViewLogin {
		t.Fatal("expected login view")
	}

	m.CurrentView = ViewFeed
	updated, _ = m.Update(CommitResultMsg{Result: commit(context.Background())})
	if updated.(Model).CurrentView != ViewLogin {
		t.Fatal("expected unauthenticated result to show login")
	}
}

func TestLoginWithPassword(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()

	m, _ = press(t, m, runes(testEmail))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Login.Field != 1 {
		t.Fatal("expected enter to move to the password field")
	}
	m, _ = press(t, m, runes("wrong-pass1"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Login.Busy {
		t.Fatal("expected busy while signing in")
	}
	m = run(t, m, cmd)
	if m.CurrentView != ViewLogin || m.Login.Err == "" || !m.Status.IsError {
		t.Fatalf("expected failed sign-in, view=%q err=%q", m.CurrentView, m.Login.Err)
	}

	m.passwordInput.SetValue(testPassword)
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if m.CurrentView != ViewFeed || m.Status.Text != "signed in" {
		t.Fatalf("expected feed after sign-in, view=%q status=%+v", m.CurrentView, m.Status)
	}
	if u := h.store.User(); u == nil || u.Email != testEmail {
		t.Fatal("expected store bound to the user")
	}
}

func TestLoginWithCodeAndCallbackErrors(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.Login.Mode != LoginModeCode {
		t.Fatalf("expected code mode, got %q", m.Login.Mode)
	}
	m, _ = press(t, m, runes("http://localhost:3000/auth/callback?error=access_denied&error_description=Link+expired"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if m.CurrentView != ViewAuthError || m.AuthError.Code != "access_denied" || m.AuthError.Message != "Link expired" {
		t.Fatalf("expected auth error view, got view=%q err=%+v", m.CurrentView, m.AuthError)
	}
	if out := m.View(); !strings.Contains(out, "access_denied") {
		t.Fatalf("expected error code on screen: %q", out)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.CurrentView != ViewLogin || m.Login.Mode != LoginModeSignIn {
		t.Fatalf("expected back to sign in, view=%q mode=%q", m.CurrentView, m.Login.Mode)
	}
	if v := m.codeInput.Value(); v != "" {
		t.Fatalf("expected the failed link to be cleared, got %q", v)
	}

	code, err := h.provider.RequestCode(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m, _ = press(t, m, runes(code))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if m.CurrentView != ViewFeed {
		t.Fatalf("expected feed after code sign-in, got %q", m.CurrentView)
	}

	// A used code cannot be exchanged again.
	if err := h.provider.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	m = m.requireSignIn()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m, _ = press(t, m, runes(code))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)
	if m.CurrentView != ViewAuthError || m.AuthError.Code != auth.MissingCode {
		t.Fatalf("expected missing_code error, got view=%q err=%+v", m.CurrentView, m.AuthError)
	}
}

func TestBridgeSignalsDoNotBlock(t *testing.T) {
	b := NewBridge()
	for i := 0; i < 5; i++ {
		b.Changed()
		b.RequireSignIn()
	}
	if len(b.changes) != 1 || len(b.signIn) != 1 {
		t.Fatalf("expected merged signals, got %d/%d", len(b.changes), len(b.signIn))
	}
}
