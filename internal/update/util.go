package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/vibe"
	"github.com/sandeepkv93/vibe/internal/views"
)

// historyDelay batches history refreshes after quick successive audits.
const historyDelay = 300 * time.Millisecond

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func formatDuration(totalSec int) string {
	if totalSec < 0 {
		totalSec = 0
	}
	min := totalSec / 60
	sec := totalSec % 60
	return fmt.Sprintf("%02d:%02d", min, sec)
}

func successText(res vibe.Result) string {
	switch res.Op {
	case vibe.OpAdd:
		return "task added"
	case vibe.OpAddBulk:
		return fmt.Sprintf("%d task(s) added", len(res.TaskIDs))
	case vibe.OpComplete:
		return "task completed"
	case vibe.OpRename:
		return "task renamed"
	case vibe.OpAudit:
		return "energy logged"
	case vibe.OpReload:
		return "tasks reloaded"
	default:
		return string(res.Op)
	}
}

func skipText(res vibe.Result) string {
	switch {
	case errors.Is(res.Err, vibe.ErrEmptyTitle):
		return "title is empty"
	case errors.Is(res.Err, vibe.ErrNoChange):
		return "title unchanged"
	case errors.Is(res.Err, vibe.ErrProvisional):
		return "task is still saving"
	case errors.Is(res.Err, vibe.ErrTaskNotFound):
		return "task not found"
	case errors.Is(res.Err, model.ErrInvalidTransition):
		return fmt.Sprintf("cannot %s this task", res.Op)
	case res.Err != nil:
		return res.Err.Error()
	default:
		return fmt.Sprintf("%s skipped", res.Op)
	}
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		_ = m.notifier.Send(n)
	}
}
