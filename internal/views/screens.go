package views

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const titleWidth = 40

type TaskItemData struct {
	ID          string
	Title       string
	Status      string
	Energy      string
	EnergyLabel string
	Provisional bool
}

type FeedPanelData struct {
	Items     []TaskItemData
	Cursor    int
	InputView string
	BulkView  string
}

type FocusPanelData struct {
	TaskTitle    string
	Timer        string
	Minutes      int
	Running      bool
	Dial         string
	ProgressView string
	EditView     string
}

type AuditPanelData struct {
	Head      *TaskItemData
	Remaining int
	Dragging  bool
}

type LoginPanelData struct {
	Mode     string
	Fields   []string
	Busy     string
	ErrorMsg string
}

type AuthErrorPanelData struct {
	Code    string
	Message string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderFeedPanel(data FeedPanelData) string {
	var b strings.Builder
	b.WriteString("feed:\n")
	b.WriteString("actions: [a]add [A]bulk [x]complete [f]focus [j/k]move [r]reload\n")
	if data.InputView != "" {
		b.WriteString(data.InputView + "\n")
	}
	if data.BulkView != "" {
		b.WriteString(data.BulkView + "\n")
	}
	if len(data.Items) == 0 {
		b.WriteString("\n" + mutedStyle.Render("No tasks yet. Press a to add one."))
		return b.String()
	}
	b.WriteString("\n")
	for i, item := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = cursorStyle.Render(">")
		}
		b.WriteString(fmt.Sprintf("%s %2d %s %s", cursor, i+1, statusGlyph(item.Status), TruncateTitle(item.Title)))
		if item.Energy != "" {
			b.WriteString(" " + EnergyBadge(item.Energy, "["+item.EnergyLabel+"]"))
		}
		if item.Provisional {
			b.WriteString(" " + mutedStyle.Render("(saving)"))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString("focus:\n")
	if data.EditView != "" {
		b.WriteString(data.EditView + "\n")
	} else if data.TaskTitle != "" {
		b.WriteString(fmt.Sprintf("task: %s\n", TruncateTitle(data.TaskTitle)))
	} else {
		b.WriteString("task: (none selected)\n")
	}
	state := "stopped"
	if data.Running {
		state = "running"
	}
	b.WriteString(fmt.Sprintf("timer: %s (%s, %dm)\n", data.Timer, state, data.Minutes))
	b.WriteString(data.Dial + "\n")
	if data.ProgressView != "" {
		b.WriteString(data.ProgressView + "\n")
	}
	b.WriteString("actions: [space]start/pause [r]reset [+/-]minutes [click]dial [e]edit [c]complete [esc]back")
	return b.String()
}

func RenderAuditPanel(data AuditPanelData) string {
	var b strings.Builder
	b.WriteString("audit:\n")
	if data.Head == nil {
		b.WriteString(mutedStyle.Render("All caught up. Complete tasks to audit them."))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%d task(s) to audit\n\n", data.Remaining))
	b.WriteString(fmt.Sprintf("how did it feel?\n  %s\n\n", TruncateTitle(data.Head.Title)))
	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		EnergyBadge("red", "<- draining"),
		EnergyBadge("yellow", "^ neutral"),
		EnergyBadge("green", "energizing ->"),
	))
	if data.Dragging {
		b.WriteString(mutedStyle.Render("release to tag") + "\n")
	}
	b.WriteString("actions: swipe with the mouse or [left]red [up]yellow [right]green")
	return b.String()
}

func RenderLoginPanel(data LoginPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s:\n", data.Mode))
	for _, f := range data.Fields {
		b.WriteString(f + "\n")
	}
	if data.Busy != "" {
		b.WriteString(data.Busy + "\n")
	}
	if data.ErrorMsg != "" {
		b.WriteString(errorStyle.Render("error: "+data.ErrorMsg) + "\n")
	}
	b.WriteString("actions: [tab]next field [enter]submit [ctrl+n]sign in/up [ctrl+o]code")
	return b.String()
}

func RenderAuthErrorPanel(data AuthErrorPanelData) string {
	var b strings.Builder
	b.WriteString("authentication error:\n")
	b.WriteString("We couldn't sign you in with that link.\n\n")
	code := data.Code
	if code == "" {
		code = "unknown"
	}
	b.WriteString(fmt.Sprintf("error: %s\n", code))
	if data.Message != "" {
		b.WriteString(wordwrap.String(data.Message, PaneWidth) + "\n")
	}
	b.WriteString("\nactions: [enter]back to sign in")
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("\nnotification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	md := fmt.Sprintf("## %s\n\n%s\n", strings.ToLower(data.CurrentView), strings.Join(data.Bindings, "\n"))
	return fmt.Sprintf("help:\n%s\n%s", RenderMarkdown(md), data.HelpView)
}

// TruncateTitle shortens long titles to fit a panel row.
func TruncateTitle(title string) string {
	return truncate.StringWithTail(title, titleWidth, "…")
}

func statusGlyph(status string) string {
	switch status {
	case "completed":
		return "[x]"
	case "audited":
		return "[*]"
	default:
		return "[ ]"
	}
}
