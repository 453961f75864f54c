package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/vibe/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeBulk   Type = "bulk"
	TypeDone   Type = "done"
	TypeAudit  Type = "audit"
	TypeRename Type = "rename"
	TypeFocus  Type = "focus"
	TypeView   Type = "view"
	TypeReload Type = "reload"
	TypeLogout Type = "logout"
)

var aliases = map[string]Type{
	"complete": TypeDone,
	"tag":      TypeAudit,
	"mv":       TypeRename,
	"go":       TypeView,
	"refresh":  TypeReload,
	"signout":  TypeLogout,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Title string
}

// BulkArgs carries titles split on ";" in input order.
type BulkArgs struct {
	Titles []string
}

// Target names a task. Empty means the current selection; a number is a
// 1-based position in the visible list; anything else is a task id.
type Target struct {
	Ref string
}

func (t Target) Selected() bool {
	return t.Ref == ""
}

func (t Target) Position() (int, bool) {
	n, err := strconv.Atoi(t.Ref)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

type DoneArgs struct {
	Target Target
}

type AuditArgs struct {
	Target Target
	Energy model.Energy
}

type RenameArgs struct {
	Target Target
	Title  string
}

type FocusArgs struct {
	Target  Target
	Minutes int
}

type ViewArgs struct {
	Name string
}

var viewNames = map[string]string{
	"feed":      "feed",
	"tasks":     "feed",
	"focus":     "focus",
	"audit":     "audit",
	"dashboard": "dashboard",
	"dash":      "dashboard",
	"stats":     "dashboard",
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Bulk   *BulkArgs
	Done   *DoneArgs
	Audit  *AuditArgs
	Rename *RenameArgs
	Focus  *FocusArgs
	View   *ViewArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	head, rest, _ := strings.Cut(raw, " ")
	head = strings.ToLower(head)
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeBulk:
		return parseBulk(input, rest)
	case TypeDone:
		return parseDone(input, args)
	case TypeAudit:
		return parseAudit(input, args)
	case TypeRename:
		return parseRename(input, args)
	case TypeFocus:
		return parseFocus(input, args)
	case TypeView:
		return parseView(input, args)
	case TypeReload, TypeLogout:
		if len(args) > 0 {
			return Command{}, invalid("%s takes no arguments", typ)
		}
		return Command{Type: typ, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	if rest == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: rest}}, nil
}

func parseBulk(raw, rest string) (Command, error) {
	titles := model.SplitTitles(strings.ReplaceAll(rest, ";", "\n"))
	if len(titles) == 0 {
		return Command{}, invalid("bulk requires titles separated by ;")
	}
	return Command{Type: TypeBulk, Raw: raw, Bulk: &BulkArgs{Titles: titles}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) > 1 {
		return Command{}, invalid("done takes at most one target")
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: target(args)}}, nil
}

// parseAudit accepts "audit <energy>" or "audit <target> <energy>".
func parseAudit(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("audit requires an energy tag: green, yellow or red")
	}
	energy, err := model.ParseEnergy(args[len(args)-1])
	if err != nil {
		return Command{}, invalid("unknown energy %q", args[len(args)-1])
	}
	return Command{Type: TypeAudit, Raw: raw, Audit: &AuditArgs{Target: target(args[:len(args)-1]), Energy: energy}}, nil
}

// parseRename accepts "rename <title>" for the selection or
// "rename #<target> <title>".
func parseRename(raw string, args []string) (Command, error) {
	var t Target
	if len(args) > 0 && strings.HasPrefix(args[0], "#") {
		t = Target{Ref: strings.TrimPrefix(args[0], "#")}
		args = args[1:]
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, invalid("rename requires a title")
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{Target: t, Title: title}}, nil
}

// parseFocus accepts an optional target and an optional "<n>m" duration.
func parseFocus(raw string, args []string) (Command, error) {
	out := &FocusArgs{}
	var rest []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		if strings.HasSuffix(lower, "m") {
			if n, err := strconv.Atoi(strings.TrimSuffix(lower, "m")); err == nil {
				if n < model.MinFocusMinutes || n > model.MaxFocusMinutes {
					return Command{}, invalid("focus duration must be %d-%d minutes", model.MinFocusMinutes, model.MaxFocusMinutes)
				}
				out.Minutes = n
				continue
			}
		}
		rest = append(rest, arg)
	}
	if len(rest) > 1 {
		return Command{}, invalid("focus takes at most one target")
	}
	out.Target = target(rest)
	return Command{Type: TypeFocus, Raw: raw, Focus: out}, nil
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("view requires one of feed, focus, audit, dashboard")
	}
	name, ok := viewNames[strings.ToLower(args[0])]
	if !ok {
		return Command{}, invalid("unknown view %q", args[0])
	}
	return Command{Type: TypeView, Raw: raw, View: &ViewArgs{Name: name}}, nil
}

func target(args []string) Target {
	if len(args) == 0 {
		return Target{}
	}
	return Target{Ref: strings.TrimPrefix(args[0], "#")}
}
