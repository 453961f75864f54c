package commands

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sandeepkv93/vibe/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent", TypeAdd},
		{"bulk a; b; c", TypeBulk},
		{"done", TypeDone},
		{"complete 2", TypeDone},
		{"audit green", TypeAudit},
		{"tag 3 red", TypeAudit},
		{"rename better title", TypeRename},
		{"focus 15m", TypeFocus},
		{"view dashboard", TypeView},
		{"/reload", TypeReload},
		{"logout", TypeLogout},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/snooze overdue 2 days")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/", " / "} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"add",
		"add    ",
		"bulk ; ;",
		"audit",
		"audit purple",
		"audit 1 2 green",
		"rename",
		"rename #3",
		"focus 90m",
		"focus 1 2",
		"view calendar",
		"reload now",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseArguments(t *testing.T) {
	cmd, err := Parse("bulk  write docs ;review PR;; ship ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if want := []string{"write docs", "review PR", "ship"}; !reflect.DeepEqual(cmd.Bulk.Titles, want) {
		t.Fatalf("titles = %#v, want %#v", cmd.Bulk.Titles, want)
	}

	cmd, err = Parse("audit 2 Yellow")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Audit.Energy != model.EnergyYellow {
		t.Fatalf("energy = %q", cmd.Audit.Energy)
	}
	if n, ok := cmd.Audit.Target.Position(); !ok || n != 2 {
		t.Fatalf("target position = %d,%v", n, ok)
	}

	cmd, err = Parse("rename #task-9 call the bank")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Rename.Target.Ref != "task-9" || cmd.Rename.Title != "call the bank" {
		t.Fatalf("unexpected rename args: %+v", cmd.Rename)
	}
	if _, ok := cmd.Rename.Target.Position(); ok {
		t.Fatal("task id should not parse as a position")
	}

	cmd, err = Parse("rename just a title")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !cmd.Rename.Target.Selected() || cmd.Rename.Title != "just a title" {
		t.Fatalf("unexpected rename args: %+v", cmd.Rename)
	}

	cmd, err = Parse("focus #4 45m")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Focus.Minutes != 45 || cmd.Focus.Target.Ref != "4" {
		t.Fatalf("unexpected focus args: %+v", cmd.Focus)
	}

	cmd, err = Parse("go stats")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.View.Name != "dashboard" {
		t.Fatalf("view = %q", cmd.View.Name)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" {
				t.Fatalf("unexpected title: %q", a.Title)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}

	cmd, _ = Parse("reload")
	res, err = Execute(cmd, Handlers{Reload: func() (Result, error) { return Result{Message: "reloaded"}, nil }})
	if err != nil || res.Message != "reloaded" {
		t.Fatalf("reload dispatch: res=%+v err=%v", res, err)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	for _, in := range []string{"done", "audit red", "logout", "view feed"} {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		_, err = Execute(cmd, Handlers{})
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
			t.Fatalf("%q: expected missing handler error, got %v", in, err)
		}
	}
}
