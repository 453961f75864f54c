package vibe

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("vibe: not signed in")
	ErrTaskNotFound    = errors.New("vibe: task not found")
	ErrProvisional     = errors.New("vibe: task is not saved yet")
	ErrEmptyTitle      = errors.New("vibe: empty title")
	ErrNoChange        = errors.New("vibe: nothing to change")
)

type Op string

const (
	OpAdd      Op = "add"
	OpAddBulk  Op = "add_bulk"
	OpComplete Op = "complete"
	OpRename   Op = "rename"
	OpAudit    Op = "audit"
	OpReload   Op = "reload"
)

// Result reports how an operation ended once its remote write resolved.
//
// Skipped means nothing was applied locally or remotely. Reverted means the
// optimistic change was rolled back. Stale means the local list may not
// match the store: either the rollback was not applied because the task had
// changed again, or a reload replaced the list while the write was in
// flight. A reload is needed to converge.
type Result struct {
	Op       Op
	TaskIDs  []string
	Err      error
	LogErr   error
	Skipped  bool
	Reverted bool
	Stale    bool
}

func (r Result) OK() bool {
	return r.Err == nil && !r.Skipped
}

// NeedsReconcile reports whether local state may have drifted from the store.
func (r Result) NeedsReconcile() bool {
	return r.Stale || (r.Err != nil && !r.Skipped)
}

// Commit performs the remote half of an operation. It never panics and
// always returns a Result.
type Commit func(ctx context.Context) Result

func done(res Result) Commit {
	return func(context.Context) Result { return res }
}

func skipped(op Op, err error, ids ...string) Commit {
	return done(Result{Op: op, TaskIDs: ids, Err: err, Skipped: true})
}

// Navigator sends the user to sign in.
type Navigator interface {
	RequireSignIn()
}

type NavigatorFunc func()

func (f NavigatorFunc) RequireSignIn() { f() }
