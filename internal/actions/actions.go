// Package actions is the standalone task list used by the CLI. Unlike the
// vibe store it keeps no state: every call resolves the session and goes
// straight to the repository.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/storage"
)

var (
	ErrUnauthenticated = errors.New("actions: user not authenticated")
	ErrEmptyTitle      = errors.New("actions: task title is required")
	ErrTaskNotFound    = errors.New("actions: task not found")
)

type Repository interface {
	CreateTasks(ctx context.Context, userID string, titles []string) ([]storage.Task, error)
	ListTasks(ctx context.Context, userID string, filter storage.TaskListFilter) ([]storage.Task, error)
	GetTask(ctx context.Context, userID, id string) (storage.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch storage.TaskPatch) (storage.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	CreateEnergyLog(ctx context.Context, userID string, level int) (storage.EnergyLog, error)
	ListEnergyLogs(ctx context.Context, userID string, limit int) ([]storage.EnergyLog, error)
}

type base struct {
	repo     Repository
	provider auth.Provider
	logger   *log.Logger
}

func newBase(repo Repository, provider auth.Provider, logger *log.Logger) base {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return base{repo: repo, provider: provider, logger: logger}
}

// userID returns "" when nobody is signed in.
func (b base) userID(ctx context.Context) string {
	s, err := b.provider.CurrentSession(ctx)
	if err != nil {
		b.logger.Printf("actions: resolve session: %v", err)
		return ""
	}
	if s == nil {
		return ""
	}
	return s.User.ID
}

type TaskActions struct {
	base
}

func NewTaskActions(repo Repository, provider auth.Provider, logger *log.Logger) *TaskActions {
	return &TaskActions{base: newBase(repo, provider, logger)}
}

// List returns the user's tasks newest first. Signed-out users and read
// failures get an empty list.
func (a *TaskActions) List(ctx context.Context) []model.Task {
	userID := a.userID(ctx)
	if userID == "" {
		return []model.Task{}
	}
	rows, err := a.repo.ListTasks(ctx, userID, storage.TaskListFilter{})
	if err != nil {
		a.logger.Printf("actions: fetch tasks: %v", err)
		return []model.Task{}
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	return out
}

func (a *TaskActions) Add(ctx context.Context, title string) (model.Task, error) {
	userID := a.userID(ctx)
	if userID == "" {
		return model.Task{}, ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	rows, err := a.repo.CreateTasks(ctx, userID, []string{title})
	if err != nil {
		a.logger.Printf("actions: add task: %v", err)
		return model.Task{}, fmt.Errorf("add task: %w", err)
	}
	return rows[0].ToModel(), nil
}

// Complete marks a pending task completed. Tasks never move backwards.
func (a *TaskActions) Complete(ctx context.Context, id string) (model.Task, error) {
	userID := a.userID(ctx)
	if userID == "" {
		return model.Task{}, ErrUnauthenticated
	}
	current, err := a.repo.GetTask(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, fmt.Errorf("load task: %w", err)
	}
	from := model.Status(current.Status)
	if !from.CanAdvanceTo(model.StatusCompleted) {
		return model.Task{}, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, from, model.StatusCompleted)
	}
	status := string(model.StatusCompleted)
	row, err := a.repo.UpdateTask(ctx, userID, id, storage.TaskPatch{Status: &status})
	if err != nil {
		a.logger.Printf("actions: complete task %s: %v", id, err)
		return model.Task{}, fmt.Errorf("complete task: %w", err)
	}
	return row.ToModel(), nil
}

func (a *TaskActions) Delete(ctx context.Context, id string) error {
	userID := a.userID(ctx)
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := a.repo.DeleteTask(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTaskNotFound
		}
		a.logger.Printf("actions: delete task %s: %v", id, err)
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

type EnergyActions struct {
	base
}

func NewEnergyActions(repo Repository, provider auth.Provider, logger *log.Logger) *EnergyActions {
	return &EnergyActions{base: newBase(repo, provider, logger)}
}

func (a *EnergyActions) Log(ctx context.Context, level int) (model.EnergyLog, error) {
	userID := a.userID(ctx)
	if userID == "" {
		return model.EnergyLog{}, ErrUnauthenticated
	}
	if err := model.ValidateLevel(level); err != nil {
		return model.EnergyLog{}, err
	}
	entry, err := a.repo.CreateEnergyLog(ctx, userID, level)
	if err != nil {
		a.logger.Printf("actions: log energy: %v", err)
		return model.EnergyLog{}, fmt.Errorf("log energy: %w", err)
	}
	return entry.ToModel(), nil
}

// History returns up to 100 recent entries oldest first, or an empty slice.
func (a *EnergyActions) History(ctx context.Context) []model.EnergyLog {
	userID := a.userID(ctx)
	if userID == "" {
		return []model.EnergyLog{}
	}
	rows, err := a.repo.ListEnergyLogs(ctx, userID, storage.MaxEnergyLogs)
	if err != nil {
		a.logger.Printf("actions: fetch energy history: %v", err)
		return []model.EnergyLog{}
	}
	out := make([]model.EnergyLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	return out
}
