package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrConflict     = errors.New("storage: already exists")
	ErrExpired      = errors.New("storage: expired")
	ErrEmptyTitle   = errors.New("storage: task title is required")
	ErrEmptyPatch   = errors.New("storage: empty task patch")
	ErrInvalidLevel = errors.New("storage: energy level out of range")
)

// MaxEnergyLogs caps energy history reads.
const MaxEnergyLogs = 100

// Repository is the user-scoped relational store. Every task and energy
// call takes the owner's id and never reads or writes other users' rows.
type Repository interface {
	CreateTasks(ctx context.Context, userID string, titles []string) ([]Task, error)
	ListTasks(ctx context.Context, userID string, filter TaskListFilter) ([]Task, error)
	GetTask(ctx context.Context, userID, id string) (Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch TaskPatch) (Task, error)
	DeleteTask(ctx context.Context, userID, id string) error

	CreateEnergyLog(ctx context.Context, userID string, level int) (EnergyLog, error)
	ListEnergyLogs(ctx context.Context, userID string, limit int) ([]EnergyLog, error)

	CreateUser(ctx context.Context, in User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	CreateAuthCode(ctx context.Context, in AuthCode) error
	ConsumeAuthCode(ctx context.Context, code string, now time.Time) (AuthCode, error)
}
