package storage

import (
	"time"

	"github.com/sandeepkv93/vibe/internal/model"
)

type Task struct {
	ID         string
	UserID     string
	Title      string
	Status     string
	Energy     string
	BatchIndex int
	CreatedAt  time.Time
}

func (t Task) ToModel() model.Task {
	return model.Task{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Status:    model.Status(t.Status),
		Energy:    model.Energy(t.Energy),
		CreatedAt: t.CreatedAt,
	}
}

type EnergyLog struct {
	ID        string
	UserID    string
	Level     int
	CreatedAt time.Time
}

func (l EnergyLog) ToModel() model.EnergyLog {
	return model.EnergyLog{ID: l.ID, UserID: l.UserID, Level: l.Level, CreatedAt: l.CreatedAt}
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type AuthCode struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TaskPatch lists the columns an update touches. Nil fields are left alone;
// an empty Energy clears the column.
type TaskPatch struct {
	Title  *string
	Status *string
	Energy *string
}

func (p TaskPatch) empty() bool {
	return p.Title == nil && p.Status == nil && p.Energy == nil
}

type TaskListFilter struct {
	Status string
	Limit  int
	Offset int
}
