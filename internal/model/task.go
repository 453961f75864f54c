package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("model: invalid task status")
	ErrInvalidEnergy     = errors.New("model: invalid task energy")
	ErrInvalidTransition = errors.New("model: invalid status transition")
	ErrInvalidLevel      = errors.New("model: energy level out of range")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusAudited   Status = "audited"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusAudited:
		return true
	default:
		return false
	}
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusCompleted:
		return 1
	case StatusAudited:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether next is the single step after s in the
// pending -> completed -> audited lifecycle.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() == s.rank()+1
}

type Energy string

const (
	EnergyNone   Energy = ""
	EnergyGreen  Energy = "green"
	EnergyYellow Energy = "yellow"
	EnergyRed    Energy = "red"
)

func (e Energy) IsValid() bool {
	switch e {
	case EnergyGreen, EnergyYellow, EnergyRed:
		return true
	default:
		return false
	}
}

// Level is the energy log value recorded for an audit tag.
func (e Energy) Level() int {
	switch e {
	case EnergyGreen:
		return 90
	case EnergyYellow:
		return 50
	case EnergyRed:
		return 10
	default:
		return 0
	}
}

func (e Energy) Label() string {
	switch e {
	case EnergyGreen:
		return "Energizing"
	case EnergyYellow:
		return "Neutral"
	case EnergyRed:
		return "Draining"
	default:
		return ""
	}
}

func ParseEnergy(raw string) (Energy, error) {
	e := Energy(strings.ToLower(strings.TrimSpace(raw)))
	if !e.IsValid() {
		return EnergyNone, fmt.Errorf("%w: %q", ErrInvalidEnergy, raw)
	}
	return e, nil
}

type Task struct {
	ID        string
	UserID    string
	Title     string
	Status    Status
	Energy    Energy
	CreatedAt time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.Status == StatusAudited && !t.Energy.IsValid() {
		return fmt.Errorf("%w: audited task requires energy, got %q", ErrInvalidEnergy, t.Energy)
	}
	if t.Status != StatusAudited && t.Energy != EnergyNone {
		return fmt.Errorf("%w: energy must be empty until audited", ErrInvalidEnergy)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

type EnergyLog struct {
	ID        string
	UserID    string
	Level     int
	CreatedAt time.Time
}

func ValidateLevel(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return nil
}

// SplitTitles turns pasted multi-line text into task titles, one per
// non-blank line.
func SplitTitles(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
