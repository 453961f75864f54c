package model

import (
	"sort"
	"time"
)

// SortNewestFirst orders tasks by creation time, newest first. Ties keep
// their existing relative order.
func SortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// FeedOrder returns a copy with pending tasks first, then everything else,
// newest first within each group.
func FeedOrder(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].Status == StatusPending
		pj := out[j].Status == StatusPending
		if pi != pj {
			return pi
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func Pending(tasks []Task) []Task {
	return filterStatus(tasks, StatusPending)
}

// AuditQueue returns the completed tasks awaiting an energy tag, newest
// first. The last element is the top of the stack.
func AuditQueue(tasks []Task) []Task {
	out := filterStatus(tasks, StatusCompleted)
	SortNewestFirst(out)
	return out
}

// AuditHead returns the task audited next: the oldest completed one.
func AuditHead(tasks []Task) (Task, bool) {
	queue := AuditQueue(tasks)
	if len(queue) == 0 {
		return Task{}, false
	}
	return queue[len(queue)-1], true
}

func filterStatus(tasks []Task, status Status) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// SortOldestFirst orders energy logs for charting, left to right.
func SortOldestFirst(logs []EnergyLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
}

// DailyStreak counts consecutive calendar days, ending today or yesterday,
// that have at least one energy log.
func DailyStreak(logs []EnergyLog, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]bool, len(logs))
	for _, l := range logs {
		days[l.CreatedAt.In(loc).Format("2006-01-02")] = true
	}
	cursor := now.In(loc)
	if !days[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for days[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
