package ranking

import (
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// Filter keeps the tasks visible under mode, preserving input order.
// TODAY uses calendar days, not a rolling 24 hour window.
func Filter(tasks []model.Task, mode model.FocusMode, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if visible(t, mode, now) {
			out = append(out, t)
		}
	}
	return out
}

func visible(t model.Task, mode model.FocusMode, now time.Time) bool {
	switch mode {
	case model.FocusToday:
		return !t.IsCompleted && SameDay(t.Deadline, now)
	case model.FocusHighPriority:
		return !t.IsCompleted && t.Priority == model.PriorityHigh
	}
	return true
}
