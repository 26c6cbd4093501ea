package ranking

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// overdueFactor lifts overdue and due-within-the-hour tasks above anything
// with at least an hour of headroom: weight/hours never exceeds 3 there.
const overdueFactor = 1000

// Score maps a task to its urgency at now. Higher is more urgent; the value
// only makes sense relative to other scores taken at the same instant.
func Score(t model.Task, now time.Time) float64 {
	if t.IsCompleted {
		return math.Inf(-1)
	}

	weight := t.Priority.Weight()
	hoursRemaining := float64(t.Deadline.Sub(now)) / float64(time.Hour)

	switch {
	case hoursRemaining <= 0:
		return weight * overdueFactor * math.Abs(hoursRemaining)
	case hoursRemaining < 1:
		return weight * overdueFactor
	}
	return weight * (1 / hoursRemaining)
}

// Sort returns a copy of tasks ordered by descending Score. Equal scores
// (completed tasks among them) fall back to ascending task ID.
func Sort(tasks []model.Task, now time.Time) []model.Task {
	type scored struct {
		task  model.Task
		score float64
	}

	items := make([]scored, len(tasks))
	for i, t := range tasks {
		items[i] = scored{task: t, score: Score(t, now)}
	}

	slices.SortStableFunc(items, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.task.ID, b.task.ID)
	})

	out := make([]model.Task, len(items))
	for i, it := range items {
		out[i] = it.task
	}
	return out
}
