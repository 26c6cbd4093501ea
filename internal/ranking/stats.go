package ranking

import (
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// Stats aggregates the whole, unfiltered collection.
//
// CompletedToday counts completed tasks *created* since local midnight:
// tasks carry no completion timestamp, so creation date stands in for it.
func Stats(tasks []model.Task, now time.Time) model.ProductivityStats {
	var s model.ProductivityStats
	todayStart := StartOfDay(now)

	for _, t := range tasks {
		if t.IsCompleted {
			if !t.CreatedAt.Before(todayStart) {
				s.CompletedToday++
			}
			continue
		}
		s.PendingTasks++
		if t.Deadline.Before(now) {
			s.OverdueCount++
		}
	}
	return s
}
