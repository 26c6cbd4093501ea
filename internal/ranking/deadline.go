// Package ranking holds the pure functions behind the task list: urgency
// scoring, deadline labels, focus filtering, ordering and productivity stats.
// Every function takes the current instant explicitly and never mutates its input.
package ranking

import (
	"fmt"
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

const day = 24 * time.Hour

// DeadlineLabel returns the human readable deadline text, e.g. "Due in 2 hours",
// "Due tomorrow" or "Overdue by 3 days".
func DeadlineLabel(deadline, now time.Time) string {
	deadline = deadline.In(now.Location())

	if deadline.Before(now) && !SameDay(deadline, now) {
		n := wholeDays(now.Sub(deadline))
		if n == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", n)
	}

	if SameDay(deadline, now) {
		hours := wholeHours(deadline.Sub(now))
		switch {
		case hours < 0:
			return "Overdue (today)"
		case hours == 0:
			return "Due in less than 1 hour"
		case hours == 1:
			return "Due in 1 hour"
		case hours < 24:
			return fmt.Sprintf("Due in %d hours", hours)
		}
	}

	if SameDay(deadline, now.AddDate(0, 0, 1)) {
		return "Due tomorrow"
	}

	if days := wholeDays(deadline.Sub(now)); days <= 7 {
		return fmt.Sprintf("Due in %d days", days)
	}

	return "Due " + deadline.Format("Jan 02, 2006")
}

// DeadlineTier classifies by whole hours left: overdue is critical, the next 24 hours urgent.
func DeadlineTier(deadline, now time.Time) model.Tier {
	hours := wholeHours(deadline.Sub(now))
	switch {
	case hours < 0:
		return model.TierCritical
	case hours <= 24:
		return model.TierUrgent
	}
	return model.TierNormal
}

// Classify - метка и уровень срочности вместе, для слоя отображения
func Classify(deadline, now time.Time) (string, model.Tier) {
	return DeadlineLabel(deadline, now), DeadlineTier(deadline, now)
}

// SameDay compares calendar dates in the location of b.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay is local midnight of t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// целые часы/дни с отбрасыванием дробной части к нулю
func wholeHours(d time.Duration) int {
	return int(d / time.Hour)
}

func wholeDays(d time.Duration) int {
	n := int(d / day)
	if n < 0 {
		return -n
	}
	return n
}
