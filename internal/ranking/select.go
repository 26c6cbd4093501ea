package ranking

import (
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// Select derives everything the presentation layer shows from one collection snapshot.
func Select(tasks []model.Task, mode model.FocusMode, now time.Time) model.View {
	sorted := Sort(Filter(tasks, mode, now), now)

	ranked := make([]model.RankedTask, len(sorted))
	for i, t := range sorted {
		label, tier := Classify(t.Deadline, now)
		ranked[i] = model.RankedTask{
			Task:  t,
			Label: label,
			Tier:  tier,
			Score: Score(t, now),
		}
	}

	return model.View{
		Focus: mode,
		Tasks: ranked,
		Stats: Stats(tasks, now),
	}
}
