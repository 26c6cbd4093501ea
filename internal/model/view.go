package model

type FocusMode string

const (
	FocusAll          FocusMode = "ALL"
	FocusToday        FocusMode = "TODAY"
	FocusHighPriority FocusMode = "HIGH_PRIORITY"
)

func (m FocusMode) Valid() bool {
	switch m {
	case FocusAll, FocusToday, FocusHighPriority:
		return true
	}
	return false
}

// Tier drives color and iconography only; it never affects ordering.
type Tier string

const (
	TierCritical Tier = "critical"
	TierUrgent   Tier = "urgent"
	TierNormal   Tier = "normal"
)

type ProductivityStats struct {
	CompletedToday int `json:"completed_today"`
	PendingTasks   int `json:"pending_tasks"`
	OverdueCount   int `json:"overdue_count"`
}

// RankedTask is a visible task together with what the presentation layer shows for it.
type RankedTask struct {
	Task
	Label string  `json:"label"`
	Tier  Tier    `json:"tier"`
	Score float64 `json:"-"`
}

type View struct {
	Focus FocusMode         `json:"focus"`
	Tasks []RankedTask      `json:"tasks"`
	Stats ProductivityStats `json:"stats"`
}
