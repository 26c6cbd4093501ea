package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Weight - множитель приоритета для оценки срочности
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool {
	return p.Weight() > 0
}

type Task struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Deadline    time.Time `json:"deadline" db:"deadline"`
	Priority    Priority  `json:"priority" db:"priority"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
}

// TaskFields - то, что пользователь вводит при создании задачи.
// ID и CreatedAt назначает хранилище.
type TaskFields struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Priority    Priority  `json:"priority"`
}

// Snapshot - полный список задач пользователя от хранилища либо ошибка подписки.
type Snapshot struct {
	Tasks []Task
	Err   error
}
