package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

// TaskStore - документное хранилище задач пользователя.
//
// Subscribe сразу отдает текущий список, затем новый полный список после каждого изменения.
// Отписка - отмена ctx, после нее канал закрывается. Снимок с Err завершает подписку.
type TaskStore interface {
	Subscribe(ctx context.Context, userID string) (<-chan model.Snapshot, error)
	Create(ctx context.Context, userID string, f model.TaskFields) (model.Task, error)
	SetCompleted(ctx context.Context, userID, taskID string, completed bool) error
	Delete(ctx context.Context, userID, taskID string) error
}

// deliver отправляет снимок, пока подписчик жив
func deliver(ctx context.Context, out chan<- model.Snapshot, s model.Snapshot) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}
