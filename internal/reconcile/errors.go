package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrPendingTask  = errors.New("task is not confirmed by the store yet")
	ErrMutation     = errors.New("mutation failed")
	ErrSubscription = errors.New("subscription failed")
)

// MutationError - хранилище отклонило create/toggle/delete.
// Оптимистичное состояние не откатывается: его поправит следующий снимок.
type MutationError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *MutationError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s task: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *MutationError) Is(target error) bool { return target == ErrMutation }

func (e *MutationError) Unwrap() error { return e.Err }

// SubscriptionError - живой поток снимков не открылся или оборвался.
type SubscriptionError struct {
	UserID string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("task subscription for %s: %v", e.UserID, e.Err)
}

func (e *SubscriptionError) Is(target error) bool { return target == ErrSubscription }

func (e *SubscriptionError) Unwrap() error { return e.Err }
