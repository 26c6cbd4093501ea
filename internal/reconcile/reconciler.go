package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/clock"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
)

type State int

const (
	Unauthenticated State = iota
	Syncing
	Live
	Error
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Syncing:
		return "syncing"
	case Live:
		return "live"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// LocalIDPrefix marks tasks inserted optimistically and not yet confirmed by the store.
const LocalIDPrefix = "local-"

// Executor runs a persistence write and reports its outcome; *worker.Pool implements it.
type Executor interface {
	Do(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type Status struct {
	State  State
	UserID string
	Err    error
}

// Reconciler владеет коллекцией задач активной сессии. Снимки из хранилища
// заменяют коллекцию целиком, мутации применяются оптимистично до подтверждения.
// Все изменения коллекции идут под одним мьютексом.
type Reconciler struct {
	store  repo.TaskStore
	exec   Executor
	clock  clock.Clock
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	userID  string
	tasks   []model.Task
	err     error
	gen     uint64 // растет при каждой (пере)подписке и завершении сессии
	cancel  context.CancelFunc
	changed chan struct{}
}

func New(store repo.TaskStore, exec Executor, clk clock.Clock, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		exec:    exec,
		clock:   clk,
		logger:  logger,
		changed: make(chan struct{}),
	}
}

// Start opens the live subscription for userID. Switching to another user
// discards the previous collection first; starting the active user again only
// resyncs if the subscription had failed.
// A failed subscription moves the reconciler to Error instead of returning an error.
func (r *Reconciler) Start(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("empty user id")
	}

	r.mu.Lock()
	if r.state != Unauthenticated && r.userID == userID {
		r.mu.Unlock()
		return r.Resync(ctx)
	}
	if r.state != Unauthenticated {
		r.endLocked()
	}
	r.userID = userID
	r.tasks = nil
	gen := r.beginSyncLocked()
	r.mu.Unlock()

	r.logger.Info("session started", zap.String("user_id", userID))
	r.subscribe(ctx, userID, gen)
	return nil
}

// Resync reopens the subscription after a failure, keeping the last-known-good collection.
func (r *Reconciler) Resync(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case Unauthenticated:
		r.mu.Unlock()
		return ErrNoSession
	case Syncing, Live:
		r.mu.Unlock()
		return nil
	}
	userID := r.userID
	r.err = nil
	gen := r.beginSyncLocked()
	r.mu.Unlock()

	r.logger.Info("resyncing", zap.String("user_id", userID))
	r.subscribe(ctx, userID, gen)
	return nil
}

// End tears the subscription down and drops the collection. Snapshots that
// arrive afterwards are ignored.
func (r *Reconciler) End() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Unauthenticated {
		return
	}
	r.logger.Info("session ended", zap.String("user_id", r.userID))
	r.endLocked()
}

func (r *Reconciler) endLocked() {
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.state = Unauthenticated
	r.userID = ""
	r.tasks = nil
	r.err = nil
	r.notifyLocked()
}

func (r *Reconciler) beginSyncLocked() uint64 {
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.state = Syncing
	r.notifyLocked()
	return r.gen
}

func (r *Reconciler) subscribe(ctx context.Context, userID string, gen uint64) {
	// подписка живет столько же, сколько сессия, а не запрос, который ее открыл
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	snapshots, err := r.store.Subscribe(subCtx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		cancel()
		return
	}
	if err != nil {
		cancel()
		r.failLocked(&SubscriptionError{UserID: userID, Err: err})
		return
	}
	r.cancel = cancel
	go r.run(subCtx, gen, userID, snapshots)
}

// run - единственный цикл, который применяет снимки этой подписки по порядку
func (r *Reconciler) run(ctx context.Context, gen uint64, userID string, snapshots <-chan model.Snapshot) {
	for s := range snapshots {
		if !r.apply(gen, userID, s) {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.gen && r.state != Error {
		r.failLocked(&SubscriptionError{UserID: userID, Err: errors.New("snapshot stream closed")})
	}
}

func (r *Reconciler) apply(gen uint64, userID string, s model.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		return false
	}
	if s.Err != nil {
		r.failLocked(&SubscriptionError{UserID: userID, Err: s.Err})
		return false
	}

	if r.state != Live {
		r.logger.Info("live", zap.String("user_id", userID), zap.Int("tasks", len(s.Tasks)))
	}
	r.tasks = slices.Clone(s.Tasks)
	r.state = Live
	r.notifyLocked()
	r.logger.Debug("snapshot applied", zap.String("user_id", userID), zap.Int("tasks", len(s.Tasks)))
	return true
}

func (r *Reconciler) failLocked(err error) {
	r.logger.Warn("subscription failed", zap.String("user_id", r.userID), zap.Error(err))
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.state = Error
	r.err = err
	r.notifyLocked()
}

func (r *Reconciler) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// Add inserts a placeholder right away and replaces it with the stored task
// once the store confirms. A failed create leaves the placeholder for the next snapshot to drop.
func (r *Reconciler) Add(ctx context.Context, f model.TaskFields) (model.Task, error) {
	r.mu.Lock()
	if r.state == Unauthenticated {
		r.mu.Unlock()
		return model.Task{}, ErrNoSession
	}
	userID, gen := r.userID, r.gen
	placeholder := model.Task{
		ID:          LocalIDPrefix + uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		CreatedAt:   r.clock.Now(),
		Deadline:    f.Deadline,
		Priority:    f.Priority,
	}
	r.tasks = append(slices.Clone(r.tasks), placeholder)
	r.notifyLocked()
	r.mu.Unlock()

	var created model.Task
	err := r.exec.Do(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = r.store.Create(ctx, userID, f)
		return err
	})
	if err != nil {
		r.logger.Error("create failed", zap.String("user_id", userID), zap.Error(err))
		return model.Task{}, &MutationError{Op: "create", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.gen {
		if i := r.indexLocked(placeholder.ID); i >= 0 {
			tasks := slices.Clone(r.tasks)
			tasks[i] = created
			r.tasks = tasks
			r.notifyLocked()
		}
	}
	return created, nil
}

// Toggle flips completion locally and asks the store to persist the new value.
func (r *Reconciler) Toggle(ctx context.Context, taskID string) (model.Task, error) {
	r.mu.Lock()
	userID, i, err := r.lookupLocked(taskID)
	if err != nil {
		r.mu.Unlock()
		return model.Task{}, fmt.Errorf("toggle task %s: %w", taskID, err)
	}
	tasks := slices.Clone(r.tasks)
	tasks[i].IsCompleted = !tasks[i].IsCompleted
	toggled := tasks[i]
	r.tasks = tasks
	r.notifyLocked()
	r.mu.Unlock()

	err = r.exec.Do(ctx, "toggle", func(ctx context.Context) error {
		return r.store.SetCompleted(ctx, userID, taskID, toggled.IsCompleted)
	})
	if err != nil {
		r.logger.Error("toggle failed", zap.String("user_id", userID), zap.String("task_id", taskID), zap.Error(err))
		return model.Task{}, &MutationError{Op: "toggle", TaskID: taskID, Err: err}
	}
	return toggled, nil
}

// Delete removes the task locally; if the store rejects it the task comes back
// only with the next snapshot.
func (r *Reconciler) Delete(ctx context.Context, taskID string) error {
	r.mu.Lock()
	userID, i, err := r.lookupLocked(taskID)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	r.tasks = slices.Delete(slices.Clone(r.tasks), i, i+1)
	r.notifyLocked()
	r.mu.Unlock()

	err = r.exec.Do(ctx, "delete", func(ctx context.Context) error {
		return r.store.Delete(ctx, userID, taskID)
	})
	if err != nil {
		r.logger.Error("delete failed", zap.String("user_id", userID), zap.String("task_id", taskID), zap.Error(err))
		return &MutationError{Op: "delete", TaskID: taskID, Err: err}
	}
	return nil
}

func (r *Reconciler) lookupLocked(taskID string) (string, int, error) {
	if r.state == Unauthenticated {
		return "", -1, ErrNoSession
	}
	if strings.HasPrefix(taskID, LocalIDPrefix) {
		return "", -1, ErrPendingTask
	}
	i := r.indexLocked(taskID)
	if i < 0 {
		return "", -1, repo.ErrorNotFound
	}
	return r.userID, i, nil
}

func (r *Reconciler) indexLocked(taskID string) int {
	return slices.IndexFunc(r.tasks, func(t model.Task) bool { return t.ID == taskID })
}

// Tasks returns a copy of the current collection.
func (r *Reconciler) Tasks() []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tasks)
}

func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{State: r.state, UserID: r.userID, Err: r.err}
}

// DismissError clears the reported subscription error; the state stays Error until Resync.
func (r *Reconciler) DismissError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		r.err = nil
		r.notifyLocked()
	}
}

// Changed is closed on the next change of state or collection.
func (r *Reconciler) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Wait blocks until the first snapshot is applied or the subscription fails.
func (r *Reconciler) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		state, err, changed := r.state, r.err, r.changed
		r.mu.Unlock()

		switch state {
		case Unauthenticated:
			return ErrNoSession
		case Live:
			return nil
		case Error:
			if err == nil {
				return ErrSubscription
			}
			return err
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
