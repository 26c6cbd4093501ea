package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	user_id      TEXT     NOT NULL,
	title        TEXT     NOT NULL,
	description  TEXT     NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	deadline     DATETIME NOT NULL,
	priority     TEXT     NOT NULL CHECK (priority IN ('LOW', 'MEDIUM', 'HIGH')),
	is_completed BOOLEAN  NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);
`

// SQLiteTaskRepo - встроенное хранилище. Изменения видны только внутри
// процесса, поэтому подписчиков будим сами после каждой записи.
type SQLiteTaskRepo struct {
	db     *sqlx.DB
	logger *zap.Logger

	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{} // user_id -> сигналы подписчиков
}

func NewSQLiteTaskRepo(path string, logger *zap.Logger) (*SQLiteTaskRepo, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// одно соединение: ":memory:" живет в рамках соединения, а писатель у sqlite все равно один
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteTaskRepo{
		db:     db,
		logger: logger,
		subs:   make(map[string]map[chan struct{}]struct{}),
	}, nil
}

func (r *SQLiteTaskRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, userID string, f model.TaskFields) (model.Task, error) {
	t := model.Task{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		CreatedAt:   time.Now().UTC(),
		Deadline:    f.Deadline.UTC(),
		Priority:    f.Priority,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, created_at, deadline, priority, is_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, userID, t.Title, t.Description, t.CreatedAt, t.Deadline, string(t.Priority), t.IsCompleted)
	if err != nil {
		return model.Task{}, fmt.Errorf("inserting task: %w", err)
	}

	r.notify(userID)
	return t, nil
}

func (r *SQLiteTaskRepo) SetCompleted(ctx context.Context, userID, taskID string, completed bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET is_completed = ? WHERE user_id = ? AND id = ?", completed, userID, taskID)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}

	r.notify(userID)
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, userID, taskID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ? AND id = ?", userID, taskID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}

	r.notify(userID)
	return nil
}

func (r *SQLiteTaskRepo) Subscribe(ctx context.Context, userID string) (<-chan model.Snapshot, error) {
	signal := make(chan struct{}, 1)
	signal <- struct{}{} // первый снимок сразу

	r.mu.Lock()
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[chan struct{}]struct{})
	}
	r.subs[userID][signal] = struct{}{}
	r.mu.Unlock()

	out := make(chan model.Snapshot, 1)
	go func() {
		defer close(out)
		defer r.unsubscribe(userID, signal)

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}

			tasks, err := r.list(ctx, userID)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("sqlite snapshot failed", zap.String("user_id", userID), zap.Error(err))
					deliver(ctx, out, model.Snapshot{Err: err})
				}
				return
			}
			if !deliver(ctx, out, model.Snapshot{Tasks: tasks}) {
				return
			}
		}
	}()

	return out, nil
}

func (r *SQLiteTaskRepo) list(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT id, title, description, created_at, deadline, priority, is_completed
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// notify будит подписчиков; несколько изменений подряд схлопываются в один снимок
func (r *SQLiteTaskRepo) notify(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for signal := range r.subs[userID] {
		select {
		case signal <- struct{}{}:
		default:
		}
	}
}

func (r *SQLiteTaskRepo) unsubscribe(userID string, signal chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subs[userID], signal)
	if len(r.subs[userID]) == 0 {
		delete(r.subs, userID)
	}
}
