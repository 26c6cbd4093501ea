package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// канал, в который пишет триггер tasks_changed (payload = user_id)
const changesChannel = "tasks_changed"

type TaskRepo struct { // Репозиторий поверх Postgres
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepo(pool *pgxpool.Pool, logger *zap.Logger) *TaskRepo {
	return &TaskRepo{
		pool:   pool,
		logger: logger,
	}
}

func (r *TaskRepo) Create(ctx context.Context, userID string, f model.TaskFields) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, user_id, title, description, deadline, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, description, created_at, deadline, priority, is_completed
	`, uuid.NewString(), userID, f.Title, f.Description, f.Deadline, string(f.Priority)).Scan(
		&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.Deadline, &t.Priority, &t.IsCompleted,
	)
	return t, r.mapError(err)
}

func (r *TaskRepo) SetCompleted(ctx context.Context, userID, taskID string, completed bool) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks SET is_completed = $3 WHERE user_id = $1 AND id = $2
	`, userID, taskID, completed)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, userID, taskID string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE user_id = $1 AND id = $2", userID, taskID)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// Subscribe держит отдельное соединение с LISTEN и перечитывает список
// задач на каждое уведомление для этого пользователя.
func (r *TaskRepo) Subscribe(ctx context.Context, userID string) (<-chan model.Snapshot, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changesChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", changesChannel, err)
	}

	out := make(chan model.Snapshot, 1)
	go func() {
		defer close(out)
		defer func() {
			if !conn.Conn().IsClosed() {
				unlistenCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				conn.Exec(unlistenCtx, "UNLISTEN *")
				cancel()
			}
			conn.Release()
		}()

		for {
			tasks, err := listTasks(ctx, conn.Conn(), userID)
			if err != nil {
				if ctx.Err() == nil {
					deliver(ctx, out, model.Snapshot{Err: err})
				}
				return
			}
			if !deliver(ctx, out, model.Snapshot{Tasks: tasks}) {
				return
			}

			if err := waitForUser(ctx, conn.Conn(), userID); err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("listener failed", zap.String("user_id", userID), zap.Error(err))
					deliver(ctx, out, model.Snapshot{Err: err})
				}
				return
			}
		}
	}()

	return out, nil
}

func waitForUser(ctx context.Context, conn *pgx.Conn, userID string) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload == userID {
			return nil
		}
	}
}

func listTasks(ctx context.Context, conn *pgx.Conn, userID string) ([]model.Task, error) {
	rows, err := conn.Query(ctx, `
		SELECT id, title, description, created_at, deadline, priority, is_completed
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.Deadline, &t.Priority, &t.IsCompleted); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
