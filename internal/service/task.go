package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/clock"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/ranking"
	"github.com/BuzzLyutic/task-tracker/internal/reconcile"
)

var (
	ErrValidation = errors.New("validation error")
)

const maxTitleLength = 100

// Engine - то, что сервису нужно от синхронизатора; *reconcile.Reconciler его реализует
type Engine interface {
	Start(ctx context.Context, userID string) error
	End()
	Resync(ctx context.Context) error
	DismissError()
	Wait(ctx context.Context) error
	Status() reconcile.Status
	Tasks() []model.Task
	Add(ctx context.Context, f model.TaskFields) (model.Task, error)
	Toggle(ctx context.Context, taskID string) (model.Task, error)
	Delete(ctx context.Context, taskID string) error
}

type TaskService struct {
	engine Engine
	clock  clock.Clock
	logger *zap.Logger

	mu    sync.RWMutex
	focus model.FocusMode
}

func NewTaskService(engine Engine, clk clock.Clock, logger *zap.Logger) *TaskService {
	return &TaskService{
		engine: engine,
		clock:  clk,
		logger: logger,
		focus:  model.FocusAll,
	}
}

// StartSession открывает сессию пользователя; режим фокуса сбрасывается на ALL
func (s *TaskService) StartSession(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}

	if s.engine.Status().UserID != userID {
		s.setFocus(model.FocusAll)
	}
	return s.engine.Start(ctx, userID)
}

func (s *TaskService) EndSession() {
	s.engine.End()
	s.setFocus(model.FocusAll)
}

func (s *TaskService) Resync(ctx context.Context) error {
	return s.engine.Resync(ctx)
}

func (s *TaskService) DismissError() {
	s.engine.DismissError()
}

func (s *TaskService) Wait(ctx context.Context) error {
	return s.engine.Wait(ctx)
}

func (s *TaskService) Status() reconcile.Status {
	return s.engine.Status()
}

func (s *TaskService) Create(ctx context.Context, f model.TaskFields) (model.Task, error) {
	f, err := s.validate(f) // Проверка полей формы до оптимистичной вставки
	if err != nil {
		return model.Task{}, err
	}
	return s.engine.Add(ctx, f)
}

func (s *TaskService) Toggle(ctx context.Context, taskID string) (model.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return model.Task{}, fmt.Errorf("%w: task id is required", ErrValidation)
	}
	return s.engine.Toggle(ctx, taskID)
}

func (s *TaskService) Delete(ctx context.Context, taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return fmt.Errorf("%w: task id is required", ErrValidation)
	}
	return s.engine.Delete(ctx, taskID)
}

func (s *TaskService) SetFocusMode(mode model.FocusMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown focus mode %q", ErrValidation, mode)
	}
	s.setFocus(mode)
	s.logger.Debug("focus mode changed", zap.String("mode", string(mode)))
	return nil
}

func (s *TaskService) FocusMode() model.FocusMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus
}

// View пересчитывается на каждый вызов: коллекция, фокус и часы берутся текущие
func (s *TaskService) View() model.View {
	return ranking.Select(s.engine.Tasks(), s.FocusMode(), s.clock.Now())
}

func (s *TaskService) Stats() model.ProductivityStats {
	return ranking.Stats(s.engine.Tasks(), s.clock.Now())
}

func (s *TaskService) setFocus(mode model.FocusMode) {
	s.mu.Lock()
	s.focus = mode
	s.mu.Unlock()
}

func (s *TaskService) validate(f model.TaskFields) (model.TaskFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)

	if f.Title == "" {
		return f, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(f.Title) > maxTitleLength {
		return f, fmt.Errorf("%w: title is longer than %d characters", ErrValidation, maxTitleLength)
	}
	if !f.Priority.Valid() {
		return f, fmt.Errorf("%w: unknown priority %q", ErrValidation, f.Priority)
	}
	if f.Deadline.IsZero() {
		return f, fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	if f.Deadline.Before(s.clock.Now()) {
		return f, fmt.Errorf("%w: deadline is in the past", ErrValidation)
	}
	return f, nil
}
