package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/clock"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/reconcile"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/internal/worker"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router http.Handler
	store  *repo.SQLiteTaskRepo
}

func setupHandler(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	store, err := repo.NewSQLiteTaskRepo(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pool := worker.NewPool(logger, 2)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	clk := clock.NewManual(now)
	rec := reconcile.New(store, pool, clk, logger)
	t.Cleanup(rec.End)

	h := NewTaskHandler(service.NewTaskService(rec, clk, logger), logger)
	r := chi.NewRouter()
	h.Register(r)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, userID string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/session?wait=true", sessionRequest{UserID: userID})
	require.Equal(t, http.StatusAccepted, w.Code)

	var st syncStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	require.Equal(t, "live", st.State)
}

func (e *testEnv) view(t *testing.T) model.View {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var v model.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func (e *testEnv) create(t *testing.T, f model.TaskFields) model.Task {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/tasks", f)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
	return task
}

func viewIDs(v model.View) []string {
	out := make([]string, len(v.Tasks))
	for i, rt := range v.Tasks {
		out[i] = rt.ID
	}
	return out
}

func TestTaskHandler_Session(t *testing.T) {
	e := setupHandler(t)

	w := e.do(t, http.MethodGet, "/api/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"unauthenticated"}`, w.Body.String())

	e.login(t, "alice")

	w = e.do(t, http.MethodGet, "/api/sync", nil)
	assert.JSONEq(t, `{"state":"live","user_id":"alice"}`, w.Body.String())

	w = e.do(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/api/sync", nil)
	assert.JSONEq(t, `{"state":"unauthenticated"}`, w.Body.String())
	assert.Empty(t, e.view(t).Tasks)
}

func TestTaskHandler_StartSessionBadRequest(t *testing.T) {
	e := setupHandler(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty body", body: nil},
		{name: "blank user", body: sessionRequest{UserID: "  "}},
		{name: "unknown field", body: map[string]string{"user": "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/session", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTaskHandler_Create(t *testing.T) {
	e := setupHandler(t)
	e.login(t, "alice")

	tests := []struct {
		name          string
		body          interface{}
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful creation",
			body: model.TaskFields{
				Title:    "  Write report  ",
				Deadline: now.Add(3 * time.Hour),
				Priority: model.PriorityHigh,
			},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task model.Task
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.NotEmpty(t, task.ID)
				assert.False(t, strings.HasPrefix(task.ID, reconcile.LocalIDPrefix))
				assert.Equal(t, "Write report", task.Title)
				assert.Equal(t, "/api/tasks/"+task.ID, w.Header().Get("Location"))
			},
		},
		{
			name:     "empty body",
			body:     nil,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - empty title",
			body:     model.TaskFields{Title: "", Deadline: now.Add(time.Hour), Priority: model.PriorityLow},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - deadline in the past",
			body:     model.TaskFields{Title: "Late", Deadline: now.Add(-time.Hour), Priority: model.PriorityLow},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error - bad priority",
			body:     model.TaskFields{Title: "Odd", Deadline: now.Add(time.Hour), Priority: "CRITICAL"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestTaskHandler_NoSession(t *testing.T) {
	e := setupHandler(t)

	w := e.do(t, http.MethodPost, "/api/tasks", model.TaskFields{Title: "x", Deadline: now.Add(time.Hour), Priority: model.PriorityLow})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/tasks/abc/toggle", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/sync/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTaskHandler_ListIsRanked(t *testing.T) {
	e := setupHandler(t)
	e.login(t, "alice")

	later := e.create(t, model.TaskFields{Title: "Later", Deadline: now.Add(72 * time.Hour), Priority: model.PriorityLow})
	soon := e.create(t, model.TaskFields{Title: "Soon", Deadline: now.Add(30 * time.Minute), Priority: model.PriorityLow})
	today := e.create(t, model.TaskFields{Title: "Today", Deadline: now.Add(4 * time.Hour), Priority: model.PriorityMedium})

	var v model.View
	require.Eventually(t, func() bool {
		v = e.view(t)
		return len(v.Tasks) == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, model.FocusAll, v.Focus)
	assert.Equal(t, []string{soon.ID, today.ID, later.ID}, viewIDs(v))

	assert.Equal(t, "Due in less than 1 hour", v.Tasks[0].Label)
	assert.Equal(t, model.TierUrgent, v.Tasks[0].Tier)
	assert.Equal(t, "Due in 4 hours", v.Tasks[1].Label)
	assert.Equal(t, "Due in 3 days", v.Tasks[2].Label)
	assert.Equal(t, model.TierNormal, v.Tasks[2].Tier)
	assert.Equal(t, model.ProductivityStats{PendingTasks: 3}, v.Stats)
}

func TestTaskHandler_ToggleAndDelete(t *testing.T) {
	e := setupHandler(t)
	e.login(t, "alice")

	task := e.create(t, model.TaskFields{Title: "Laundry", Deadline: now.Add(5 * time.Hour), Priority: model.PriorityMedium})

	w := e.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var toggled model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&toggled))
	assert.True(t, toggled.IsCompleted)

	require.Eventually(t, func() bool {
		v := e.view(t)
		return len(v.Tasks) == 1 && v.Tasks[0].IsCompleted
	}, 2*time.Second, 10*time.Millisecond)

	w = e.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.ProductivityStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Zero(t, stats.PendingTasks)

	w = e.do(t, http.MethodPost, "/api/tasks/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/tasks/"+reconcile.LocalIDPrefix+"123/toggle", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Eventually(t, func() bool { return len(e.view(t).Tasks) == 0 }, 2*time.Second, 10*time.Millisecond)

	w = e.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_Focus(t *testing.T) {
	e := setupHandler(t)
	e.login(t, "alice")

	high := e.create(t, model.TaskFields{Title: "Boss", Deadline: now.Add(48 * time.Hour), Priority: model.PriorityHigh})
	today := e.create(t, model.TaskFields{Title: "Gym", Deadline: now.Add(2 * time.Hour), Priority: model.PriorityLow})
	require.Eventually(t, func() bool { return len(e.view(t).Tasks) == 2 }, 2*time.Second, 10*time.Millisecond)

	w := e.do(t, http.MethodGet, "/api/focus", nil)
	assert.JSONEq(t, `{"mode":"ALL"}`, w.Body.String())

	tests := []struct {
		name     string
		mode     model.FocusMode
		wantCode int
		wantIDs  []string
	}{
		{name: "today", mode: model.FocusToday, wantCode: http.StatusOK, wantIDs: []string{today.ID}},
		{name: "high priority", mode: model.FocusHighPriority, wantCode: http.StatusOK, wantIDs: []string{high.ID}},
		{name: "all", mode: model.FocusAll, wantCode: http.StatusOK, wantIDs: []string{today.ID, high.ID}},
		{name: "unknown mode", mode: "SOMEDAY", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPut, "/api/focus", focusBody{Mode: tt.mode})
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantIDs == nil {
				return
			}

			v := e.view(t)
			assert.Equal(t, tt.mode, v.Focus)
			assert.Equal(t, tt.wantIDs, viewIDs(v))
			assert.Equal(t, 2, v.Stats.PendingTasks)
		})
	}
}

func TestTaskHandler_StoreFailure(t *testing.T) {
	e := setupHandler(t)
	e.login(t, "alice")

	require.NoError(t, e.store.Close())

	w := e.do(t, http.MethodPost, "/api/tasks", model.TaskFields{Title: "Lost", Deadline: now.Add(time.Hour), Priority: model.PriorityLow})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// оптимистичная вставка остается до следующего снимка
	v := e.view(t)
	require.Len(t, v.Tasks, 1)
	assert.True(t, strings.HasPrefix(v.Tasks[0].ID, reconcile.LocalIDPrefix))
}
