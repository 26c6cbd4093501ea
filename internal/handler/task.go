package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/reconcile"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

type sessionRequest struct {
	UserID string `json:"user_id"`
}

type focusBody struct {
	Mode model.FocusMode `json:"mode"`
}

type syncStatus struct {
	State  string `json:"state"`
	UserID string `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Register вешает маршруты API на роутер
func (h *TaskHandler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.StartSession)
		r.Delete("/session", h.EndSession)

		r.Get("/sync", h.SyncStatus)
		r.Delete("/sync/error", h.DismissError)
		r.Post("/sync/retry", h.Retry)

		r.Get("/tasks", h.List)
		r.Post("/tasks", h.Create)
		r.Post("/tasks/{id}/toggle", h.Toggle)
		r.Delete("/tasks/{id}", h.Delete)

		r.Get("/focus", h.GetFocus)
		r.Put("/focus", h.SetFocus)

		r.Get("/stats", h.Stats)
	})
}

// StartSession открывает сессию; с ?wait=true отвечает после первого снимка или ошибки подписки
func (h *TaskHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.StartSession(r.Context(), req.UserID); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		if err := h.service.Wait(r.Context()); err != nil {
			h.logger.Debug("session is not live", zap.Error(err))
		}
	}

	respond.JSON(w, r, http.StatusAccepted, h.status())
}

func (h *TaskHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.service.EndSession()
	respond.NoContent(w, r)
}

func (h *TaskHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.status())
}

func (h *TaskHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.service.DismissError()
	respond.NoContent(w, r)
}

func (h *TaskHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Resync(r.Context()); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusAccepted, h.status())
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.View())
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TaskFields
	if err := respond.Decode(r, &req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *TaskHandler) GetFocus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, focusBody{Mode: h.service.FocusMode()})
}

func (h *TaskHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req focusBody
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetFocusMode(req.Mode); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, focusBody{Mode: h.service.FocusMode()})
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Stats())
}

func (h *TaskHandler) status() syncStatus {
	st := h.service.Status()
	out := syncStatus{State: st.State.String(), UserID: st.UserID}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	return out
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, reconcile.ErrNoSession):
		respond.Error(w, r, http.StatusConflict, "no active session")
	case errors.Is(err, reconcile.ErrPendingTask), errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, reconcile.ErrMutation):
		h.logger.Warn("mutation rejected by store", zap.Error(err))
		respond.Error(w, r, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
