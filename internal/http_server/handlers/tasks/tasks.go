package tasks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/lib/api/view"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/middleware/bearer"
	"task_manager/internal/models"
	tasksvc "task_manager/internal/tasks"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type TaskService interface {
	Create(ctx context.Context, userID int64, in models.TaskInput) (models.Task, error)
	Get(ctx context.Context, userID, taskID int64) (models.Task, error)
	Update(ctx context.Context, userID, taskID int64, p models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
	List(ctx context.Context, userID int64, f models.TaskFilter) (models.TaskPage, error)
}

func Create(log *slog.Logger, validate *validator.Validate, svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.Create"

		log := requestLogger(log, r, op)

		user, ok := bearer.UserFromContext(r.Context())
		if !ok {
			bearer.Unauthorized(w, r)
			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Info("Failed to decode request body", sl.Err(err))
			badRequest(w, r)
			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		t, err := svc.Create(r.Context(), user.ID, req.input())
		if err != nil {
			internalError(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, view.NewTask(t))
	}
}

func Get(log *slog.Logger, svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.Get"

		log := requestLogger(log, r, op)

		user, id, ok := caller(w, r)
		if !ok {
			return
		}

		t, err := svc.Get(r.Context(), user.ID, id)
		if err != nil {
			serviceError(w, r, log, err)
			return
		}

		render.JSON(w, r, view.NewTask(t))
	}
}

func List(log *slog.Logger, validate *validator.Validate, svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.List"

		log := requestLogger(log, r, op)

		user, ok := bearer.UserFromContext(r.Context())
		if !ok {
			bearer.Unauthorized(w, r)
			return
		}

		q, err := decodeListQuery(r)
		if err != nil {
			log.Info("Failed to decode query", sl.Err(err))
			badRequest(w, r)
			return
		}

		if err := validate.Struct(q); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("Invalid query", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		page, err := svc.List(r.Context(), user.ID, q.filter())
		if err != nil {
			internalError(w, r, log, err)
			return
		}

		render.JSON(w, r, view.NewTaskPage(page))
	}
}

func Update(log *slog.Logger, validate *validator.Validate, svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.Update"

		log := requestLogger(log, r, op)

		user, id, ok := caller(w, r)
		if !ok {
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Info("Failed to decode request body", sl.Err(err))
			badRequest(w, r)
			return
		}

		patch, fieldErrs := req.patch(validate)
		if len(fieldErrs) > 0 {
			log.Info("Invalid request", slog.Int("fields", len(fieldErrs)))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.FieldErrors(fieldErrs))

			return
		}

		t, err := svc.Update(r.Context(), user.ID, id, patch)
		if err != nil {
			serviceError(w, r, log, err)
			return
		}

		render.JSON(w, r, view.NewTask(t))
	}
}

func Delete(log *slog.Logger, svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.Delete"

		log := requestLogger(log, r, op)

		user, id, ok := caller(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), user.ID, id); err != nil {
			serviceError(w, r, log, err)
			return
		}

		render.NoContent(w, r)
	}
}

func requestLogger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// caller resolves the authenticated user and the {id} path parameter,
// writing the error response itself when either is missing.
func caller(w http.ResponseWriter, r *http.Request) (models.User, int64, bool) {
	user, ok := bearer.UserFromContext(r.Context())
	if !ok {
		bearer.Unauthorized(w, r)
		return models.User{}, 0, false
	}

	id, ok := taskID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.FieldErrors(map[string]string{
			"id": "field id must be a positive integer",
		}))
		return models.User{}, 0, false
	}

	return user, id, true
}

func serviceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, tasksvc.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(resp.DetailTaskNotFound))
		return
	}

	internalError(w, r, log, err)
}

func internalError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("request failed", sl.Err(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, resp.Error(resp.DetailInternal))
}

func badRequest(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, resp.Error(resp.DetailBadRequest))
}
