package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"task_manager/internal/auth"
	resp "task_manager/internal/lib/api/response"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/middleware/bearer"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

type Response struct {
	resp.Response
	Access string `json:"access"`
}

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	refresher Refresher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(resp.DetailBadRequest))

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

		access, err := refresher.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				bearer.Unauthorized(w, r)

				return
			}

			log.Error("failed to refresh token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.DetailInternal))

			return
		}

		log.Info("Access token refreshed")

		ResponseOK(w, r, access)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, access string) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Access:   access,
	})
}
