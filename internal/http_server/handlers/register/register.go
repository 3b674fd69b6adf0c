package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"task_manager/internal/auth"
	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/lib/api/view"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string  `json:"email" validate:"required,email,max=320"`
	Pass     string  `json:"password" validate:"required,min=6,max=128,maxbytes=72"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type Response struct {
	resp.Response
	view.User
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type UserRegistrar interface {
	RegisterNewUser(ctx context.Context, email, password string, fullName *string) (models.User, auth.TokenPair, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar UserRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, pair, err := registrar.RegisterNewUser(ctx, req.Email, req.Pass, req.FullName)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error(resp.DetailEmailTaken))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.DetailInternal))

			return
		}

		log.Info("User registered", slog.Int64("id", user.ID))

		ResponseCreated(w, r, user, pair)
	}
}

func ResponseCreated(w http.ResponseWriter, r *http.Request, user models.User, pair auth.TokenPair) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response: resp.OK(),
		User:     view.NewUser(user),
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}
