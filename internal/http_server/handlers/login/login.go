package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"task_manager/internal/auth"
	resp "task_manager/internal/lib/api/response"
	sl "task_manager/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Request is sent as an OAuth2 style password form. Username carries the e-mail.
type Request struct {
	Username string `form:"username" json:"username" validate:"required"`
	Pass     string `form:"password" json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		// Form bodies go through ajg/form, JSON bodies are accepted as well.
		if err := render.Decode(r, &req); err != nil {
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

		pair, err := authenticator.Login(r.Context(), req.Username, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error(resp.DetailInvalidCredentials))

				return
			}

			log.Error("failed to login user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.DetailInternal))

			return
		}

		log.Info("User logged in successfully")

		ResponseOK(w, r, pair)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, pair auth.TokenPair) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		Access:    pair.Access,
		Refresh:   pair.Refresh,
		TokenType: "bearer",
	})
}
