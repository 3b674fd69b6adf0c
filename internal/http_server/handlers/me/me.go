package me

import (
	"log/slog"
	"net/http"

	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/lib/api/view"
	"task_manager/internal/middleware/bearer"

	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	view.User
}

// New serves the profile of the caller resolved by the bearer middleware.
func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := bearer.UserFromContext(r.Context())
		if !ok {
			log.Error("user missing from context", slog.String("op", "handlers.me.New"))
			bearer.Unauthorized(w, r)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     view.NewUser(user),
		})
	}
}
