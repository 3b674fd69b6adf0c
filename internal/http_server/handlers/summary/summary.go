package summary

import (
	"context"
	"log/slog"
	"net/http"

	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/lib/api/view"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/middleware/bearer"
	"task_manager/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Summarizer interface {
	Summary(ctx context.Context, userID int64) (models.Summary, error)
}

func New(log *slog.Logger, summarizer Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.summary.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, ok := bearer.UserFromContext(r.Context())
		if !ok {
			bearer.Unauthorized(w, r)
			return
		}

		sum, err := summarizer.Summary(r.Context(), user.ID)
		if err != nil {
			log.Error("failed to compute summary", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.DetailInternal))

			return
		}

		render.JSON(w, r, view.NewSummary(sum))
	}
}
