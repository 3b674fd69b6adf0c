package bearer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"task_manager/internal/auth"
	resp "task_manager/internal/lib/api/response"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// New rejects requests without a valid "Authorization: Bearer" token and puts
// the resolved user into the request context.
func New(log *slog.Logger, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.bearer"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := tokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("missing bearer token")
				Unauthorized(w, r)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					Unauthorized(w, r)
					return
				}

				log.Error("failed to resolve user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error(resp.DetailInternal))

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error(resp.DetailUnauthorized))
}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}

func tokenFromHeader(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
