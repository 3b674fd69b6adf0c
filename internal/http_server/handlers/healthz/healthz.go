package healthz

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

type Response struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func New(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{
			Status: "ok",
			Time:   now().UTC().Format(time.RFC3339),
		})
	}
}
