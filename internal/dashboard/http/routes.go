package dashhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard/overview", h.handleOverview)
	r.Get("/dashboard/dealers/{id}", h.handleDealer)
	r.Get("/dashboard/reps/{id}", h.handleRep)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard/export/monthly.csv", h.handleMonthlyCSV)
		gr.Get("/dashboard/export/dealers.csv", h.handleDealersCSV)
		gr.Get("/dashboard/export/reps.csv", h.handleRepsCSV)
	})
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
