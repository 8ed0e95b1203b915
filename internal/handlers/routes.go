package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	custommiddleware "github.com/ngenohkevin/racetime_clock/internal/middleware"
)

// NewRouter sets up the router, its middleware and every route
func NewRouter(h *Handler, sessionManager *scs.SessionManager, resolver *localize.Resolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Custom method override middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "POST" {
				if method := r.PostFormValue("_method"); method != "" {
					r.Method = method
				}
			}
			next.ServeHTTP(w, r)
		})
	})

	// Serve static files
	fs := http.FileServer(http.Dir(h.Config.StaticDir))
	r.Handle("/static/*", http.StripPrefix("/static", fs))

	// The event stream stays outside the session middleware, which would
	// otherwise hold the response until the handler returns
	r.Get("/timers/stream", h.StreamTimers)

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(custommiddleware.Locale(sessionManager, resolver))

		r.Get("/", h.Home)
		r.Post("/render", h.Render)
		r.Post("/locale", h.SetLocale)

		// Timers routes
		r.Route("/timers", func(r chi.Router) {
			r.Post("/", h.CreateTimer)
			r.Get("/{id}", h.GetTimer)
			r.Delete("/{id}", h.DeleteTimer)
		})
	})

	return r
}
