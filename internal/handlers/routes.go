package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Route is one entry in the HTTP route table
type Route struct {
	Method      string
	Path        string
	Summary     string
	Auth        bool
	RateLimited bool
	Handler     http.HandlerFunc
}

// Handlers groups everything the router dispatches to
type Handlers struct {
	Auth        *AuthHandler
	Children    *ChildHandler
	Predictions *PredictionHandler
	Diagnostics *DiagnosticsHandler
	Middleware  *Middleware
}

// Routes returns the API route table. Auth marks routes whose handlers
// require a principal; the gate itself never rejects.
func Routes(h Handlers) []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/auth/register", Summary: "Create an account", RateLimited: true, Handler: h.Auth.Register},
		{Method: http.MethodPost, Path: "/api/auth/login", Summary: "Sign in with email and password", RateLimited: true, Handler: h.Auth.Login},
		{Method: http.MethodGet, Path: "/api/auth/me", Summary: "Current user and profile", Auth: true, Handler: h.Auth.Me},
		{Method: http.MethodPut, Path: "/api/auth/me/{id}", Summary: "Update own email, password or name", Auth: true, Handler: h.Auth.UpdateMe},

		{Method: http.MethodPost, Path: "/api/children", Summary: "Create a child profile", Auth: true, Handler: h.Children.Create},
		{Method: http.MethodGet, Path: "/api/children", Summary: "List child profiles", Auth: true, Handler: h.Children.List},
		{Method: http.MethodGet, Path: "/api/children/{id}", Summary: "Get a child profile", Auth: true, Handler: h.Children.Get},
		{Method: http.MethodPut, Path: "/api/children/{id}", Summary: "Update a child profile", Auth: true, Handler: h.Children.Update},
		{Method: http.MethodDelete, Path: "/api/children/{id}", Summary: "Delete a child profile", Auth: true, Handler: h.Children.Delete},

		{Method: http.MethodPost, Path: "/api/predict", Summary: "Run a prediction without saving it", Handler: h.Predictions.Predict},
		{Method: http.MethodPost, Path: "/api/predictions", Summary: "Run and save a prediction", Auth: true, Handler: h.Predictions.Create},
		{Method: http.MethodGet, Path: "/api/predictions", Summary: "Prediction history", Auth: true, Handler: h.Predictions.List},
		{Method: http.MethodGet, Path: "/api/predictions/{id}", Summary: "Get a prediction", Auth: true, Handler: h.Predictions.Get},
		{Method: http.MethodDelete, Path: "/api/predictions/{id}", Summary: "Delete a prediction", Auth: true, Handler: h.Predictions.Delete},

		{Method: http.MethodGet, Path: "/api/check-flask", Summary: "Model check page", Handler: h.Diagnostics.CheckPage},
		{Method: http.MethodGet, Path: "/api/checking-flask", Summary: "Probe the prediction model", Handler: h.Diagnostics.CheckModel},
	}
}

// RouterConfig holds router-wide settings
type RouterConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// NewRouter assembles the chi router from the route table
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(Logging)
	r.Use(Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(LimitBody(cfg.MaxBodyBytes))
	r.Use(h.Middleware.Authenticate)

	routes := Routes(h)
	for _, route := range routes {
		handler := route.Handler
		if route.RateLimited {
			handler = h.Middleware.RateLimit(handler)
		}
		r.Method(route.Method, route.Path, handler)
	}
	r.Get("/", h.Diagnostics.Index(routes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	})

	return r
}
