package http

import (
	"fmt"
	"net/http"

	"github.com/atinyakov/GophNotes/internal/apperr"
	"github.com/atinyakov/GophNotes/internal/metrics"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps holds everything NewRouter wires together.
type RouterDeps struct {
	Auth     *AuthHandler
	Notes    *NoteHandler
	Verifier middleware.TokenVerifier
	Respond  *Responder
	Metrics  *metrics.Metrics
	// CORSOrigin is the single browser origin allowed to call the API.
	CORSOrigin string
	Logger     *zap.Logger
}

// NewRouter constructs the HTTP handler of the notes API.
//
// Routes:
//
//	GET    /health             → Health
//	GET    /metrics            → Prometheus exposition
//	POST   /api/auth/signup    → Auth.Signup
//	POST   /api/auth/login     → Auth.Login
//	GET    /api/auth/profile   → Auth.Profile   (bearer token)
//	GET    /api/notes          → Notes.List     (bearer token)
//	POST   /api/notes          → Notes.Create   (bearer token)
//	GET    /api/notes/{id}     → Notes.Get      (bearer token)
//	PUT    /api/notes/{id}     → Notes.Update   (bearer token)
//	DELETE /api/notes/{id}     → Notes.Delete   (bearer token)
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.WithRequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(log))
	if d.Metrics != nil {
		r.Use(middleware.WithMetrics(d.Metrics))
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		d.Respond.Error(w, req, apperr.NotFound(fmt.Sprintf("Cannot find %s on this server", req.URL.Path)))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Status:  "error",
			Message: fmt.Sprintf("Method %s not allowed on %s", req.Method, req.URL.Path),
		})
	})

	r.Get("/health", Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	guard := middleware.BearerAuth(d.Verifier, d.Respond.Error)

	// Bodies must be JSON; bodiless requests pass. On guarded routes the
	// token is checked first.
	jsonOnly := chiMiddleware.AllowContentType("application/json")

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(jsonOnly).Post("/signup", d.Auth.Signup)
			r.With(jsonOnly).Post("/login", d.Auth.Login)
			r.With(guard).Get("/profile", d.Auth.Profile)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(guard)
			r.Use(jsonOnly)
			r.Get("/", d.Notes.List)
			r.Post("/", d.Notes.Create)
			r.Get("/{id}", d.Notes.Get)
			r.Put("/{id}", d.Notes.Update)
			r.Delete("/{id}", d.Notes.Delete)
		})
	})

	return r
}
