package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/federation-registry/docs" // регистрирует swagger-спецификацию
	"github.com/Dosada05/federation-registry/handlers"
	"github.com/Dosada05/federation-registry/middleware"
	"github.com/Dosada05/federation-registry/models"
)

const requestTimeout = 30 * time.Second

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handlers groups the HTTP handlers. Events may be nil when Redis is not configured.
type Handlers struct {
	Registrations *handlers.RegistrationHandler
	Results       *handlers.ResultsHandler
	WebSocket     *handlers.WebSocketHandler
	Events        *handlers.EventsHandler
}

func SetupRoutes(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	reviewersOnly := middleware.Authorize(models.RoleAdmin, models.RoleEditor)

	// WebSocket живёт вне таймаута: соединение долгое.
	router.With(authenticate).Get("/ws/categories/{categoryID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Route("/registrations", func(r chi.Router) {
			r.Post("/", h.Registrations.Create)
			r.Get("/", h.Registrations.List)

			r.Route("/{registrationID}", func(r chi.Router) {
				r.Get("/", h.Registrations.Get)
				r.Patch("/roster", h.Registrations.EditRoster)
				r.Post("/withdraw", h.Registrations.Withdraw)
				r.Get("/history", h.Registrations.History)
				if h.Registrations.ExportEnabled() {
					r.Post("/export", h.Registrations.Export)
				}

				r.Group(func(r chi.Router) {
					r.Use(reviewersOnly)
					r.Post("/approve", h.Registrations.Approve)
					r.Post("/reject", h.Registrations.Reject)
				})
			})
		})

		r.Route("/categories/{categoryID}", func(r chi.Router) {
			r.Get("/results", h.Results.List)
			r.With(reviewersOnly).Put("/results", h.Results.Submit)
			if h.Events != nil {
				r.Get("/events", h.Events.Recent)
			}
		})

		r.Get("/standings", h.Results.Standings)
	})

	return router
}
